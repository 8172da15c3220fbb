package forms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/formflow/backend/internal/domain/shared"
	"github.com/formflow/backend/internal/infrastructure/docgen"
	"github.com/formflow/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// pipelineTimeout bounds one full conversion-plus-distribution run
const pipelineTimeout = 5 * time.Minute

// Converter turns a template plus submission into the final artifact
type Converter interface {
	Convert(ctx context.Context, template *forms.Template, submission *forms.Submission) (*docgen.Artifact, error)
}

// SubmissionService owns the submission lifecycle: intake, persistence,
// and the asynchronous generation-and-distribution run that follows a
// successful save.
type SubmissionService struct {
	submissionRepo forms.SubmissionRepository
	templateRepo   forms.TemplateRepository
	converter      Converter
	orchestrator   *Orchestrator
	channelTimeout time.Duration
	logger         *zap.Logger

	// pipelines tracks in-flight distribution runs so shutdown and
	// tests can wait for them to settle
	pipelines sync.WaitGroup
}

// SubmissionServiceOption configures the submission service
type SubmissionServiceOption func(*SubmissionService)

// WithChannelTimeout overrides the per-channel delivery timeout
func WithChannelTimeout(d time.Duration) SubmissionServiceOption {
	return func(s *SubmissionService) {
		s.channelTimeout = d
	}
}

// WithSubmissionLogger sets the service logger
func WithSubmissionLogger(logger *zap.Logger) SubmissionServiceOption {
	return func(s *SubmissionService) {
		s.logger = logger
	}
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	submissionRepo forms.SubmissionRepository,
	templateRepo forms.TemplateRepository,
	converter Converter,
	orchestrator *Orchestrator,
	opts ...SubmissionServiceOption,
) *SubmissionService {
	s := &SubmissionService{
		submissionRepo: submissionRepo,
		templateRepo:   templateRepo,
		converter:      converter,
		orchestrator:   orchestrator,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSubmission accepts a filled form, persists it, and kicks off the
// generation-and-distribution run in the background. The returned
// response reflects the state at save time; channel outcomes land on the
// stored submission as they settle.
func (s *SubmissionService) CreateSubmission(ctx context.Context, req CreateSubmissionRequest) (*SubmissionResponse, error) {
	fieldData, _ := shared.Sanitize(req.FieldData).(map[string]any)

	schema := make([]forms.FieldDef, 0, len(req.FieldSchema))
	for _, f := range req.FieldSchema {
		fieldType := forms.FieldType(f.Type)
		if f.Type == "" {
			fieldType = forms.FieldText
		}
		if !fieldType.IsValid() {
			return nil, shared.NewValidationError("unknown field type " + f.Type)
		}
		schema = append(schema, forms.FieldDef{
			Name:     f.Name,
			Label:    f.Label,
			Type:     fieldType,
			Required: f.Required,
			Options:  f.Options,
		})
	}

	submission, err := forms.NewSubmission(req.FormType, req.Title, fieldData, schema)
	if err != nil {
		return nil, err
	}

	// Persistence gates the pipeline: a submission that cannot be saved
	// is never distributed.
	if err := s.submissionRepo.Save(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	template, err := s.selectTemplate(ctx, submission.FormType)
	if err != nil {
		s.logger.Warn("template lookup failed, skipping distribution",
			zap.String("submissionId", submission.ID.String()),
			zap.Error(err))
	}
	if template == nil {
		s.logger.Info("no template applies, distribution skipped",
			zap.String("submissionId", submission.ID.String()),
			zap.String("formType", submission.FormType))
		return toSubmissionResponse(submission), nil
	}

	s.pipelines.Add(1)
	go func() {
		defer s.pipelines.Done()
		runCtx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
		defer cancel()
		s.runPipeline(runCtx, submission, template)
	}()

	s.logger.Info("submission created",
		zap.String("id", submission.ID.String()),
		zap.String("formType", submission.FormType),
		zap.String("templateId", template.ID.String()))

	return toSubmissionResponse(submission), nil
}

// WaitForPipelines blocks until all in-flight distribution runs have
// settled. Used during shutdown and by tests.
func (s *SubmissionService) WaitForPipelines() {
	s.pipelines.Wait()
}

// selectTemplate applies the automatic selection policy over the stored
// templates for the form type. A nil template with a nil error means no
// template applies.
func (s *SubmissionService) selectTemplate(ctx context.Context, formType string) (*forms.Template, error) {
	candidates, err := s.templateRepo.FindByFormType(ctx, formType)
	if err != nil {
		return nil, err
	}
	return forms.SelectTemplate(candidates, formType), nil
}

// runPipeline executes conversion then distribution for one submission.
// Conversion failures settle as a synthetic "conversion" outcome and no
// channel is dispatched; channel failures stay isolated per channel.
func (s *SubmissionService) runPipeline(ctx context.Context, submission *forms.Submission, template *forms.Template) {
	// Every log line of the run carries the submission id, and the
	// enriched logger travels on the context through the merge path.
	ctx, log := logger.WithSubmissionID(ctx, s.logger, submission.ID.String())

	artifact, err := s.converter.Convert(ctx, template, submission)
	if err != nil {
		log.Error("document conversion failed", zap.Error(err))
		s.persistOutcome(ctx, submission.ID, forms.FailedOutcome(forms.ChannelConversion, err.Error()))
		return
	}

	template.RecordUsage()
	if err := s.templateRepo.Save(ctx, template); err != nil {
		log.Warn("failed to record template usage",
			zap.String("templateId", template.ID.String()),
			zap.Error(err))
	}

	cfg := ChannelConfig{
		Recipients:        submission.StringListField("clientEmail"),
		CC:                submission.StringListField("ccEmails"),
		ClientName:        submission.StringField("clientName"),
		PerChannelTimeout: s.channelTimeout,
	}

	// The onSettle callback runs serially on the orchestrator's consumer
	// loop, so each settled outcome is merged and persisted one at a time.
	s.orchestrator.Distribute(ctx, submission, artifact, cfg, func(outcome forms.DistributionOutcome) {
		s.persistOutcome(ctx, submission.ID, outcome)
	})
}

// persistOutcome merges one settled outcome into the stored submission.
// The stored copy is re-read first so writes that land while channels
// are in flight, an admin completing the submission for example, are
// not reverted. A submission deleted mid-run stays deleted. Failures
// here are logged, not escalated: the channel has already settled.
func (s *SubmissionService) persistOutcome(ctx context.Context, id uuid.UUID, outcome forms.DistributionOutcome) {
	log := logger.FromContext(ctx)

	stored, err := s.submissionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			log.Info("submission removed mid-run, outcome discarded",
				zap.String("channel", string(outcome.Channel)))
			return
		}
		log.Error("failed to load submission for outcome merge", zap.Error(err))
		return
	}

	stored.RecordOutcome(outcome)
	if err := s.submissionRepo.Save(ctx, stored); err != nil {
		log.Error("failed to persist distribution outcome",
			zap.String("channel", string(outcome.Channel)),
			zap.Error(err))
	}
}

// GetSubmission retrieves a submission by ID
func (s *SubmissionService) GetSubmission(ctx context.Context, id uuid.UUID) (*SubmissionResponse, error) {
	submission, err := s.submissionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Submission not found")
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return toSubmissionResponse(submission), nil
}

// ListSubmissions retrieves all submissions
func (s *SubmissionService) ListSubmissions(ctx context.Context) ([]SubmissionResponse, error) {
	submissions, err := s.submissionRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	out := make([]SubmissionResponse, 0, len(submissions))
	for i := range submissions {
		out = append(out, *toSubmissionResponse(&submissions[i]))
	}
	return out, nil
}

// CompleteSubmission transitions a submission to completed
func (s *SubmissionService) CompleteSubmission(ctx context.Context, id uuid.UUID) (*SubmissionResponse, error) {
	submission, err := s.submissionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Submission not found")
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	if err := submission.Complete(); err != nil {
		return nil, err
	}

	if err := s.submissionRepo.Save(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}

	s.logger.Info("submission completed", zap.String("id", submission.ID.String()))
	return toSubmissionResponse(submission), nil
}

// DeleteSubmission removes a submission
func (s *SubmissionService) DeleteSubmission(ctx context.Context, id uuid.UUID) error {
	if err := s.submissionRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("NOT_FOUND", "Submission not found")
		}
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	s.logger.Info("submission deleted", zap.String("id", id.String()))
	return nil
}
