package forms

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/formflow/backend/internal/domain/shared"
	"github.com/formflow/backend/internal/infrastructure/docgen"
	"go.uber.org/zap"
)

// defaultChannelTimeout bounds each channel's delivery attempt
const defaultChannelTimeout = 30 * time.Second

// ChannelConfig carries the per-run delivery parameters extracted from
// the submission's field data.
type ChannelConfig struct {
	// Recipients for the email channel
	Recipients []string
	// CC recipients for the email channel
	CC []string
	// ClientName is attached as object metadata on cloud uploads
	ClientName string
	// PerChannelTimeout bounds each channel attempt; zero means the
	// default of 30 seconds
	PerChannelTimeout time.Duration
}

// Orchestrator fans the artifact out to all distribution channels.
// Every channel is dispatched regardless of the others' outcomes; the
// run joins only after every channel has settled.
type Orchestrator struct {
	mailer   Mailer
	uploader ObjectUploader
	saver    FileSaver
	store    ArtifactStore
	logger   *zap.Logger
}

// OrchestratorOption configures the orchestrator
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the orchestrator logger
func WithOrchestratorLogger(logger *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates a distribution orchestrator. Nil capabilities
// are allowed; their channels settle as failed with a configuration
// detail instead of being skipped.
func NewOrchestrator(mailer Mailer, uploader ObjectUploader, saver FileSaver, store ArtifactStore, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		mailer:   mailer,
		uploader: uploader,
		saver:    saver,
		store:    store,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Distribute delivers the artifact to every channel concurrently and
// blocks until all have settled. onSettle, when non-nil, is invoked
// serially for each outcome as it arrives, so callers can merge results
// into the submission without their own locking. The returned map holds
// the settled outcome of every channel.
func (o *Orchestrator) Distribute(
	ctx context.Context,
	submission *forms.Submission,
	artifact *docgen.Artifact,
	cfg ChannelConfig,
	onSettle func(forms.DistributionOutcome),
) map[forms.ChannelType]forms.DistributionOutcome {
	timeout := cfg.PerChannelTimeout
	if timeout == 0 {
		timeout = defaultChannelTimeout
	}

	channels := forms.AllChannels()
	results := make(chan forms.DistributionOutcome, len(channels))

	for _, channel := range channels {
		go func(channel forms.ChannelType) {
			results <- o.dispatch(ctx, channel, submission, artifact, cfg, timeout)
		}(channel)
	}

	// Single consumer: outcomes merge as they arrive, and the callback
	// runs serially so read-modify-write merges need no extra locking.
	outcomes := make(map[forms.ChannelType]forms.DistributionOutcome, len(channels))
	for range channels {
		outcome := <-results
		outcomes[outcome.Channel] = outcome
		if onSettle != nil {
			onSettle(outcome)
		}
	}

	o.logger.Info("distribution settled",
		zap.String("submissionId", submission.ID.String()),
		zap.Int("channels", len(outcomes)))

	return outcomes
}

// dispatch runs one channel under its own timeout and converts every
// failure mode, panics included, into a settled failed outcome.
func (o *Orchestrator) dispatch(
	ctx context.Context,
	channel forms.ChannelType,
	submission *forms.Submission,
	artifact *docgen.Artifact,
	cfg ChannelConfig,
	timeout time.Duration,
) (outcome forms.DistributionOutcome) {
	defer func() {
		if r := recover(); r != nil {
			err := shared.NewChannelError(string(channel), fmt.Sprintf("channel panicked: %v", r), nil)
			o.logger.Error("distribution channel panicked",
				zap.String("channel", string(channel)),
				zap.Any("panic", r))
			outcome = forms.FailedOutcome(channel, err.Error())
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	detail, err := o.deliver(ctx, channel, submission, artifact, cfg)
	if err != nil {
		cerr := shared.NewChannelError(string(channel), "delivery failed", err)
		o.logger.Warn("distribution channel failed",
			zap.String("submissionId", submission.ID.String()),
			zap.String("channel", string(channel)),
			zap.Error(err))
		return forms.FailedOutcome(channel, cerr.Error())
	}

	return forms.SucceededOutcome(channel, detail)
}

// deliver executes the channel-specific delivery and returns a
// human-readable detail for the outcome record.
func (o *Orchestrator) deliver(
	ctx context.Context,
	channel forms.ChannelType,
	submission *forms.Submission,
	artifact *docgen.Artifact,
	cfg ChannelConfig,
) (string, error) {
	switch channel {
	case forms.ChannelDownload:
		return o.deliverDownload(ctx, submission, artifact)
	case forms.ChannelEmail:
		return o.deliverEmail(ctx, submission, artifact, cfg)
	case forms.ChannelCloudUpload:
		return o.deliverCloudUpload(ctx, submission, artifact, cfg)
	case forms.ChannelServerSave:
		return o.deliverServerSave(ctx, submission, artifact)
	}
	return "", fmt.Errorf("unknown channel %q", channel)
}

func (o *Orchestrator) deliverDownload(ctx context.Context, submission *forms.Submission, artifact *docgen.Artifact) (string, error) {
	if o.store == nil {
		return "", fmt.Errorf("no artifact store configured")
	}
	if artifact.IsEmpty() {
		return "", fmt.Errorf("artifact is empty")
	}
	uri, err := o.store.Store(ctx, submission.ID.String()+artifact.Extension(), artifact.Data)
	if err != nil {
		return "", err
	}
	return uri, nil
}

func (o *Orchestrator) deliverEmail(ctx context.Context, submission *forms.Submission, artifact *docgen.Artifact, cfg ChannelConfig) (string, error) {
	if o.mailer == nil {
		return "", fmt.Errorf("no mailer configured")
	}
	if len(cfg.Recipients) == 0 {
		return "", fmt.Errorf("no recipients")
	}

	msg := &MailMessage{
		To:             cfg.Recipients,
		CC:             cfg.CC,
		Subject:        submission.Title,
		Body:           fmt.Sprintf("Please find the generated document for %q attached.", submission.Title),
		AttachmentName: artifact.FileName,
		Attachment:     artifact.Data,
	}
	if err := o.mailer.Send(ctx, msg); err != nil {
		return "", err
	}
	return fmt.Sprintf("sent to %d recipient(s)", len(cfg.Recipients)), nil
}

func (o *Orchestrator) deliverCloudUpload(ctx context.Context, submission *forms.Submission, artifact *docgen.Artifact, cfg ChannelConfig) (string, error) {
	if o.uploader == nil {
		return "", fmt.Errorf("no object uploader configured")
	}

	key := path.Join("submissions", submission.ID.String(), artifact.FileName)
	metadata := map[string]string{
		"submissionId": submission.ID.String(),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}
	if cfg.ClientName != "" {
		metadata["clientName"] = cfg.ClientName
	}

	location, err := o.uploader.Upload(ctx, key, artifact.Data, artifact.ContentType, metadata)
	if err != nil {
		return "", err
	}
	return location, nil
}

func (o *Orchestrator) deliverServerSave(ctx context.Context, submission *forms.Submission, artifact *docgen.Artifact) (string, error) {
	if o.saver == nil {
		return "", fmt.Errorf("no file saver configured")
	}

	now := time.Now().UTC()
	relPath := path.Join(now.Format("2006"), now.Format("01"), artifact.FileName)
	savedPath, err := o.saver.Save(ctx, relPath, artifact.Data)
	if err != nil {
		return "", err
	}
	return savedPath, nil
}
