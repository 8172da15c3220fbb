package forms

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/formflow/backend/internal/domain/shared"
	"github.com/formflow/backend/internal/infrastructure/docgen"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSubmissionRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*forms.Submission
	saveErr error
}

func newMemSubmissionRepo() *memSubmissionRepo {
	return &memSubmissionRepo{items: map[uuid.UUID]*forms.Submission{}}
}

func (r *memSubmissionRepo) Save(ctx context.Context, s *forms.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	copied := *s
	r.items[s.ID] = &copied
	return nil
}

func (r *memSubmissionRepo) FindByID(ctx context.Context, id uuid.UUID) (*forms.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *memSubmissionRepo) FindAll(ctx context.Context) ([]forms.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]forms.Submission, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memSubmissionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type memTemplateRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*forms.Template
	findErr error
}

func newMemTemplateRepo() *memTemplateRepo {
	return &memTemplateRepo{items: map[uuid.UUID]*forms.Template{}}
}

func (r *memTemplateRepo) Save(ctx context.Context, t *forms.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *t
	r.items[t.ID] = &copied
	return nil
}

func (r *memTemplateRepo) FindByID(ctx context.Context, id uuid.UUID) (*forms.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *memTemplateRepo) FindAll(ctx context.Context) ([]forms.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]forms.Template, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, *t)
	}
	return out, nil
}

func (r *memTemplateRepo) FindByFormType(ctx context.Context, formType string) ([]forms.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []forms.Template
	for _, t := range r.items {
		if t.AppliesTo(formType) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memTemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func newTestService(t *testing.T) (*SubmissionService, *memSubmissionRepo, *memTemplateRepo, *fakeMailer) {
	t.Helper()
	subRepo := newMemSubmissionRepo()
	tplRepo := newMemTemplateRepo()
	mailer := &fakeMailer{}
	orchestrator := NewOrchestrator(mailer, &fakeUploader{}, &fakeSaver{}, &fakeArtifactStore{})
	service := NewSubmissionService(subRepo, tplRepo, docgen.NewPipeline(docgen.NewEngine()), orchestrator)
	return service, subRepo, tplRepo, mailer
}

func seedTemplate(t *testing.T, repo *memTemplateRepo, name, formType, body string) *forms.Template {
	t.Helper()
	tpl, err := forms.NewTemplate(name, formType, body, nil, false)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), tpl))
	return tpl
}

func TestSubmissionService_CreateSubmission(t *testing.T) {
	ctx := context.Background()

	t.Run("full run settles every channel on the stored submission", func(t *testing.T) {
		service, subRepo, tplRepo, mailer := newTestService(t)
		tpl := seedTemplate(t, tplRepo, "Quote Letter", "rfq", "Dear {{clientName}}, see {{title}}.")

		resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
			FormType: "rfq",
			Title:    "Quote for Acme",
			FieldData: map[string]any{
				"clientName":  "Acme Corp",
				"clientEmail": "buyer@example.com",
				"ccEmails":    []any{"cc@example.com"},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, string(forms.StatusSubmitted), resp.Status)

		service.WaitForPipelines()

		stored, err := subRepo.FindByID(ctx, uuid.MustParse(resp.ID))
		require.NoError(t, err)
		require.Len(t, stored.DistributionStatus, 4)
		for _, channel := range forms.AllChannels() {
			assert.Equal(t, forms.OutcomeSucceeded, stored.DistributionStatus[channel].Status, string(channel))
		}

		require.Len(t, mailer.sent, 1)
		assert.Equal(t, []string{"buyer@example.com"}, mailer.sent[0].To)
		assert.Equal(t, []string{"cc@example.com"}, mailer.sent[0].CC)

		// Usage bumped on the selected template.
		savedTpl, err := tplRepo.FindByID(ctx, tpl.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, savedTpl.UsageCount)
	})

	t.Run("no applicable template skips distribution", func(t *testing.T) {
		service, subRepo, _, mailer := newTestService(t)

		resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
			FormType:  "rfq",
			Title:     "Quote",
			FieldData: map[string]any{"clientEmail": "buyer@example.com"},
		})
		require.NoError(t, err)
		assert.Empty(t, resp.DistributionStatus)

		service.WaitForPipelines()

		stored, err := subRepo.FindByID(ctx, uuid.MustParse(resp.ID))
		require.NoError(t, err)
		assert.Empty(t, stored.DistributionStatus)
		assert.Empty(t, mailer.sent)
	})

	t.Run("universal template serves any form type", func(t *testing.T) {
		service, subRepo, tplRepo, _ := newTestService(t)
		tpl, err := forms.NewTemplate("Generic", "misc", "{{title}}", nil, true)
		require.NoError(t, err)
		require.NoError(t, tplRepo.Save(ctx, tpl))

		resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
			FormType: "rfq",
			Title:    "Quote",
		})
		require.NoError(t, err)
		service.WaitForPipelines()

		stored, err := subRepo.FindByID(ctx, uuid.MustParse(resp.ID))
		require.NoError(t, err)
		assert.Len(t, stored.DistributionStatus, 4)
	})

	t.Run("conversion failure records only the synthetic outcome", func(t *testing.T) {
		service, subRepo, tplRepo, mailer := newTestService(t)
		tpl, err := forms.NewTemplate("Broken", "rfq", "", []byte("not a container"), false)
		require.NoError(t, err)
		require.NoError(t, tplRepo.Save(ctx, tpl))

		resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
			FormType:  "rfq",
			Title:     "Quote",
			FieldData: map[string]any{"clientEmail": "buyer@example.com"},
		})
		require.NoError(t, err)

		service.WaitForPipelines()

		stored, err := subRepo.FindByID(ctx, uuid.MustParse(resp.ID))
		require.NoError(t, err)
		require.Len(t, stored.DistributionStatus, 1)

		outcome := stored.DistributionStatus[forms.ChannelConversion]
		assert.Equal(t, forms.OutcomeFailed, outcome.Status)
		assert.Contains(t, outcome.Detail, "validate")
		assert.Empty(t, mailer.sent)
	})

	t.Run("template lookup failure skips distribution but keeps the submission", func(t *testing.T) {
		service, subRepo, tplRepo, _ := newTestService(t)
		tplRepo.findErr = errors.New("cache backend down")

		resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
			FormType: "rfq",
			Title:    "Quote",
		})
		require.NoError(t, err)
		service.WaitForPipelines()

		_, err = subRepo.FindByID(ctx, uuid.MustParse(resp.ID))
		require.NoError(t, err)
	})

	t.Run("field data is sanitized before persistence", func(t *testing.T) {
		service, subRepo, _, _ := newTestService(t)

		resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
			FormType: "rfq",
			Title:    "Quote",
			FieldData: map[string]any{
				"clientName": "Acme Corp",
				"onSubmit":   func() {},
			},
		})
		require.NoError(t, err)

		stored, err := subRepo.FindByID(ctx, uuid.MustParse(resp.ID))
		require.NoError(t, err)
		assert.Contains(t, stored.FieldData, "clientName")
		assert.NotContains(t, stored.FieldData, "onSubmit")
	})

	t.Run("empty schema type defaults to text", func(t *testing.T) {
		service, subRepo, _, _ := newTestService(t)

		resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
			FormType:    "rfq",
			Title:       "Quote",
			FieldSchema: []FieldDefInput{{Name: "clientName"}},
		})
		require.NoError(t, err)

		stored, err := subRepo.FindByID(ctx, uuid.MustParse(resp.ID))
		require.NoError(t, err)
		require.Len(t, stored.FieldSchemaSnapshot, 1)
		assert.Equal(t, forms.FieldText, stored.FieldSchemaSnapshot[0].Type)
	})

	t.Run("unknown schema type is rejected", func(t *testing.T) {
		service, _, _, _ := newTestService(t)

		_, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
			FormType:    "rfq",
			Title:       "Quote",
			FieldSchema: []FieldDefInput{{Name: "x", Type: "blob"}},
		})

		var verr *shared.ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("save failure blocks the pipeline", func(t *testing.T) {
		service, subRepo, tplRepo, mailer := newTestService(t)
		seedTemplate(t, tplRepo, "Quote", "rfq", "{{title}}")
		subRepo.saveErr = errors.New("disk full")

		_, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
			FormType: "rfq",
			Title:    "Quote",
		})
		require.Error(t, err)

		service.WaitForPipelines()
		assert.Empty(t, mailer.sent)
	})
}

// gatedSaver blocks until released, letting tests order one channel's
// settlement against other writes to the same submission.
type gatedSaver struct {
	mu      sync.Mutex
	release chan struct{}
	paths   []string
}

func (g *gatedSaver) Save(ctx context.Context, path string, data []byte) (string, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paths = append(g.paths, path)
	return "/data/documents/" + path, nil
}

func newGatedService(t *testing.T) (*SubmissionService, *memSubmissionRepo, *gatedSaver) {
	t.Helper()
	subRepo := newMemSubmissionRepo()
	tplRepo := newMemTemplateRepo()
	saver := &gatedSaver{release: make(chan struct{})}
	orchestrator := NewOrchestrator(&fakeMailer{}, &fakeUploader{}, saver, &fakeArtifactStore{})
	service := NewSubmissionService(subRepo, tplRepo, docgen.NewPipeline(docgen.NewEngine()), orchestrator)
	seedTemplate(t, tplRepo, "Quote", "rfq", "{{title}}")
	return service, subRepo, saver
}

func TestSubmissionService_OutcomeMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("completion during distribution survives the merge", func(t *testing.T) {
		service, subRepo, saver := newGatedService(t)

		resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
			FormType:  "rfq",
			Title:     "Quote",
			FieldData: map[string]any{"clientEmail": "buyer@example.com"},
		})
		require.NoError(t, err)
		id := uuid.MustParse(resp.ID)

		// Let the three unblocked channels land before completing.
		require.Eventually(t, func() bool {
			stored, err := subRepo.FindByID(ctx, id)
			return err == nil && len(stored.DistributionStatus) == 3
		}, 2*time.Second, 5*time.Millisecond)

		_, err = service.CompleteSubmission(ctx, id)
		require.NoError(t, err)

		close(saver.release)
		service.WaitForPipelines()

		stored, err := subRepo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, forms.StatusCompleted, stored.Status)
		require.Len(t, stored.DistributionStatus, 4)
		assert.Equal(t, forms.OutcomeSucceeded, stored.DistributionStatus[forms.ChannelServerSave].Status)
	})

	t.Run("deletion during distribution is not resurrected", func(t *testing.T) {
		service, subRepo, saver := newGatedService(t)

		resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
			FormType: "rfq",
			Title:    "Quote",
		})
		require.NoError(t, err)
		id := uuid.MustParse(resp.ID)

		require.Eventually(t, func() bool {
			stored, err := subRepo.FindByID(ctx, id)
			return err == nil && len(stored.DistributionStatus) == 3
		}, 2*time.Second, 5*time.Millisecond)

		require.NoError(t, service.DeleteSubmission(ctx, id))

		close(saver.release)
		service.WaitForPipelines()

		_, err = subRepo.FindByID(ctx, id)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSubmissionService_GetSubmission(t *testing.T) {
	ctx := context.Background()
	service, _, _, _ := newTestService(t)

	resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{
		FormType: "rfq",
		Title:    "Quote",
	})
	require.NoError(t, err)

	got, err := service.GetSubmission(ctx, uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)

	_, err = service.GetSubmission(ctx, uuid.New())
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "NOT_FOUND", derr.Code)
}

func TestSubmissionService_ListSubmissions(t *testing.T) {
	ctx := context.Background()
	service, _, _, _ := newTestService(t)

	for _, title := range []string{"One", "Two"} {
		_, err := service.CreateSubmission(ctx, CreateSubmissionRequest{FormType: "rfq", Title: title})
		require.NoError(t, err)
	}

	list, err := service.ListSubmissions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSubmissionService_CompleteSubmission(t *testing.T) {
	ctx := context.Background()
	service, _, _, _ := newTestService(t)

	resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{FormType: "rfq", Title: "Quote"})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	completed, err := service.CompleteSubmission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(forms.StatusCompleted), completed.Status)

	// Completing again is an invalid transition.
	_, err = service.CompleteSubmission(ctx, id)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_STATE", derr.Code)

	_, err = service.CompleteSubmission(ctx, uuid.New())
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "NOT_FOUND", derr.Code)
}

func TestSubmissionService_DeleteSubmission(t *testing.T) {
	ctx := context.Background()
	service, _, _, _ := newTestService(t)

	resp, err := service.CreateSubmission(ctx, CreateSubmissionRequest{FormType: "rfq", Title: "Quote"})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	require.NoError(t, service.DeleteSubmission(ctx, id))

	err = service.DeleteSubmission(ctx, id)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "NOT_FOUND", derr.Code)
}
