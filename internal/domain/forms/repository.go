package forms

import (
	"context"

	"github.com/google/uuid"
)

// TemplateRepository provides CRUD over templates
type TemplateRepository interface {
	Save(ctx context.Context, template *Template) error
	FindByID(ctx context.Context, id uuid.UUID) (*Template, error)
	FindAll(ctx context.Context) ([]Template, error)
	// FindByFormType returns templates whose form type matches exactly
	// plus all universal templates.
	FindByFormType(ctx context.Context, formType string) ([]Template, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SubmissionRepository provides CRUD over submissions
type SubmissionRepository interface {
	Save(ctx context.Context, submission *Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*Submission, error)
	FindAll(ctx context.Context) ([]Submission, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
