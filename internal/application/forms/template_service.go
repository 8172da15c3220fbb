package forms

import (
	"context"
	"errors"
	"fmt"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/formflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TemplateService handles template management operations
type TemplateService struct {
	templateRepo forms.TemplateRepository
	logger       *zap.Logger
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(templateRepo forms.TemplateRepository, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateService{
		templateRepo: templateRepo,
		logger:       logger,
	}
}

// CreateTemplate validates and stores an uploaded template
func (s *TemplateService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*TemplateResponse, error) {
	template, err := forms.NewTemplate(req.Name, req.FormType, req.Body, req.BinaryPayload, req.IsUniversal)
	if err != nil {
		return nil, err
	}

	if err := s.templateRepo.Save(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.Info("template created",
		zap.String("id", template.ID.String()),
		zap.String("name", template.Name),
		zap.String("formType", template.FormType),
		zap.Bool("binary", template.HasBinaryPayload()))

	return toTemplateResponse(template), nil
}

// GetTemplate retrieves a template by ID
func (s *TemplateService) GetTemplate(ctx context.Context, id uuid.UUID) (*TemplateResponse, error) {
	template, err := s.findTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTemplateResponse(template), nil
}

// ListTemplates retrieves all templates
func (s *TemplateService) ListTemplates(ctx context.Context) ([]TemplateResponse, error) {
	templates, err := s.templateRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	out := make([]TemplateResponse, 0, len(templates))
	for i := range templates {
		out = append(out, *toTemplateResponse(&templates[i]))
	}
	return out, nil
}

// CloneTemplate creates a copy of an existing template under a new name.
// Templates are immutable; cloning is the only edit path.
func (s *TemplateService) CloneTemplate(ctx context.Context, id uuid.UUID, req CloneTemplateRequest) (*TemplateResponse, error) {
	template, err := s.findTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	clone, err := template.Clone(req.Name)
	if err != nil {
		return nil, err
	}

	if err := s.templateRepo.Save(ctx, clone); err != nil {
		return nil, fmt.Errorf("failed to save template clone: %w", err)
	}

	s.logger.Info("template cloned",
		zap.String("sourceId", template.ID.String()),
		zap.String("cloneId", clone.ID.String()))

	return toTemplateResponse(clone), nil
}

// ValidateTemplate returns placeholder warnings for a stored template.
// Warnings never block usage.
func (s *TemplateService) ValidateTemplate(ctx context.Context, id uuid.UUID) (*ValidateTemplateResponse, error) {
	template, err := s.findTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	warnings := template.ValidatePlaceholders()
	return &ValidateTemplateResponse{
		Valid:    len(warnings) == 0,
		Warnings: warnings,
	}, nil
}

// DeleteTemplate removes a template
func (s *TemplateService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("NOT_FOUND", "Template not found")
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	s.logger.Info("template deleted", zap.String("id", id.String()))
	return nil
}

func (s *TemplateService) findTemplate(ctx context.Context, id uuid.UUID) (*forms.Template, error) {
	template, err := s.templateRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Template not found")
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}
