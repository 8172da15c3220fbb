package cache

import (
	"context"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ensure CachedTemplateRepository implements TemplateRepository
var _ forms.TemplateRepository = (*CachedTemplateRepository)(nil)

// CachedTemplateRepository is a read-through cache wrapper around a
// template repository. FindByFormType is the hot path during submission
// intake; everything else passes through, and any write invalidates the
// whole cache.
type CachedTemplateRepository struct {
	inner  forms.TemplateRepository
	cache  TemplateCache
	logger *zap.Logger
}

// NewCachedTemplateRepository wraps a repository with a template cache
func NewCachedTemplateRepository(inner forms.TemplateRepository, cache TemplateCache, logger *zap.Logger) *CachedTemplateRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedTemplateRepository{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

// Save persists the template and invalidates cached lists
func (r *CachedTemplateRepository) Save(ctx context.Context, template *forms.Template) error {
	if err := r.inner.Save(ctx, template); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// FindByID passes through to the inner repository
func (r *CachedTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*forms.Template, error) {
	return r.inner.FindByID(ctx, id)
}

// FindAll passes through to the inner repository
func (r *CachedTemplateRepository) FindAll(ctx context.Context) ([]forms.Template, error) {
	return r.inner.FindAll(ctx)
}

// FindByFormType serves from cache when possible. Cache errors degrade
// to a repository read, never to a failure.
func (r *CachedTemplateRepository) FindByFormType(ctx context.Context, formType string) ([]forms.Template, error) {
	cached, err := r.cache.Get(ctx, formType)
	if err != nil {
		r.logger.Warn("template cache read failed",
			zap.String("formType", formType),
			zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	templates, err := r.inner.FindByFormType(ctx, formType)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, formType, templates, 0); err != nil {
		r.logger.Warn("template cache write failed",
			zap.String("formType", formType),
			zap.Error(err))
	}
	return templates, nil
}

// Delete removes the template and invalidates cached lists
func (r *CachedTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedTemplateRepository) invalidate(ctx context.Context) {
	if err := r.cache.InvalidateAll(ctx); err != nil {
		r.logger.Warn("template cache invalidation failed", zap.Error(err))
	}
}
