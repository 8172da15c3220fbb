package persistence

import (
	"context"
	"errors"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/formflow/backend/internal/domain/shared"
	"github.com/formflow/backend/internal/infrastructure/kvstore"
	"github.com/google/uuid"
)

// KVTemplateRepository implements forms.TemplateRepository on the
// key-value store. Plain text templates live in the templates
// collection; document-style templates carry a binary payload and
// usage-count metadata, so they are kept in documentTemplates.
type KVTemplateRepository struct {
	store kvstore.Store
}

// NewKVTemplateRepository creates a template repository over the given store
func NewKVTemplateRepository(store kvstore.Store) *KVTemplateRepository {
	return &KVTemplateRepository{store: store}
}

func templateCollection(t *forms.Template) string {
	if t.HasBinaryPayload() {
		return kvstore.CollectionDocumentTemplates
	}
	return kvstore.CollectionTemplates
}

// Save upserts a template into its collection
func (r *KVTemplateRepository) Save(ctx context.Context, template *forms.Template) error {
	_, err := r.store.Save(ctx, templateCollection(template), template.ID.String(), template)
	return err
}

// FindByID looks a template up across both template collections
func (r *KVTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*forms.Template, error) {
	for _, collection := range []string{kvstore.CollectionTemplates, kvstore.CollectionDocumentTemplates} {
		item, err := r.store.GetByID(ctx, collection, id.String())
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return nil, err
		}
		var template forms.Template
		if err := item.Decode(&template); err != nil {
			return nil, shared.NewPersistenceError(collection, "getById", err)
		}
		return &template, nil
	}
	return nil, shared.ErrNotFound
}

// FindAll returns every template from both collections
func (r *KVTemplateRepository) FindAll(ctx context.Context) ([]forms.Template, error) {
	var templates []forms.Template
	for _, collection := range []string{kvstore.CollectionTemplates, kvstore.CollectionDocumentTemplates} {
		items, err := r.store.GetAll(ctx, collection)
		if err != nil {
			return nil, err
		}
		for i := range items {
			var template forms.Template
			if err := items[i].Decode(&template); err != nil {
				return nil, shared.NewPersistenceError(collection, "getAll", err)
			}
			templates = append(templates, template)
		}
	}
	return templates, nil
}

// FindByFormType returns exact form-type matches plus universal templates
func (r *KVTemplateRepository) FindByFormType(ctx context.Context, formType string) ([]forms.Template, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	matching := make([]forms.Template, 0, len(all))
	for _, template := range all {
		if template.AppliesTo(formType) {
			matching = append(matching, template)
		}
	}
	return matching, nil
}

// Delete removes a template from whichever collection holds it
func (r *KVTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for _, collection := range []string{kvstore.CollectionTemplates, kvstore.CollectionDocumentTemplates} {
		removed, err := r.store.Delete(ctx, collection, id.String())
		if err != nil {
			return err
		}
		if removed {
			return nil
		}
	}
	return shared.ErrNotFound
}

// Ensure KVTemplateRepository implements forms.TemplateRepository
var _ forms.TemplateRepository = (*KVTemplateRepository)(nil)
