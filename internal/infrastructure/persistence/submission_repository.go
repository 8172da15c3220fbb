package persistence

import (
	"context"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/formflow/backend/internal/domain/shared"
	"github.com/formflow/backend/internal/infrastructure/kvstore"
	"github.com/google/uuid"
)

// KVSubmissionRepository implements forms.SubmissionRepository on the
// key-value store's submissions collection.
type KVSubmissionRepository struct {
	store kvstore.Store
}

// NewKVSubmissionRepository creates a submission repository over the given store
func NewKVSubmissionRepository(store kvstore.Store) *KVSubmissionRepository {
	return &KVSubmissionRepository{store: store}
}

// Save upserts a submission
func (r *KVSubmissionRepository) Save(ctx context.Context, submission *forms.Submission) error {
	_, err := r.store.Save(ctx, kvstore.CollectionSubmissions, submission.ID.String(), submission)
	return err
}

// FindByID returns one submission or shared.ErrNotFound
func (r *KVSubmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*forms.Submission, error) {
	item, err := r.store.GetByID(ctx, kvstore.CollectionSubmissions, id.String())
	if err != nil {
		return nil, err
	}
	var submission forms.Submission
	if err := item.Decode(&submission); err != nil {
		return nil, shared.NewPersistenceError(kvstore.CollectionSubmissions, "getById", err)
	}
	return &submission, nil
}

// FindAll returns every submission
func (r *KVSubmissionRepository) FindAll(ctx context.Context) ([]forms.Submission, error) {
	items, err := r.store.GetAll(ctx, kvstore.CollectionSubmissions)
	if err != nil {
		return nil, err
	}
	submissions := make([]forms.Submission, len(items))
	for i := range items {
		if err := items[i].Decode(&submissions[i]); err != nil {
			return nil, shared.NewPersistenceError(kvstore.CollectionSubmissions, "getAll", err)
		}
	}
	return submissions, nil
}

// Delete removes a submission
func (r *KVSubmissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := r.store.Delete(ctx, kvstore.CollectionSubmissions, id.String())
	if err != nil {
		return err
	}
	if !removed {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure KVSubmissionRepository implements forms.SubmissionRepository
var _ forms.SubmissionRepository = (*KVSubmissionRepository)(nil)
