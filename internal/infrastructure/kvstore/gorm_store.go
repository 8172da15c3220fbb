package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/formflow/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// storageItemModel is the single table all collections live in
type storageItemModel struct {
	Collection string    `gorm:"primaryKey;size:128"`
	ID         string    `gorm:"primaryKey;size:128"`
	Payload    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for storage items
func (storageItemModel) TableName() string { return "storage_items" }

func (m *storageItemModel) toItem() StorageItem {
	return StorageItem{
		ID:         m.ID,
		Collection: m.Collection,
		Payload:    json.RawMessage(m.Payload),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// GormStore implements Store on a single GORM table. Concurrent writes
// to different ids are safe; writes to the same id are serialized by the
// database through the upsert.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// GormStoreOption is a functional option for configuring GormStore
type GormStoreOption func(*GormStore)

// WithLogger sets a custom logger for GormStore
func WithLogger(logger *zap.Logger) GormStoreOption {
	return func(s *GormStore) {
		s.logger = logger
	}
}

// NewGormStore creates a key-value store backed by the given database
func NewGormStore(db *gorm.DB, opts ...GormStoreOption) *GormStore {
	s := &GormStore{
		db:     db,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AutoMigrate creates the backing tables if they do not exist
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&storageItemModel{}, &legacyBlobModel{})
}

// GetAll returns every record of a collection
func (s *GormStore) GetAll(ctx context.Context, collection string) ([]StorageItem, error) {
	var models []storageItemModel
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, shared.NewPersistenceError(collection, "getAll", err)
	}

	items := make([]StorageItem, len(models))
	for i := range models {
		items[i] = models[i].toItem()
	}
	return items, nil
}

// GetByID returns one record or shared.ErrNotFound
func (s *GormStore) GetByID(ctx context.Context, collection, id string) (*StorageItem, error) {
	var model storageItemModel
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewPersistenceError(collection, "getById", err)
	}

	item := model.toItem()
	return &item, nil
}

// Save upserts a payload under (collection, id). The payload is
// sanitized before serialization; CreatedAt survives updates and
// UpdatedAt is always refreshed.
func (s *GormStore) Save(ctx context.Context, collection, id string, payload any) (*StorageItem, error) {
	data, err := json.Marshal(shared.Sanitize(payload))
	if err != nil {
		return nil, shared.NewPersistenceError(collection, "save", err)
	}

	now := time.Now()
	model := storageItemModel{
		Collection: collection,
		ID:         id,
		Payload:    string(data),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"payload":    string(data),
			"updated_at": now,
		}),
	}).Create(&model).Error
	if err != nil {
		return nil, shared.NewPersistenceError(collection, "save", err)
	}

	// Re-read so the caller sees the original CreatedAt after an update.
	var saved storageItemModel
	if err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&saved).Error; err != nil {
		return nil, shared.NewPersistenceError(collection, "save", err)
	}

	item := saved.toItem()
	return &item, nil
}

// SaveAll upserts a batch item by item. On partial failure the written
// items stay written and a *BatchError names the failed ids.
func (s *GormStore) SaveAll(ctx context.Context, collection string, items []BatchItem) ([]StorageItem, error) {
	saved := make([]StorageItem, 0, len(items))
	failed := map[string]error{}

	for _, item := range items {
		stored, err := s.Save(ctx, collection, item.ID, item.Payload)
		if err != nil {
			failed[item.ID] = err
			continue
		}
		saved = append(saved, *stored)
	}

	if len(failed) > 0 {
		s.logger.Warn("batch save partially failed",
			zap.String("collection", collection),
			zap.Int("saved", len(saved)),
			zap.Int("failed", len(failed)))
		return saved, &BatchError{Collection: collection, Failed: failed}
	}
	return saved, nil
}

// Delete removes one record
func (s *GormStore) Delete(ctx context.Context, collection, id string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&storageItemModel{})
	if result.Error != nil {
		return false, shared.NewPersistenceError(collection, "delete", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Clear removes a whole collection
func (s *GormStore) Clear(ctx context.Context, collection string) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Delete(&storageItemModel{})
	if result.Error != nil {
		return false, shared.NewPersistenceError(collection, "clear", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UsageStatistics reports per-collection counts and approximate byte
// sizes (serialized payload length).
func (s *GormStore) UsageStatistics(ctx context.Context) (*UsageStatistics, error) {
	var rows []struct {
		Collection string
		Count      int64
		Bytes      int64
	}
	err := s.db.WithContext(ctx).
		Model(&storageItemModel{}).
		Select("collection, COUNT(*) AS count, COALESCE(SUM(LENGTH(payload)), 0) AS bytes").
		Group("collection").
		Scan(&rows).Error
	if err != nil {
		return nil, shared.NewPersistenceError("*", "usageStatistics", err)
	}

	stats := &UsageStatistics{PerCollection: make(map[string]CollectionStats, len(rows))}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Collection < rows[j].Collection })
	for _, row := range rows {
		stats.PerCollection[row.Collection] = CollectionStats{
			Count:            row.Count,
			ApproximateBytes: row.Bytes,
		}
		stats.TotalCount += row.Count
		stats.TotalBytes += row.Bytes
	}
	return stats, nil
}

// Ensure GormStore implements Store
var _ Store = (*GormStore)(nil)
