package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/formflow/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// legacyBlobModel is the flat "array under one key" storage generation
// that predates named collections.
type legacyBlobModel struct {
	Key       string    `gorm:"primaryKey;size:128"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for legacy blobs
func (legacyBlobModel) TableName() string { return "legacy_blobs" }

// MigrationResult reports how many records a migration moved
type MigrationResult struct {
	MigratedCount int `json:"migratedCount"`
}

// Migration maps one legacy key to its target collection
type Migration struct {
	LegacyKey        string
	TargetCollection string
}

// DefaultMigrations is the standard legacy-key mapping, one per
// collection. Each runs once per collection on startup.
func DefaultMigrations() []Migration {
	return []Migration{
		{LegacyKey: "submissions", TargetCollection: CollectionSubmissions},
		{LegacyKey: "templates", TargetCollection: CollectionTemplates},
		{LegacyKey: "documentTemplates", TargetCollection: CollectionDocumentTemplates},
	}
}

// Migrator transfers records from flat legacy blobs into named
// collections. Migrations are idempotent: the blob is deleted only after
// the whole batch upserts successfully, so a second run finds nothing
// and is a no-op.
type Migrator struct {
	db     *gorm.DB
	store  Store
	logger *zap.Logger
}

// NewMigrator creates a legacy migrator writing into the given store
func NewMigrator(db *gorm.DB, store Store, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{db: db, store: store, logger: logger}
}

// Migrate moves the records stored under legacyKey into targetCollection.
// An absent legacy blob is a no-op, not an error. Partial upsert failure
// keeps the blob in place so the next run can retry the batch.
func (m *Migrator) Migrate(ctx context.Context, legacyKey, targetCollection string) (*MigrationResult, error) {
	var blob legacyBlobModel
	err := m.db.WithContext(ctx).Where("key = ?", legacyKey).First(&blob).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &MigrationResult{MigratedCount: 0}, nil
		}
		return nil, shared.NewMigrationError(legacyKey, "failed to read legacy blob", err)
	}

	records, err := parseLegacyBlob(blob.Value)
	if err != nil {
		return nil, shared.NewMigrationError(legacyKey, "legacy blob is not valid JSON", err)
	}

	items := make([]BatchItem, len(records))
	for i, record := range records {
		items[i] = BatchItem{ID: legacyRecordID(legacyKey, i, record), Payload: record}
	}

	if _, err := m.store.SaveAll(ctx, targetCollection, items); err != nil {
		// The blob stays: deletion only happens after a fully
		// successful batch.
		return nil, shared.NewMigrationError(legacyKey, "failed to upsert legacy records", err)
	}

	if err := m.db.WithContext(ctx).Delete(&legacyBlobModel{}, "key = ?", legacyKey).Error; err != nil {
		return nil, shared.NewMigrationError(legacyKey, "failed to remove legacy blob", err)
	}

	m.logger.Info("legacy migration completed",
		zap.String("legacyKey", legacyKey),
		zap.String("collection", targetCollection),
		zap.Int("migrated", len(items)))

	return &MigrationResult{MigratedCount: len(items)}, nil
}

// MigrateAll runs the default migrations. A failing migration does not
// block the others or normal operation; failures are returned joined.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	var errs []error
	for _, migration := range DefaultMigrations() {
		if _, err := m.Migrate(ctx, migration.LegacyKey, migration.TargetCollection); err != nil {
			m.logger.Warn("legacy migration failed",
				zap.String("legacyKey", migration.LegacyKey),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// parseLegacyBlob accepts either a JSON array of records or a single
// record object.
func parseLegacyBlob(value string) ([]map[string]any, error) {
	var records []map[string]any
	if err := json.Unmarshal([]byte(value), &records); err == nil {
		return records, nil
	}

	var single map[string]any
	if err := json.Unmarshal([]byte(value), &single); err != nil {
		return nil, err
	}
	return []map[string]any{single}, nil
}

// legacyRecordID uses the record's own id field when present, otherwise
// synthesizes a positional fallback.
func legacyRecordID(legacyKey string, index int, record map[string]any) string {
	if id, ok := record["id"].(string); ok && id != "" {
		return id
	}
	return fmt.Sprintf("%s-%d", legacyKey, index)
}
