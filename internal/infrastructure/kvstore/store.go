// Package kvstore provides the generic named-collection persistence
// abstraction the rest of the system stores its state in. Records are
// opaque JSON payloads addressed by (collection, id); the store is the
// single source of truth, callers never reach the underlying database
// directly.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Logical collection names.
const (
	CollectionSubmissions       = "submissions"
	CollectionTemplates         = "templates"
	CollectionDocumentTemplates = "documentTemplates"
)

// StorageItem is one persisted record. CreatedAt is set once and never
// changed; UpdatedAt is bumped on every write.
type StorageItem struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Decode unmarshals the item payload into out
func (i *StorageItem) Decode(out any) error {
	return json.Unmarshal(i.Payload, out)
}

// CollectionStats holds usage numbers for one collection. Byte size is
// an estimate (serialized payload length), not an exact figure.
type CollectionStats struct {
	Count            int64 `json:"count"`
	ApproximateBytes int64 `json:"approximateBytes"`
}

// UsageStatistics aggregates per-collection usage plus totals
type UsageStatistics struct {
	PerCollection map[string]CollectionStats `json:"perCollection"`
	TotalCount    int64                      `json:"totalCount"`
	TotalBytes    int64                      `json:"totalBytes"`
}

// Store is the key-value persistence contract. Any I/O fault surfaces as
// a *shared.PersistenceError carrying the collection and operation name;
// there is no automatic retry.
type Store interface {
	GetAll(ctx context.Context, collection string) ([]StorageItem, error)
	GetByID(ctx context.Context, collection, id string) (*StorageItem, error)
	// Save upserts a payload. The original CreatedAt is preserved on
	// update and UpdatedAt is always refreshed.
	Save(ctx context.Context, collection, id string, payload any) (*StorageItem, error)
	// SaveAll applies Save per item. There is no atomicity across items:
	// on partial failure the successfully written items remain and the
	// returned error is a *BatchError naming the ids that failed.
	SaveAll(ctx context.Context, collection string, items []BatchItem) ([]StorageItem, error)
	// Delete removes one record, reporting whether anything was removed.
	Delete(ctx context.Context, collection, id string) (bool, error)
	// Clear removes a whole collection, reporting whether it held records.
	Clear(ctx context.Context, collection string) (bool, error)
	UsageStatistics(ctx context.Context) (*UsageStatistics, error)
}

// BatchItem pairs an id with its payload for SaveAll
type BatchItem struct {
	ID      string
	Payload any
}

// BatchError reports which items of a SaveAll batch failed. The batch is
// an eventual-consistency contract, not a transaction.
type BatchError struct {
	Collection string
	Failed     map[string]error
}

func (e *BatchError) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	return fmt.Sprintf("batch save on collection %q failed for %d item(s): %s",
		e.Collection, len(e.Failed), strings.Join(ids, ", "))
}
