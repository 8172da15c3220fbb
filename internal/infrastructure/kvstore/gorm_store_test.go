package kvstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/formflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStoreTestDB(t *testing.T) *GormStore {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	store := NewGormStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func TestGormStore_SaveAndGet(t *testing.T) {
	store := setupStoreTestDB(t)
	ctx := context.Background()

	t.Run("save and read back", func(t *testing.T) {
		item, err := store.Save(ctx, CollectionSubmissions, "sub-1", map[string]any{
			"title": "Quote for Acme",
			"count": 3,
		})
		require.NoError(t, err)
		assert.Equal(t, "sub-1", item.ID)
		assert.Equal(t, CollectionSubmissions, item.Collection)
		assert.False(t, item.CreatedAt.IsZero())

		got, err := store.GetByID(ctx, CollectionSubmissions, "sub-1")
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, got.Decode(&payload))
		assert.Equal(t, "Quote for Acme", payload["title"])
	})

	t.Run("update preserves createdAt and bumps updatedAt", func(t *testing.T) {
		first, err := store.Save(ctx, CollectionSubmissions, "sub-2", map[string]any{"v": 1})
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		second, err := store.Save(ctx, CollectionSubmissions, "sub-2", map[string]any{"v": 2})
		require.NoError(t, err)

		assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt) || second.UpdatedAt.Equal(first.UpdatedAt))

		var payload map[string]any
		require.NoError(t, second.Decode(&payload))
		assert.Equal(t, float64(2), payload["v"])
	})

	t.Run("payload is sanitized before serialization", func(t *testing.T) {
		item, err := store.Save(ctx, CollectionSubmissions, "sub-3", map[string]any{
			"keep": "value",
			"drop": func() {},
		})
		require.NoError(t, err)

		var payload map[string]any
		require.NoError(t, item.Decode(&payload))
		assert.Contains(t, payload, "keep")
		assert.NotContains(t, payload, "drop")
	})

	t.Run("missing record is ErrNotFound", func(t *testing.T) {
		_, err := store.GetByID(ctx, CollectionSubmissions, "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("same id in different collections are distinct records", func(t *testing.T) {
		_, err := store.Save(ctx, CollectionTemplates, "shared-id", map[string]any{"kind": "template"})
		require.NoError(t, err)
		_, err = store.Save(ctx, CollectionSubmissions, "shared-id", map[string]any{"kind": "submission"})
		require.NoError(t, err)

		tpl, err := store.GetByID(ctx, CollectionTemplates, "shared-id")
		require.NoError(t, err)
		var payload map[string]any
		require.NoError(t, tpl.Decode(&payload))
		assert.Equal(t, "template", payload["kind"])
	})
}

func TestGormStore_GetAll(t *testing.T) {
	store := setupStoreTestDB(t)
	ctx := context.Background()

	items, err := store.GetAll(ctx, CollectionTemplates)
	require.NoError(t, err)
	assert.Empty(t, items)

	for _, id := range []string{"t-1", "t-2", "t-3"} {
		_, err := store.Save(ctx, CollectionTemplates, id, map[string]any{"id": id})
		require.NoError(t, err)
	}
	_, err = store.Save(ctx, CollectionSubmissions, "s-1", map[string]any{"id": "s-1"})
	require.NoError(t, err)

	items, err = store.GetAll(ctx, CollectionTemplates)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, CollectionTemplates, item.Collection)
	}
}

func TestGormStore_Delete(t *testing.T) {
	store := setupStoreTestDB(t)
	ctx := context.Background()

	_, err := store.Save(ctx, CollectionSubmissions, "sub-1", map[string]any{"x": 1})
	require.NoError(t, err)

	removed, err := store.Delete(ctx, CollectionSubmissions, "sub-1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, CollectionSubmissions, "sub-1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestGormStore_Clear(t *testing.T) {
	store := setupStoreTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, err := store.Save(ctx, CollectionTemplates, id, map[string]any{"id": id})
		require.NoError(t, err)
	}
	_, err := store.Save(ctx, CollectionSubmissions, "keep", map[string]any{"id": "keep"})
	require.NoError(t, err)

	cleared, err := store.Clear(ctx, CollectionTemplates)
	require.NoError(t, err)
	assert.True(t, cleared)

	items, err := store.GetAll(ctx, CollectionTemplates)
	require.NoError(t, err)
	assert.Empty(t, items)

	// Other collections are untouched and the cleared one stays usable.
	kept, err := store.GetAll(ctx, CollectionSubmissions)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	_, err = store.Save(ctx, CollectionTemplates, "c", map[string]any{"id": "c"})
	require.NoError(t, err)

	cleared, err = store.Clear(ctx, "empty-collection")
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestGormStore_SaveAll(t *testing.T) {
	store := setupStoreTestDB(t)
	ctx := context.Background()

	saved, err := store.SaveAll(ctx, CollectionSubmissions, []BatchItem{
		{ID: "s-1", Payload: map[string]any{"n": 1}},
		{ID: "s-2", Payload: map[string]any{"n": 2}},
	})
	require.NoError(t, err)
	assert.Len(t, saved, 2)

	items, err := store.GetAll(ctx, CollectionSubmissions)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestGormStore_UsageStatistics(t *testing.T) {
	store := setupStoreTestDB(t)
	ctx := context.Background()

	_, err := store.Save(ctx, CollectionSubmissions, "s-1", map[string]any{"title": "one"})
	require.NoError(t, err)
	_, err = store.Save(ctx, CollectionSubmissions, "s-2", map[string]any{"title": "two"})
	require.NoError(t, err)
	_, err = store.Save(ctx, CollectionTemplates, "t-1", map[string]any{"name": "tpl"})
	require.NoError(t, err)

	stats, err := store.UsageStatistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalCount)
	assert.Equal(t, int64(2), stats.PerCollection[CollectionSubmissions].Count)
	assert.Equal(t, int64(1), stats.PerCollection[CollectionTemplates].Count)
	assert.Positive(t, stats.TotalBytes)
	assert.Positive(t, stats.PerCollection[CollectionSubmissions].ApproximateBytes)
}

func TestBatchError_Error(t *testing.T) {
	err := &BatchError{
		Collection: CollectionSubmissions,
		Failed:     map[string]error{"s-1": errors.New("boom")},
	}
	assert.Contains(t, err.Error(), "submissions")
	assert.Contains(t, err.Error(), "s-1")
	assert.Contains(t, err.Error(), "1 item(s)")
}
