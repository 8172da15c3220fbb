package cache

import (
	"context"
	"testing"
	"time"

	"github.com/formflow/backend/internal/domain/forms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTemplates(t *testing.T, names ...string) []forms.Template {
	t.Helper()
	out := make([]forms.Template, 0, len(names))
	for _, name := range names {
		tpl, err := forms.NewTemplate(name, "rfq", "{{title}}", nil, false)
		require.NoError(t, err)
		out = append(out, *tpl)
	}
	return out
}

func TestInMemoryTemplateCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get returns the cached list", func(t *testing.T) {
		c := NewInMemoryTemplateCache()
		defer c.Close()

		templates := makeTemplates(t, "Quote")
		require.NoError(t, c.Set(ctx, "rfq", templates, 0))

		got, err := c.Get(ctx, "rfq")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Quote", got[0].Name)
	})

	t.Run("miss returns nil without error", func(t *testing.T) {
		c := NewInMemoryTemplateCache()
		defer c.Close()

		got, err := c.Get(ctx, "unknown")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("expired entries read as misses", func(t *testing.T) {
		c := NewInMemoryTemplateCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "rfq", makeTemplates(t, "Quote"), time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		got, err := c.Get(ctx, "rfq")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("nil list is not cached", func(t *testing.T) {
		c := NewInMemoryTemplateCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "rfq", nil, 0))
		got, err := c.Get(ctx, "rfq")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalidate all clears every entry", func(t *testing.T) {
		c := NewInMemoryTemplateCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "rfq", makeTemplates(t, "A"), 0))
		require.NoError(t, c.Set(ctx, "invoice", makeTemplates(t, "B"), 0))
		require.NoError(t, c.InvalidateAll(ctx))

		for _, formType := range []string{"rfq", "invoice"} {
			got, err := c.Get(ctx, formType)
			require.NoError(t, err)
			assert.Nil(t, got)
		}
	})

	t.Run("stats count hits and misses", func(t *testing.T) {
		c := NewInMemoryTemplateCache()
		defer c.Close()

		require.NoError(t, c.Set(ctx, "rfq", makeTemplates(t, "A"), 0))
		_, _ = c.Get(ctx, "rfq")
		_, _ = c.Get(ctx, "missing")

		hits, misses := c.GetStats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(1), misses)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		c := NewInMemoryTemplateCache()
		assert.NoError(t, c.Close())
		assert.NoError(t, c.Close())
	})
}
