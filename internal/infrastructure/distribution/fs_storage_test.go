package distribution

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystemSaver_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("writes under the base path with nested directories", func(t *testing.T) {
		base := t.TempDir()
		saver, err := NewFileSystemSaver(base, nil)
		require.NoError(t, err)

		path, err := saver.Save(ctx, "2026/08/doc.txt", []byte("content"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, "2026", "08", "doc.txt"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "content", string(data))
	})

	t.Run("rejects empty data", func(t *testing.T) {
		saver, err := NewFileSystemSaver(t.TempDir(), nil)
		require.NoError(t, err)

		_, err = saver.Save(ctx, "doc.txt", nil)
		require.Error(t, err)
	})

	t.Run("rejects path traversal", func(t *testing.T) {
		saver, err := NewFileSystemSaver(t.TempDir(), nil)
		require.NoError(t, err)

		for _, path := range []string{"../escape.txt", "a/../../escape.txt", "/etc/passwd"} {
			_, err := saver.Save(ctx, path, []byte("x"))
			require.Error(t, err, path)
		}
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		saver, err := NewFileSystemSaver(t.TempDir(), nil)
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = saver.Save(cancelled, "doc.txt", []byte("x"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileSystemArtifactStore(t *testing.T) {
	ctx := context.Background()

	t.Run("stores artifact and returns serving URL", func(t *testing.T) {
		base := t.TempDir()
		store, err := NewFileSystemArtifactStore(base, "/api/v1/artifacts/", nil)
		require.NoError(t, err)

		url, err := store.Store(ctx, "sub-1.txt", []byte("artifact"))
		require.NoError(t, err)
		assert.Equal(t, "/api/v1/artifacts/sub-1.txt", url)

		data, err := os.ReadFile(filepath.Join(base, "sub-1.txt"))
		require.NoError(t, err)
		assert.Equal(t, "artifact", string(data))
	})

	t.Run("open returns the stored file", func(t *testing.T) {
		store, err := NewFileSystemArtifactStore(t.TempDir(), "/api/v1/artifacts", nil)
		require.NoError(t, err)

		_, err = store.Store(ctx, "sub-2.txt", []byte("payload"))
		require.NoError(t, err)

		f, err := store.Open("sub-2.txt")
		require.NoError(t, err)
		defer f.Close()

		info, err := f.Stat()
		require.NoError(t, err)
		assert.Equal(t, int64(len("payload")), info.Size())
	})

	t.Run("rejects traversal and empty data", func(t *testing.T) {
		store, err := NewFileSystemArtifactStore(t.TempDir(), "", nil)
		require.NoError(t, err)

		_, err = store.Store(ctx, "../escape.txt", []byte("x"))
		require.Error(t, err)

		_, err = store.Store(ctx, "ok.txt", nil)
		require.Error(t, err)

		_, err = store.Open("../../etc/passwd")
		require.Error(t, err)
	})

	t.Run("honours deadline", func(t *testing.T) {
		store, err := NewFileSystemArtifactStore(t.TempDir(), "", nil)
		require.NoError(t, err)

		expired, cancel := context.WithTimeout(ctx, time.Nanosecond)
		defer cancel()
		time.Sleep(time.Millisecond)

		_, err = store.Store(expired, "late.txt", []byte("x"))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
