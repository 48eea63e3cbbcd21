package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bicep-tools/modrestore/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSModuleCache(t *testing.T) {
	root := t.TempDir()
	moduleCache, err := NewFSModuleCache(root)
	require.NoError(t, err)

	ref := values.NewOciReference("registry.example.com", "bicep/modules/storage", "1.0.0")

	t.Run("Contains_Empty", func(t *testing.T) {
		contains, err := moduleCache.Contains(context.Background(), ref)
		require.NoError(t, err)
		assert.False(t, contains)
	})

	t.Run("WriteLayer", func(t *testing.T) {
		err := moduleCache.WriteLayer(context.Background(), ref, "main.json", bytes.NewReader([]byte("module body")))
		require.NoError(t, err)

		path := filepath.Join(root, "registry.example.com", "bicep", "modules", "storage", "1.0.0", "main.json")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "module body", string(data))
	})

	t.Run("Contains_Populated", func(t *testing.T) {
		contains, err := moduleCache.Contains(context.Background(), ref)
		require.NoError(t, err)
		assert.True(t, contains)
	})

	t.Run("Path", func(t *testing.T) {
		expected := filepath.Join(root, "registry.example.com", "bicep", "modules", "storage", "1.0.0")
		assert.Equal(t, expected, moduleCache.Path(ref))
	})

	t.Run("List", func(t *testing.T) {
		entries, err := moduleCache.List(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Reference.Equals(ref))
		assert.Equal(t, []string{"main.json"}, entries[0].Files)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, moduleCache.Remove(context.Background(), ref))

		contains, err := moduleCache.Contains(context.Background(), ref)
		require.NoError(t, err)
		assert.False(t, contains)

		entries, err := moduleCache.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
