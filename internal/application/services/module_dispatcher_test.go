package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/bicep-tools/modrestore/internal/application/dto"
	"github.com/bicep-tools/modrestore/internal/domain/entities"
	"github.com/bicep-tools/modrestore/internal/domain/values"
	"github.com/bicep-tools/modrestore/internal/infrastructure/cache"
	"github.com/bicep-tools/modrestore/internal/infrastructure/filesystem"
	"github.com/bicep-tools/modrestore/internal/infrastructure/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, registryEnabled bool) (*ModuleDispatcher, *ArtifactManager) {
	t.Helper()
	factory := registry.NewMemoryBlobClientFactory()
	moduleCache, err := cache.NewFSModuleCache(t.TempDir())
	require.NoError(t, err)
	artifacts := NewArtifactManager(factory, moduleCache, nil, nil)

	localRegistry := NewLocalRegistry(filesystem.NewLocalFileResolver())
	ociRegistry := NewOciRegistry(artifacts, moduleCache)
	registrySet := NewRegistrySet(localRegistry, ociRegistry)

	return NewModuleDispatcher(registrySet, registryEnabled, nil), artifacts
}

func TestModuleDispatcher_ValidReferences_SkipsMalformed(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t, true)
	refs := dispatcher.ValidReferences([]string{"./a.bicep", "fake:", "oci:example.com/x:v1"})
	require.Len(t, refs, 2)

	_, ok := dispatcher.TryGetError("fake:")
	assert.True(t, ok)
}

func TestModuleDispatcher_Restore_OciDisabled(t *testing.T) {
	dispatcher, _ := newTestDispatcher(t, false)
	ref := values.NewOciReference("example.com", "modules/x", "v1")

	didWork, err := dispatcher.Restore(context.Background(), []values.ModuleReference{ref})
	require.NoError(t, err)
	assert.False(t, didWork)

	dispatchErr, ok := dispatcher.TryGetError(ref.String())
	require.True(t, ok)
	var disabled *entities.FeatureDisabledError
	require.ErrorAs(t, dispatchErr, &disabled)
}

func TestModuleDispatcher_Restore_SkipsAlreadyCached(t *testing.T) {
	dispatcher, artifacts := newTestDispatcher(t, true)
	ref := values.NewOciReference("example.com", "modules/y", "v1")

	require.NoError(t, artifacts.Push(context.Background(), ref, dto.PushArtifact{
		Config: bytes.NewReader(nil),
		Layers: []dto.LayerSource{{
			Annotations: map[string]string{values.TitleAnnotation: "main.json"},
			Content:     bytes.NewReader([]byte("body")),
		}},
		Tag: ref.Tag(),
	}))
	require.NoError(t, artifacts.Pull(context.Background(), ref))

	didWork, err := dispatcher.Restore(context.Background(), []values.ModuleReference{ref})
	require.NoError(t, err)
	assert.False(t, didWork, "an already-cached reference requires no work")
}

func TestModuleDispatcher_Restore_PullsMissing(t *testing.T) {
	dispatcher, artifacts := newTestDispatcher(t, true)
	ref := values.NewOciReference("example.com", "modules/z", "v1")

	require.NoError(t, artifacts.Push(context.Background(), ref, dto.PushArtifact{
		Config: bytes.NewReader(nil),
		Layers: []dto.LayerSource{{
			Annotations: map[string]string{values.TitleAnnotation: "main.json"},
			Content:     bytes.NewReader([]byte("body")),
		}},
		Tag: ref.Tag(),
	}))

	didWork, err := dispatcher.Restore(context.Background(), []values.ModuleReference{ref})
	require.NoError(t, err)
	assert.True(t, didWork)

	_, ok := dispatcher.TryGetError(ref.String())
	assert.False(t, ok)

	path, err := dispatcher.TryGetLocalPath(context.Background(), ref)
	require.NoError(t, err)
	assert.Contains(t, path, "main.json")
}
