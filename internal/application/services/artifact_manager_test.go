package services

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bicep-tools/modrestore/internal/application/dto"
	"github.com/bicep-tools/modrestore/internal/application/ports"
	"github.com/bicep-tools/modrestore/internal/domain/entities"
	"github.com/bicep-tools/modrestore/internal/domain/values"
	"github.com/bicep-tools/modrestore/internal/infrastructure/cache"
	"github.com/bicep-tools/modrestore/internal/infrastructure/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArtifactManager(t *testing.T) (*ArtifactManager, *registry.MemoryBlobClientFactory, *cache.FSModuleCache) {
	t.Helper()
	factory := registry.NewMemoryBlobClientFactory()
	moduleCache, err := cache.NewFSModuleCache(t.TempDir())
	require.NoError(t, err)
	credential := registry.NewEnvTokenCredential("BICEP_TEST_TOKEN_UNSET")
	manager := NewArtifactManager(factory, moduleCache, credential, nil)
	return manager, factory, moduleCache
}

func publishFixture(t *testing.T, manager *ArtifactManager, ref values.ModuleReference, layerContent []byte) {
	t.Helper()
	artifact := dto.PushArtifact{
		Config: bytes.NewReader(nil),
		Layers: []dto.LayerSource{
			{
				Annotations: map[string]string{values.TitleAnnotation: "main.json"},
				Content:     bytes.NewReader(layerContent),
			},
		},
		Tag: ref.Tag(),
	}
	require.NoError(t, manager.Push(context.Background(), ref, artifact))
}

// §8 scenario 4: a push followed by a pull of the same reference produces
// an identical cached layer.
func TestArtifactManager_PushThenPullRoundTrip(t *testing.T) {
	manager, _, moduleCache := newTestArtifactManager(t)
	ref := values.NewOciReference("registry.example.com", "bicep/modules/storage", "1.0.0")

	publishFixture(t, manager, ref, []byte(`{"kind":"storage"}`))

	require.NoError(t, manager.Pull(context.Background(), ref))

	data, err := readCachedFile(moduleCache.Path(ref), "main.json")
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"storage"}`, string(data))
}

// §8 scenario 1: pull happy path populates every layer under the cache
// entry for the reference.
func TestArtifactManager_Pull_HappyPath(t *testing.T) {
	manager, _, moduleCache := newTestArtifactManager(t)
	ref := values.NewOciReference("registry.example.com", "bicep/modules/network", "2.1.0")
	publishFixture(t, manager, ref, []byte("network module bytes"))

	require.NoError(t, manager.Pull(context.Background(), ref))

	contains, err := moduleCache.Contains(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, contains)
}

// §8 scenario 2: a manifest whose Docker-Content-Digest header does not
// match its body fails with *entities.IntegrityError.
func TestArtifactManager_Pull_DigestMismatch(t *testing.T) {
	moduleCache, err := cache.NewFSModuleCache(t.TempDir())
	require.NoError(t, err)
	factory := tamperedFactory{body: []byte(`{"schema_version":2,"config":{"media_type":"x","digest":"sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855","size":0},"layers":[]}`)}
	manager := NewArtifactManager(factory, moduleCache, nil, nil)

	ref := values.NewOciReference("registry.example.com", "bicep/modules/bad-digest", "1.0.0")

	err = manager.Pull(context.Background(), ref)
	var integrity *entities.IntegrityError
	require.ErrorAs(t, err, &integrity)
}

// tamperedFactory and tamperedClient serve a manifest whose declared
// digest header never matches its body, for scenario 2 above.
type tamperedFactory struct {
	body []byte
}

func (f tamperedFactory) Create(ctx context.Context, registryHost, repository string, cred ports.TokenCredential) (ports.BlobClient, error) {
	return tamperedClient{body: f.body}, nil
}

type tamperedClient struct {
	body []byte
}

func (c tamperedClient) DownloadManifest(ctx context.Context, reference string, acceptMediaType string) (dto.ManifestDownload, error) {
	return dto.ManifestDownload{
		DigestHeader: "sha256:0000000000000000000000000000000000000000000000000000000000000000",
		Body:         io.NopCloser(bytes.NewReader(c.body)),
	}, nil
}

func (c tamperedClient) DownloadBlob(ctx context.Context, digest values.Digest) (io.ReadCloser, error) {
	return nil, &entities.ModuleNotFoundError{}
}

func (c tamperedClient) UploadBlob(ctx context.Context, content io.ReadSeeker) (values.Digest, error) {
	return values.Digest{}, nil
}

func (c tamperedClient) UploadManifest(ctx context.Context, content io.ReadSeeker, mediaType string, tag string) error {
	return nil
}

// §8 scenario 3: a config descriptor with the wrong media type fails with
// *entities.NotABicepModuleError rather than being treated as a module.
func TestArtifactManager_Pull_WrongConfigMediaType(t *testing.T) {
	manager, factory, _ := newTestArtifactManager(t)
	ref := values.NewOciReference("registry.example.com", "bicep/modules/wrong-config", "1.0.0")

	client, err := factory.Create(context.Background(), ref.Registry(), ref.Repository(), nil)
	require.NoError(t, err)
	memClient := client.(*registry.MemoryBlobClient)

	config, err := entities.NewDescriptor("application/vnd.unexpected+json", bytes.NewReader(nil), 0, nil)
	require.NoError(t, err)
	manifest := entities.NewManifest(config, nil)
	manifestBytes, err := entities.Marshal(manifest)
	require.NoError(t, err)

	require.NoError(t, memClient.UploadManifest(context.Background(), bytes.NewReader(manifestBytes), values.ManifestMediaType, ref.Tag()))

	err = manager.Pull(context.Background(), ref)
	var notAModule *entities.NotABicepModuleError
	require.ErrorAs(t, err, &notAModule)
}

func readCachedFile(dir, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(dir, name))
}
