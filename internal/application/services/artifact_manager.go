package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bicep-tools/modrestore/internal/application/dto"
	"github.com/bicep-tools/modrestore/internal/application/ports"
	"github.com/bicep-tools/modrestore/internal/domain/entities"
	"github.com/bicep-tools/modrestore/internal/domain/values"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxConcurrentLayers bounds how many layers of one pull download
// at once (SPEC_FULL "Artifact Manager").
const DefaultMaxConcurrentLayers = 4

// ArtifactManager orchestrates pull (§4.6) and push (§4.7) for OCI module
// artifacts. It deduplicates concurrent pulls of the same reference with
// singleflight and bounds per-pull layer concurrency with a semaphore.
type ArtifactManager struct {
	factory             ports.BlobClientFactory
	cache               ports.ModuleCache
	credential          ports.TokenCredential
	logger              *slog.Logger
	maxConcurrentLayers int64

	inflight singleflight.Group
}

// NewArtifactManager constructs an ArtifactManager.
func NewArtifactManager(
	factory ports.BlobClientFactory,
	cache ports.ModuleCache,
	credential ports.TokenCredential,
	logger *slog.Logger,
) *ArtifactManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactManager{
		factory:             factory,
		cache:               cache,
		credential:          credential,
		logger:              logger,
		maxConcurrentLayers: DefaultMaxConcurrentLayers,
	}
}

// Pull downloads ref's manifest, verifies its integrity and module-config
// profile, then downloads and caches every layer (§4.6). Concurrent Pull
// calls for the same reference share one underlying pull.
func (m *ArtifactManager) Pull(ctx context.Context, ref values.ModuleReference) error {
	_, err, _ := m.inflight.Do(ref.String(), func() (any, error) {
		return nil, m.pull(ctx, ref)
	})
	return err
}

func (m *ArtifactManager) pull(ctx context.Context, ref values.ModuleReference) error {
	client, err := m.factory.Create(ctx, ref.Registry(), ref.Repository(), m.credential)
	if err != nil {
		return &entities.TransportError{Cause: err}
	}

	download, err := client.DownloadManifest(ctx, ref.Tag(), values.ManifestMediaType)
	if err != nil {
		return err // already *entities.ModuleNotFoundError or *entities.TransportError
	}
	defer download.Body.Close()

	body, err := io.ReadAll(download.Body)
	if err != nil {
		return &entities.TransportError{Cause: err}
	}

	if err := verifyManifestDigest(download.DigestHeader, body); err != nil {
		return err
	}

	manifest, err := entities.Unmarshal(body)
	if err != nil {
		return err // already *entities.InvalidManifestError
	}

	if err := validateModuleConfig(ref, manifest.Config); err != nil {
		return err
	}

	return m.downloadLayers(ctx, client, ref, manifest.Layers)
}

func verifyManifestDigest(header string, body []byte) error {
	if header == "" {
		return &entities.IntegrityError{}
	}
	expected, err := values.ParseDigest(header)
	if err != nil {
		return &entities.IntegrityError{}
	}
	actual, err := values.ComputeDigest(bytes.NewReader(body))
	if err != nil {
		return &entities.TransportError{Cause: err}
	}
	if !expected.Equals(actual) {
		return &entities.IntegrityError{Expected: expected, Actual: actual}
	}
	return nil
}

func validateModuleConfig(ref values.ModuleReference, config entities.Descriptor) error {
	if !strings.EqualFold(config.MediaType, values.ModuleConfigMediaType) {
		return &entities.NotABicepModuleError{
			Reference: ref,
			Reason:    fmt.Sprintf("unexpected config media type %q", config.MediaType),
		}
	}
	if config.Size != 0 {
		return &entities.NotABicepModuleError{
			Reference: ref,
			Reason:    fmt.Sprintf("expected empty config, got size %d", config.Size),
		}
	}
	return nil
}

func (m *ArtifactManager) downloadLayers(ctx context.Context, client ports.BlobClient, ref values.ModuleReference, layers []entities.Descriptor) error {
	sem := semaphore.NewWeighted(m.maxConcurrentLayers)
	group, gCtx := errgroup.WithContext(ctx)

	for _, layer := range layers {
		layer := layer
		if err := sem.Acquire(gCtx, 1); err != nil {
			return &entities.TransportError{Cause: err}
		}
		group.Go(func() error {
			defer sem.Release(1)
			return m.downloadLayer(gCtx, client, ref, layer)
		})
	}

	return group.Wait()
}

func (m *ArtifactManager) downloadLayer(ctx context.Context, client ports.BlobClient, ref values.ModuleReference, layer entities.Descriptor) error {
	stream, err := client.DownloadBlob(ctx, layer.Digest)
	if err != nil {
		return err // already typed
	}
	defer stream.Close()

	fileName := layer.FileName()
	if err := m.cache.WriteLayer(ctx, ref, fileName, stream); err != nil {
		return &entities.LocalIOError{Path: m.cache.Path(ref), Cause: err}
	}
	m.logger.Debug("layer cached", "reference", ref.String(), "file", fileName, "digest", layer.Digest.String())
	return nil
}

// Push uploads the config and layers of artifact, composes a manifest, and
// uploads it under ref's tag (§4.7). Every stream is read, rewound, then
// reused per the stream-ownership contract in §4.7/§9.
func (m *ArtifactManager) Push(ctx context.Context, ref values.ModuleReference, artifact dto.PushArtifact) error {
	client, err := m.factory.Create(ctx, ref.Registry(), ref.Repository(), m.credential)
	if err != nil {
		return &entities.TransportError{Cause: err}
	}

	configDescriptor, err := m.uploadBlobDescriptor(ctx, client, values.ModuleConfigMediaType, artifact.Config, nil)
	if err != nil {
		return err
	}

	layerDescriptors := make([]entities.Descriptor, 0, len(artifact.Layers))
	for _, layer := range artifact.Layers {
		descriptor, err := m.uploadBlobDescriptor(ctx, client, values.ModuleLayerMediaType, layer.Content, layer.Annotations)
		if err != nil {
			return err
		}
		layerDescriptors = append(layerDescriptors, descriptor)
	}

	manifest := entities.NewManifest(configDescriptor, layerDescriptors)
	manifestBytes, err := entities.Marshal(manifest)
	if err != nil {
		return &entities.UnhandledError{Message: "encoding manifest", Cause: err}
	}

	if err := client.UploadManifest(ctx, bytes.NewReader(manifestBytes), values.ManifestMediaType, ref.Tag()); err != nil {
		return err
	}
	return nil
}

func (m *ArtifactManager) uploadBlobDescriptor(ctx context.Context, client ports.BlobClient, mediaType string, content io.ReadSeeker, annotations map[string]string) (entities.Descriptor, error) {
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return entities.Descriptor{}, &entities.UnhandledError{Message: "rewinding stream before upload", Cause: err}
	}

	size, err := streamLength(content)
	if err != nil {
		return entities.Descriptor{}, &entities.UnhandledError{Message: "measuring stream length", Cause: err}
	}

	digest, err := client.UploadBlob(ctx, content)
	if err != nil {
		return entities.Descriptor{}, err
	}

	return entities.Descriptor{
		MediaType:   mediaType,
		Digest:      digest,
		Size:        size,
		Annotations: annotations,
	}, nil
}

// streamLength measures a seekable stream's length without consuming it
// for the caller: it seeks to the end, records the position, then rewinds
// to the start again.
func streamLength(rs io.ReadSeeker) (int64, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}
