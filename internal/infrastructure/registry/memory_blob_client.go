// Package registry provides BlobClient implementations: one backed by a
// real OCI-compliant HTTPS endpoint, one an in-memory fake for tests
// (§4.5).
package registry

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/bicep-tools/modrestore/internal/application/dto"
	"github.com/bicep-tools/modrestore/internal/application/ports"
	"github.com/bicep-tools/modrestore/internal/domain/entities"
	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// MemoryBlobClient is an in-memory fake of the registry transport,
// keyed by tag for manifests and by digest for blobs (§4.5). It is
// reusable across tests exercising pull, push, and round-trip behavior.
type MemoryBlobClient struct {
	mu sync.Mutex

	manifestsByTag map[string][]byte
	blobsByDigest  map[values.Digest][]byte
	mediaTypes     map[string]string
}

var _ ports.BlobClient = (*MemoryBlobClient)(nil)

// NewMemoryBlobClient constructs an empty MemoryBlobClient.
func NewMemoryBlobClient() *MemoryBlobClient {
	return &MemoryBlobClient{
		manifestsByTag: make(map[string][]byte),
		blobsByDigest:  make(map[values.Digest][]byte),
		mediaTypes:     make(map[string]string),
	}
}

// DownloadManifest returns the manifest most recently uploaded under
// reference, along with its content digest as the Docker-Content-Digest
// header value.
func (c *MemoryBlobClient) DownloadManifest(ctx context.Context, reference string, acceptMediaType string) (dto.ManifestDownload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, ok := c.manifestsByTag[reference]
	if !ok {
		return dto.ManifestDownload{}, &entities.ModuleNotFoundError{}
	}

	digest, err := values.ComputeDigest(bytes.NewReader(body))
	if err != nil {
		return dto.ManifestDownload{}, err
	}

	return dto.ManifestDownload{
		DigestHeader: digest.String(),
		Body:         io.NopCloser(bytes.NewReader(body)),
	}, nil
}

// DownloadBlob returns the blob previously stored under digest.
func (c *MemoryBlobClient) DownloadBlob(ctx context.Context, digest values.Digest) (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, ok := c.blobsByDigest[digest]
	if !ok {
		return nil, &entities.ModuleNotFoundError{}
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

// UploadBlob stores content under its computed digest and returns that
// digest.
func (c *MemoryBlobClient) UploadBlob(ctx context.Context, content io.ReadSeeker) (values.Digest, error) {
	digest, err := values.ComputeDigest(content)
	if err != nil {
		return values.Digest{}, err
	}
	body, err := io.ReadAll(content)
	if err != nil {
		return values.Digest{}, &entities.TransportError{Cause: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.blobsByDigest[digest] = body
	return digest, nil
}

// UploadManifest stores content under tag, recording mediaType for later
// inspection by tests.
func (c *MemoryBlobClient) UploadManifest(ctx context.Context, content io.ReadSeeker, mediaType string, tag string) error {
	body, err := io.ReadAll(content)
	if err != nil {
		return &entities.TransportError{Cause: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifestsByTag[tag] = body
	c.mediaTypes[tag] = mediaType
	return nil
}

// ManifestMediaType returns the media type most recently uploaded under
// tag, for test assertions.
func (c *MemoryBlobClient) ManifestMediaType(tag string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mediaTypes[tag]
}
