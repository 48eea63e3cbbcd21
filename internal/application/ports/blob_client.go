// Package ports defines the interfaces the application layer depends on
// but does not implement: registry transport, the local cache, and the
// collaborators named in spec §6.
package ports

import (
	"context"
	"io"

	"github.com/bicep-tools/modrestore/internal/application/dto"
	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// BlobClient is the abstract registry client of §4.5. One implementation
// talks to an HTTPS OCI endpoint (via oras-go); another is an in-memory
// three-map fake used in tests.
type BlobClient interface {
	// DownloadManifest fetches a manifest by reference (tag or digest).
	// Fails with *entities.ModuleNotFoundError on 404, *entities.TransportError
	// on other transport failures.
	DownloadManifest(ctx context.Context, reference string, acceptMediaType string) (dto.ManifestDownload, error)

	// DownloadBlob fetches a blob by digest. Same failure set as
	// DownloadManifest.
	DownloadBlob(ctx context.Context, digest values.Digest) (io.ReadCloser, error)

	// UploadBlob uploads content and returns the digest the client
	// computed for it.
	UploadBlob(ctx context.Context, content io.ReadSeeker) (values.Digest, error)

	// UploadManifest uploads a manifest document with the given media type
	// under the given tag. The media type is passed through as given; the
	// implementations in this repository do not reject other media types.
	UploadManifest(ctx context.Context, content io.ReadSeeker, mediaType string, tag string) error
}

// BlobClientFactory mirrors the ContainerRegistryClientFactory collaborator
// of §6: it builds a BlobClient scoped to one registry/repository pair.
type BlobClientFactory interface {
	Create(ctx context.Context, registry, repository string, cred TokenCredential) (BlobClient, error)
}

// TokenCredential is the opaque bearer-token provider of §6. Acquisition
// and refresh are external to this engine.
type TokenCredential interface {
	Token(ctx context.Context) (string, error)
}
