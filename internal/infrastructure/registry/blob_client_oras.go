package registry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	godigest "github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/bicep-tools/modrestore/internal/application/dto"
	"github.com/bicep-tools/modrestore/internal/application/ports"
	"github.com/bicep-tools/modrestore/internal/domain/entities"
	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// BlobMediaType is the media type stamped on every plain blob upload;
// the manifest's own descriptors carry the meaningful media type.
const BlobMediaType = "application/octet-stream"

// OrasBlobClient talks to a real OCI-compliant HTTPS registry via
// oras-go's remote.Repository (§4.5).
type OrasBlobClient struct {
	repo *remote.Repository
}

var _ ports.BlobClient = (*OrasBlobClient)(nil)

// NewOrasBlobClient constructs a client scoped to one registry/repository
// pair, authenticating requests with a bearer token from cred.
func NewOrasBlobClient(registryHost, repository string, cred ports.TokenCredential) (*OrasBlobClient, error) {
	repo, err := remote.NewRepository(registryHost + "/" + repository)
	if err != nil {
		return nil, &entities.TransportError{Cause: err}
	}

	repo.Client = &auth.Client{
		Client: http.DefaultClient,
		Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
			if cred == nil {
				return auth.EmptyCredential, nil
			}
			token, err := cred.Token(ctx)
			if err != nil {
				return auth.EmptyCredential, err
			}
			return auth.Credential{RefreshToken: token}, nil
		},
	}
	repo.SkipReferrersGC = true

	return &OrasBlobClient{repo: repo}, nil
}

// DownloadManifest fetches the manifest named by reference (tag or
// digest), returning the server-reported content digest and a stream of
// the raw manifest bytes.
func (c *OrasBlobClient) DownloadManifest(ctx context.Context, reference string, acceptMediaType string) (dto.ManifestDownload, error) {
	desc, body, err := c.repo.Manifests().FetchReference(ctx, reference)
	if err != nil {
		return dto.ManifestDownload{}, classifyError(err)
	}

	return dto.ManifestDownload{
		DigestHeader: desc.Digest.String(),
		Body:         body,
	}, nil
}

// DownloadBlob fetches the blob named by digest.
func (c *OrasBlobClient) DownloadBlob(ctx context.Context, digest values.Digest) (io.ReadCloser, error) {
	target := ocispec.Descriptor{Digest: godigest.Digest(digest.String())}
	rc, err := c.repo.Blobs().Fetch(ctx, target)
	if err != nil {
		return nil, classifyError(err)
	}
	return rc, nil
}

// UploadBlob uploads content as a generic blob and returns the digest
// computed for it.
func (c *OrasBlobClient) UploadBlob(ctx context.Context, content io.ReadSeeker) (values.Digest, error) {
	digest, err := values.ComputeDigest(content)
	if err != nil {
		return values.Digest{}, err
	}
	size, err := streamLength(content)
	if err != nil {
		return values.Digest{}, err
	}

	desc := ocispec.Descriptor{
		MediaType: BlobMediaType,
		Digest:    godigest.Digest(digest.String()),
		Size:      size,
	}
	if err := c.repo.Blobs().Push(ctx, desc, io.NopCloser(content)); err != nil {
		return values.Digest{}, classifyError(err)
	}
	return digest, nil
}

// UploadManifest uploads content under tag with mediaType.
func (c *OrasBlobClient) UploadManifest(ctx context.Context, content io.ReadSeeker, mediaType string, tag string) error {
	body, err := io.ReadAll(content)
	if err != nil {
		return &entities.TransportError{Cause: err}
	}
	digest, err := values.ComputeDigest(content)
	if err != nil {
		return err
	}

	desc := ocispec.Descriptor{
		MediaType: mediaType,
		Digest:    godigest.Digest(digest.String()),
		Size:      int64(len(body)),
	}
	if err := c.repo.Manifests().PushReference(ctx, desc, io.NopCloser(bytes.NewReader(body)), tag); err != nil {
		return classifyError(err)
	}
	return nil
}

func classifyError(err error) error {
	if errors.Is(err, errdef.ErrNotFound) {
		return &entities.ModuleNotFoundError{}
	}
	return &entities.TransportError{Cause: err}
}

func streamLength(rs io.ReadSeeker) (int64, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, &entities.UnhandledError{Message: "failed to measure stream", Cause: err}
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return 0, &entities.UnhandledError{Message: "failed to rewind stream", Cause: err}
	}
	return size, nil
}
