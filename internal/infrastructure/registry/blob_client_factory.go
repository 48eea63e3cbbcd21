package registry

import (
	"context"

	"github.com/bicep-tools/modrestore/internal/application/ports"
)

// ContainerRegistryClientFactory is the production ports.BlobClientFactory,
// building a new OrasBlobClient for each Create call
// (§6 ContainerRegistryClientFactory).
type ContainerRegistryClientFactory struct{}

var _ ports.BlobClientFactory = ContainerRegistryClientFactory{}

// NewContainerRegistryClientFactory constructs a ContainerRegistryClientFactory.
func NewContainerRegistryClientFactory() ContainerRegistryClientFactory {
	return ContainerRegistryClientFactory{}
}

// Create builds an OrasBlobClient scoped to registryHost/repository.
func (ContainerRegistryClientFactory) Create(ctx context.Context, registryHost, repository string, cred ports.TokenCredential) (ports.BlobClient, error) {
	return NewOrasBlobClient(registryHost, repository, cred)
}
