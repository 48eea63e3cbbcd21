package registry

import (
	"context"
	"sync"

	"github.com/bicep-tools/modrestore/internal/application/ports"
)

// MemoryBlobClientFactory hands out one shared MemoryBlobClient per
// registry/repository pair, so content pushed through one Create call is
// visible to a later Create for the same pair (§4.5, §6).
type MemoryBlobClientFactory struct {
	mu      sync.Mutex
	clients map[string]*MemoryBlobClient
}

var _ ports.BlobClientFactory = (*MemoryBlobClientFactory)(nil)

// NewMemoryBlobClientFactory constructs an empty factory.
func NewMemoryBlobClientFactory() *MemoryBlobClientFactory {
	return &MemoryBlobClientFactory{clients: make(map[string]*MemoryBlobClient)}
}

// Create returns the MemoryBlobClient for registry/repository, creating
// it on first use. cred is ignored; the fake never authenticates.
func (f *MemoryBlobClientFactory) Create(ctx context.Context, registry, repository string, cred ports.TokenCredential) (ports.BlobClient, error) {
	key := registry + "/" + repository

	f.mu.Lock()
	defer f.mu.Unlock()

	client, ok := f.clients[key]
	if !ok {
		client = NewMemoryBlobClient()
		f.clients[key] = client
	}
	return client, nil
}
