package services

import (
	"context"

	"github.com/bicep-tools/modrestore/internal/application/ports"
	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// LocalRegistry handles Local module references by simple filesystem
// resolution (§4.8). Restore is a no-op: there is nothing to fetch.
type LocalRegistry struct {
	resolver ports.FileResolver
}

// NewLocalRegistry constructs a LocalRegistry.
func NewLocalRegistry(resolver ports.FileResolver) *LocalRegistry {
	return &LocalRegistry{resolver: resolver}
}

var _ ports.Registry = (*LocalRegistry)(nil)

// SchemeMatches reports whether ref is a Local reference.
func (r *LocalRegistry) SchemeMatches(ref values.ModuleReference) bool {
	return ref.IsLocal()
}

// Restore is a no-op for Local references: the referenced file already
// exists on disk.
func (r *LocalRegistry) Restore(ctx context.Context, ref values.ModuleReference) error {
	return nil
}

// LocalPath resolves ref's path relative to the current working
// directory, via the injected FileResolver (§6).
func (r *LocalRegistry) LocalPath(ctx context.Context, ref values.ModuleReference) (string, error) {
	return r.resolver.Resolve(ctx, "", ref.Path())
}

// InCache always reports true for Local references: there is no cache
// layer between "referenced" and "usable".
func (r *LocalRegistry) InCache(ctx context.Context, ref values.ModuleReference) (bool, error) {
	return true, nil
}
