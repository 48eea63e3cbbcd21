package services

import (
	"context"
	"path/filepath"

	"github.com/bicep-tools/modrestore/internal/application/ports"
	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// ModuleEntryFileName is the layer file name treated as a module's
// compiled entry point once cached (mirrors the annotated layer title a
// well-formed publish produces).
const ModuleEntryFileName = "main.json"

// OciRegistry handles Oci module references, wrapping the Artifact
// Manager and the content-addressed cache (§4.8).
type OciRegistry struct {
	artifacts *ArtifactManager
	cache     ports.ModuleCache
}

// NewOciRegistry constructs an OciRegistry.
func NewOciRegistry(artifacts *ArtifactManager, cache ports.ModuleCache) *OciRegistry {
	return &OciRegistry{artifacts: artifacts, cache: cache}
}

var _ ports.Registry = (*OciRegistry)(nil)

// SchemeMatches reports whether ref is an Oci reference.
func (r *OciRegistry) SchemeMatches(ref values.ModuleReference) bool {
	return ref.IsOci()
}

// Restore pulls ref into the cache if it is not already present.
func (r *OciRegistry) Restore(ctx context.Context, ref values.ModuleReference) error {
	cached, err := r.cache.Contains(ctx, ref)
	if err != nil {
		return err
	}
	if cached {
		return nil
	}
	return r.artifacts.Pull(ctx, ref)
}

// LocalPath returns the absolute path to ref's cached entry file.
func (r *OciRegistry) LocalPath(ctx context.Context, ref values.ModuleReference) (string, error) {
	return filepath.Join(r.cache.Path(ref), ModuleEntryFileName), nil
}

// InCache reports whether ref is already materialized in the cache,
// without performing any network I/O.
func (r *OciRegistry) InCache(ctx context.Context, ref values.ModuleReference) (bool, error) {
	return r.cache.Contains(ctx, ref)
}
