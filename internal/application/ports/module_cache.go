package ports

import (
	"context"
	"io"

	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// CacheEntryInfo describes one populated cache entry, used by the cache
// listing surface (SPEC_FULL "Cache listing and pruning").
type CacheEntryInfo struct {
	Reference values.ModuleReference
	Path      string
	Files     []string
}

// ModuleCache maps a module reference to a directory on disk containing
// downloaded layers (§3 CacheEntry, component 5).
type ModuleCache interface {
	// Contains reports whether ref is already materialized in the cache.
	Contains(ctx context.Context, ref values.ModuleReference) (bool, error)

	// Path returns the absolute cache directory for ref, whether or not
	// it has been populated yet.
	Path(ref values.ModuleReference) string

	// WriteLayer creates-or-truncates fileName under ref's cache
	// directory and copies content into it, creating the directory if
	// needed. Concurrent writers to the same path are last-writer-wins
	// (§3 invariants).
	WriteLayer(ctx context.Context, ref values.ModuleReference, fileName string, content io.Reader) error

	// List enumerates every populated entry in the cache.
	List(ctx context.Context) ([]CacheEntryInfo, error)

	// Remove deletes ref's cache directory, if present.
	Remove(ctx context.Context, ref values.ModuleReference) error
}
