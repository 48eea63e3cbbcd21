package ports

import (
	"context"

	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// Registry is the capability set §9 calls for in place of a class
// hierarchy: a scheme-scoped implementation that can restore a reference
// into the cache, resolve its local path, and report cache membership.
// There are exactly two implementations, Local and Oci (§4.8).
type Registry interface {
	// SchemeMatches reports whether this Registry handles ref's scheme.
	SchemeMatches(ref values.ModuleReference) bool

	// Restore materializes ref locally if it is not already present.
	// A no-op for Local references.
	Restore(ctx context.Context, ref values.ModuleReference) error

	// LocalPath resolves ref to an absolute filesystem path.
	LocalPath(ctx context.Context, ref values.ModuleReference) (string, error)

	// InCache reports whether ref is already materialized, without
	// performing any network I/O.
	InCache(ctx context.Context, ref values.ModuleReference) (bool, error)
}
