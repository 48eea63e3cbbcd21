package ports

import "context"

// CompilationManager is the best-effort refresh callback of §6. Failures
// returned from Refresh are swallowed by the scheduler; this is a
// notification, not a request-response call.
type CompilationManager interface {
	Refresh(ctx context.Context, documentURI string) error
}

// FileResolver isolates the Local registry (and tests) from the real
// filesystem, per §6.
type FileResolver interface {
	Read(ctx context.Context, uri string) ([]byte, error)
	Resolve(ctx context.Context, baseURI, relativePath string) (string, error)
}
