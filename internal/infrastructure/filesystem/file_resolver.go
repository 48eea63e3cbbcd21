// Package filesystem adapts the local disk to the engine's ports:
// resolving and reading the files module references point at.
package filesystem

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bicep-tools/modrestore/internal/application/ports"
	"github.com/bicep-tools/modrestore/internal/domain/entities"
)

// LocalFileResolver resolves Local module references against the
// filesystem, relative to a referring file's directory (§6 FileResolver).
type LocalFileResolver struct{}

var _ ports.FileResolver = LocalFileResolver{}

// NewLocalFileResolver constructs a LocalFileResolver.
func NewLocalFileResolver() LocalFileResolver {
	return LocalFileResolver{}
}

// Read reads the file at uri.
func (LocalFileResolver) Read(ctx context.Context, uri string) ([]byte, error) {
	data, err := os.ReadFile(uri)
	if err != nil {
		return nil, &entities.LocalIOError{Path: uri, Cause: err}
	}
	return data, nil
}

// Resolve joins relativePath against baseURI's directory, or against the
// current working directory if baseURI is empty, and returns the
// resulting absolute path.
func (LocalFileResolver) Resolve(ctx context.Context, baseURI, relativePath string) (string, error) {
	base := baseURI
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", &entities.LocalIOError{Path: relativePath, Cause: err}
		}
		base = wd
	} else {
		base = filepath.Dir(base)
	}

	joined := filepath.Join(base, relativePath)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", &entities.LocalIOError{Path: joined, Cause: err}
	}
	return abs, nil
}
