// Package cache provides a content-addressed, filesystem-backed
// implementation of ports.ModuleCache (§3 CacheEntry).
package cache

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bicep-tools/modrestore/internal/application/ports"
	"github.com/bicep-tools/modrestore/internal/domain/entities"
	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// FSModuleCache lays out cache entries at
// <root>/<registry>/<repo segments...>/<tag>/<file name>, mirroring the
// on-disk shape named in §3.
type FSModuleCache struct {
	root string
}

var _ ports.ModuleCache = (*FSModuleCache)(nil)

// NewFSModuleCache creates root if it does not already exist and returns
// a cache rooted there.
func NewFSModuleCache(root string) (*FSModuleCache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &entities.LocalIOError{Path: root, Cause: err}
	}
	return &FSModuleCache{root: root}, nil
}

// Path returns the absolute cache directory for ref.
func (c *FSModuleCache) Path(ref values.ModuleReference) string {
	segments := append([]string{c.root}, ref.CacheSegments()...)
	return filepath.Join(segments...)
}

// Contains reports whether ref's cache directory exists and holds at
// least one non-directory entry whose name does not start with "." (so
// in-progress temp files do not count).
func (c *FSModuleCache) Contains(ctx context.Context, ref values.ModuleReference) (bool, error) {
	entries, err := os.ReadDir(c.Path(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &entities.LocalIOError{Path: c.Path(ref), Cause: err}
	}
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			return true, nil
		}
	}
	return false, nil
}

// WriteLayer creates-or-truncates fileName under ref's cache directory
// and copies content into it, creating the directory tree as needed. The
// write lands via a uniquely named temp file and an atomic rename, so a
// reader never observes a partially written layer; concurrent writers to
// the same path are still last-rename-wins (§3 invariants).
func (c *FSModuleCache) WriteLayer(ctx context.Context, ref values.ModuleReference, fileName string, content io.Reader) error {
	dir := c.Path(ref)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &entities.LocalIOError{Path: dir, Cause: err}
	}

	dest := filepath.Join(dir, fileName)
	tmp := filepath.Join(dir, "."+fileName+"."+uuid.NewString()+".tmp")

	f, err := os.Create(tmp)
	if err != nil {
		return &entities.LocalIOError{Path: tmp, Cause: err}
	}

	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(tmp)
		return &entities.LocalIOError{Path: tmp, Cause: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &entities.LocalIOError{Path: tmp, Cause: err}
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return &entities.LocalIOError{Path: dest, Cause: err}
	}
	return nil
}

// List enumerates every populated entry under the cache root. A leaf
// directory (one holding at least one regular file) is treated as one
// entry; its path relative to root decodes back into a reference as
// registry / repository segments... / tag.
func (c *FSModuleCache) List(ctx context.Context) ([]ports.CacheEntryInfo, error) {
	var results []ports.CacheEntryInfo

	err := filepath.WalkDir(c.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		files, err := leafFiles(path)
		if err != nil {
			return err
		}
		if files == nil {
			return nil
		}

		rel, err := filepath.Rel(c.root, path)
		if err != nil {
			return err
		}
		segments := strings.Split(rel, string(filepath.Separator))
		if len(segments) < 3 {
			return nil
		}

		registry := segments[0]
		tag := segments[len(segments)-1]
		repository := strings.Join(segments[1:len(segments)-1], "/")

		results = append(results, ports.CacheEntryInfo{
			Reference: values.NewOciReference(registry, repository, tag),
			Path:      path,
			Files:     files,
		})
		return nil
	})
	if err != nil {
		return nil, &entities.LocalIOError{Path: c.root, Cause: err}
	}

	return results, nil
}

// leafFiles returns the regular file names directly inside dir, or nil if
// dir holds no regular files (i.e. it is not a leaf entry).
func leafFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// Remove deletes ref's cache directory, if present, and prunes any
// ancestor directories left empty by its removal.
func (c *FSModuleCache) Remove(ctx context.Context, ref values.ModuleReference) error {
	dir := c.Path(ref)
	if err := os.RemoveAll(dir); err != nil {
		return &entities.LocalIOError{Path: dir, Cause: err}
	}
	c.pruneEmptyParents(filepath.Dir(dir))
	return nil
}

// pruneEmptyParents removes now-empty ancestor directories up to (but not
// including) root, used after Remove to keep the tree tidy.
func (c *FSModuleCache) pruneEmptyParents(dir string) {
	for dir != c.root && strings.HasPrefix(dir, c.root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		parent := filepath.Dir(dir)
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = parent
	}
}
