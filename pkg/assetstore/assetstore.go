// Package assetstore holds the playable copies of uploaded files for the
// lifetime of a session. A stored asset is addressed by a locator path that
// stays valid until it is explicitly released.
package assetstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type Store struct {
	root string
}

// New creates a store rooted at dir, or at a fresh temp directory when dir is
// empty.
func New(dir string) (*Store, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "sjok-assets-")
		if err != nil {
			return nil, fmt.Errorf("assetstore: couldn't create temp dir: %w", err)
		}
		return &Store{root: tmp}, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("assetstore: couldn't create dir %q: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// Put writes the asset bytes under the given id and returns its locator.
func (s *Store) Put(id, name string, r io.Reader) (string, error) {
	locator := filepath.Join(s.root, fmt.Sprintf("%s%s", id, filepath.Ext(name)))
	f, err := os.OpenFile(locator, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("assetstore: couldn't create %q: %w", locator, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(locator)
		return "", fmt.Errorf("assetstore: couldn't write %q: %w", locator, err)
	}
	return locator, nil
}

// Release revokes a locator. Releasing an unknown or already released
// locator is a no-op.
func (s *Store) Release(locator string) {
	if locator == "" {
		return
	}
	// Absent locators are tolerated, teardown never propagates an error.
	_ = os.Remove(locator)
}

// Close removes the store root and everything still in it.
func (s *Store) Close() error {
	return os.RemoveAll(s.root)
}
