package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes avatars to a directory served under /static/profile_pics.
type LocalStore struct {
	dir string
}

// NewLocalStore constructs a LocalStore, creating dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save writes the image to disk.
func (s *LocalStore) Save(_ context.Context, name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write avatar %s: %w", name, err)
	}
	return nil
}

// URL resolves the public path of a stored avatar.
func (s *LocalStore) URL(name string) string {
	return "/static/profile_pics/" + name
}
