// Package file stores objects as files under a root directory.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"shinacap/internal/storage"
)

// Store maps keys to paths below root. Preconditions are only enforced
// between writers sharing this Store.
type Store struct {
	root string
	mu   sync.Mutex
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

// Get reads the file for key.
func (s *Store) Get(ctx context.Context, key string) (storage.Object, error) {
	if err := ctx.Err(); err != nil {
		return storage.Object{}, err
	}
	path, err := s.path(key)
	if err != nil {
		return storage.Object{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(path)
}

func (s *Store) read(path string) (storage.Object, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return storage.Object{}, storage.ErrNotFound
		}
		return storage.Object{}, fmt.Errorf("stat object: %w", err)
	}
	if stat.IsDir() {
		return storage.Object{}, fmt.Errorf("object path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return storage.Object{}, fmt.Errorf("read object: %w", err)
	}
	return storage.Object{Data: data, ETag: storage.ContentETag(data)}, nil
}

// Put writes data atomically via a temp file and rename.
func (s *Store) Put(ctx context.Context, key string, data []byte, opts storage.PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read(path)
	exists := true
	if err != nil {
		if err != storage.ErrNotFound {
			return err
		}
		exists = false
	}
	if err := storage.CheckPreconditions(current.ETag, exists, opts); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write object tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename object: %w", err)
	}
	return nil
}
