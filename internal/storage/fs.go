package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/transferguard/internal/common"
	"github.com/dmitrijs2005/transferguard/internal/filex"
)

// FSStore keeps each frame in its own file under a base directory.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		dir = "chunks"
	}
	abs, err := filex.EnsureSubdDir(dir)
	if err != nil {
		return nil, fmt.Errorf("chunk store: %w", err)
	}
	return &FSStore{dir: abs}, nil
}

func (s *FSStore) Dir() string { return s.dir }

func (s *FSStore) path(key string) (string, error) {
	if !filepath.IsLocal(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

func (s *FSStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	return filex.WriteFileAtomic(p, data, 0o600)
}

func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, common.ErrorNotFound)
	}
	return b, err
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := filex.RemoveIfExists(p); err != nil {
		return err
	}
	// drop the transfer directory once it is empty
	if dir := filepath.Dir(p); dir != s.dir {
		_ = os.Remove(dir)
	}
	return nil
}
