// Package fsbackend stores one array per directory on the local
// filesystem: a meta.json document next to zero-padded chunk files.
package fsbackend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/arraylab/cloudarray/internal/backend"
)

// Scheme is the URL scheme this backend serves.
const Scheme = "file"

const (
	metaFile = "meta.json"
	dirPerm  = 0o755
	filePerm = 0o644
)

// Register installs the file:// factory.
func Register() {
	backend.RegisterFactory(backend.Factory{
		Scheme:      Scheme,
		Description: "local filesystem store, one directory per array",
		Open:        open,
		Validate:    validate,
	})
}

func validate(u *url.URL, _ backend.Config) error {
	if u.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// Store persists an array under a single directory.
type Store struct {
	dir string
}

var _ backend.Backend = (*Store)(nil)

func open(_ context.Context, u *url.URL, _ backend.Config) (backend.Backend, error) {
	return &Store{dir: filepath.FromSlash(u.Path)}, nil
}

// New returns a store rooted at dir. Used directly by tests; URL opens
// go through the registry.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (b *Store) chunkPath(n int) string {
	return filepath.Join(b.dir, fmt.Sprintf("chunk-%08d.bin", n))
}

func (b *Store) SaveChunk(_ context.Context, n int, data []byte) error {
	if err := os.MkdirAll(b.dir, dirPerm); err != nil {
		return fmt.Errorf("create array directory: %w", err)
	}
	return writeAtomic(b.chunkPath(n), data)
}

func (b *Store) ReadChunk(_ context.Context, n int) ([]byte, error) {
	data, err := os.ReadFile(b.chunkPath(n))
	if errors.Is(err, os.ErrNotExist) {
		return nil, backend.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read chunk %d: %w", n, err)
	}
	return data, nil
}

func (b *Store) SaveMetadata(_ context.Context, doc []byte) error {
	if err := os.MkdirAll(b.dir, dirPerm); err != nil {
		return fmt.Errorf("create array directory: %w", err)
	}
	return writeAtomic(filepath.Join(b.dir, metaFile), doc)
}

func (b *Store) ReadMetadata(_ context.Context) ([]byte, error) {
	doc, err := os.ReadFile(filepath.Join(b.dir, metaFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return doc, nil
}

func (b *Store) Delete(_ context.Context) error {
	return os.RemoveAll(b.dir)
}

func (b *Store) Close() error { return nil }

// writeAtomic writes via a temp file and rename so a crashed write
// never leaves a truncated chunk behind.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
