// Package backendtest runs the behavior every backend must share.
package backendtest

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/arraylab/cloudarray/internal/backend"
)

// Run exercises the Backend contract against a fresh store produced by
// open. Each subtest gets its own store.
func Run(t *testing.T, open func(t *testing.T) backend.Backend) {
	t.Helper()

	ctx := context.Background()

	t.Run("MissingMetadata", func(t *testing.T) {
		b := open(t)
		defer b.Close()

		_, err := b.ReadMetadata(ctx)
		if !errors.Is(err, backend.ErrNotFound) {
			t.Errorf("ReadMetadata() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("MetadataRoundTrip", func(t *testing.T) {
		b := open(t)
		defer b.Close()

		doc := []byte(`{"shape":[4,4]}`)
		if err := b.SaveMetadata(ctx, doc); err != nil {
			t.Fatalf("SaveMetadata() error = %v", err)
		}
		got, err := b.ReadMetadata(ctx)
		if err != nil {
			t.Fatalf("ReadMetadata() error = %v", err)
		}
		if !bytes.Equal(got, doc) {
			t.Errorf("ReadMetadata() = %q, want %q", got, doc)
		}
	})

	t.Run("MissingChunk", func(t *testing.T) {
		b := open(t)
		defer b.Close()

		_, err := b.ReadChunk(ctx, 0)
		if !errors.Is(err, backend.ErrChunkNotFound) {
			t.Errorf("ReadChunk() error = %v, want ErrChunkNotFound", err)
		}
	})

	t.Run("ChunkRoundTrip", func(t *testing.T) {
		b := open(t)
		defer b.Close()

		payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
		if err := b.SaveChunk(ctx, 3, payload); err != nil {
			t.Fatalf("SaveChunk() error = %v", err)
		}
		got, err := b.ReadChunk(ctx, 3)
		if err != nil {
			t.Fatalf("ReadChunk() error = %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Errorf("ReadChunk() = %v, want %v", got, payload)
		}

		// Other chunk numbers stay missing.
		if _, err := b.ReadChunk(ctx, 4); !errors.Is(err, backend.ErrChunkNotFound) {
			t.Errorf("ReadChunk(4) error = %v, want ErrChunkNotFound", err)
		}
	})

	t.Run("ChunkOverwrite", func(t *testing.T) {
		b := open(t)
		defer b.Close()

		if err := b.SaveChunk(ctx, 0, []byte{1, 1}); err != nil {
			t.Fatalf("SaveChunk() error = %v", err)
		}
		if err := b.SaveChunk(ctx, 0, []byte{2, 2, 2}); err != nil {
			t.Fatalf("SaveChunk() overwrite error = %v", err)
		}
		got, err := b.ReadChunk(ctx, 0)
		if err != nil {
			t.Fatalf("ReadChunk() error = %v", err)
		}
		if !bytes.Equal(got, []byte{2, 2, 2}) {
			t.Errorf("ReadChunk() after overwrite = %v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		b := open(t)
		defer b.Close()

		if err := b.SaveMetadata(ctx, []byte(`{}`)); err != nil {
			t.Fatalf("SaveMetadata() error = %v", err)
		}
		if err := b.SaveChunk(ctx, 0, []byte{9}); err != nil {
			t.Fatalf("SaveChunk() error = %v", err)
		}
		if err := b.Delete(ctx); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := b.ReadMetadata(ctx); !errors.Is(err, backend.ErrNotFound) {
			t.Errorf("ReadMetadata() after delete error = %v, want ErrNotFound", err)
		}
		if _, err := b.ReadChunk(ctx, 0); !errors.Is(err, backend.ErrChunkNotFound) {
			t.Errorf("ReadChunk() after delete error = %v, want ErrChunkNotFound", err)
		}
	})
}
