package sqlitebackend

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/arraylab/cloudarray/internal/backend"
	"github.com/arraylab/cloudarray/internal/backend/backendtest"
)

var memCounter int

func memStore(t *testing.T, namespace string) *Store {
	t.Helper()
	memCounter++
	dsn := fmt.Sprintf("file:sqlitebackend%d?mode=memory&cache=shared", memCounter)
	s, err := New(dsn, namespace)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestConformance(t *testing.T) {
	backendtest.Run(t, func(t *testing.T) backend.Backend {
		return memStore(t, "conformance")
	})
}

func TestNamespaceIsolation(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "arrays.db")
	ctx := context.Background()

	a, err := New(dsn, "a")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()
	b, err := New(dsn, "b")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()

	if err := a.SaveChunk(ctx, 0, []byte{1}); err != nil {
		t.Fatalf("SaveChunk() error = %v", err)
	}
	if err := a.SaveMetadata(ctx, []byte(`{"a":true}`)); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}

	if _, err := b.ReadChunk(ctx, 0); err != backend.ErrChunkNotFound {
		t.Errorf("ReadChunk() in other namespace error = %v, want ErrChunkNotFound", err)
	}
	if _, err := b.ReadMetadata(ctx); err != backend.ErrNotFound {
		t.Errorf("ReadMetadata() in other namespace error = %v, want ErrNotFound", err)
	}

	// Deleting one namespace leaves the other intact.
	if err := b.SaveChunk(ctx, 0, []byte{2}); err != nil {
		t.Fatalf("SaveChunk() error = %v", err)
	}
	if err := a.Delete(ctx); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	got, err := b.ReadChunk(ctx, 0)
	if err != nil {
		t.Fatalf("ReadChunk() after sibling delete error = %v", err)
	}
	if got[0] != 2 {
		t.Errorf("ReadChunk() = %v, want [2]", got)
	}
}

func TestOpenURLNamespace(t *testing.T) {
	Register()
	t.Cleanup(backend.ClearFactories)

	dbPath := filepath.Join(t.TempDir(), "store.db")
	u := fmt.Sprintf("sqlite://%s?namespace=grid", dbPath)

	b, err := backend.Open(context.Background(), u, nil)
	if err != nil {
		t.Fatalf("backend.Open() error = %v", err)
	}
	defer b.Close()

	store, ok := b.(*Store)
	if !ok {
		t.Fatalf("backend.Open() returned %T, want *Store", b)
	}
	if store.namespace != "grid" {
		t.Errorf("namespace = %q, want grid", store.namespace)
	}
}
