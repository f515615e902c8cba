package fsbackend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arraylab/cloudarray/internal/backend"
	"github.com/arraylab/cloudarray/internal/backend/backendtest"
)

func TestConformance(t *testing.T) {
	backendtest.Run(t, func(t *testing.T) backend.Backend {
		return New(t.TempDir())
	})
}

func TestLayoutOnDisk(t *testing.T) {
	dir := t.TempDir()
	b := New(filepath.Join(dir, "temps"))
	ctx := context.Background()

	if err := b.SaveMetadata(ctx, []byte(`{"dtype":"float64"}`)); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}
	if err := b.SaveChunk(ctx, 7, []byte{1, 2}); err != nil {
		t.Fatalf("SaveChunk() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "temps", "meta.json")); err != nil {
		t.Errorf("meta.json not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "temps", "chunk-00000007.bin")); err != nil {
		t.Errorf("chunk file not written: %v", err)
	}

	// No temp files left behind by the atomic write.
	entries, err := os.ReadDir(filepath.Join(dir, "temps"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if e.Name() != "meta.json" && e.Name() != "chunk-00000007.bin" {
			t.Errorf("unexpected file in array directory: %s", e.Name())
		}
	}
}

func TestDeleteRemovesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	b := New(dir)
	ctx := context.Background()

	if err := b.SaveChunk(ctx, 0, []byte{1}); err != nil {
		t.Fatalf("SaveChunk() error = %v", err)
	}
	if err := b.Delete(ctx); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("array directory still present after Delete: %v", err)
	}
}
