package s3backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/arraylab/cloudarray/internal/backend"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestValidate(t *testing.T) {
	cfg := backend.Config{"endpoint": "s3.local:9000"}

	if err := validate(mustParse(t, "s3://bucket/prefix"), cfg); err != nil {
		t.Fatalf("valid URL rejected: %v", err)
	}
	if err := validate(mustParse(t, "s3:///prefix"), cfg); err == nil {
		t.Fatal("expected error for missing bucket")
	}
	if err := validate(mustParse(t, "s3://bucket/prefix"), backend.Config{}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}

func TestKeyLayout(t *testing.T) {
	s := &Store{bucket: "b", prefix: "arrays/temps"}

	if got, want := s.key(metaKey), "arrays/temps/meta.json"; got != want {
		t.Errorf("key(meta) = %q, want %q", got, want)
	}
	if got, want := s.chunkKey(3), "arrays/temps/chunk-00000003.bin"; got != want {
		t.Errorf("chunkKey(3) = %q, want %q", got, want)
	}

	// No prefix: keys live at the bucket root.
	s = &Store{bucket: "b"}
	if got, want := s.chunkKey(0), "chunk-00000000.bin"; got != want {
		t.Errorf("chunkKey(0) = %q, want %q", got, want)
	}
}

func TestOpenPrefixTrimming(t *testing.T) {
	b, err := open(context.Background(), mustParse(t, "s3://bucket/some/prefix/"), backend.Config{
		"endpoint":   "s3.local:9000",
		"access_key": "ak",
		"secret_key": "sk",
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()

	s := b.(*Store)
	if s.bucket != "bucket" {
		t.Errorf("bucket = %q, want %q", s.bucket, "bucket")
	}
	if s.prefix != "some/prefix" {
		t.Errorf("prefix = %q, want %q", s.prefix, "some/prefix")
	}
}

func TestIsNoSuchKey(t *testing.T) {
	if !isNoSuchKey(minio.ErrorResponse{Code: "NoSuchKey"}) {
		t.Error("NoSuchKey not recognized")
	}
	if !isNoSuchKey(fmt.Errorf("get meta.json: %w", minio.ErrorResponse{Code: "NoSuchBucket"})) {
		t.Error("wrapped NoSuchBucket not recognized")
	}
	if isNoSuchKey(minio.ErrorResponse{Code: "AccessDenied"}) {
		t.Error("AccessDenied misclassified as missing key")
	}
	if isNoSuchKey(errors.New("plain error")) {
		t.Error("plain error misclassified")
	}
}
