// Package s3backend stores arrays in an S3-compatible object store.
// The URL names the bucket and key prefix: s3://bucket/some/prefix.
//
// Config keys: endpoint (host:port, required), access_key, secret_key
// (static credentials; AWS environment variables are used when both
// are absent), region, use_ssl ("true"/"false", default true).
package s3backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arraylab/cloudarray/internal/backend"
)

// Scheme is the URL scheme this backend serves.
const Scheme = "s3"

const metaKey = "meta.json"

// Register installs the s3:// factory.
func Register() {
	backend.RegisterFactory(backend.Factory{
		Scheme:      Scheme,
		Description: "S3-compatible object store",
		Open:        open,
		Validate:    validate,
	})
}

func validate(u *url.URL, cfg backend.Config) error {
	if u.Host == "" {
		return fmt.Errorf("bucket is required")
	}
	if cfg["endpoint"] == "" {
		return fmt.Errorf("endpoint config is required")
	}
	return nil
}

// Store persists one array under a bucket/prefix.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ backend.Backend = (*Store)(nil)

func open(_ context.Context, u *url.URL, cfg backend.Config) (backend.Backend, error) {
	var creds *credentials.Credentials
	if cfg["access_key"] != "" || cfg["secret_key"] != "" {
		creds = credentials.NewStaticV4(cfg["access_key"], cfg["secret_key"], "")
	} else {
		creds = credentials.NewEnvAWS()
	}

	client, err := minio.New(cfg["endpoint"], &minio.Options{
		Creds:     creds,
		Secure:    cfg["use_ssl"] != "false",
		Region:    cfg["region"],
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object store: %w", err)
	}

	return &Store{
		client: client,
		bucket: u.Host,
		prefix: strings.Trim(u.Path, "/"),
	}, nil
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) chunkKey(n int) string {
	return s.key(fmt.Sprintf("chunk-%08d.bin", n))
}

func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
	}
	return false
}

func (s *Store) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) SaveChunk(ctx context.Context, n int, data []byte) error {
	return s.put(ctx, s.chunkKey(n), data, "application/octet-stream")
}

func (s *Store) ReadChunk(ctx context.Context, n int) ([]byte, error) {
	data, err := s.get(ctx, s.chunkKey(n))
	if isNoSuchKey(err) {
		return nil, backend.ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read chunk %d: %w", n, err)
	}
	return data, nil
}

func (s *Store) SaveMetadata(ctx context.Context, doc []byte) error {
	return s.put(ctx, s.key(metaKey), doc, "application/json")
}

func (s *Store) ReadMetadata(ctx context.Context) ([]byte, error) {
	doc, err := s.get(ctx, s.key(metaKey))
	if isNoSuchKey(err) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return doc, nil
}

func (s *Store) Delete(ctx context.Context) error {
	prefix := s.prefix
	if prefix != "" {
		prefix += "/"
	}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return fmt.Errorf("list objects: %w", obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", obj.Key, err)
		}
	}
	return nil
}

func (s *Store) Close() error { return nil }
