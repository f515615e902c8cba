// Package httpbackend is the client for the chunkd HTTP server. An
// array served at http://host:8080 under the name "temps" is opened
// with the URL http://host:8080/temps.
package httpbackend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arraylab/cloudarray/internal/backend"
)

const defaultTimeout = 30 * time.Second

// Register installs the http:// and https:// factories.
func Register() {
	for _, scheme := range []string{"http", "https"} {
		backend.RegisterFactory(backend.Factory{
			Scheme:      scheme,
			Description: "chunkd HTTP server client",
			Open:        open,
			Validate:    validate,
		})
	}
}

func validate(u *url.URL, _ backend.Config) error {
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	name := strings.Trim(u.Path, "/")
	if !backend.ValidName(name) {
		return fmt.Errorf("url path must be a single array name, got %q", u.Path)
	}
	return nil
}

// Store talks to one array on a chunkd server.
type Store struct {
	base   string
	client *http.Client
}

var _ backend.Backend = (*Store)(nil)

func open(_ context.Context, u *url.URL, cfg backend.Config) (backend.Backend, error) {
	name := strings.Trim(u.Path, "/")
	timeout := defaultTimeout
	if raw, ok := cfg["timeout"]; ok {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse timeout %q: %w", raw, err)
		}
		timeout = d
	}
	return &Store{
		base: fmt.Sprintf("%s://%s/v1/arrays/%s", u.Scheme, u.Host, name),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// NewForTest returns a store bound to a test server's base URL.
func NewForTest(serverURL, name string, client *http.Client) *Store {
	if client == nil {
		client = http.DefaultClient
	}
	return &Store{
		base:   fmt.Sprintf("%s/v1/arrays/%s", strings.TrimRight(serverURL, "/"), name),
		client: client,
	}
}

func (s *Store) do(ctx context.Context, method, path string, body []byte, header http.Header) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base+path, rd)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return s.client.Do(req)
}

// remoteError drains the response and shapes a useful error.
func remoteError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("chunkd: %s: %s", resp.Status, msg)
}

func (s *Store) SaveChunk(ctx context.Context, n int, data []byte) error {
	resp, err := s.do(ctx, http.MethodPut, fmt.Sprintf("/chunks/%d", n), data, nil)
	if err != nil {
		return fmt.Errorf("save chunk %d: %w", n, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return remoteError(resp)
	}
	return nil
}

func (s *Store) ReadChunk(ctx context.Context, n int) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, fmt.Sprintf("/chunks/%d", n), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("read chunk %d: %w", n, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, backend.ErrChunkNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, remoteError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (s *Store) SaveMetadata(ctx context.Context, doc []byte) error {
	header := http.Header{"Content-Type": []string{"application/json"}}
	resp, err := s.do(ctx, http.MethodPut, "/meta", doc, header)
	if err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return remoteError(resp)
	}
	return nil
}

func (s *Store) ReadMetadata(ctx context.Context) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, "/meta", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, backend.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, remoteError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (s *Store) Delete(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodDelete, "", nil, nil)
	if err != nil {
		return fmt.Errorf("delete array: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		return remoteError(resp)
	}
	return nil
}

func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
