// Package server exposes a backend store over HTTP. Each array under
// the configured root URL is addressable by name; clients read and
// write raw chunk payloads and metadata documents through a small REST
// surface (see httpbackend for the matching client).
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arraylab/cloudarray/internal/backend"
)

// Server serves the chunk API for every array under one root store.
type Server struct {
	addr    string
	rootURL string
	cfg     backend.Config
	logger  *slog.Logger
	router  *chi.Mux
	httpSrv *http.Server

	mu     sync.Mutex
	stores map[string]backend.Backend
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// RootURL is the store all served arrays live under. Any
	// registered non-HTTP scheme works.
	RootURL string

	// BackendConfig is passed through to the root store's factory.
	BackendConfig backend.Config

	// RequestTimeout bounds each request. Zero means 30s.
	RequestTimeout time.Duration

	Logger *slog.Logger
}

// New builds a server with the standard middleware chain: request IDs,
// request logging, timeout, panic recovery and OTel HTTP
// instrumentation.
func New(opts Options) (*Server, error) {
	if opts.RootURL == "" {
		return nil, fmt.Errorf("server: root store URL is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		addr:    opts.Addr,
		rootURL: opts.RootURL,
		cfg:     opts.BackendConfig,
		logger:  opts.Logger,
		stores:  make(map[string]backend.Backend),
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(TimeoutMiddleware(opts.RequestTimeout))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "cloudarray-chunkd")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/arrays/{name}/meta", s.handleGetMetadata)
	r.Put("/v1/arrays/{name}/meta", s.handlePutMetadata)
	r.Get("/v1/arrays/{name}/chunks/{n}", s.handleGetChunk)
	r.Put("/v1/arrays/{name}/chunks/{n}", s.handlePutChunk)
	r.Delete("/v1/arrays/{name}", s.handleDeleteArray)
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins serving and blocks until the listener fails or
// Shutdown runs.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{Addr: s.addr, Handler: s.router}
	s.logger.Info("chunk server listening",
		slog.String("addr", s.addr),
		slog.String("root", s.rootURL))
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and closes every open store.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, b := range s.stores {
		if cerr := b.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store %s: %w", name, cerr)
		}
	}
	s.stores = make(map[string]backend.Backend)
	return err
}

// store resolves (and caches) the backend for a named array.
func (s *Server) store(ctx context.Context, name string) (backend.Backend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.stores[name]; ok {
		return b, nil
	}
	sub, err := backend.SubURL(s.rootURL, name)
	if err != nil {
		return nil, err
	}
	b, err := backend.Open(ctx, sub, s.cfg)
	if err != nil {
		return nil, err
	}
	s.stores[name] = b
	return b, nil
}

// forget drops a cached store after its array is deleted.
func (s *Server) forget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.stores[name]; ok {
		b.Close()
		delete(s.stores, name)
	}
}
