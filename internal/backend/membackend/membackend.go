// Package membackend stores arrays in process memory. Two opens of the
// same mem:// URL within a process share the same data, which makes it
// useful for tests and as a scratch store behind the chunk server.
package membackend

import (
	"context"
	"net/url"
	"sync"

	"github.com/arraylab/cloudarray/internal/backend"
)

// Scheme is the URL scheme this backend serves.
const Scheme = "mem"

// Register installs the mem:// factory.
func Register() {
	backend.RegisterFactory(backend.Factory{
		Scheme:      Scheme,
		Description: "in-process memory store",
		Open:        open,
	})
}

var (
	storesMu sync.Mutex
	stores   = make(map[string]*store)
)

type store struct {
	mu     sync.RWMutex
	meta   []byte
	chunks map[int][]byte
}

// Store is a handle on a shared in-memory array store.
type Store struct {
	key string
	s   *store
}

var _ backend.Backend = (*Store)(nil)

func open(_ context.Context, u *url.URL, _ backend.Config) (backend.Backend, error) {
	return New(u.Host + u.Path), nil
}

// New returns a handle on the named in-process store, creating it when
// absent. Used directly by tests; URL opens go through the registry.
func New(name string) *Store {
	storesMu.Lock()
	defer storesMu.Unlock()
	s, ok := stores[name]
	if !ok {
		s = &store{chunks: make(map[int][]byte)}
		stores[name] = s
	}
	return &Store{key: name, s: s}
}

func (b *Store) SaveChunk(_ context.Context, n int, data []byte) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	b.s.chunks[n] = cp
	return nil
}

func (b *Store) ReadChunk(_ context.Context, n int) ([]byte, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	data, ok := b.s.chunks[n]
	if !ok {
		return nil, backend.ErrChunkNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

func (b *Store) SaveMetadata(_ context.Context, doc []byte) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	cp := make([]byte, len(doc))
	copy(cp, doc)
	b.s.meta = cp
	return nil
}

func (b *Store) ReadMetadata(_ context.Context) ([]byte, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()
	if b.s.meta == nil {
		return nil, backend.ErrNotFound
	}
	cp := make([]byte, len(b.s.meta))
	copy(cp, b.s.meta)
	return cp, nil
}

func (b *Store) Delete(_ context.Context) error {
	storesMu.Lock()
	delete(stores, b.key)
	storesMu.Unlock()

	// Existing handles share the store; clear it so they observe the
	// deletion too.
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	b.s.meta = nil
	b.s.chunks = make(map[int][]byte)
	return nil
}

func (b *Store) Close() error { return nil }
