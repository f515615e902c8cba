package backend

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"
)

// Factory defines how to open a backend for a URL scheme. Each backend
// package exposes a Register function that installs its factory; mains
// and tests wire them through registration.RegisterBuiltins so there
// are no init() side effects.
type Factory struct {
	// Scheme is the URL scheme the factory serves, e.g. "file", "s3".
	Scheme string

	// Description is a human-readable summary of the backend.
	Description string

	// Open creates a backend for the parsed URL.
	Open func(ctx context.Context, u *url.URL, cfg Config) (Backend, error)

	// Validate performs scheme-specific URL/config validation.
	// Optional: if nil, no additional validation is performed.
	Validate func(u *url.URL, cfg Config) error
}

var (
	factoryMu  sync.RWMutex
	factoryMap = make(map[string]Factory)
)

// RegisterFactory installs a factory for its scheme.
// Panics if the scheme is empty, Open is nil, or already registered.
func RegisterFactory(f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if f.Scheme == "" {
		panic("backend factory scheme cannot be empty")
	}
	if f.Open == nil {
		panic(fmt.Sprintf("backend factory %q must have an Open function", f.Scheme))
	}
	if _, exists := factoryMap[f.Scheme]; exists {
		panic(fmt.Sprintf("backend factory %q already registered", f.Scheme))
	}
	factoryMap[f.Scheme] = f
}

// GetFactory returns the factory for a scheme, if registered.
func GetFactory(scheme string) (Factory, bool) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factoryMap[scheme]
	return f, ok
}

// Schemes returns all registered schemes, sorted.
func Schemes() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	out := make([]string, 0, len(factoryMap))
	for s := range factoryMap {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// IsRegistered reports whether a scheme has a factory.
func IsRegistered(scheme string) bool {
	_, ok := GetFactory(scheme)
	return ok
}

// ClearFactories removes all registered factories (for testing only).
func ClearFactories() {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factoryMap = make(map[string]Factory)
}

// Open resolves the URL's scheme against the registry and opens the
// store it points at.
func Open(ctx context.Context, rawURL string, cfg Config) (Backend, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	f, ok := GetFactory(u.Scheme)
	if !ok {
		return nil, fmt.Errorf("unknown backend scheme: %q (registered schemes: %v)", u.Scheme, Schemes())
	}
	if f.Validate != nil {
		if err := f.Validate(u, cfg); err != nil {
			return nil, fmt.Errorf("invalid %s backend url %s: %w", f.Scheme, rawURL, err)
		}
	}
	return f.Open(ctx, u, cfg)
}
