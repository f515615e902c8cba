// Package cloudarray provides the public API for working with chunked
// n-dimensional arrays on pluggable stores. This is the stable API for
// external consumers.
package cloudarray

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arraylab/cloudarray/internal/array"
	"github.com/arraylab/cloudarray/internal/backend"
	"github.com/arraylab/cloudarray/internal/dtype"
	"github.com/arraylab/cloudarray/internal/registration"
	"github.com/arraylab/cloudarray/internal/tensor"
)

// Array is a chunked n-dimensional array bound to a store.
// See internal/array.Array for full documentation.
type Array = array.Array

// Tensor is an in-memory n-dimensional value.
type Tensor = tensor.Tensor

// Span is a half-open [Start, Stop) range along one dimension.
type Span = tensor.Span

// Sel selects along one dimension of an array.
type Sel = array.Sel

// DType identifies an element type.
type DType = dtype.DType

// Element types.
const (
	Int8    = dtype.Int8
	Int16   = dtype.Int16
	Int32   = dtype.Int32
	Int64   = dtype.Int64
	Uint8   = dtype.Uint8
	Uint16  = dtype.Uint16
	Uint32  = dtype.Uint32
	Uint64  = dtype.Uint64
	Float32 = dtype.Float32
	Float64 = dtype.Float64
)

// Selection constructors.
var (
	At   = array.At
	From = array.From
	To   = array.To
	All  = array.All
)

// Range selects the half-open range [start, stop) along one dimension.
func Range(start, stop int) Sel { return array.Span(start, stop) }

// Tensor constructors.
var (
	NewTensor    = tensor.New
	FromBytes    = tensor.FromBytes
	FromFloat64s = tensor.FromFloat64s
)

// options collects the adjustable knobs for Open and Create.
type options struct {
	store  backend.Backend
	cfg    backend.Config
	logger *slog.Logger
	shape  []int
	chunks []int
	dt     DType
	dtSet  bool
}

// Option configures Open or Create.
type Option func(*options) error

// WithShape sets the array shape for Create.
func WithShape(dims ...int) Option {
	return func(o *options) error {
		o.shape = dims
		return nil
	}
}

// WithChunkShape sets the chunk shape for Create.
func WithChunkShape(dims ...int) Option {
	return func(o *options) error {
		o.chunks = dims
		return nil
	}
}

// WithDType sets the element type for Create. The default is Float64.
func WithDType(dt DType) Option {
	return func(o *options) error {
		o.dt = dt
		o.dtSet = true
		return nil
	}
}

// WithLogger attaches a logger to the array.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithBackendOptions passes options through to the store's factory
// (s3 endpoint, credentials, HTTP timeouts).
func WithBackendOptions(opts map[string]string) Option {
	return func(o *options) error {
		o.cfg = backend.Config(opts)
		return nil
	}
}

// WithBackend binds the array to an already-open store instead of a
// URL. The URL argument to Open or Create is ignored.
func WithBackend(store backend.Backend) Option {
	return func(o *options) error {
		o.store = store
		return nil
	}
}

func build(rawURL string, opts []Option) (*options, backend.Backend, error) {
	o := &options{dt: Float64}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, nil, err
		}
	}
	if o.store != nil {
		return o, o.store, nil
	}
	registration.RegisterBuiltins()
	store, err := backend.Open(context.Background(), rawURL, o.cfg)
	if err != nil {
		return nil, nil, err
	}
	return o, store, nil
}

// Create makes a new empty array at a store URL.
// Example:
//
//	a, err := cloudarray.Create(ctx, "file:///data/temps",
//	    cloudarray.WithShape(4, 6),
//	    cloudarray.WithChunkShape(2, 3),
//	)
func Create(ctx context.Context, rawURL string, opts ...Option) (*Array, error) {
	o, store, err := build(rawURL, opts)
	if err != nil {
		return nil, err
	}
	if len(o.shape) == 0 || len(o.chunks) == 0 {
		return nil, fmt.Errorf("cloudarray: Create requires WithShape and WithChunkShape")
	}
	a, err := array.Create(ctx, store, o.dt, o.shape, o.chunks)
	if err != nil {
		return nil, err
	}
	if o.logger != nil {
		a.SetLogger(o.logger)
	}
	return a, nil
}

// Open binds to an existing array at a store URL.
func Open(ctx context.Context, rawURL string, opts ...Option) (*Array, error) {
	o, store, err := build(rawURL, opts)
	if err != nil {
		return nil, err
	}
	if o.dtSet || len(o.shape) > 0 || len(o.chunks) > 0 {
		return nil, fmt.Errorf("cloudarray: shape, chunk shape and dtype are fixed at Create")
	}
	a, err := array.Open(ctx, store)
	if err != nil {
		return nil, err
	}
	if o.logger != nil {
		a.SetLogger(o.logger)
	}
	return a, nil
}
