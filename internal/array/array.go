// Package array implements the chunked n-dimensional array on top of a
// storage backend. An array is split into a row-major grid of chunks;
// reads assemble the requested region from every chunk it touches and
// writes push modified chunks back.
package array

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arraylab/cloudarray/internal/backend"
	"github.com/arraylab/cloudarray/internal/dtype"
	"github.com/arraylab/cloudarray/internal/tensor"
)

// ErrShapeMismatch is returned when a tensor's shape does not fit the
// operation's target region.
var ErrShapeMismatch = errors.New("shape mismatch")

// Array is a chunked n-dimensional array bound to a backend store.
type Array struct {
	shape      []int
	chunkShape []int
	dt         dtype.DType
	store      backend.Backend
	logger     *slog.Logger
}

// New builds an array handle without touching the backend. Create or
// Save must run before the array is readable by Open.
func New(store backend.Backend, dt dtype.DType, shape, chunkShape []int) (*Array, error) {
	m := Metadata{
		Shape:      shape,
		ChunkShape: chunkShape,
		DType:      dt.String(),
		Chunks:     chunkCount(shape, chunkShape),
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &Array{
		shape:      append([]int(nil), shape...),
		chunkShape: append([]int(nil), chunkShape...),
		dt:         dt,
		store:      store,
		logger:     slog.Default(),
	}, nil
}

// Create builds an array and persists its metadata. Chunks are not
// materialized; unwritten chunks read back as zeros.
func Create(ctx context.Context, store backend.Backend, dt dtype.DType, shape, chunkShape []int) (*Array, error) {
	a, err := New(store, dt, shape, chunkShape)
	if err != nil {
		return nil, err
	}
	doc, err := a.Metadata().Encode()
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	if err := store.SaveMetadata(ctx, doc); err != nil {
		return nil, fmt.Errorf("save metadata: %w", err)
	}
	a.logger.Debug("array created",
		slog.Any("shape", a.shape),
		slog.Any("chunk_shape", a.chunkShape),
		slog.String("dtype", dt.String()))
	return a, nil
}

// Open reads an existing array's metadata from the store.
func Open(ctx context.Context, store backend.Backend) (*Array, error) {
	doc, err := store.ReadMetadata(ctx)
	if err != nil {
		return nil, err
	}
	m, err := ParseMetadata(doc)
	if err != nil {
		return nil, err
	}
	dt, _ := dtype.Parse(m.DType)
	return &Array{
		shape:      m.Shape,
		chunkShape: m.ChunkShape,
		dt:         dt,
		store:      store,
		logger:     slog.Default(),
	}, nil
}

// SetLogger replaces the array's logger.
func (a *Array) SetLogger(l *slog.Logger) {
	if l != nil {
		a.logger = l
	}
}

// Shape returns the array's dimensions.
func (a *Array) Shape() []int { return a.shape }

// ChunkShape returns the nominal chunk dimensions.
func (a *Array) ChunkShape() []int { return a.chunkShape }

// DType returns the element type.
func (a *Array) DType() dtype.DType { return a.dt }

// NumChunks returns the number of chunks in the grid.
func (a *Array) NumChunks() int { return chunkCount(a.shape, a.chunkShape) }

// Metadata returns the array's metadata document.
func (a *Array) Metadata() Metadata {
	return Metadata{
		Shape:      append([]int(nil), a.shape...),
		ChunkShape: append([]int(nil), a.chunkShape...),
		DType:      a.dt.String(),
		Chunks:     a.NumChunks(),
	}
}

// ChunkRegion returns chunk n's region of the array.
func (a *Array) ChunkRegion(n int) ([]tensor.Span, error) {
	if n < 0 || n >= a.NumChunks() {
		return nil, fmt.Errorf("chunk %d out of range (array has %d chunks)", n, a.NumChunks())
	}
	return regionByNumber(a.shape, a.chunkShape, n), nil
}

// Chunk returns a handle on chunk n.
func (a *Array) Chunk(n int) (*Chunk, error) {
	region, err := a.ChunkRegion(n)
	if err != nil {
		return nil, err
	}
	return &Chunk{a: a, n: n, region: region}, nil
}

// Chunks returns handles on every chunk in grid order.
func (a *Array) Chunks() []*Chunk {
	out := make([]*Chunk, 0, a.NumChunks())
	forEachRegion(a.shape, a.chunkShape, func(n int, region []tensor.Span) bool {
		out = append(out, &Chunk{a: a, n: n, region: region})
		return true
	})
	return out
}

// Save persists metadata and every chunk of src, which must match the
// array's shape and dtype.
func (a *Array) Save(ctx context.Context, src *tensor.Tensor) error {
	if src.DType() != a.dt {
		return fmt.Errorf("%w: tensor dtype %s, array dtype %s", ErrShapeMismatch, src.DType(), a.dt)
	}
	if !intsEqual(src.Shape(), a.shape) {
		return fmt.Errorf("%w: tensor shape %v, array shape %v", ErrShapeMismatch, src.Shape(), a.shape)
	}

	doc, err := a.Metadata().Encode()
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := a.store.SaveMetadata(ctx, doc); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}

	var saveErr error
	forEachRegion(a.shape, a.chunkShape, func(n int, region []tensor.Span) bool {
		part, err := src.Slice(region)
		if err != nil {
			saveErr = err
			return false
		}
		if err := a.store.SaveChunk(ctx, n, part.Bytes()); err != nil {
			saveErr = fmt.Errorf("save chunk %d: %w", n, err)
			return false
		}
		return true
	})
	if saveErr != nil {
		return saveErr
	}
	a.logger.Debug("array saved", slog.Int("chunks", a.NumChunks()))
	return nil
}

// KeyShape resolves a key against the array and returns the shape of
// the region it selects.
func (a *Array) KeyShape(sels ...Sel) ([]int, error) {
	key, err := normalizeKey(a.shape, sels)
	if err != nil {
		return nil, err
	}
	return tensor.Shape(key), nil
}

// Slice reads the selected region. Omitted trailing selections take
// the whole dimension; single-index selections keep their dimension
// with width one.
func (a *Array) Slice(ctx context.Context, sels ...Sel) (*tensor.Tensor, error) {
	key, err := normalizeKey(a.shape, sels)
	if err != nil {
		return nil, err
	}
	out, err := tensor.New(a.dt, tensor.Shape(key))
	if err != nil {
		return nil, err
	}

	var readErr error
	forEachRegion(a.shape, a.chunkShape, func(n int, region []tensor.Span) bool {
		ov, ok := overlap(region, key)
		if !ok {
			return true
		}
		ch, err := a.readChunkTensor(ctx, n, region)
		if err != nil {
			readErr = err
			return false
		}
		part, err := ch.Slice(rebase(ov, region))
		if err != nil {
			readErr = err
			return false
		}
		if err := out.SetSlice(rebase(ov, key), part); err != nil {
			readErr = err
			return false
		}
		return true
	})
	if readErr != nil {
		return nil, readErr
	}
	return out, nil
}

// SetSlice writes src into the selected region, read-modify-writing
// every chunk the region touches. src must be shaped like the region.
func (a *Array) SetSlice(ctx context.Context, src *tensor.Tensor, sels ...Sel) error {
	key, err := normalizeKey(a.shape, sels)
	if err != nil {
		return err
	}
	if src.DType() != a.dt {
		return fmt.Errorf("%w: tensor dtype %s, array dtype %s", ErrShapeMismatch, src.DType(), a.dt)
	}
	if !intsEqual(src.Shape(), tensor.Shape(key)) {
		return fmt.Errorf("%w: tensor shape %v, selection shape %v", ErrShapeMismatch, src.Shape(), tensor.Shape(key))
	}

	var writeErr error
	forEachRegion(a.shape, a.chunkShape, func(n int, region []tensor.Span) bool {
		ov, ok := overlap(region, key)
		if !ok {
			return true
		}
		ch, err := a.readChunkTensor(ctx, n, region)
		if err != nil {
			writeErr = err
			return false
		}
		part, err := src.Slice(rebase(ov, key))
		if err != nil {
			writeErr = err
			return false
		}
		if err := ch.SetSlice(rebase(ov, region), part); err != nil {
			writeErr = err
			return false
		}
		if err := a.store.SaveChunk(ctx, n, ch.Bytes()); err != nil {
			writeErr = fmt.Errorf("save chunk %d: %w", n, err)
			return false
		}
		return true
	})
	return writeErr
}

// readChunkTensor loads chunk n shaped like its region. A chunk that
// was never written reads as zeros.
func (a *Array) readChunkTensor(ctx context.Context, n int, region []tensor.Span) (*tensor.Tensor, error) {
	data, err := a.store.ReadChunk(ctx, n)
	if errors.Is(err, backend.ErrChunkNotFound) {
		return tensor.New(a.dt, tensor.Shape(region))
	}
	if err != nil {
		return nil, fmt.Errorf("read chunk %d: %w", n, err)
	}
	t, err := tensor.FromBytes(a.dt, tensor.Shape(region), data)
	if err != nil {
		return nil, fmt.Errorf("chunk %d: %w", n, err)
	}
	return t, nil
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
