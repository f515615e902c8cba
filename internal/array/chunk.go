package array

import (
	"context"
	"fmt"

	"github.com/arraylab/cloudarray/internal/tensor"
)

// Chunk is a handle on one chunk of an array. Regions passed to
// ReadRegion and WriteRegion are chunk-local coordinates.
type Chunk struct {
	a      *Array
	n      int
	region []tensor.Span
}

// Number returns the chunk's position in grid order.
func (c *Chunk) Number() int { return c.n }

// Region returns the chunk's region of the array.
func (c *Chunk) Region() []tensor.Span { return c.region }

// Shape returns the chunk's dimensions. Edge chunks are clamped at the
// array boundary and may be smaller than the nominal chunk shape.
func (c *Chunk) Shape() []int { return tensor.Shape(c.region) }

// Read loads the whole chunk. Unwritten chunks read as zeros.
func (c *Chunk) Read(ctx context.Context) (*tensor.Tensor, error) {
	return c.a.readChunkTensor(ctx, c.n, c.region)
}

// ReadRegion loads part of the chunk, in chunk-local coordinates.
func (c *Chunk) ReadRegion(ctx context.Context, region []tensor.Span) (*tensor.Tensor, error) {
	t, err := c.Read(ctx)
	if err != nil {
		return nil, err
	}
	return t.Slice(region)
}

// Write replaces the whole chunk. src must match the chunk's shape.
func (c *Chunk) Write(ctx context.Context, src *tensor.Tensor) error {
	if src.DType() != c.a.dt {
		return fmt.Errorf("%w: tensor dtype %s, array dtype %s", ErrShapeMismatch, src.DType(), c.a.dt)
	}
	if !intsEqual(src.Shape(), c.Shape()) {
		return fmt.Errorf("%w: tensor shape %v, chunk shape %v", ErrShapeMismatch, src.Shape(), c.Shape())
	}
	if err := c.a.store.SaveChunk(ctx, c.n, src.Bytes()); err != nil {
		return fmt.Errorf("save chunk %d: %w", c.n, err)
	}
	return nil
}

// WriteRegion read-modify-writes part of the chunk, in chunk-local
// coordinates. src must be shaped like the region.
func (c *Chunk) WriteRegion(ctx context.Context, region []tensor.Span, src *tensor.Tensor) error {
	t, err := c.Read(ctx)
	if err != nil {
		return err
	}
	if err := t.SetSlice(region, src); err != nil {
		return err
	}
	if err := c.a.store.SaveChunk(ctx, c.n, t.Bytes()); err != nil {
		return fmt.Errorf("save chunk %d: %w", c.n, err)
	}
	return nil
}
