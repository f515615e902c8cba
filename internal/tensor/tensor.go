// Package tensor implements a dense row-major n-dimensional buffer.
// It is the in-memory value type the chunked array reads into and
// writes from; chunk payloads on a backend are exactly Bytes() of a
// tensor shaped like the chunk.
package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/arraylab/cloudarray/internal/dtype"
)

// Span is a half-open [Start, Stop) range along one dimension.
type Span struct {
	Start int
	Stop  int
}

// Len returns the number of elements the span covers.
func (s Span) Len() int {
	return s.Stop - s.Start
}

// Shape returns the per-dimension widths of a region.
func Shape(region []Span) []int {
	out := make([]int, len(region))
	for i, s := range region {
		out[i] = s.Len()
	}
	return out
}

// Tensor is a dense row-major buffer of elements of a single dtype.
// Data is stored little-endian, matching the chunk wire format.
type Tensor struct {
	dt    dtype.DType
	shape []int
	data  []byte
}

// New returns a zero-filled tensor.
func New(dt dtype.DType, shape []int) (*Tensor, error) {
	if err := checkShape(dt, shape); err != nil {
		return nil, err
	}
	return &Tensor{
		dt:    dt,
		shape: append([]int(nil), shape...),
		data:  make([]byte, numElements(shape)*dt.Size()),
	}, nil
}

// FromBytes wraps a raw chunk payload. The payload length must match
// the shape exactly; the buffer is not copied.
func FromBytes(dt dtype.DType, shape []int, data []byte) (*Tensor, error) {
	if err := checkShape(dt, shape); err != nil {
		return nil, err
	}
	want := numElements(shape) * dt.Size()
	if len(data) != want {
		return nil, fmt.Errorf("tensor: payload is %d bytes, shape %v of %s needs %d", len(data), shape, dt, want)
	}
	return &Tensor{dt: dt, shape: append([]int(nil), shape...), data: data}, nil
}

// FromFloat64s builds a tensor from values converted to dt.
func FromFloat64s(dt dtype.DType, shape []int, values []float64) (*Tensor, error) {
	t, err := New(dt, shape)
	if err != nil {
		return nil, err
	}
	if len(values) != t.NumElements() {
		return nil, fmt.Errorf("tensor: %d values for shape %v (%d elements)", len(values), shape, t.NumElements())
	}
	for i, v := range values {
		t.putFloat64(i, v)
	}
	return t, nil
}

func checkShape(dt dtype.DType, shape []int) error {
	if !dt.Valid() {
		return fmt.Errorf("tensor: invalid dtype")
	}
	if len(shape) == 0 {
		return fmt.Errorf("tensor: shape must have at least one dimension")
	}
	for i, s := range shape {
		if s <= 0 {
			return fmt.Errorf("tensor: shape[%d] = %d, must be positive", i, s)
		}
	}
	return nil
}

func numElements(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// DType returns the element type.
func (t *Tensor) DType() dtype.DType { return t.dt }

// Shape returns the tensor's dimensions. The caller must not modify it.
func (t *Tensor) Shape() []int { return t.shape }

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int { return len(t.shape) }

// NumElements returns the total element count.
func (t *Tensor) NumElements() int { return numElements(t.shape) }

// Bytes returns the raw little-endian row-major payload.
func (t *Tensor) Bytes() []byte { return t.data }

// strides returns per-dimension strides in elements.
func (t *Tensor) strides() []int {
	st := make([]int, len(t.shape))
	acc := 1
	for d := len(t.shape) - 1; d >= 0; d-- {
		st[d] = acc
		acc *= t.shape[d]
	}
	return st
}

func (t *Tensor) checkRegion(region []Span) error {
	if len(region) != len(t.shape) {
		return fmt.Errorf("tensor: region rank %d does not match tensor rank %d", len(region), len(t.shape))
	}
	for d, s := range region {
		if s.Start < 0 || s.Stop > t.shape[d] || s.Start >= s.Stop {
			return fmt.Errorf("tensor: region %v invalid at dimension %d for shape %v", region, d, t.shape)
		}
	}
	return nil
}

// Slice copies the region out into a new tensor shaped like the region.
func (t *Tensor) Slice(region []Span) (*Tensor, error) {
	if err := t.checkRegion(region); err != nil {
		return nil, err
	}
	out, err := New(t.dt, Shape(region))
	if err != nil {
		return nil, err
	}
	t.copyRegion(region, out, false)
	return out, nil
}

// SetSlice copies src into the region. src must be shaped like the region.
func (t *Tensor) SetSlice(region []Span, src *Tensor) error {
	if err := t.checkRegion(region); err != nil {
		return err
	}
	if src.dt != t.dt {
		return fmt.Errorf("tensor: dtype mismatch: %s vs %s", src.dt, t.dt)
	}
	want := Shape(region)
	if !shapeEqual(src.shape, want) {
		return fmt.Errorf("tensor: source shape %v does not match region shape %v", src.shape, want)
	}
	t.copyRegion(region, src, true)
	return nil
}

// copyRegion moves data between t's region and a region-shaped tensor.
// With in=false rows flow out of t into other; with in=true they flow
// from other into t. Rows are contiguous runs along the last dimension.
func (t *Tensor) copyRegion(region []Span, other *Tensor, in bool) {
	item := t.dt.Size()
	st := t.strides()
	last := len(region) - 1
	rowLen := region[last].Len() * item

	// Odometer over all dimensions except the last.
	ix := make([]int, last)
	for d := range ix {
		ix[d] = region[d].Start
	}
	otherOff := 0
	for {
		off := region[last].Start
		for d := 0; d < last; d++ {
			off += ix[d] * st[d]
		}
		off *= item
		if in {
			copy(t.data[off:off+rowLen], other.data[otherOff:otherOff+rowLen])
		} else {
			copy(other.data[otherOff:otherOff+rowLen], t.data[off:off+rowLen])
		}
		otherOff += rowLen

		d := last - 1
		for ; d >= 0; d-- {
			ix[d]++
			if ix[d] < region[d].Stop {
				break
			}
			ix[d] = region[d].Start
		}
		if d < 0 {
			return
		}
	}
}

// Float64At reads the element at the given indices converted to float64.
func (t *Tensor) Float64At(indices ...int) (float64, error) {
	i, err := t.flatIndex(indices)
	if err != nil {
		return 0, err
	}
	return t.getFloat64(i), nil
}

// SetFloat64At stores v (converted to the tensor's dtype) at the indices.
func (t *Tensor) SetFloat64At(v float64, indices ...int) error {
	i, err := t.flatIndex(indices)
	if err != nil {
		return err
	}
	t.putFloat64(i, v)
	return nil
}

// Float64s returns every element converted to float64 in row-major order.
func (t *Tensor) Float64s() []float64 {
	out := make([]float64, t.NumElements())
	for i := range out {
		out[i] = t.getFloat64(i)
	}
	return out
}

func (t *Tensor) flatIndex(indices []int) (int, error) {
	if len(indices) != len(t.shape) {
		return 0, fmt.Errorf("tensor: %d indices for rank %d", len(indices), len(t.shape))
	}
	st := t.strides()
	off := 0
	for d, i := range indices {
		if i < 0 || i >= t.shape[d] {
			return 0, fmt.Errorf("tensor: index %d out of range for dimension %d (size %d)", i, d, t.shape[d])
		}
		off += i * st[d]
	}
	return off, nil
}

func (t *Tensor) getFloat64(i int) float64 {
	b := t.data[i*t.dt.Size():]
	switch t.dt {
	case dtype.Int8:
		return float64(int8(b[0]))
	case dtype.Int16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case dtype.Int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case dtype.Int64:
		return float64(int64(binary.LittleEndian.Uint64(b)))
	case dtype.Uint8:
		return float64(b[0])
	case dtype.Uint16:
		return float64(binary.LittleEndian.Uint16(b))
	case dtype.Uint32:
		return float64(binary.LittleEndian.Uint32(b))
	case dtype.Uint64:
		return float64(binary.LittleEndian.Uint64(b))
	case dtype.Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case dtype.Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

func (t *Tensor) putFloat64(i int, v float64) {
	b := t.data[i*t.dt.Size():]
	switch t.dt {
	case dtype.Int8:
		b[0] = byte(int8(v))
	case dtype.Int16:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case dtype.Int32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case dtype.Int64:
		binary.LittleEndian.PutUint64(b, uint64(int64(v)))
	case dtype.Uint8:
		b[0] = byte(uint8(v))
	case dtype.Uint16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case dtype.Uint32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case dtype.Uint64:
		binary.LittleEndian.PutUint64(b, uint64(v))
	case dtype.Float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case dtype.Float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	}
}

// Equal reports whether two tensors have the same dtype, shape and data.
func (t *Tensor) Equal(other *Tensor) bool {
	if t.dt != other.dt || !shapeEqual(t.shape, other.shape) {
		return false
	}
	return string(t.data) == string(other.data)
}

func shapeEqual(a, b []int) bool {
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
