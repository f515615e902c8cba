package array

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arraylab/cloudarray/internal/backend"
	"github.com/arraylab/cloudarray/internal/backend/membackend"
	"github.com/arraylab/cloudarray/internal/dtype"
	"github.com/arraylab/cloudarray/internal/tensor"
)

func memStore(t *testing.T) backend.Backend {
	t.Helper()
	b := membackend.New("array-test/" + t.Name())
	t.Cleanup(func() { b.Delete(context.Background()) })
	return b
}

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestSaveSliceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)

	a, err := New(store, dtype.Float64, []int{6, 6}, []int{4, 4})
	require.NoError(t, err)
	assert.Equal(t, 4, a.NumChunks())

	src, err := tensor.FromFloat64s(dtype.Float64, []int{6, 6}, seq(36))
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, src))

	// Whole-array read.
	got, err := a.Slice(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(src))
}

func TestSliceWithinOneChunk(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)

	a, err := New(store, dtype.Int32, []int{8, 8}, []int{4, 4})
	require.NoError(t, err)
	src, err := tensor.FromFloat64s(dtype.Int32, []int{8, 8}, seq(64))
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, src))

	got, err := a.Slice(ctx, Span(1, 3), Span(1, 3))
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 10, 17, 18}, got.Float64s())
}

func TestSliceAcrossChunks(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)

	a, err := New(store, dtype.Float64, []int{8, 8}, []int{4, 4})
	require.NoError(t, err)
	src, err := tensor.FromFloat64s(dtype.Float64, []int{8, 8}, seq(64))
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, src))

	// The region straddles all four chunks.
	got, err := a.Slice(ctx, Span(2, 6), Span(3, 7))
	require.NoError(t, err)
	want, err := src.Slice([]tensor.Span{{Start: 2, Stop: 6}, {Start: 3, Stop: 7}})
	require.NoError(t, err)
	assert.True(t, got.Equal(want))
}

func TestSliceUnevenChunks(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)

	// 7x5 with 3x2 chunks leaves clamped edge chunks.
	a, err := New(store, dtype.Float64, []int{7, 5}, []int{3, 2})
	require.NoError(t, err)
	src, err := tensor.FromFloat64s(dtype.Float64, []int{7, 5}, seq(35))
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, src))

	got, err := a.Slice(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(src))

	got, err = a.Slice(ctx, Span(5, 7), Span(3, 5))
	require.NoError(t, err)
	want, err := src.Slice([]tensor.Span{{Start: 5, Stop: 7}, {Start: 3, Stop: 5}})
	require.NoError(t, err)
	assert.True(t, got.Equal(want))
}

func TestSliceIndexAndNegative(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)

	a, err := New(store, dtype.Float64, []int{4, 4}, []int{2, 2})
	require.NoError(t, err)
	src, err := tensor.FromFloat64s(dtype.Float64, []int{4, 4}, seq(16))
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, src))

	// a[-1, :] keeps the indexed dimension with width one.
	got, err := a.Slice(ctx, At(-1))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, got.Shape())
	assert.Equal(t, []float64{12, 13, 14, 15}, got.Float64s())
}

func TestUnwrittenChunksReadAsZeros(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)

	a, err := Create(ctx, store, dtype.Float64, []int{4, 4}, []int{2, 2})
	require.NoError(t, err)

	got, err := a.Slice(ctx)
	require.NoError(t, err)
	for _, v := range got.Float64s() {
		assert.Zero(t, v)
	}
}

func TestSetSliceAcrossChunks(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)

	a, err := Create(ctx, store, dtype.Float64, []int{6, 6}, []int{4, 4})
	require.NoError(t, err)

	patch, err := tensor.FromFloat64s(dtype.Float64, []int{2, 2}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	// Straddles all four chunks.
	require.NoError(t, a.SetSlice(ctx, patch, Span(3, 5), Span(3, 5)))

	got, err := a.Slice(ctx, Span(3, 5), Span(3, 5))
	require.NoError(t, err)
	assert.True(t, got.Equal(patch))

	// Neighbouring cells stay zero.
	v, err := a.Slice(ctx, At(2), At(3))
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, v.Float64s())
}

func TestSetSliceShapeMismatch(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)

	a, err := Create(ctx, store, dtype.Float64, []int{4, 4}, []int{2, 2})
	require.NoError(t, err)

	patch, err := tensor.FromFloat64s(dtype.Float64, []int{3}, []float64{1, 2, 3})
	require.NoError(t, err)
	err = a.SetSlice(ctx, patch, Span(0, 2), Span(0, 2))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	wrongType, err := tensor.FromFloat64s(dtype.Int32, []int{2, 2}, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	err = a.SetSlice(ctx, wrongType, Span(0, 2), Span(0, 2))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestOpenExisting(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)

	a, err := New(store, dtype.Int16, []int{5, 3}, []int{2, 2})
	require.NoError(t, err)
	src, err := tensor.FromFloat64s(dtype.Int16, []int{5, 3}, seq(15))
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, src))

	re, err := Open(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 3}, re.Shape())
	assert.Equal(t, []int{2, 2}, re.ChunkShape())
	assert.Equal(t, dtype.Int16, re.DType())
	assert.Equal(t, 6, re.NumChunks())

	got, err := re.Slice(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(src))
}

func TestOpenMissing(t *testing.T) {
	store := memStore(t)
	_, err := Open(context.Background(), store)
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestNewValidation(t *testing.T) {
	store := memStore(t)

	_, err := New(store, dtype.Float64, []int{4}, []int{2, 2})
	assert.Error(t, err, "rank mismatch")

	_, err = New(store, dtype.Float64, []int{0}, []int{1})
	assert.Error(t, err, "non-positive shape")

	_, err = New(store, dtype.Invalid, []int{4}, []int{2})
	assert.Error(t, err, "invalid dtype")
}

func TestChunkHandle(t *testing.T) {
	ctx := context.Background()
	store := memStore(t)

	a, err := New(store, dtype.Float64, []int{6, 6}, []int{4, 4})
	require.NoError(t, err)
	src, err := tensor.FromFloat64s(dtype.Float64, []int{6, 6}, seq(36))
	require.NoError(t, err)
	require.NoError(t, a.Save(ctx, src))

	c, err := a.Chunk(3)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Number())
	assert.Equal(t, []tensor.Span{{Start: 4, Stop: 6}, {Start: 4, Stop: 6}}, c.Region())
	assert.Equal(t, []int{2, 2}, c.Shape())

	got, err := c.Read(ctx)
	require.NoError(t, err)
	want, err := src.Slice(c.Region())
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	// Chunk-local region read.
	part, err := c.ReadRegion(ctx, []tensor.Span{{Start: 0, Stop: 1}, {Start: 0, Stop: 2}})
	require.NoError(t, err)
	assert.Equal(t, []float64{28, 29}, part.Float64s())

	// Partial write sticks.
	patch, err := tensor.FromFloat64s(dtype.Float64, []int{1, 2}, []float64{-1, -2})
	require.NoError(t, err)
	require.NoError(t, c.WriteRegion(ctx, []tensor.Span{{Start: 1, Stop: 2}, {Start: 0, Stop: 2}}, patch))

	after, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{28, 29, -1, -2}, after.Float64s())

	_, err = a.Chunk(4)
	assert.Error(t, err, "chunk number out of range")
}

func TestChunksEnumeration(t *testing.T) {
	store := memStore(t)

	a, err := New(store, dtype.Float64, []int{7, 5}, []int{3, 2})
	require.NoError(t, err)

	chunks := a.Chunks()
	require.Len(t, chunks, a.NumChunks())
	for i, c := range chunks {
		assert.Equal(t, i, c.Number())
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	m := Metadata{Shape: []int{6, 6}, ChunkShape: []int{4, 4}, DType: "float64", Chunks: 4}
	doc, err := m.Encode()
	require.NoError(t, err)

	got, err := ParseMetadata(doc)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestParseMetadataRejectsBadDocs(t *testing.T) {
	cases := []string{
		`not json`,
		`{"shape":[],"chunk_shape":[],"dtype":"float64","chunks":0}`,
		`{"shape":[4],"chunk_shape":[2,2],"dtype":"float64","chunks":2}`,
		`{"shape":[4],"chunk_shape":[2],"dtype":"complex","chunks":2}`,
		`{"shape":[4],"chunk_shape":[2],"dtype":"float64","chunks":3}`,
		`{"shape":[4],"chunk_shape":[0],"dtype":"float64","chunks":1}`,
	}
	for _, doc := range cases {
		_, err := ParseMetadata([]byte(doc))
		assert.Error(t, err, doc)
	}
}
