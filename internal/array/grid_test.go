package array

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arraylab/cloudarray/internal/tensor"
)

func TestChunkCount(t *testing.T) {
	tests := []struct {
		shape, chunk []int
		want         int
	}{
		{[]int{10}, []int{10}, 1},
		{[]int{10}, []int{3}, 4},
		{[]int{10, 10}, []int{3, 4}, 12},
		{[]int{5, 5, 5}, []int{5, 5, 5}, 1},
		{[]int{6, 4}, []int{2, 2}, 6},
		{[]int{1, 1, 1}, []int{10, 10, 10}, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, chunkCount(tt.shape, tt.chunk), "shape %v chunk %v", tt.shape, tt.chunk)
	}
}

func TestRegionByNumberRowMajor(t *testing.T) {
	shape := []int{10, 10}
	chunk := []int{3, 4}

	// Last dimension varies fastest.
	assert.Equal(t, []tensor.Span{{Start: 0, Stop: 3}, {Start: 0, Stop: 4}}, regionByNumber(shape, chunk, 0))
	assert.Equal(t, []tensor.Span{{Start: 0, Stop: 3}, {Start: 4, Stop: 8}}, regionByNumber(shape, chunk, 1))
	assert.Equal(t, []tensor.Span{{Start: 0, Stop: 3}, {Start: 8, Stop: 10}}, regionByNumber(shape, chunk, 2))
	assert.Equal(t, []tensor.Span{{Start: 3, Stop: 6}, {Start: 0, Stop: 4}}, regionByNumber(shape, chunk, 3))

	// Final chunk clamps on both dimensions.
	assert.Equal(t, []tensor.Span{{Start: 9, Stop: 10}, {Start: 8, Stop: 10}}, regionByNumber(shape, chunk, 11))
}

func TestForEachRegionCoversArray(t *testing.T) {
	shape := []int{7, 5}
	chunk := []int{3, 2}

	covered := make([][]bool, shape[0])
	for i := range covered {
		covered[i] = make([]bool, shape[1])
	}
	count := 0
	forEachRegion(shape, chunk, func(n int, region []tensor.Span) bool {
		assert.Equal(t, count, n)
		count++
		for i := region[0].Start; i < region[0].Stop; i++ {
			for j := region[1].Start; j < region[1].Stop; j++ {
				assert.False(t, covered[i][j], "cell (%d,%d) covered twice", i, j)
				covered[i][j] = true
			}
		}
		return true
	})
	assert.Equal(t, chunkCount(shape, chunk), count)
	for i := range covered {
		for j := range covered[i] {
			assert.True(t, covered[i][j], "cell (%d,%d) not covered", i, j)
		}
	}
}

func TestOverlap(t *testing.T) {
	a := []tensor.Span{{Start: 0, Stop: 4}, {Start: 2, Stop: 6}}
	b := []tensor.Span{{Start: 2, Stop: 8}, {Start: 0, Stop: 4}}

	got, ok := overlap(a, b)
	assert.True(t, ok)
	assert.Equal(t, []tensor.Span{{Start: 2, Stop: 4}, {Start: 2, Stop: 4}}, got)

	_, ok = overlap([]tensor.Span{{Start: 0, Stop: 2}}, []tensor.Span{{Start: 2, Stop: 4}})
	assert.False(t, ok, "touching regions do not overlap")
}

func TestRebase(t *testing.T) {
	region := []tensor.Span{{Start: 5, Stop: 7}, {Start: 3, Stop: 4}}
	base := []tensor.Span{{Start: 4, Stop: 8}, {Start: 3, Stop: 6}}
	assert.Equal(t, []tensor.Span{{Start: 1, Stop: 3}, {Start: 0, Stop: 1}}, rebase(region, base))
}
