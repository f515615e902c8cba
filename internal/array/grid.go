package array

import (
	"github.com/arraylab/cloudarray/internal/tensor"
)

// The chunk grid enumerates chunks in row-major order: the last
// dimension varies fastest. Edge chunks clamp at the array boundary,
// so they may be smaller than the nominal chunk shape.

// chunkCount returns the total number of chunks in the grid.
func chunkCount(shape, chunkShape []int) int {
	n := 1
	for i := range shape {
		per := (shape[i] + chunkShape[i] - 1) / chunkShape[i]
		n *= per
	}
	return n
}

// gridDims returns the number of chunks along each dimension.
func gridDims(shape, chunkShape []int) []int {
	dims := make([]int, len(shape))
	for i := range shape {
		dims[i] = (shape[i] + chunkShape[i] - 1) / chunkShape[i]
	}
	return dims
}

// regionByNumber returns chunk n's region of the array.
func regionByNumber(shape, chunkShape []int, n int) []tensor.Span {
	dims := gridDims(shape, chunkShape)
	region := make([]tensor.Span, len(shape))
	for d := len(dims) - 1; d >= 0; d-- {
		pos := n % dims[d]
		n /= dims[d]
		start := pos * chunkShape[d]
		stop := start + chunkShape[d]
		if stop > shape[d] {
			stop = shape[d]
		}
		region[d] = tensor.Span{Start: start, Stop: stop}
	}
	return region
}

// forEachRegion calls fn for every chunk in grid order until fn
// returns false.
func forEachRegion(shape, chunkShape []int, fn func(n int, region []tensor.Span) bool) {
	total := chunkCount(shape, chunkShape)
	for n := 0; n < total; n++ {
		if !fn(n, regionByNumber(shape, chunkShape, n)) {
			return
		}
	}
}

// overlap intersects two regions of equal rank. ok is false when the
// intersection is empty in any dimension.
func overlap(a, b []tensor.Span) (region []tensor.Span, ok bool) {
	out := make([]tensor.Span, len(a))
	for d := range a {
		start := a[d].Start
		if b[d].Start > start {
			start = b[d].Start
		}
		stop := a[d].Stop
		if b[d].Stop < stop {
			stop = b[d].Stop
		}
		if start >= stop {
			return nil, false
		}
		out[d] = tensor.Span{Start: start, Stop: stop}
	}
	return out, true
}

// rebase translates a region into coordinates local to base, which
// must contain it.
func rebase(region, base []tensor.Span) []tensor.Span {
	out := make([]tensor.Span, len(region))
	for d := range region {
		out[d] = tensor.Span{
			Start: region[d].Start - base[d].Start,
			Stop:  region[d].Stop - base[d].Start,
		}
	}
	return out
}
