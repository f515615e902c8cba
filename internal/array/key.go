package array

import (
	"fmt"

	"github.com/arraylab/cloudarray/internal/tensor"
)

// Sel selects along one dimension of an array: a single index, an
// explicit [start, stop) range, or an open-ended range. Construct
// values with At, Span, From, To and All.
type Sel struct {
	start, stop       int
	hasStart, hasStop bool
	index             bool
}

// At selects a single index. Negative values count from the end.
func At(i int) Sel { return Sel{start: i, hasStart: true, index: true} }

// Span selects the half-open range [start, stop).
func Span(start, stop int) Sel {
	return Sel{start: start, stop: stop, hasStart: true, hasStop: true}
}

// From selects [start, end of dimension).
func From(start int) Sel { return Sel{start: start, hasStart: true} }

// To selects [0, stop).
func To(stop int) Sel { return Sel{stop: stop, hasStop: true} }

// All selects the whole dimension.
func All() Sel { return Sel{} }

// normalizeKey resolves selections against a shape: negative values
// wrap, open ends default to the dimension bounds, and omitted
// trailing dimensions select everything. Every resulting span is
// validated to be non-empty and in bounds.
func normalizeKey(shape []int, sels []Sel) ([]tensor.Span, error) {
	if len(sels) > len(shape) {
		return nil, fmt.Errorf("key has %d selections for rank %d", len(sels), len(shape))
	}
	key := make([]tensor.Span, len(shape))
	for d := range shape {
		var sel Sel
		if d < len(sels) {
			sel = sels[d]
		} else {
			sel = All()
		}

		if sel.index {
			i := sel.start
			if i < 0 {
				i += shape[d]
			}
			if i < 0 || i >= shape[d] {
				return nil, fmt.Errorf("index %d out of range for dimension %d (size %d)", sel.start, d, shape[d])
			}
			key[d] = tensor.Span{Start: i, Stop: i + 1}
			continue
		}

		start := 0
		if sel.hasStart {
			start = sel.start
			if start < 0 {
				start += shape[d]
			}
		}
		stop := shape[d]
		if sel.hasStop {
			stop = sel.stop
			if stop < 0 {
				stop += shape[d]
			}
		}
		if start < 0 || stop > shape[d] {
			return nil, fmt.Errorf("range [%d:%d) out of bounds for dimension %d (size %d)", start, stop, d, shape[d])
		}
		if start >= stop {
			return nil, fmt.Errorf("empty range [%d:%d) for dimension %d", start, stop, d)
		}
		key[d] = tensor.Span{Start: start, Stop: stop}
	}
	return key, nil
}
