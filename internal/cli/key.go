package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arraylab/cloudarray/internal/array"
)

// ParseKey turns a selection string into per-dimension selections.
// Dimensions are comma-separated; each is an index ("7", "-2"), a
// half-open range ("1:3", "4:", ":2", "-3:-1") or ":" for the whole
// dimension. Whitespace around tokens is ignored.
func ParseKey(s string) ([]array.Sel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty key")
	}

	parts := strings.Split(s, ",")
	sels := make([]array.Sel, 0, len(parts))
	for _, part := range parts {
		sel, err := parseSel(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", s, err)
		}
		sels = append(sels, sel)
	}
	return sels, nil
}

func parseSel(s string) (array.Sel, error) {
	if s == "" {
		return array.Sel{}, fmt.Errorf("empty selection")
	}

	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		i, err := strconv.Atoi(s)
		if err != nil {
			return array.Sel{}, fmt.Errorf("bad index %q", s)
		}
		return array.At(i), nil
	}

	startStr := strings.TrimSpace(s[:colon])
	stopStr := strings.TrimSpace(s[colon+1:])
	if strings.ContainsRune(stopStr, ':') {
		return array.Sel{}, fmt.Errorf("bad range %q", s)
	}

	switch {
	case startStr == "" && stopStr == "":
		return array.All(), nil
	case stopStr == "":
		start, err := strconv.Atoi(startStr)
		if err != nil {
			return array.Sel{}, fmt.Errorf("bad range start %q", startStr)
		}
		return array.From(start), nil
	case startStr == "":
		stop, err := strconv.Atoi(stopStr)
		if err != nil {
			return array.Sel{}, fmt.Errorf("bad range stop %q", stopStr)
		}
		return array.To(stop), nil
	default:
		start, err := strconv.Atoi(startStr)
		if err != nil {
			return array.Sel{}, fmt.Errorf("bad range start %q", startStr)
		}
		stop, err := strconv.Atoi(stopStr)
		if err != nil {
			return array.Sel{}, fmt.Errorf("bad range stop %q", stopStr)
		}
		return array.Span(start, stop), nil
	}
}

// parseDims parses a comma-separated shape like "4,6" into positive
// dimension sizes.
func parseDims(s string) ([]int, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	dims := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad dimension %q", part)
		}
		if n <= 0 {
			return nil, fmt.Errorf("dimension must be positive, got %d", n)
		}
		dims = append(dims, n)
	}
	return dims, nil
}

func parseValues(args []string) ([]float64, error) {
	vals := make([]float64, 0, len(args))
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("bad value %q", part)
			}
			vals = append(vals, v)
		}
	}
	return vals, nil
}
