// Package dtype defines the element types a chunked array can hold.
package dtype

import "fmt"

// DType identifies the element type of an array.
type DType int

const (
	Invalid DType = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

var names = map[DType]string{
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

var sizes = map[DType]int{
	Int8:    1,
	Int16:   2,
	Int32:   4,
	Int64:   8,
	Uint8:   1,
	Uint16:  2,
	Uint32:  4,
	Uint64:  8,
	Float32: 4,
	Float64: 8,
}

// String returns the canonical name, e.g. "float64".
func (d DType) String() string {
	if s, ok := names[d]; ok {
		return s
	}
	return fmt.Sprintf("dtype(%d)", int(d))
}

// Size returns the element width in bytes.
func (d DType) Size() int {
	return sizes[d]
}

// Valid reports whether d is a known element type.
func (d DType) Valid() bool {
	_, ok := names[d]
	return ok
}

// Parse resolves a canonical dtype name.
func Parse(s string) (DType, error) {
	for d, name := range names {
		if name == s {
			return d, nil
		}
	}
	return Invalid, fmt.Errorf("unknown dtype: %q", s)
}
