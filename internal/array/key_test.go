package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arraylab/cloudarray/internal/tensor"
)

func TestNormalizeKeyFull(t *testing.T) {
	shape := []int{10, 20}

	key, err := normalizeKey(shape, []Sel{Span(1, 3), At(7)})
	require.NoError(t, err)
	assert.Equal(t, []tensor.Span{{Start: 1, Stop: 3}, {Start: 7, Stop: 8}}, key)
}

func TestNormalizeKeyDefaults(t *testing.T) {
	shape := []int{10, 20, 30}

	// Open ends and omitted trailing dimensions take everything.
	key, err := normalizeKey(shape, []Sel{All(), From(5)})
	require.NoError(t, err)
	assert.Equal(t, []tensor.Span{{Start: 0, Stop: 10}, {Start: 5, Stop: 20}, {Start: 0, Stop: 30}}, key)

	key, err = normalizeKey(shape, nil)
	require.NoError(t, err)
	assert.Equal(t, []tensor.Span{{Start: 0, Stop: 10}, {Start: 0, Stop: 20}, {Start: 0, Stop: 30}}, key)

	key, err = normalizeKey(shape, []Sel{To(4)})
	require.NoError(t, err)
	assert.Equal(t, []tensor.Span{{Start: 0, Stop: 4}, {Start: 0, Stop: 20}, {Start: 0, Stop: 30}}, key)
}

func TestNormalizeKeyNegative(t *testing.T) {
	shape := []int{10}

	key, err := normalizeKey(shape, []Sel{At(-1)})
	require.NoError(t, err)
	assert.Equal(t, []tensor.Span{{Start: 9, Stop: 10}}, key)

	key, err = normalizeKey(shape, []Sel{Span(-4, -1)})
	require.NoError(t, err)
	assert.Equal(t, []tensor.Span{{Start: 6, Stop: 9}}, key)

	key, err = normalizeKey(shape, []Sel{From(-3)})
	require.NoError(t, err)
	assert.Equal(t, []tensor.Span{{Start: 7, Stop: 10}}, key)
}

func TestNormalizeKeyErrors(t *testing.T) {
	shape := []int{10, 5}

	cases := []struct {
		name string
		sels []Sel
	}{
		{"too many selections", []Sel{All(), All(), All()}},
		{"index past end", []Sel{At(10)}},
		{"index past start", []Sel{At(-11)}},
		{"stop past end", []Sel{Span(0, 11)}},
		{"start after stop", []Sel{Span(4, 2)}},
		{"empty range", []Sel{Span(3, 3)}},
		{"negative wraps below zero", []Sel{Span(-12, 4)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := normalizeKey(shape, tc.sels)
			assert.Error(t, err)
		})
	}
}
