package array

import (
	"encoding/json"
	"fmt"

	"github.com/arraylab/cloudarray/internal/dtype"
)

// Metadata is the JSON document describing an array, stored alongside
// its chunks on the backend.
type Metadata struct {
	Shape      []int  `json:"shape"`
	ChunkShape []int  `json:"chunk_shape"`
	DType      string `json:"dtype"`
	Chunks     int    `json:"chunks"`
}

// ParseMetadata decodes and validates a metadata document.
func ParseMetadata(doc []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(doc, &m); err != nil {
		return Metadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Validate checks the document for internal consistency.
func (m Metadata) Validate() error {
	if len(m.Shape) == 0 {
		return fmt.Errorf("metadata: shape is empty")
	}
	if len(m.ChunkShape) != len(m.Shape) {
		return fmt.Errorf("metadata: chunk_shape rank %d does not match shape rank %d", len(m.ChunkShape), len(m.Shape))
	}
	for i, s := range m.Shape {
		if s <= 0 {
			return fmt.Errorf("metadata: shape[%d] = %d, must be positive", i, s)
		}
		if m.ChunkShape[i] <= 0 {
			return fmt.Errorf("metadata: chunk_shape[%d] = %d, must be positive", i, m.ChunkShape[i])
		}
	}
	if _, err := dtype.Parse(m.DType); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	if want := chunkCount(m.Shape, m.ChunkShape); m.Chunks != want {
		return fmt.Errorf("metadata: chunk count %d does not match grid (%d)", m.Chunks, want)
	}
	return nil
}

// Encode renders the document as JSON.
func (m Metadata) Encode() ([]byte, error) {
	return json.Marshal(m)
}
