// Package backend defines the storage interface chunked arrays persist
// through, and a scheme-keyed factory registry for opening stores from
// URLs.
package backend

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an array's metadata does not exist.
var ErrNotFound = errors.New("array not found")

// ErrChunkNotFound is returned when a chunk has not been written.
var ErrChunkNotFound = errors.New("chunk not found")

// Config carries backend-specific settings (credentials, endpoints).
// Keys are backend-defined; unknown keys are ignored.
type Config map[string]string

// Backend stores one array: an opaque metadata document plus numbered
// chunk payloads. Payload encoding is the caller's concern; a backend
// treats both as raw bytes.
type Backend interface {
	// SaveChunk writes the payload for chunk n, replacing any
	// previous payload.
	SaveChunk(ctx context.Context, n int, data []byte) error

	// ReadChunk returns the payload for chunk n, or ErrChunkNotFound.
	ReadChunk(ctx context.Context, n int) ([]byte, error)

	// SaveMetadata writes the array's metadata document.
	SaveMetadata(ctx context.Context, doc []byte) error

	// ReadMetadata returns the metadata document, or ErrNotFound.
	ReadMetadata(ctx context.Context) ([]byte, error)

	// Delete removes the array and all of its chunks.
	Delete(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}
