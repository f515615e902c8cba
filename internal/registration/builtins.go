// Package registration wires the built-in backends into the factory
// registry. Mains and tests call RegisterBuiltins once at startup so
// backend packages stay free of init() side effects.
package registration

import (
	"sync"

	"github.com/arraylab/cloudarray/internal/backend/fsbackend"
	"github.com/arraylab/cloudarray/internal/backend/httpbackend"
	"github.com/arraylab/cloudarray/internal/backend/membackend"
	"github.com/arraylab/cloudarray/internal/backend/s3backend"
	"github.com/arraylab/cloudarray/internal/backend/sqlitebackend"
)

var once sync.Once

// RegisterBuiltins installs every built-in backend factory. Safe to
// call more than once.
func RegisterBuiltins() {
	once.Do(func() {
		membackend.Register()
		fsbackend.Register()
		sqlitebackend.Register()
		httpbackend.Register()
		s3backend.Register()
	})
}
