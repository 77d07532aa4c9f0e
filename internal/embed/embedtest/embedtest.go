// Package embedtest provides an in-memory embed.Backend for tests
package embedtest

import (
	"sync"

	"github.com/projx/gphotos-export/internal/embed"
)

// Backend stores written tags per path. Every path is writable unless
// listed in Unsupported.
type Backend struct {
	mu          sync.Mutex
	Files       map[string]embed.Fields
	Unsupported map[string]bool
}

var _ embed.Backend = (*Backend)(nil)

func New() *Backend {
	return &Backend{Files: map[string]embed.Fields{}, Unsupported: map[string]bool{}}
}

func (b *Backend) Read(path string) (embed.Fields, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Unsupported[path] {
		return nil, embed.ErrUnsupported
	}
	out := embed.Fields{}
	for k, v := range b.Files[path] {
		out[k] = v
	}
	return out, nil
}

func (b *Backend) Write(path string, set embed.Fields) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Unsupported[path] {
		return embed.ErrUnsupported
	}
	if b.Files[path] == nil {
		b.Files[path] = embed.Fields{}
	}
	for k, v := range set {
		b.Files[path][k] = v
	}
	return nil
}

// Get returns one tag written to path
func (b *Backend) Get(path, tag string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Files[path][tag]
}
