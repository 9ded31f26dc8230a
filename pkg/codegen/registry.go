package codegen

import (
	"sync"

	"github.com/photostructure/convgen/pkg/types"
)

// Registry deduplicates artifacts by content hash and records which table
// fields use each one. Identical expressions across thousands of tag
// definitions collapse to a single generated function, and the recorded
// usage list shows which fields break when a function regresses.
//
// Safe for concurrent use by multiple goroutines.
type Registry struct {
	mu     sync.RWMutex
	byHash map[string]*types.Artifact
	byName map[string]*types.Artifact
	uses   map[string][]string
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byHash: make(map[string]*types.Artifact),
		byName: make(map[string]*types.Artifact),
		uses:   make(map[string][]string),
	}
}

// Register stores the artifact, or returns the already-registered instance
// when the hash is known. usedBy names the table field the expression came
// from and is recorded either way.
func (r *Registry) Register(art *types.Artifact, usedBy string) *types.Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byHash[art.Hash]; ok {
		if usedBy != "" {
			r.uses[art.Hash] = append(r.uses[art.Hash], usedBy)
		}
		return existing
	}
	r.byHash[art.Hash] = art
	r.byName[art.Name] = art
	r.order = append(r.order, art.Hash)
	if usedBy != "" {
		r.uses[art.Hash] = append(r.uses[art.Hash], usedBy)
	}
	return art
}

// Lookup returns the artifact registered under the given function name.
func (r *Registry) Lookup(name string) (*types.Artifact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	art, ok := r.byName[name]
	return art, ok
}

// Uses returns the table fields recorded for the given content hash.
func (r *Registry) Uses(hash string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.uses[hash]...)
}

// All returns every registered artifact in registration order.
func (r *Registry) All() []*types.Artifact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*types.Artifact, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, r.byHash[h])
	}
	return out
}

// Len returns the number of distinct artifacts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
