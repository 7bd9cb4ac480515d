package collector

import (
	"sort"
	"sync"

	"github.com/newthinker/cointools/internal/collector/crypto"
)

// Registry manages price providers by name
type Registry struct {
	mu        sync.RWMutex
	providers map[string]crypto.Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]crypto.Provider),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(p crypto.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (crypto.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
