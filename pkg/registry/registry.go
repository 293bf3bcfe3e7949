// Package registry maps type names to constructors. Lookups are
// case-insensitive so scenes may write "Principled" or "principled".
package registry

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// Registry maps type names to constructors of type F
type Registry[F any] struct {
	mu    sync.RWMutex
	ctors map[string]F
}

// New creates an empty registry
func New[F any]() *Registry[F] {
	return &Registry[F]{ctors: make(map[string]F)}
}

// Register binds name to ctor, replacing any previous binding
func (r *Registry[F]) Register(name string, ctor F) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[normalize(name)] = ctor
}

// Lookup returns the constructor bound to name
func (r *Registry[F]) Lookup(name string) (F, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[normalize(name)]
	return ctor, ok
}

// Names returns the registered type names in sorted order
func (r *Registry[F]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.ctors))
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
