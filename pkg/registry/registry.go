// Package registry maps node type tags to constructors. A registry is built
// once per process and injected into the engine; there is no package-level
// shared state.
package registry

import (
	"fmt"
	"sync"

	"github.com/weftworks/weft/pkg/domain"
)

// Constructor builds a node instance bound to its spec and the run state.
type Constructor func(id string, spec domain.NodeSpec, state *domain.State) domain.Node

type entry struct {
	ctor         Constructor
	storageScope bool
}

// Registry manages the available node types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]entry
}

// Option configures a registration.
type Option func(*entry)

// WithStorageScope marks the node type as needing a persistent-storage-backed
// context. The scheduler acquires a fresh scoped resource for such nodes when
// they are spawned as part of a parallel fan-out.
func WithStorageScope() Option {
	return func(e *entry) {
		e.storageScope = true
	}
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		types: make(map[string]entry),
	}
}

// Register adds a node type to the registry.
// If the type tag already exists, it is overwritten.
func (r *Registry) Register(typeTag string, ctor Constructor, opts ...Option) {
	e := entry{ctor: ctor}
	for _, opt := range opts {
		opt(&e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[typeTag] = e
}

// Build constructs a node for the given spec.
// Returns ErrUnknownNodeType if the type tag has no constructor.
func (r *Registry) Build(spec domain.NodeSpec, state *domain.State) (domain.Node, error) {
	r.mu.RLock()
	e, ok := r.types[spec.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s (node %s)", domain.ErrUnknownNodeType, spec.Type, spec.ID)
	}
	return e.ctor(spec.ID, spec, state), nil
}

// Has reports whether the type tag is registered.
func (r *Registry) Has(typeTag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[typeTag]
	return ok
}

// NeedsStorageScope reports whether the type was registered with a storage
// scope requirement. Unknown types report false.
func (r *Registry) NeedsStorageScope(typeTag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[typeTag].storageScope
}

// Types returns the registered type tags.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.types))
	for tag := range r.types {
		tags = append(tags, tag)
	}
	return tags
}
