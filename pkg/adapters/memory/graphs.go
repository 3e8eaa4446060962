// Package memory provides in-memory implementations of the store ports.
// Intended for tests and single-process deployments.
package memory

import (
	"context"
	"sync"

	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
)

// GraphStore implements ports.GraphStore in memory.
// Safe for concurrent use.
type GraphStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Definition
}

// NewGraphStore creates a new empty in-memory graph store.
func NewGraphStore() *GraphStore {
	return &GraphStore{
		data: make(map[string]*domain.Definition),
	}
}

// NewGraphStoreFrom creates a store pre-seeded with the given definitions.
func NewGraphStoreFrom(defs ...*domain.Definition) *GraphStore {
	s := NewGraphStore()
	for _, def := range defs {
		s.data[def.ID] = copyDefinition(def)
	}
	return s
}

// Save persists the definition under its own id.
func (s *GraphStore) Save(ctx context.Context, def *domain.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[def.ID] = copyDefinition(def)
	return nil
}

// Load retrieves a definition by id.
func (s *GraphStore) Load(ctx context.Context, graphID string) (*domain.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.data[graphID]
	if !ok {
		return nil, domain.ErrGraphNotFound
	}
	return copyDefinition(def), nil
}

// List returns the ids of all stored definitions.
func (s *GraphStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// copyDefinition clones the slices so callers cannot mutate stored graphs
// through retained pointers. Node configs stay shared; the engine treats
// them as read-only.
func copyDefinition(def *domain.Definition) *domain.Definition {
	cp := *def
	cp.Nodes = append([]domain.NodeSpec(nil), def.Nodes...)
	cp.Edges = append([]domain.Edge(nil), def.Edges...)
	return &cp
}

var _ ports.GraphStore = (*GraphStore)(nil)
