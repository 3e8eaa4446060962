package memory

import (
	"context"
	"sync"

	"github.com/weftworks/weft/pkg/ports"
)

// HistoryStore implements ports.HistoryStore in memory.
// Safe for concurrent use.
type HistoryStore struct {
	mu   sync.RWMutex
	data map[string][]ports.Exchange
}

// NewHistoryStore creates a new empty in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		data: make(map[string][]ports.Exchange),
	}
}

// Append records one exchange at the end of the run's history.
func (s *HistoryStore) Append(ctx context.Context, runID string, ex ports.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = append(s.data[runID], ex)
	return nil
}

// History returns all exchanges recorded for the run, oldest first.
func (s *HistoryStore) History(ctx context.Context, runID string) ([]ports.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.Exchange(nil), s.data[runID]...), nil
}

var _ ports.HistoryStore = (*HistoryStore)(nil)
