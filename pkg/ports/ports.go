// Package ports defines the boundary interfaces the engine consumes. The web
// layer, persistence providers and business-logic nodes live behind these
// contracts and are swappable per deployment.
package ports

import (
	"context"
	"time"

	"github.com/weftworks/weft/pkg/domain"
)

// GraphStore persists graph definitions.
type GraphStore interface {
	// Load retrieves a definition by id.
	// Returns domain.ErrGraphNotFound if the id does not exist.
	Load(ctx context.Context, graphID string) (*domain.Definition, error)

	// Save persists a definition under its own id.
	Save(ctx context.Context, def *domain.Definition) error

	// List returns the ids of all stored definitions.
	List(ctx context.Context) ([]string, error)
}

// Exchange is one input/output pair of a run, persisted as conversation
// history when the caller asks for persistence.
type Exchange struct {
	Input     string    `json:"input"`
	Output    any       `json:"output"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryStore persists conversation exchanges per run/thread identifier.
type HistoryStore interface {
	// Append records one exchange at the end of the run's history.
	Append(ctx context.Context, runID string, ex Exchange) error

	// History returns all exchanges recorded for the run, oldest first.
	History(ctx context.Context, runID string) ([]Exchange, error)
}

// Scope is a storage-backed resource context acquired for one traversal
// branch. Release must be safe to call exactly once and is guaranteed to run
// on every exit path of the branch that acquired it.
type Scope interface {
	Release()
}

// ScopeFactory hands out scoped resource contexts. The scheduler acquires a
// fresh scope only for storage-needing node types spawned in a parallel
// fan-out; linear continuations reuse the caller's scope.
type ScopeFactory interface {
	Acquire(ctx context.Context) (Scope, error)
}
