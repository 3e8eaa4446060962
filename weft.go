// Package weft is a graph execution engine for declarative workflows.
//
// A workflow is a document of nodes and directed edges. The engine resolves
// the starting node, walks the graph concurrently (one branch per outgoing
// edge), substitutes template variables into each node's configuration and
// hands the resolved document to the node implementation. Custom node types
// are added through the registry; storage, history and HTTP/MCP surfaces are
// pluggable adapters.
//
// Minimal use:
//
//	engine := weft.New()
//	state, err := engine.Run(ctx, def, map[string]any{"message": "hi"})
package weft

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/internal/runtime"
	"github.com/weftworks/weft/pkg/adapters/memory"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/nodes"
	"github.com/weftworks/weft/pkg/observability"
	"github.com/weftworks/weft/pkg/ports"
	"github.com/weftworks/weft/pkg/registry"
)

// Engine is the top-level facade. It holds the shared collaborators and
// builds one scheduler per executed definition. Safe for concurrent use.
type Engine struct {
	registry     *registry.Registry
	logger       *slog.Logger
	metrics      *observability.Metrics
	graphs       ports.GraphStore
	history      ports.HistoryStore
	scopes       ports.ScopeFactory
	abortOnError bool
}

// Option configures the facade.
type Option func(*Engine)

// WithRegistry replaces the default built-in registry. The caller is then
// responsible for registering every node type its graphs use.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithLogger sets the structured logger used by the engine and scheduler.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithGraphStore sets the store definitions are loaded from, both for
// RunStored and for subflow nodes. Defaults to an empty in-memory store.
func WithGraphStore(store ports.GraphStore) Option {
	return func(e *Engine) { e.graphs = store }
}

// WithHistoryStore sets the store persisted exchanges are appended to.
func WithHistoryStore(store ports.HistoryStore) Option {
	return func(e *Engine) { e.history = store }
}

// WithScopeFactory sets the factory for storage scopes handed to
// storage-needing node types during parallel fan-out.
func WithScopeFactory(f ports.ScopeFactory) Option {
	return func(e *Engine) { e.scopes = f }
}

// WithAbortOnError makes every run fail fast on the first branch error
// instead of isolating branch failures.
func WithAbortOnError() Option {
	return func(e *Engine) { e.abortOnError = true }
}

// New creates an engine facade. Without options it runs the built-in node
// types against an empty in-memory graph store and discards logs.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		graphs: memory.NewGraphStore(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = nodes.DefaultRegistry(nodes.Deps{Graphs: e.graphs, Runner: e})
	}
	return e
}

// Registry exposes the node type registry so callers can add custom types.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Graphs exposes the graph store backing RunStored and subflow nodes.
func (e *Engine) Graphs() ports.GraphStore { return e.graphs }

// RunConfig carries the per-run knobs.
type RunConfig struct {
	StartNode string
	RunID     string
	Persist   bool
}

// RunOption adjusts one run.
type RunOption func(*RunConfig)

// WithStartNode overrides start resolution with an explicit node id.
func WithStartNode(id string) RunOption {
	return func(c *RunConfig) { c.StartNode = id }
}

// WithRunID pins the run id instead of generating one.
func WithRunID(id string) RunOption {
	return func(c *RunConfig) { c.RunID = id }
}

// WithPersistence appends the run's input/output exchange to the history
// store after completion.
func WithPersistence() RunOption {
	return func(c *RunConfig) { c.Persist = true }
}

// Run executes a definition against an input document and returns the final
// execution state.
func (e *Engine) Run(ctx context.Context, def *domain.Definition, input map[string]any, opts ...RunOption) (*domain.State, error) {
	var cfg RunConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	sched, err := e.scheduler(def)
	if err != nil {
		return nil, err
	}
	return sched.ExecuteFromNode(ctx, cfg.StartNode, input, cfg.RunID, cfg.Persist)
}

// RunStored loads a definition from the graph store by id and runs it.
func (e *Engine) RunStored(ctx context.Context, graphID string, input map[string]any, opts ...RunOption) (*domain.State, error) {
	def, err := e.graphs.Load(ctx, graphID)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, def, input, opts...)
}

// RunGraph executes a child definition on behalf of a subflow node.
func (e *Engine) RunGraph(ctx context.Context, def *domain.Definition, input map[string]any, runID string) (*domain.State, error) {
	return e.Run(ctx, def, input, WithRunID(runID))
}

// Validate checks a definition structurally and verifies that every node
// type has a registered constructor, so a broken graph is rejected before
// any run starts.
func (e *Engine) Validate(def *domain.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	for _, n := range def.Nodes {
		if !e.registry.Has(n.Type) {
			return fmt.Errorf("%w: %s (node %s)", domain.ErrUnknownNodeType, n.Type, n.ID)
		}
	}
	return nil
}

func (e *Engine) scheduler(def *domain.Definition) (*runtime.Engine, error) {
	opts := []runtime.EngineOption{
		runtime.WithLogger(e.logger),
		runtime.WithMetrics(e.metrics),
		runtime.WithHistoryStore(e.history),
		runtime.WithScopeFactory(e.scopes),
	}
	if e.abortOnError {
		opts = append(opts, runtime.WithAbortOnError())
	}
	return runtime.NewEngine(def, e.registry, opts...)
}

var _ nodes.GraphRunner = (*Engine)(nil)
