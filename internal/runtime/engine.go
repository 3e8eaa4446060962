// Package runtime implements the graph scheduler: start-node resolution,
// concurrent branch traversal with cycle avoidance, requirement-gated
// aggregation and per-branch error isolation.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/observability"
	"github.com/weftworks/weft/pkg/ports"
	"github.com/weftworks/weft/pkg/registry"
	"github.com/weftworks/weft/pkg/template"
)

// Engine drives one graph definition. It is safe for concurrent use; every
// run gets its own execution state.
type Engine struct {
	def      *domain.Definition
	index    *domain.Index
	registry *registry.Registry
	logger   *slog.Logger
	metrics  *observability.Metrics
	history  ports.HistoryStore
	scopes   ports.ScopeFactory

	abortOnError bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors recorded during traversal.
func WithMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithHistoryStore attaches a conversation history store; runs started with
// persist=true append their input/output exchange to it.
func WithHistoryStore(store ports.HistoryStore) EngineOption {
	return func(e *Engine) {
		e.history = store
	}
}

// WithScopeFactory attaches the factory for storage-backed resource scopes
// acquired during parallel fan-out of storage-needing node types.
func WithScopeFactory(f ports.ScopeFactory) EngineOption {
	return func(e *Engine) {
		e.scopes = f
	}
}

// WithAbortOnError opts into fail-fast semantics: the first branch failure
// cancels the remaining sibling branches and fails the run. The default
// isolates branch failures and lets the run finish with partial results.
func WithAbortOnError() EngineOption {
	return func(e *Engine) {
		e.abortOnError = true
	}
}

// NewEngine builds an engine for one definition, caching the edge index.
func NewEngine(def *domain.Definition, reg *registry.Registry, opts ...EngineOption) (*Engine, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		def:      def,
		index:    domain.NewIndex(def),
		registry: reg,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Definition returns the graph definition this engine executes.
func (e *Engine) Definition() *domain.Definition {
	return e.def
}

// ExecuteFromNode runs the graph from startID (or from the resolved start
// node when startID is empty) against the given input document and returns
// the final execution state.
//
// Structural errors on the root path (start resolution, construction or
// execution of the first node) fail the run and are returned. Failures in
// fanned-out branches are logged, isolated, and leave the run able to finish
// completed with partial results, unless WithAbortOnError was set.
func (e *Engine) ExecuteFromNode(ctx context.Context, startID string, input map[string]any, runID string, persist bool) (*domain.State, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	if input == nil {
		e.logger.Warn("input is empty, running with no bindings", "run_id", runID)
		input = map[string]any{}
	}

	bindings := template.Flatten(input)
	state := domain.NewState(runID, bindings)
	state.AttachGraph(e.def, e.index)
	state.SetTotalSteps(len(e.def.Nodes))

	started := time.Now()
	finish := func(err error) (*domain.State, error) {
		if err != nil {
			state.Fail(err.Error())
		} else {
			state.Complete()
		}
		e.metrics.ObserveRun(string(state.Status()), time.Since(started))
		return state, err
	}

	start, err := e.resolveStart(startID)
	if err != nil {
		return finish(err)
	}

	e.logger.Info("run started", "run_id", runID, "graph", e.def.ID, "start", start)

	if err := e.run(ctx, start, state, nil, nil); err != nil {
		e.logger.Error("run failed", "run_id", runID, "err", err)
		return finish(err)
	}

	state, _ = finish(nil)
	e.persistExchange(state, persist)
	e.logger.Info("run finished", "run_id", runID, "steps", state.CurrentStep())
	return state, nil
}

// run executes one node and fans out to its successors. visited is the
// caller branch's path set; each call works on its own copy, so sibling
// branches never see each other's progress (same-path cycle guard only).
func (e *Engine) run(ctx context.Context, nodeID string, state *domain.State, visited map[string]struct{}, sourceOutput any) error {
	if _, seen := visited[nodeID]; seen {
		return nil
	}
	branch := make(map[string]struct{}, len(visited)+1)
	for id := range visited {
		branch[id] = struct{}{}
	}
	branch[nodeID] = struct{}{}

	spec, err := e.def.Node(nodeID)
	if err != nil {
		return err
	}
	node, err := e.registry.Build(spec, state)
	if err != nil {
		return err
	}

	if !node.RequirementSatisfied() {
		e.logger.Debug("requirements not satisfied, skipping", "node_id", nodeID)
		return nil
	}

	resolved, replacements := template.Resolve(spec.Config, state, sourceOutput, nil)
	if len(replacements) > 0 {
		e.logger.Debug("config variables resolved", "node_id", nodeID, "count", len(replacements))
	}

	output, err := node.Process(ctx, resolved)
	if err != nil {
		e.metrics.ObserveNode(spec.Type, "error")
		return &domain.NodeExecutionError{NodeID: nodeID, Err: err}
	}
	e.metrics.ObserveNode(spec.Type, "ok")

	state.SetNodeOutput(nodeID, output)
	state.IncrementStep()

	successors := e.index.Successors(nodeID)
	if override, ok := node.ConnectedNodes(""); ok {
		successors = override
	}
	if len(successors) == 0 {
		return nil
	}
	return e.fanOut(ctx, successors, state, branch, output)
}

// fanOut spawns one branch per successor edge (duplicates included, in edge
// declaration order) and waits for all of them. Branch errors are collected
// and logged; by default none of them propagates or cancels a sibling.
func (e *Engine) fanOut(ctx context.Context, successors []string, state *domain.State, visited map[string]struct{}, sourceOutput any) error {
	parallel := len(successors) > 1

	branchCtx := ctx
	var cancel context.CancelFunc
	if e.abortOnError {
		branchCtx, cancel = context.WithCancel(ctx)
		defer cancel()
	}

	var wg sync.WaitGroup
	errs := make([]error, len(successors))
	for i, succ := range successors {
		wg.Add(1)
		go func(i int, succ string) {
			defer wg.Done()
			if branchCtx.Err() != nil {
				return
			}
			scope, err := e.acquireScope(branchCtx, succ, parallel)
			if err != nil {
				errs[i] = err
			} else {
				if scope != nil {
					defer scope.Release()
				}
				errs[i] = e.run(branchCtx, succ, state, visited, sourceOutput)
			}
			if errs[i] != nil && cancel != nil {
				cancel()
			}
		}(i, succ)
	}
	wg.Wait()

	var firstErr error
	for i, err := range errs {
		if err == nil {
			continue
		}
		e.logger.Error("branch failed", "node_id", successors[i], "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if e.abortOnError {
		return firstErr
	}
	return nil
}

// acquireScope hands out a fresh storage scope only when the successor's
// type needs one and it is being spawned as part of a true parallel fan-out.
// Single-successor continuations reuse the caller's scope.
func (e *Engine) acquireScope(ctx context.Context, nodeID string, parallel bool) (ports.Scope, error) {
	if e.scopes == nil || !parallel {
		return nil, nil
	}
	spec, err := e.def.Node(nodeID)
	if err != nil {
		// Unknown id: let run() raise the lazy NodeNotFound instead.
		return nil, nil
	}
	if !e.registry.NeedsStorageScope(spec.Type) {
		return nil, nil
	}
	return e.scopes.Acquire(ctx)
}

// persistExchange appends the run's input message and final output to the
// history store. Best effort and asynchronous; failures are only logged.
func (e *Engine) persistExchange(state *domain.State, persist bool) {
	if !persist || e.history == nil {
		return
	}
	msg, ok := state.Binding(domain.KeyMessage)
	message, isString := msg.(string)
	if !ok || !isString || message == "" {
		return
	}
	output := state.Output()
	runID := state.RunID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ex := ports.Exchange{Input: message, Output: output, Timestamp: time.Now().UTC()}
		if err := e.history.Append(ctx, runID, ex); err != nil {
			e.logger.Error("failed to persist exchange", "run_id", runID, "err", err)
		}
	}()
}
