package domain

import (
	"sync"
	"sync/atomic"
)

// RunStatus defines the lifecycle phase of one execution.
type RunStatus string

const (
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
)

// State is the mutable, run-scoped record of one graph execution.
// It is created once per run, owned by the engine for that run, and shared
// by reference across all concurrently executing branches. All mutators are
// guarded so that sibling branches can write without racing; two branches
// writing the same key resolve last-writer-wins.
type State struct {
	// RunID correlates all state and outputs for one execution.
	RunID string

	mu            sync.RWMutex
	bindings      map[string]any
	nodeOutputs   map[string]any
	lastNodeID    string
	status        RunStatus
	failureReason string

	currentStep atomic.Int64
	totalSteps  int64

	// Graph context, attached once by the engine before traversal starts.
	def   *Definition
	index *Index
}

// AttachGraph binds the run to the definition it is executing. Called once by
// the engine before traversal; nodes use it to inspect edges and peers.
func (s *State) AttachGraph(def *Definition, index *Index) {
	s.def = def
	s.index = index
}

// Definition returns the graph definition this run executes, or nil when the
// state was built outside an engine (tests).
func (s *State) Definition() *Definition {
	return s.def
}

// Graph returns the edge index of the running definition, or nil.
func (s *State) Graph() *Index {
	return s.index
}

// NewState creates the execution state for a run, seeding the bindings from
// the already-flattened input document.
func NewState(runID string, initial map[string]any) *State {
	s := &State{
		RunID:       runID,
		bindings:    make(map[string]any, len(initial)),
		nodeOutputs: make(map[string]any),
		status:      StatusRunning,
	}
	for k, v := range initial {
		s.bindings[k] = v
	}
	return s
}

// Status returns the current lifecycle phase.
func (s *State) Status() RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// FailureReason returns the captured message of a failed run, or "".
func (s *State) FailureReason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failureReason
}

// Complete marks the run as finished successfully.
func (s *State) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusCompleted
}

// Fail marks the run as failed with the given reason.
func (s *State) Fail(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	s.failureReason = reason
}

// Binding resolves a variable by its exact dotted name.
func (s *State) Binding(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.bindings[name]
	return v, ok
}

// SetBinding stores a variable under its dotted name.
func (s *State) SetBinding(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[name] = value
}

// Bindings returns a shallow copy of the current variable bindings.
func (s *State) Bindings() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.bindings))
	for k, v := range s.bindings {
		out[k] = v
	}
	return out
}

// NodeOutput returns the last output produced by the given node.
func (s *State) NodeOutput(nodeID string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.nodeOutputs[nodeID]
	return v, ok
}

// SetNodeOutput records a node's output and tracks it as the most recent one.
func (s *State) SetNodeOutput(nodeID string, output any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeOutputs[nodeID] = output
	s.lastNodeID = nodeID
}

// NodeOutputs returns a shallow copy of all recorded node outputs.
func (s *State) NodeOutputs() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.nodeOutputs))
	for k, v := range s.nodeOutputs {
		out[k] = v
	}
	return out
}

// Output is the convenience accessor for the last executed node's output.
// Completion order between sibling branches is non-deterministic, so for
// fanned-out graphs this reflects whichever branch finished last.
func (s *State) Output() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastNodeID == "" {
		return nil
	}
	return s.nodeOutputs[s.lastNodeID]
}

// IncrementStep bumps the executed-step counter by one.
func (s *State) IncrementStep() {
	s.currentStep.Add(1)
}

// CurrentStep returns how many node executions have completed so far.
func (s *State) CurrentStep() int {
	return int(s.currentStep.Load())
}

// SetTotalSteps freezes the planned step count (node count of the graph).
func (s *State) SetTotalSteps(n int) {
	s.totalSteps = int64(n)
}

// TotalSteps returns the planned step count.
func (s *State) TotalSteps() int {
	return int(s.totalSteps)
}
