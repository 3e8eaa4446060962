package domain

import "fmt"

// NodeSpec is the declarative description of one processing step.
// Config is an opaque structured document; the engine resolves template
// variables in it before handing it to the node implementation.
type NodeSpec struct {
	ID     string         `json:"id" yaml:"id" mapstructure:"id"`
	Type   string         `json:"type" yaml:"type" mapstructure:"type"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty" mapstructure:"config"`
}

// Edge is a directed connection between two nodes. Label is optional and
// used by router-style nodes to select successors.
type Edge struct {
	Source string `json:"source" yaml:"source" mapstructure:"source"`
	Target string `json:"target" yaml:"target" mapstructure:"target"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
}

// Definition is the declarative node/edge document describing a workflow.
type Definition struct {
	ID          string     `json:"id" yaml:"id" mapstructure:"id"`
	Name        string     `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Nodes       []NodeSpec `json:"nodes" yaml:"nodes" mapstructure:"nodes"`
	Edges       []Edge     `json:"edges,omitempty" yaml:"edges,omitempty" mapstructure:"edges"`
}

// Validate checks the structural invariants a definition must satisfy before
// an engine can be built from it. Edges referencing unknown node ids are
// deliberately NOT rejected here; the engine fails lazily only if such an
// edge is actually traversed.
func (d *Definition) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: definition is nil", ErrConfigInvalid)
	}
	if len(d.Nodes) == 0 {
		return fmt.Errorf("%w: definition has no nodes", ErrConfigInvalid)
	}
	seen := make(map[string]struct{}, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node with empty id", ErrConfigInvalid)
		}
		if n.Type == "" {
			return fmt.Errorf("%w: node %q has no type", ErrConfigInvalid, n.ID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrConfigInvalid, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}

// Node returns the spec for the given id, or ErrNodeNotFound.
func (d *Definition) Node(id string) (NodeSpec, error) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return NodeSpec{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
}

// Index holds the adjacency maps derived from a definition's edge list.
// Built once per engine construction; lookups are O(1) on average.
type Index struct {
	forward map[string][]Edge
	reverse map[string][]Edge
}

// NewIndex builds forward and reverse adjacency maps from the edge list.
// Edge order within each bucket follows declaration order.
func NewIndex(def *Definition) *Index {
	idx := &Index{
		forward: make(map[string][]Edge),
		reverse: make(map[string][]Edge),
	}
	for _, e := range def.Edges {
		idx.forward[e.Source] = append(idx.forward[e.Source], e)
		idx.reverse[e.Target] = append(idx.reverse[e.Target], e)
	}
	return idx
}

// Outgoing returns the edges leaving the given node, in declaration order.
func (i *Index) Outgoing(nodeID string) []Edge {
	return i.forward[nodeID]
}

// Incoming returns the edges arriving at the given node, in declaration order.
func (i *Index) Incoming(nodeID string) []Edge {
	return i.reverse[nodeID]
}

// Successors returns the target ids of all outgoing edges. Duplicate edges to
// the same target are preserved: each occurrence spawns its own branch.
func (i *Index) Successors(nodeID string) []string {
	edges := i.forward[nodeID]
	if len(edges) == 0 {
		return nil
	}
	targets := make([]string, len(edges))
	for n, e := range edges {
		targets[n] = e.Target
	}
	return targets
}
