package nodes

import (
	"context"

	"github.com/weftworks/weft/pkg/domain"
)

// InputNode marks the entry point of a graph. It exposes the seeded message
// binding as its output so downstream nodes can reference {{source.message}}.
type InputNode struct {
	Base
}

// NewInput constructs an input node.
func NewInput(id string, spec domain.NodeSpec, state *domain.State) domain.Node {
	return &InputNode{Base{ID: id, Spec: spec, State: state}}
}

func (n *InputNode) Process(ctx context.Context, config map[string]any) (map[string]any, error) {
	out := map[string]any{}
	if msg, ok := n.State.Binding(domain.KeyMessage); ok {
		out[domain.KeyMessage] = msg
	}
	return out, nil
}
