package nodes

import (
	"context"

	"github.com/weftworks/weft/pkg/domain"
)

// OutputNode is a terminal node. Its resolved config is the run's visible
// result; with no config it echoes whatever the upstream node produced via
// the {{source}} variable left in its payload by the graph author.
type OutputNode struct {
	Base
}

// NewOutput constructs an output node.
func NewOutput(id string, spec domain.NodeSpec, state *domain.State) domain.Node {
	return &OutputNode{Base{ID: id, Spec: spec, State: state}}
}

func (n *OutputNode) Process(ctx context.Context, config map[string]any) (map[string]any, error) {
	if len(config) == 0 {
		return map[string]any{}, nil
	}
	return config, nil
}
