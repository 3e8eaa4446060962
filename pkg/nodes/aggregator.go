package nodes

import (
	"context"

	"github.com/weftworks/weft/pkg/domain"
)

// AggregatorNode waits for multiple predecessors and merges their outputs.
// Its requirement gate is the only mechanism limiting duplicate execution
// when several branches converge on it: a branch arriving before all declared
// sources have produced output simply stops. Execution is at-least-once, not
// exactly-once: when every parent has finished before any converging branch
// checks the gate, each of those branches sees it satisfied and runs the
// node. The merge reads the same recorded outputs every time, so a repeat
// run produces the same result.
type AggregatorNode struct {
	Base
	sources []string
}

type aggregatorConfig struct {
	Sources []string `mapstructure:"sources"`
}

// NewAggregator constructs an aggregator node. The required source ids are
// read from the raw spec (not the resolved config) because the gate is
// checked before template resolution happens.
func NewAggregator(id string, spec domain.NodeSpec, state *domain.State) domain.Node {
	var cfg aggregatorConfig
	_ = decodeConfig(spec.Config, &cfg)
	sources := cfg.Sources
	if len(sources) == 0 {
		// Fall back to the structural incoming edges.
		if idx := state.Graph(); idx != nil {
			for _, edge := range idx.Incoming(id) {
				sources = append(sources, edge.Source)
			}
		}
	}
	return &AggregatorNode{
		Base:    Base{ID: id, Spec: spec, State: state},
		sources: sources,
	}
}

// RequirementSatisfied is true only when every declared source has recorded
// an output in the execution state.
func (n *AggregatorNode) RequirementSatisfied() bool {
	for _, src := range n.sources {
		if _, ok := n.State.NodeOutput(src); !ok {
			return false
		}
	}
	return true
}

func (n *AggregatorNode) Process(ctx context.Context, config map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(n.sources))
	for _, src := range n.sources {
		if out, ok := n.State.NodeOutput(src); ok {
			merged[src] = out
		}
	}
	return merged, nil
}
