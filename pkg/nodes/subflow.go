package nodes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
)

// GraphRunner executes a graph definition to completion. The engine facade
// satisfies this; the indirection keeps this package free of a dependency on
// the scheduler.
type GraphRunner interface {
	RunGraph(ctx context.Context, def *domain.Definition, input map[string]any, runID string) (*domain.State, error)
}

// SubflowNode loads another graph definition from the graph store and runs it
// with its own run id, reporting the child run's status and final output.
type SubflowNode struct {
	Base
	graphs ports.GraphStore
	runner GraphRunner
}

type subflowConfig struct {
	WorkflowID      string         `mapstructure:"workflowId"`
	InputParameters map[string]any `mapstructure:"inputParameters"`
	RunID           string         `mapstructure:"runId"`
}

// NewSubflow returns a constructor bound to the graph store and runner.
func NewSubflow(graphs ports.GraphStore, runner GraphRunner) func(string, domain.NodeSpec, *domain.State) domain.Node {
	return func(id string, spec domain.NodeSpec, state *domain.State) domain.Node {
		return &SubflowNode{
			Base:   Base{ID: id, Spec: spec, State: state},
			graphs: graphs,
			runner: runner,
		}
	}
}

func (n *SubflowNode) Process(ctx context.Context, config map[string]any) (map[string]any, error) {
	var cfg subflowConfig
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}
	if cfg.WorkflowID == "" {
		return nil, fmt.Errorf("workflowId is required for subflow node %s", n.ID)
	}
	if n.graphs == nil || n.runner == nil {
		return nil, fmt.Errorf("subflow node %s has no graph store or runner wired", n.ID)
	}

	def, err := n.graphs.Load(ctx, cfg.WorkflowID)
	if err != nil {
		return nil, fmt.Errorf("subflow %s: %w", cfg.WorkflowID, err)
	}

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	child, err := n.runner.RunGraph(ctx, def, cfg.InputParameters, runID)
	if err != nil {
		return nil, fmt.Errorf("subflow %s failed: %w", cfg.WorkflowID, err)
	}

	return map[string]any{
		"workflowId": cfg.WorkflowID,
		"runId":      runID,
		"status":     string(child.Status()),
		"output":     child.Output(),
	}, nil
}
