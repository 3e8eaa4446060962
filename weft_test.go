package weft_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	weft "github.com/weftworks/weft"
	"github.com/weftworks/weft/pkg/adapters/memory"
	"github.com/weftworks/weft/pkg/domain"
)

func greetingDef() *domain.Definition {
	return &domain.Definition{
		ID: "greeting",
		Nodes: []domain.NodeSpec{
			{ID: "in", Type: domain.NodeTypeInput},
			{ID: "say", Type: domain.NodeTypeTemplate, Config: map[string]any{"template": "hello {{message}}"}},
			{ID: "out", Type: domain.NodeTypeOutput, Config: map[string]any{"text": "{{source.text}}"}},
		},
		Edges: []domain.Edge{
			{Source: "in", Target: "say"},
			{Source: "say", Target: "out"},
		},
	}
}

func TestEngine_Run(t *testing.T) {
	engine := weft.New()

	state, err := engine.Run(context.Background(), greetingDef(), map[string]any{"message": "world"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, state.Status())
	out, ok := state.NodeOutput("out")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"text": "hello world"}, out)
}

func TestEngine_RunStored(t *testing.T) {
	graphs := memory.NewGraphStoreFrom(greetingDef())
	engine := weft.New(weft.WithGraphStore(graphs))

	state, err := engine.RunStored(context.Background(), "greeting", map[string]any{"message": "again"}, weft.WithRunID("fixed-run"))
	require.NoError(t, err)
	assert.Equal(t, "fixed-run", state.RunID)
	assert.Equal(t, domain.StatusCompleted, state.Status())

	_, err = engine.RunStored(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, domain.ErrGraphNotFound)
}

func TestEngine_SubflowThroughFacade(t *testing.T) {
	graphs := memory.NewGraphStoreFrom(greetingDef())
	engine := weft.New(weft.WithGraphStore(graphs))

	parent := &domain.Definition{
		ID: "parent",
		Nodes: []domain.NodeSpec{
			{ID: "in", Type: domain.NodeTypeInput},
			{ID: "child", Type: domain.NodeTypeSubflow, Config: map[string]any{
				"workflowId":      "greeting",
				"inputParameters": map[string]any{"message": "nested"},
			}},
		},
		Edges: []domain.Edge{{Source: "in", Target: "child"}},
	}

	state, err := engine.Run(context.Background(), parent, map[string]any{"message": "outer"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, state.Status())

	childOut, ok := state.NodeOutput("child")
	require.True(t, ok)
	result, ok := childOut.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "completed", result["status"])
	assert.Equal(t, map[string]any{"text": "hello nested"}, result["output"])
}

func TestEngine_Validate(t *testing.T) {
	engine := weft.New()

	assert.NoError(t, engine.Validate(greetingDef()))

	bad := &domain.Definition{
		ID:    "bad",
		Nodes: []domain.NodeSpec{{ID: "x", Type: "noSuchNode"}},
	}
	assert.ErrorIs(t, engine.Validate(bad), domain.ErrUnknownNodeType)

	assert.ErrorIs(t, engine.Validate(&domain.Definition{ID: "empty"}), domain.ErrConfigInvalid)
}

func TestEngine_StartNodeOverride(t *testing.T) {
	engine := weft.New()

	state, err := engine.Run(context.Background(), greetingDef(), map[string]any{"message": "w"}, weft.WithStartNode("say"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, state.Status())

	_, inRan := state.NodeOutput("in")
	assert.False(t, inRan)
	_, sayRan := state.NodeOutput("say")
	assert.True(t, sayRan)
}
