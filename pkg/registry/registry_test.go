package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/registry"
)

type stubNode struct {
	id string
}

func (n *stubNode) Process(ctx context.Context, config map[string]any) (map[string]any, error) {
	return map[string]any{"id": n.id}, nil
}

func (n *stubNode) RequirementSatisfied() bool { return true }

func (n *stubNode) ConnectedNodes(label string) ([]string, bool) { return nil, false }

func TestRegistry_BuildAndMiss(t *testing.T) {
	r := registry.New()
	r.Register("stub", func(id string, spec domain.NodeSpec, state *domain.State) domain.Node {
		return &stubNode{id: id}
	})

	node, err := r.Build(domain.NodeSpec{ID: "n1", Type: "stub"}, nil)
	require.NoError(t, err)

	out, err := node.Process(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "n1", out["id"])

	_, err = r.Build(domain.NodeSpec{ID: "n2", Type: "nope"}, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownNodeType)
}

func TestRegistry_StorageScope(t *testing.T) {
	r := registry.New()
	ctor := func(id string, spec domain.NodeSpec, state *domain.State) domain.Node {
		return &stubNode{id: id}
	}
	r.Register("light", ctor)
	r.Register("heavy", ctor, registry.WithStorageScope())

	assert.False(t, r.NeedsStorageScope("light"))
	assert.True(t, r.NeedsStorageScope("heavy"))
	assert.False(t, r.NeedsStorageScope("unknown"))
	assert.ElementsMatch(t, []string{"light", "heavy"}, r.Types())
}
