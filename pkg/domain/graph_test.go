package domain_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/domain"
)

func linearDef() *domain.Definition {
	return &domain.Definition{
		ID: "wf-linear",
		Nodes: []domain.NodeSpec{
			{ID: "a", Type: domain.NodeTypeInput},
			{ID: "b", Type: domain.NodeTypeTemplate},
			{ID: "c", Type: domain.NodeTypeOutput},
		},
		Edges: []domain.Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "c"},
		},
	}
}

func TestDefinition_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, linearDef().Validate())
	})

	t.Run("no nodes", func(t *testing.T) {
		def := &domain.Definition{ID: "empty"}
		assert.ErrorIs(t, def.Validate(), domain.ErrConfigInvalid)
	})

	t.Run("duplicate id", func(t *testing.T) {
		def := linearDef()
		def.Nodes = append(def.Nodes, domain.NodeSpec{ID: "a", Type: "templateNode"})
		assert.ErrorIs(t, def.Validate(), domain.ErrConfigInvalid)
	})

	t.Run("dangling edge is not rejected", func(t *testing.T) {
		def := linearDef()
		def.Edges = append(def.Edges, domain.Edge{Source: "c", Target: "ghost"})
		assert.NoError(t, def.Validate())
	})
}

func TestIndex_Adjacency(t *testing.T) {
	def := linearDef()
	idx := domain.NewIndex(def)

	assert.Equal(t, []string{"b"}, idx.Successors("a"))
	assert.Equal(t, []string{"c"}, idx.Successors("b"))
	assert.Empty(t, idx.Successors("c"))

	require.Len(t, idx.Incoming("c"), 1)
	assert.Equal(t, "b", idx.Incoming("c")[0].Source)
	assert.Empty(t, idx.Incoming("a"))
}

func TestIndex_OrderIndependent(t *testing.T) {
	def := &domain.Definition{
		ID: "wf-fan",
		Nodes: []domain.NodeSpec{
			{ID: "a", Type: "inputNode"},
			{ID: "b", Type: "templateNode"},
			{ID: "c", Type: "templateNode"},
			{ID: "d", Type: "aggregatorNode"},
		},
		Edges: []domain.Edge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "c"},
			{Source: "b", Target: "d"},
			{Source: "c", Target: "d"},
		},
	}
	base := domain.NewIndex(def)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := *def
		shuffled.Edges = append([]domain.Edge(nil), def.Edges...)
		rng.Shuffle(len(shuffled.Edges), func(i, j int) {
			shuffled.Edges[i], shuffled.Edges[j] = shuffled.Edges[j], shuffled.Edges[i]
		})
		idx := domain.NewIndex(&shuffled)

		for _, n := range def.Nodes {
			assert.ElementsMatch(t, base.Successors(n.ID), idx.Successors(n.ID), "successors of %s", n.ID)
			assert.ElementsMatch(t, base.Incoming(n.ID), idx.Incoming(n.ID), "incoming of %s", n.ID)
		}
	}
}

func TestIndex_DuplicateEdgesPreserved(t *testing.T) {
	def := linearDef()
	def.Edges = append(def.Edges, domain.Edge{Source: "a", Target: "b"})
	idx := domain.NewIndex(def)

	assert.Equal(t, []string{"b", "b"}, idx.Successors("a"))
}
