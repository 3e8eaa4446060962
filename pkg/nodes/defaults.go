package nodes

import (
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/ports"
	"github.com/weftworks/weft/pkg/registry"
)

// Deps are the collaborators the built-in nodes may need. Zero values are
// fine: a subflow node without a store or runner fails at Process time with
// a clear error instead of at registration time.
type Deps struct {
	Graphs ports.GraphStore
	Runner GraphRunner
}

// Register adds the built-in structural node types to the registry.
// The subflow type is marked as storage-scoped: it loads definitions from
// the graph store, so parallel fan-outs give it a fresh resource scope.
func Register(r *registry.Registry, deps Deps) {
	r.Register(domain.NodeTypeInput, NewInput)
	r.Register(domain.NodeTypeOutput, NewOutput)
	r.Register(domain.NodeTypeTemplate, NewTemplate)
	r.Register(domain.NodeTypeRouter, NewRouter)
	r.Register(domain.NodeTypeAggregator, NewAggregator)
	r.Register(domain.NodeTypeDataMapper, NewDataMapper)
	r.Register(domain.NodeTypeSubflow, NewSubflow(deps.Graphs, deps.Runner), registry.WithStorageScope())
}

// DefaultRegistry builds a registry containing only the built-in types.
func DefaultRegistry(deps Deps) *registry.Registry {
	r := registry.New()
	Register(r, deps)
	return r
}
