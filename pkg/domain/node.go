package domain

import "context"

// Node is the uniform contract every node variant implements. Variants differ
// only in Process; this interface is the sole coupling point between the
// scheduler and concrete node implementations.
type Node interface {
	// Process does the node's actual work against its fully resolved
	// configuration and returns the output document. Implementations may
	// perform external I/O through their collaborators or call back into
	// the engine (e.g. to run a sub-graph).
	Process(ctx context.Context, config map[string]any) (map[string]any, error)

	// RequirementSatisfied reports whether the node may execute when a
	// traversal branch reaches it. Most nodes always return true;
	// aggregator-style nodes wait until specific predecessor outputs are
	// present in the execution state.
	RequirementSatisfied() bool

	// ConnectedNodes returns explicit successor overrides for the given
	// edge label. ok == false means "use the structural forward edges".
	ConnectedNodes(label string) (ids []string, ok bool)
}
