package runtime

import (
	"fmt"
	"strings"

	"github.com/weftworks/weft/pkg/domain"
)

// resolveStart picks the node a run begins at.
//
// An explicit id wins but must exist. Otherwise the unique input-typed node
// is used; failing that, the unique node with no incoming edges. When no
// single candidate remains the graph is ambiguous and the caller gets the
// full candidate list to report.
func (e *Engine) resolveStart(startID string) (string, error) {
	if startID != "" {
		if _, err := e.def.Node(startID); err != nil {
			return "", fmt.Errorf("start node: %w", err)
		}
		return startID, nil
	}

	var inputs []string
	for _, n := range e.def.Nodes {
		if strings.Contains(strings.ToLower(n.Type), "input") {
			inputs = append(inputs, n.ID)
		}
	}
	if len(inputs) == 1 {
		return inputs[0], nil
	}

	var roots []string
	for _, n := range e.def.Nodes {
		if len(e.index.Incoming(n.ID)) == 0 {
			roots = append(roots, n.ID)
		}
	}
	if len(roots) == 1 {
		return roots[0], nil
	}

	candidates := inputs
	if len(candidates) == 0 {
		candidates = roots
	}
	return "", &domain.AmbiguousStartError{Candidates: candidates}
}
