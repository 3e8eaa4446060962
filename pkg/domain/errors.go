package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfigInvalid is returned when a graph definition is missing required fields.
var ErrConfigInvalid = errors.New("invalid graph definition")

// ErrUnknownNodeType is returned when a node's type tag has no registered constructor.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrNodeNotFound is returned when a referenced node id is absent from the node list.
var ErrNodeNotFound = errors.New("node not found")

// ErrGraphNotFound is returned by graph stores when the requested id is absent.
var ErrGraphNotFound = errors.New("graph not found")

// AmbiguousStartError is returned when no explicit start node was supplied
// and zero or more than one candidate starting node exists.
type AmbiguousStartError struct {
	Candidates []string
}

func (e *AmbiguousStartError) Error() string {
	if len(e.Candidates) == 0 {
		return "ambiguous start: no node without incoming edges"
	}
	return fmt.Sprintf("ambiguous start: candidates [%s]", strings.Join(e.Candidates, ", "))
}

// NodeExecutionError wraps a failure raised by a node's Process.
type NodeExecutionError struct {
	NodeID string
	Err    error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s failed: %v", e.NodeID, e.Err)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}
