// Package nodes provides the built-in structural node types: graph entry and
// exit, templating, routing, aggregation, data mapping and sub-workflow
// execution. Business-logic nodes (model calls, SQL, external tools) are
// registered by consumers through the registry and are not part of this
// package.
package nodes

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/weftworks/weft/pkg/domain"
)

// Base carries the construction arguments every node variant shares and
// provides the default contract behavior: always ready to run, no successor
// overrides.
type Base struct {
	ID    string
	Spec  domain.NodeSpec
	State *domain.State
}

// RequirementSatisfied reports whether the node may run when reached.
// The default is true; aggregator-style nodes override this.
func (b *Base) RequirementSatisfied() bool { return true }

// ConnectedNodes returns no override: structural edges apply.
func (b *Base) ConnectedNodes(label string) ([]string, bool) { return nil, false }

// decodeConfig maps a resolved configuration document onto a typed struct.
func decodeConfig(config map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("config decoder: %w", err)
	}
	if err := dec.Decode(config); err != nil {
		return fmt.Errorf("invalid node config: %w", err)
	}
	return nil
}
