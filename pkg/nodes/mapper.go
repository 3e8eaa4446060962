package nodes

import (
	"context"

	"github.com/weftworks/weft/pkg/domain"
)

// DataMapperNode reshapes data: its resolved "mappings" document (whose
// values typically referenced {{source.*}} variables before resolution)
// becomes the node's output as-is.
type DataMapperNode struct {
	Base
}

type mapperConfig struct {
	Mappings map[string]any `mapstructure:"mappings"`
}

// NewDataMapper constructs a data mapper node.
func NewDataMapper(id string, spec domain.NodeSpec, state *domain.State) domain.Node {
	return &DataMapperNode{Base{ID: id, Spec: spec, State: state}}
}

func (n *DataMapperNode) Process(ctx context.Context, config map[string]any) (map[string]any, error) {
	var cfg mapperConfig
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}
	if cfg.Mappings == nil {
		return map[string]any{}, nil
	}
	return cfg.Mappings, nil
}
