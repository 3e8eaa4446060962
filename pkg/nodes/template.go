package nodes

import (
	"context"

	"github.com/weftworks/weft/pkg/domain"
)

// TemplateNode renders a text template into {"text": ...}. Variable
// substitution has already happened by the time Process runs, so the node
// only has to publish the rendered field.
type TemplateNode struct {
	Base
}

type templateConfig struct {
	Template string `mapstructure:"template"`
	Text     string `mapstructure:"text"`
}

// NewTemplate constructs a template node.
func NewTemplate(id string, spec domain.NodeSpec, state *domain.State) domain.Node {
	return &TemplateNode{Base{ID: id, Spec: spec, State: state}}
}

func (n *TemplateNode) Process(ctx context.Context, config map[string]any) (map[string]any, error) {
	var cfg templateConfig
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}
	text := cfg.Template
	if text == "" {
		text = cfg.Text
	}
	return map[string]any{"text": text}, nil
}
