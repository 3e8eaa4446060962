package nodes

import (
	"context"
	"strings"
	"sync"

	"github.com/weftworks/weft/pkg/domain"
)

// RouterNode evaluates declarative routes against a resolved value and
// overrides the structural successors with the matched route's targets.
// Routes can name node ids directly or reference edge labels, in which case
// the targets are the structural edges carrying that label.
type RouterNode struct {
	Base

	mu     sync.Mutex
	chosen []string
	routed bool
}

type routerConfig struct {
	Value   string        `mapstructure:"value"`
	Routes  []routeConfig `mapstructure:"routes"`
	Default []string      `mapstructure:"default"`
}

type routeConfig struct {
	Equals   string   `mapstructure:"equals"`
	Contains string   `mapstructure:"contains"`
	Targets  []string `mapstructure:"targets"`
	Label    string   `mapstructure:"label"`
}

// NewRouter constructs a router node.
func NewRouter(id string, spec domain.NodeSpec, state *domain.State) domain.Node {
	return &RouterNode{Base: Base{ID: id, Spec: spec, State: state}}
}

func (n *RouterNode) Process(ctx context.Context, config map[string]any) (map[string]any, error) {
	var cfg routerConfig
	if err := decodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	matchedLabel := ""
	var targets []string
	for _, route := range cfg.Routes {
		if !route.matches(cfg.Value) {
			continue
		}
		matchedLabel = route.Label
		if len(route.Targets) > 0 {
			targets = route.Targets
		} else if route.Label != "" {
			targets = n.labeledSuccessors(route.Label)
		}
		break
	}
	if targets == nil && len(cfg.Default) > 0 {
		targets = cfg.Default
	}

	n.mu.Lock()
	n.chosen = targets
	n.routed = true
	n.mu.Unlock()

	return map[string]any{
		"value":   cfg.Value,
		"label":   matchedLabel,
		"targets": targets,
	}, nil
}

// ConnectedNodes returns the route decided during Process. A router that
// matched nothing (and has no default) yields an empty override, stopping
// the branch rather than falling through to all structural edges.
func (n *RouterNode) ConnectedNodes(label string) ([]string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.routed {
		return nil, false
	}
	return n.chosen, true
}

func (r routeConfig) matches(value string) bool {
	switch {
	case r.Equals != "":
		return strings.EqualFold(strings.TrimSpace(value), r.Equals)
	case r.Contains != "":
		return strings.Contains(strings.ToLower(value), strings.ToLower(r.Contains))
	default:
		// A route with no predicate matches everything.
		return true
	}
}

func (n *RouterNode) labeledSuccessors(label string) []string {
	idx := n.State.Graph()
	if idx == nil {
		return nil
	}
	var targets []string
	for _, edge := range idx.Outgoing(n.ID) {
		if edge.Label == label {
			targets = append(targets, edge.Target)
		}
	}
	return targets
}
