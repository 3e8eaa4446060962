package domain

// Built-in node type tags. Consumers may register additional tags through
// the registry without touching the scheduler.
const (
	NodeTypeInput      = "inputNode"
	NodeTypeOutput     = "outputNode"
	NodeTypeTemplate   = "templateNode"
	NodeTypeRouter     = "routerNode"
	NodeTypeAggregator = "aggregatorNode"
	NodeTypeDataMapper = "dataMapperNode"
	NodeTypeSubflow    = "subflowNode"
)

// KeyMessage is the binding under which the caller's primary input message
// is seeded, and the one persisted to conversation history after a run.
const KeyMessage = "message"
