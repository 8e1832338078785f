package fcoracle

import "oss.terrastruct.com/flowcanvas/fcgraph"

// NodeTemplate is what a new node of a type starts with.
type NodeTemplate struct {
	Label   string
	Config  map[string]any
	Inputs  []fcgraph.Port
	Outputs []fcgraph.Port
	// OwnsContainer makes creation add a cross-linked container beneath the
	// node.
	OwnsContainer bool
}

// Registry is the node-type metadata source.
type Registry interface {
	Template(nodeType string) (NodeTemplate, bool)
}

// StaticRegistry is a fixed set of templates keyed by node type.
type StaticRegistry map[string]NodeTemplate

func (r StaticRegistry) Template(nodeType string) (NodeTemplate, bool) {
	t, ok := r[nodeType]
	return t, ok
}

var (
	portIn  = fcgraph.Port{ID: "in", Label: "In"}
	portOut = fcgraph.Port{ID: "out", Label: "Out"}
)

// DefaultRegistry knows the built-in node types.
var DefaultRegistry = StaticRegistry{
	"trigger": {
		Label:   "Trigger",
		Outputs: []fcgraph.Port{portOut},
	},
	"http": {
		Label:   "HTTP Request",
		Config:  map[string]any{"method": "GET", "url": ""},
		Inputs:  []fcgraph.Port{portIn},
		Outputs: []fcgraph.Port{portOut},
	},
	"code": {
		Label:   "Code",
		Config:  map[string]any{"source": ""},
		Inputs:  []fcgraph.Port{portIn},
		Outputs: []fcgraph.Port{portOut},
	},
	"condition": {
		Label:  "Condition",
		Config: map[string]any{"expression": ""},
		Inputs: []fcgraph.Port{portIn},
		Outputs: []fcgraph.Port{
			{ID: "true", Label: "True"},
			{ID: "false", Label: "False"},
		},
	},
	"loop": {
		Label:  "Loop",
		Config: map[string]any{"items": ""},
		Inputs: []fcgraph.Port{portIn},
		Outputs: []fcgraph.Port{
			portOut,
			{ID: fcgraph.HandleLoop, Label: "Body"},
		},
		OwnsContainer: true,
	},
	fcgraph.TypeContainer: {
		Label: "Loop Body",
		Inputs: []fcgraph.Port{
			{ID: fcgraph.HandleLoopIn, Label: "Loop"},
			{ID: fcgraph.HandleLoopRight, Label: "Collect"},
		},
		Outputs: []fcgraph.Port{
			{ID: fcgraph.HandleLoopLeft, Label: "Each"},
		},
	},
}
