package fcgraph

import (
	"sort"

	"oss.terrastruct.com/flowcanvas/lib/geo"
)

// TypeContainer is the node type of loop bodies. Only containers may parent
// other nodes.
const TypeContainer = "container"

// Reserved handles.
const (
	// HandleLoopLeft is the container side-port that feeds its children.
	HandleLoopLeft = "loop-left"
	// HandleLoopRight is the container side-port that collects from its children.
	HandleLoopRight = "loop-right"
	// HandleLoop is the owner's output towards the container it governs.
	HandleLoop = "loop"
	// HandleLoopIn is the container's input from its owner.
	HandleLoopIn = "loop-in"

	// LegacyHandleLoopBody was renamed to HandleLoopLeft.
	LegacyHandleLoopBody = "loop-body"
)

// Config keys holding node ids.
const (
	ConfigContainerID = "containerId"
	ConfigOwnerID     = "ownerId"
)

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Port struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// PaddingConfig is either per-edge or the symmetric {x, y} shorthand. Per-edge
// values win over the shorthand.
type PaddingConfig struct {
	Top    *float64 `json:"top,omitempty"`
	Right  *float64 `json:"right,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
	Left   *float64 `json:"left,omitempty"`

	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

type Style struct {
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
}

type NodeData struct {
	Label   string         `json:"label"`
	Config  map[string]any `json:"config,omitempty"`
	Inputs  []Port         `json:"inputs,omitempty"`
	Outputs []Port         `json:"outputs,omitempty"`

	// Result is the cached output of the last execution, written by the
	// execution engine.
	Result any `json:"result,omitempty"`
	// Expanded is a UI disclosure flag.
	Expanded bool `json:"expanded,omitempty"`

	// Container visuals. Explicit values here take precedence over style and
	// measured sizes.
	Width        *float64       `json:"width,omitempty"`
	Height       *float64       `json:"height,omitempty"`
	HeaderHeight *float64       `json:"headerHeight,omitempty"`
	Padding      *PaddingConfig `json:"padding,omitempty"`
}

type Node struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// Position is relative to the parent when ParentID is set, canvas-absolute otherwise.
	Position geo.Point `json:"position"`
	ParentID string    `json:"parentId,omitempty"`

	Style    Style    `json:"style,omitempty"`
	Measured *Size    `json:"measured,omitempty"`
	Data     NodeData `json:"data"`

	Selected bool `json:"selected,omitempty"`
	Dragging bool `json:"dragging,omitempty"`
	// Extent is a legacy field stripped on load.
	Extent string `json:"extent,omitempty"`
}

func (n *Node) IsContainer() bool {
	return n.Type == TypeContainer
}

// ConfigString returns the string config value at key, if any.
func (n *Node) ConfigString(key string) (string, bool) {
	v, ok := n.Data.Config[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

func (n *Node) SetConfig(key string, v any) {
	if n.Data.Config == nil {
		n.Data.Config = make(map[string]any)
	}
	n.Data.Config[key] = v
}

// HasInput reports whether handle is declared as an input port.
func (n *Node) HasInput(handle string) bool {
	for _, p := range n.Data.Inputs {
		if p.ID == handle {
			return true
		}
	}
	return false
}

// HasOutput reports whether handle is declared as an output port.
func (n *Node) HasOutput(handle string) bool {
	for _, p := range n.Data.Outputs {
		if p.ID == handle {
			return true
		}
	}
	return false
}

type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Touches reports whether either endpoint is id.
func (e *Edge) Touches(id string) bool {
	return e.Source == id || e.Target == id
}

// Graph is the mutable node and edge collection. Nodes keep insertion order.
// A Graph is not safe for concurrent use.
type Graph struct {
	Nodes []*Node
	Edges []*Edge

	index map[string]*Node
}

func NewGraph() *Graph {
	return &Graph{
		index: make(map[string]*Node),
	}
}

func (g *Graph) reindex() {
	g.index = make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		g.index[n.ID] = n
	}
}

func (g *Graph) Node(id string) (*Node, bool) {
	if g.index == nil || len(g.index) != len(g.Nodes) {
		g.reindex()
	}
	n, ok := g.index[id]
	return n, ok
}

func (g *Graph) Edge(id string) (*Edge, bool) {
	for _, e := range g.Edges {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// AddNode appends n. The caller guarantees the id is unused.
func (g *Graph) AddNode(n *Node) {
	if g.index == nil {
		g.reindex()
	}
	g.Nodes = append(g.Nodes, n)
	g.index[n.ID] = n
}

func (g *Graph) AddEdge(e *Edge) {
	g.Edges = append(g.Edges, e)
}

// Children returns the direct children of id in insertion order.
func (g *Graph) Children(id string) []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.ParentID == id {
			out = append(out, n)
		}
	}
	return out
}

// Containers returns every container, deepest first.
func (g *Graph) Containers() []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.IsContainer() {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return g.Depth(out[i].ID) > g.Depth(out[j].ID)
	})
	return out
}

// Depth is the number of ancestors of id. Unknown ids and broken chains stop
// the walk.
func (g *Graph) Depth(id string) int {
	d := 0
	n, ok := g.Node(id)
	for ok && n.ParentID != "" && d <= len(g.Nodes) {
		n, ok = g.Node(n.ParentID)
		if ok {
			d++
		}
	}
	return d
}

// Absolute returns the canvas position of id: its own position plus every
// ancestor's.
func (g *Graph) Absolute(id string) geo.Point {
	n, ok := g.Node(id)
	if !ok {
		return geo.Point{}
	}
	p := n.Position
	for i := 0; n.ParentID != "" && i <= len(g.Nodes); i++ {
		n, ok = g.Node(n.ParentID)
		if !ok {
			break
		}
		p = p.Add(n.Position)
	}
	return p
}

// IsDescendantOf reports whether id is nested anywhere under ancestorID.
func (g *Graph) IsDescendantOf(id, ancestorID string) bool {
	n, ok := g.Node(id)
	for i := 0; ok && n.ParentID != "" && i <= len(g.Nodes); i++ {
		if n.ParentID == ancestorID {
			return true
		}
		n, ok = g.Node(n.ParentID)
	}
	return false
}

// Descendants returns every node nested under id, parents before children.
func (g *Graph) Descendants(id string) []*Node {
	var out []*Node
	queue := []string{id}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, ch := range g.Children(curr) {
			out = append(out, ch)
			queue = append(queue, ch.ID)
		}
	}
	return out
}

// RemoveNodes removes ids, their descendants and every edge touching a
// removed node. Unknown ids are ignored. It returns the removed node ids.
func (g *Graph) RemoveNodes(ids ...string) []string {
	removed := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := g.Node(id); !ok {
			continue
		}
		removed[id] = struct{}{}
		for _, d := range g.Descendants(id) {
			removed[d.ID] = struct{}{}
		}
	}
	if len(removed) == 0 {
		return nil
	}

	var out []string
	nodes := g.Nodes[:0]
	for _, n := range g.Nodes {
		if _, ok := removed[n.ID]; ok {
			out = append(out, n.ID)
			continue
		}
		nodes = append(nodes, n)
	}
	g.Nodes = nodes
	g.reindex()

	g.RemoveEdgesWhere(func(e *Edge) bool {
		_, src := removed[e.Source]
		_, dst := removed[e.Target]
		return src || dst
	})
	return out
}

// RemoveEdgesWhere removes every edge matching fn and returns them.
func (g *Graph) RemoveEdgesWhere(fn func(*Edge) bool) []*Edge {
	var removed []*Edge
	edges := g.Edges[:0]
	for _, e := range g.Edges {
		if fn(e) {
			removed = append(removed, e)
			continue
		}
		edges = append(edges, e)
	}
	g.Edges = edges
	return removed
}

// PruneDanglingEdges removes edges whose endpoints no longer exist.
func (g *Graph) PruneDanglingEdges() []*Edge {
	return g.RemoveEdgesWhere(func(e *Edge) bool {
		_, src := g.Node(e.Source)
		_, dst := g.Node(e.Target)
		return !src || !dst
	})
}

// Labels returns every label currently in use.
func (g *Graph) Labels() map[string]struct{} {
	out := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.Data.Label] = struct{}{}
	}
	return out
}
