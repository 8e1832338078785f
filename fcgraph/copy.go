package fcgraph

import (
	"errors"
	"fmt"

	"oss.terrastruct.com/util-go/go2"
)

// ErrUnserializable is returned when node data holds a value that is not plain
// JSON-like data (bool, number, string, slices and string-keyed maps thereof).
var ErrUnserializable = errors.New("value is not plain data")

// CloneValue deep copies v. It fails fast on anything that would not survive a
// JSON round trip, and on reference cycles.
func CloneValue(v any) (any, error) {
	return cloneValue(v, 0)
}

const maxCloneDepth = 256

func cloneValue(v any, depth int) (any, error) {
	if depth > maxCloneDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d, possible cycle", ErrUnserializable, maxCloneDepth)
	}
	switch v := v.(type) {
	case nil, bool, string,
		float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return v, nil
	case []any:
		if v == nil {
			return []any(nil), nil
		}
		out := make([]any, len(v))
		for i, el := range v {
			el2, err := cloneValue(el, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = el2
		}
		return out, nil
	case []string:
		return append([]string(nil), v...), nil
	case map[string]any:
		if v == nil {
			return map[string]any(nil), nil
		}
		out := make(map[string]any, len(v))
		for k, el := range v {
			el2, err := cloneValue(el, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = el2
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnserializable, v)
	}
}

// CloneConfig deep copies a config map.
func CloneConfig(m map[string]any) (map[string]any, error) {
	if m == nil {
		return nil, nil
	}
	v, err := CloneValue(m)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	return go2.Pointer(*f)
}

func (p *PaddingConfig) Copy() *PaddingConfig {
	if p == nil {
		return nil
	}
	return &PaddingConfig{
		Top:    copyFloat(p.Top),
		Right:  copyFloat(p.Right),
		Bottom: copyFloat(p.Bottom),
		Left:   copyFloat(p.Left),
		X:      copyFloat(p.X),
		Y:      copyFloat(p.Y),
	}
}

func (s Style) Copy() Style {
	return Style{
		Width:  copyFloat(s.Width),
		Height: copyFloat(s.Height),
	}
}

func (d NodeData) Copy() (NodeData, error) {
	config, err := CloneConfig(d.Config)
	if err != nil {
		return NodeData{}, fmt.Errorf("config: %w", err)
	}
	result, err := CloneValue(d.Result)
	if err != nil {
		return NodeData{}, fmt.Errorf("result: %w", err)
	}
	return NodeData{
		Label:   d.Label,
		Config:  config,
		Inputs:  append([]Port(nil), d.Inputs...),
		Outputs: append([]Port(nil), d.Outputs...),

		Result:   result,
		Expanded: d.Expanded,

		Width:        copyFloat(d.Width),
		Height:       copyFloat(d.Height),
		HeaderHeight: copyFloat(d.HeaderHeight),
		Padding:      d.Padding.Copy(),
	}, nil
}

// Copy deep copies n, transient UI fields included.
func (n *Node) Copy() (*Node, error) {
	data, err := n.Data.Copy()
	if err != nil {
		return nil, fmt.Errorf("failed to copy node %q: %w", n.ID, err)
	}
	var measured *Size
	if n.Measured != nil {
		measured = &Size{Width: n.Measured.Width, Height: n.Measured.Height}
	}
	return &Node{
		ID:       n.ID,
		Type:     n.Type,
		Position: n.Position,
		ParentID: n.ParentID,

		Style:    n.Style.Copy(),
		Measured: measured,
		Data:     data,

		Selected: n.Selected,
		Dragging: n.Dragging,
		Extent:   n.Extent,
	}, nil
}

func (e *Edge) Copy() *Edge {
	tmp := *e
	return &tmp
}

// CopyNodes deep copies nodes in order.
func CopyNodes(nodes []*Node) ([]*Node, error) {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		n2, err := n.Copy()
		if err != nil {
			return nil, err
		}
		out = append(out, n2)
	}
	return out, nil
}

func CopyEdges(edges []*Edge) []*Edge {
	out := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.Copy())
	}
	return out
}

// Copy deep copies the whole graph.
func (g *Graph) Copy() (*Graph, error) {
	nodes, err := CopyNodes(g.Nodes)
	if err != nil {
		return nil, err
	}
	g2 := NewGraph()
	g2.Replace(nodes, CopyEdges(g.Edges))
	return g2, nil
}

// Replace swaps in new collections, e.g. when restoring history.
func (g *Graph) Replace(nodes []*Node, edges []*Edge) {
	g.Nodes = nodes
	g.Edges = edges
	g.reindex()
}
