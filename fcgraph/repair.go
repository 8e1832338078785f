package fcgraph

import "oss.terrastruct.com/util-go/go2"

// Repair migrates a freshly loaded graph: it strips the legacy extent field,
// normalizes every padding config to the per-edge form and renames the legacy
// loop handle. It returns the number of fields touched.
//
// Container sizes are not re-established here; run the container layout
// engine over g.Containers() afterwards.
func Repair(g *Graph) int {
	touched := 0
	for _, n := range g.Nodes {
		if n.Extent != "" {
			n.Extent = ""
			touched++
		}
		if n.Data.Padding != nil {
			p := NormalizePadding(n.Data.Padding)
			if !p.Equals(n.Data.Padding) {
				touched++
			}
			n.Data.Padding = p
		}
	}
	for _, e := range g.Edges {
		if e.SourceHandle == LegacyHandleLoopBody {
			e.SourceHandle = HandleLoopLeft
			touched++
		}
		if e.TargetHandle == LegacyHandleLoopBody {
			e.TargetHandle = HandleLoopLeft
			touched++
		}
	}
	return touched
}

// NormalizePadding expands the {x, y} shorthand into per-edge values. Missing
// fields stay nil so defaults still apply.
func NormalizePadding(p *PaddingConfig) *PaddingConfig {
	if p == nil {
		return nil
	}
	out := &PaddingConfig{
		Top:    copyFloat(p.Top),
		Right:  copyFloat(p.Right),
		Bottom: copyFloat(p.Bottom),
		Left:   copyFloat(p.Left),
	}
	if p.X != nil {
		if out.Left == nil {
			out.Left = go2.Pointer(*p.X)
		}
		if out.Right == nil {
			out.Right = go2.Pointer(*p.X)
		}
	}
	if p.Y != nil {
		if out.Top == nil {
			out.Top = go2.Pointer(*p.Y)
		}
		if out.Bottom == nil {
			out.Bottom = go2.Pointer(*p.Y)
		}
	}
	return out
}

func floatEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Equals compares padding configs by value.
func (p *PaddingConfig) Equals(other *PaddingConfig) bool {
	if p == nil || other == nil {
		return p == other
	}
	return floatEq(p.Top, other.Top) &&
		floatEq(p.Right, other.Right) &&
		floatEq(p.Bottom, other.Bottom) &&
		floatEq(p.Left, other.Left) &&
		floatEq(p.X, other.X) &&
		floatEq(p.Y, other.Y)
}
