package fccontainer

import (
	"context"
	"math"
	"sort"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/go2"

	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/lib/geo"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

// Suppression is the set of containers resized programmatically by one call.
// A measured-size update already in flight for one of them is stale and must
// be dropped once.
type Suppression map[string]struct{}

func (s Suppression) Add(id string) Suppression {
	if s == nil {
		s = make(Suppression)
	}
	s[id] = struct{}{}
	return s
}

func (s Suppression) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Merge adds every id of other to s.
func (s Suppression) Merge(other Suppression) Suppression {
	for id := range other {
		s = s.Add(id)
	}
	return s
}

// Consume reports whether id was suppressed and removes it.
func (s Suppression) Consume(id string) bool {
	if _, ok := s[id]; !ok {
		return false
	}
	delete(s, id)
	return true
}

func (s Suppression) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LayoutChildren arranges the direct children of containerID.
//
//   - No children: the container is reset to the minimum size.
//   - One child: the child is centered horizontally at the top of the content
//     area, growing the container as needed.
//   - More: children keep their manual placement, clamped to the content area,
//     and the container grows to the union of their footprints.
//
// Children in exempt are neither moved nor counted. Ancestor containers grow
// to fit a container that grew. Every container whose footprint changed is
// returned.
func (e *Engine) LayoutChildren(ctx context.Context, g *fcgraph.Graph, containerID string, exempt map[string]struct{}) Suppression {
	c, ok := g.Node(containerID)
	if !ok || !c.IsContainer() {
		return nil
	}

	children := eligible(g, containerID, exempt)

	prevPos := c.Position
	prev := e.ResolveVisualConfig(c)

	switch len(children) {
	case 0:
		setSize(c, e.Opts.MinWidth, e.Opts.MinHeight)
	case 1:
		e.layoutSingle(ctx, g, c, children[0])
	default:
		e.layoutMany(c, children)
	}

	next := e.ResolveVisualConfig(c)
	var sup Suppression
	if prev.Width != next.Width || prev.Height != next.Height || !prevPos.Equals(c.Position) {
		log.Debug(ctx, "container footprint changed",
			slog.F("container", containerID),
			slog.F("width", next.Width),
			slog.F("height", next.Height),
		)
		sup = sup.Add(containerID)
		e.notify(containerID)
		sup = sup.Merge(e.FitAncestors(ctx, g, containerID, exempt))
	}
	return sup
}

func eligible(g *fcgraph.Graph, containerID string, exempt map[string]struct{}) []*fcgraph.Node {
	var children []*fcgraph.Node
	for _, ch := range g.Children(containerID) {
		if _, ok := exempt[ch.ID]; ok {
			continue
		}
		children = append(children, ch)
	}
	return children
}

// FitChildren recomputes the bounds of containerID without rearranging it:
// children are clamped to the content area and the container grows to their
// union, then its ancestors grow to fit. Unlike LayoutChildren a lone child is
// not re-centred. Children in exempt are neither moved nor counted.
func (e *Engine) FitChildren(ctx context.Context, g *fcgraph.Graph, containerID string, exempt map[string]struct{}) Suppression {
	c, ok := g.Node(containerID)
	if !ok || !c.IsContainer() {
		return nil
	}
	children := eligible(g, containerID, exempt)
	e.clamp(c, children)
	if !e.fit(c, children) {
		return nil
	}
	log.Debug(ctx, "refitted container", slog.F("container", containerID))
	e.notify(containerID)
	sup := Suppression(nil).Add(containerID)
	return sup.Merge(e.FitAncestors(ctx, g, containerID, exempt))
}

func (e *Engine) layoutSingle(ctx context.Context, g *fcgraph.Graph, c, child *fcgraph.Node) {
	cfg := e.ResolveVisualConfig(c)
	size := e.ChildApproxSize(child)
	origin := cfg.ContentOrigin()

	x := math.Max(origin.X, (cfg.Width-size.Width)/2)
	cfg, pos := e.EnsureCapacity(ctx, g, c.ID, child.ID, geo.NewPoint(x, origin.Y))

	// Growth may have widened the container; center again on the final width.
	pos.X = math.Max(cfg.ContentOrigin().X, (cfg.Width-size.Width)/2)
	if !pos.Equals(child.Position) {
		child.Position = pos
		e.notify(child.ID)
	}
}

// clamp floors every child at the content origin of c.
func (e *Engine) clamp(c *fcgraph.Node, children []*fcgraph.Node) {
	cfg := e.ResolveVisualConfig(c)
	for _, ch := range children {
		pos := Clamp(ch.Position, cfg)
		if !pos.Equals(ch.Position) {
			ch.Position = pos
			e.notify(ch.ID)
		}
	}
}

func (e *Engine) layoutMany(c *fcgraph.Node, children []*fcgraph.Node) {
	cfg := e.ResolveVisualConfig(c)
	e.clamp(c, children)

	boxes := make([]geo.Box, 0, len(children))
	for _, ch := range children {
		boxes = append(boxes, e.Footprint(ch))
	}

	bb, _ := geo.BoundingBox(boxes)
	width := go2.Max(go2.Max(cfg.Width, bb.Right()+cfg.Padding.Right), e.Opts.MinWidth)
	height := go2.Max(go2.Max(cfg.Height, bb.Bottom()+cfg.Padding.Bottom), e.Opts.MinHeight)
	setSize(c, width, height)
}

// FitAncestors grows every ancestor of id so the child chain stays contained.
// Positions are not touched. Nodes in exempt are not counted.
func (e *Engine) FitAncestors(ctx context.Context, g *fcgraph.Graph, id string, exempt map[string]struct{}) Suppression {
	var sup Suppression
	n, ok := g.Node(id)
	for i := 0; ok && n.ParentID != "" && i <= len(g.Nodes); i++ {
		p, ok2 := g.Node(n.ParentID)
		if !ok2 {
			break
		}
		if !e.fit(p, eligible(g, p.ID, exempt)) {
			break
		}
		log.Debug(ctx, "grew ancestor container", slog.F("container", p.ID))
		sup = sup.Add(p.ID)
		e.notify(p.ID)
		n, ok = p, true
	}
	return sup
}

// fit grows c to contain children and reports whether it grew.
func (e *Engine) fit(c *fcgraph.Node, children []*fcgraph.Node) bool {
	cfg := e.ResolveVisualConfig(c)
	width := go2.Max(cfg.Width, e.Opts.MinWidth)
	height := go2.Max(cfg.Height, e.Opts.MinHeight)
	for _, ch := range children {
		fp := e.Footprint(ch)
		width = go2.Max(width, fp.Right()+cfg.Padding.Right)
		height = go2.Max(height, fp.Bottom()+cfg.Padding.Bottom)
	}
	return setSize(c, width, height)
}

// Contained reports whether every child of c lies within its content area and
// c is at least the minimum size.
func (e *Engine) Contained(g *fcgraph.Graph, c *fcgraph.Node) bool {
	cfg := e.ResolveVisualConfig(c)
	if cfg.Width < e.Opts.MinWidth || cfg.Height < e.Opts.MinHeight {
		return false
	}
	origin := cfg.ContentOrigin()
	content := geo.NewBox(origin,
		cfg.Width-cfg.Padding.Right-origin.X,
		cfg.Height-cfg.Padding.Bottom-origin.Y,
	)
	for _, ch := range g.Children(c.ID) {
		if !content.Contains(e.Footprint(ch)) {
			return false
		}
	}
	return true
}

// LayoutAll runs LayoutChildren over every container, deepest first, e.g. to
// re-establish sizes after loading a persisted graph.
func (e *Engine) LayoutAll(ctx context.Context, g *fcgraph.Graph) Suppression {
	var sup Suppression
	for _, c := range g.Containers() {
		sup = sup.Merge(e.LayoutChildren(ctx, g, c.ID, nil))
	}
	return sup
}
