package fclayouts

import (
	"context"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/fclayouts/fccontainer"
	"oss.terrastruct.com/flowcanvas/lib/geo"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

type autoLayout struct {
	g          *fcgraph.Graph
	containers *fccontainer.Engine
	layout     LayoutGraph
	opts       ConfigurableOpts

	sup fccontainer.Suppression
}

// Layout places the whole canvas.
//
// Each scope (the canvas, then every container) is laid out bottom-up: nested
// containers first so their sizes are final, then the scope's non-container
// nodes and the edges strictly between them go through the layered engine.
// Containers are not part of the layered graph; each is placed beneath its
// owner with opts.OwnerGap, or stacked below the scope when it has none. A
// container scope is finally sized by the container layout engine.
//
// Every container whose footprint changed is returned.
func Layout(ctx context.Context, g *fcgraph.Graph, containers *fccontainer.Engine, layout LayoutGraph, opts *ConfigurableOpts) (_ fccontainer.Suppression, err error) {
	defer xdefer.Errorf(&err, "failed to auto-layout")

	if opts == nil {
		opts = &DefaultOpts
	}
	l := &autoLayout{
		g:          g,
		containers: containers,
		layout:     layout,
		opts:       *opts,
	}
	if err := l.layoutScope(ctx, ""); err != nil {
		return nil, err
	}
	return l.sup, nil
}

func (l *autoLayout) members(parentID string) []*fcgraph.Node {
	if parentID != "" {
		return l.g.Children(parentID)
	}
	var out []*fcgraph.Node
	for _, n := range l.g.Nodes {
		if n.ParentID == "" {
			out = append(out, n)
		}
	}
	return out
}

func (l *autoLayout) layoutScope(ctx context.Context, parentID string) error {
	members := l.members(parentID)

	var nested []*fcgraph.Node
	for _, m := range members {
		if m.IsContainer() {
			nested = append(nested, m)
		}
	}
	for _, c := range nested {
		if err := l.layoutScope(ctx, c.ID); err != nil {
			return err
		}
	}

	origin := geo.NewPoint(l.opts.Padding, l.opts.Padding)
	if parentID != "" {
		c, _ := l.g.Node(parentID)
		l.containers.ResetSize(c)
		origin = l.containers.ResolveVisualConfig(c).ContentOrigin()
	}

	lg := &Graph{}
	inScope := make(map[string]*fcgraph.Node)
	for _, m := range members {
		if m.IsContainer() {
			continue
		}
		size := l.containers.ChildApproxSize(m)
		lg.Nodes = append(lg.Nodes, &Node{
			ID:      m.ID,
			Width:   size.Width,
			Height:  size.Height,
			TopLeft: m.Position,
		})
		inScope[m.ID] = m
	}
	for _, e := range l.g.Edges {
		_, src := inScope[e.Source]
		_, dst := inScope[e.Target]
		if src && dst && e.Source != e.Target {
			lg.Edges = append(lg.Edges, &Edge{Source: e.Source, Target: e.Target})
		}
	}

	var placed []geo.Box
	if len(lg.Nodes) > 0 {
		if err := l.layout(ctx, lg, l.opts); err != nil {
			return err
		}
		lg.Normalize(origin)
		for _, ln := range lg.Nodes {
			l.move(inScope[ln.ID], ln.TopLeft)
			placed = append(placed, ln.Box())
		}
	}

	var orphans []*fcgraph.Node
	for _, c := range nested {
		owner, ok := l.g.Owner(c.ID)
		if !ok || inScope[owner.ID] == nil {
			orphans = append(orphans, c)
			continue
		}
		ownerBox := l.containers.Footprint(owner)
		l.move(c, geo.NewPoint(ownerBox.TopLeft.X, ownerBox.Bottom()+l.opts.OwnerGap))
		placed = append(placed, l.containers.Footprint(c))
	}

	next := origin
	if bb, ok := geo.BoundingBox(placed); ok {
		next = geo.NewPoint(origin.X, bb.Bottom()+l.opts.OwnerGap)
	}
	for _, c := range orphans {
		l.move(c, next)
		next.Y += l.containers.Footprint(c).Height + l.opts.OwnerGap
	}

	log.Debug(ctx, "laid out scope",
		slog.F("scope", parentID),
		slog.F("nodes", len(lg.Nodes)),
		slog.F("edges", len(lg.Edges)),
		slog.F("containers", len(nested)),
	)

	if parentID != "" {
		// Sizes were reset above, so report the container even when the final
		// size matches the old one.
		l.sup = l.sup.Add(parentID)
		l.sup = l.sup.Merge(l.containers.LayoutChildren(ctx, l.g, parentID, nil))
	}
	return nil
}

func (l *autoLayout) move(n *fcgraph.Node, p geo.Point) {
	if n.Position.Equals(p) {
		return
	}
	n.Position = p
	if l.containers.Notify != nil {
		l.containers.Notify(n.ID)
	}
}
