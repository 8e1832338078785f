package fcoracle

import (
	"context"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/flowcanvas/fcclipboard"
	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/fclayouts"
	"oss.terrastruct.com/flowcanvas/lib/geo"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

// Copy puts ids on the clipboard. Selected containers bring their contents.
func (o *Oracle) Copy(ids ...string) (err error) {
	defer xdefer.Errorf(&err, "failed to copy %d nodes", len(ids))

	expanded := make([]string, 0, len(ids))
	for _, id := range ids {
		n, ok := o.G.Node(id)
		if !ok {
			continue
		}
		expanded = append(expanded, id)
		if n.IsContainer() {
			for _, d := range o.G.Descendants(id) {
				expanded = append(expanded, d.ID)
			}
		}
	}
	snap, err := fcclipboard.Copy(o.G, expanded)
	if err != nil {
		return err
	}
	o.clipboard = snap
	return nil
}

// Paste inserts the clipboard so that its top-left lands on target, in canvas
// coordinates. An empty clipboard pastes nothing.
func (o *Oracle) Paste(ctx context.Context, target geo.Point) (res *fcclipboard.PasteResult, err error) {
	if o.clipboard.Empty() {
		return &fcclipboard.PasteResult{IDMap: map[string]string{}}, nil
	}
	err = o.batch(ctx, func() error {
		res, err = fcclipboard.Paste(ctx, o.G, o.clipboard, target, o.ids, o.Containers)
		if err != nil {
			return err
		}
		o.suppress(res.Suppression)
		for _, id := range res.NodeIDs {
			o.topologyChanged(id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.metrics.applied("paste")
	return res, nil
}

// BeginDetach starts pulling id out of its container. Until FinalizeDetach the
// node moves freely and its container neither clamps nor counts it.
func (o *Oracle) BeginDetach(id string) bool {
	n, ok := o.G.Node(id)
	if !ok || n.ParentID == "" {
		return false
	}
	o.detaching[id] = struct{}{}
	n.Dragging = true
	return true
}

// FinalizeDetach ends a detach gesture. A node whose center was dropped
// outside its container becomes top-level at its canvas position and loses
// every edge into the containers it was nested in; otherwise it is fitted
// back in. It reports
// whether the node was promoted.
func (o *Oracle) FinalizeDetach(ctx context.Context, id string) (promoted bool, err error) {
	defer xdefer.Errorf(&err, "failed to finalize detach of %s", id)

	if _, ok := o.detaching[id]; !ok {
		return false, nil
	}
	delete(o.detaching, id)

	n, ok := o.G.Node(id)
	if !ok {
		return false, nil
	}
	n.Dragging = false
	p, ok := o.G.Node(n.ParentID)
	if !ok {
		return false, o.record(ctx, "finalize_detach")
	}

	size := o.Containers.ChildApproxSize(n)
	abs := o.G.Absolute(id)
	center := geo.NewBox(abs, size.Width, size.Height).Center()
	cfg := o.Containers.ResolveVisualConfig(p)
	bounds := geo.NewBox(o.G.Absolute(p.ID), cfg.Width, cfg.Height)
	promoted = !bounds.Contains(geo.NewBox(center, 0, 0))

	err = o.batch(ctx, func() error {
		if promoted {
			o.promote(ctx, n, p, abs)
		} else {
			_, pos := o.Containers.EnsureCapacity(ctx, o.G, p.ID, id, n.Position)
			n.Position = pos
			o.topologyChanged(id)
		}
		o.suppress(o.Containers.LayoutChildren(ctx, o.G, p.ID, o.detaching))
		return nil
	})
	if err != nil {
		return false, err
	}
	o.metrics.applied("finalize_detach")
	return promoted, nil
}

func (o *Oracle) promote(ctx context.Context, n, oldParent *fcgraph.Node, abs geo.Point) {
	moved := map[string]struct{}{n.ID: {}}
	for _, d := range o.G.Descendants(n.ID) {
		moved[d.ID] = struct{}{}
	}
	// The node lands on the canvas, so every container it was nested in is
	// now across a boundary.
	root := oldParent
	for i := 0; root.ParentID != "" && i < len(o.G.Nodes); i++ {
		p, ok := o.G.Node(root.ParentID)
		if !ok {
			break
		}
		root = p
	}
	inside := func(id string) bool {
		if _, ok := moved[id]; ok {
			return false
		}
		return id == root.ID || o.G.IsDescendantOf(id, root.ID)
	}

	n.ParentID = ""
	n.Position = abs
	cut := o.G.RemoveEdgesWhere(func(e *fcgraph.Edge) bool {
		_, src := moved[e.Source]
		_, dst := moved[e.Target]
		return (src && inside(e.Target)) || (dst && inside(e.Source))
	})
	log.Debug(ctx, "promoted node out of container",
		slog.F("node", n.ID),
		slog.F("container", oldParent.ID),
		slog.F("cut_edges", len(cut)),
	)
	o.topologyChanged(n.ID)
}

// AutoLayout arranges the whole graph with the configured engine. It runs on
// a copy, so a failing engine leaves the graph as it was. opts defaults to
// the oracle's layout options.
func (o *Oracle) AutoLayout(ctx context.Context, opts *fclayouts.ConfigurableOpts) (err error) {
	defer xdefer.Errorf(&err, "failed to auto-layout")

	if opts == nil {
		opts = &o.layoutOpts
	}
	g2, err := o.G.Copy()
	if err != nil {
		return err
	}
	sup, err := fclayouts.Layout(ctx, g2, o.Containers, o.layoutEngine, opts)
	if err != nil {
		return err
	}
	err = o.batch(ctx, func() error {
		o.G.Replace(g2.Nodes, g2.Edges)
		o.suppress(sup)
		for _, n := range o.G.Nodes {
			o.topologyChanged(n.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	o.metrics.applied("auto_layout")
	return nil
}

// ApplyMeasurement stores the size the renderer measured for id. A
// measurement for a container the engine just resized is stale and dropped
// once. It reports whether the size was applied.
func (o *Oracle) ApplyMeasurement(ctx context.Context, id string, size fcgraph.Size) bool {
	n, ok := o.G.Node(id)
	if !ok {
		return false
	}
	if o.suppressed.Consume(id) {
		log.Debug(ctx, "dropped stale measurement", slog.F("node", id))
		return false
	}
	n.Measured = &fcgraph.Size{Width: size.Width, Height: size.Height}
	o.topologyChanged(id)

	if _, detaching := o.detaching[id]; n.ParentID == "" || detaching {
		return true
	}
	if o.pendingMeasure == id {
		o.pendingMeasure = ""
		o.suppress(o.Containers.LayoutChildren(ctx, o.G, n.ParentID, o.detaching))
	} else {
		o.suppress(o.Containers.FitAncestors(ctx, o.G, id, o.detaching))
	}
	return true
}

// Result returns the cached execution output of id.
func (o *Oracle) Result(id string) (any, bool) {
	n, ok := o.G.Node(id)
	if !ok || n.Data.Result == nil {
		return nil, false
	}
	return n.Data.Result, true
}
