package fcoracle

import (
	"context"
	"errors"
	"fmt"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/lib/geo"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

// CreateNode adds a node of nodeType at pos, relative to parentID when set.
// Owner types also get their container, placed beneath the owner and linked
// both ways, within the same history entry.
func (o *Oracle) CreateNode(ctx context.Context, nodeType string, pos geo.Point, parentID string) (id string, err error) {
	defer xdefer.Errorf(&err, "failed to create %s node", nodeType)

	tmpl, ok := o.registry.Template(nodeType)
	if !ok {
		return "", fmt.Errorf("unknown node type %q", nodeType)
	}
	if parentID != "" {
		p, ok := o.G.Node(parentID)
		if !ok || !p.IsContainer() {
			return "", fmt.Errorf("parent %q is not a container", parentID)
		}
	}

	err = o.batch(ctx, func() error {
		n, err := o.newNode(nodeType, tmpl, pos, parentID)
		if err != nil {
			return err
		}
		id = n.ID
		o.place(ctx, n)

		if tmpl.OwnsContainer {
			return o.createContainer(ctx, n)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	o.metrics.applied("create_node")
	log.Debug(ctx, "created node", slog.F("id", id), slog.F("type", nodeType))
	return id, nil
}

func (o *Oracle) newNode(nodeType string, tmpl NodeTemplate, pos geo.Point, parentID string) (*fcgraph.Node, error) {
	config, err := fcgraph.CloneConfig(tmpl.Config)
	if err != nil {
		return nil, err
	}
	label := tmpl.Label
	if label == "" {
		label = nodeType
	}
	n := &fcgraph.Node{
		ID:       o.ids.NodeID(nodeType),
		Type:     nodeType,
		Position: pos,
		ParentID: parentID,
		Data: fcgraph.NodeData{
			Label:   fcgraph.UniqueLabel(o.G.Labels(), label),
			Config:  config,
			Inputs:  append([]fcgraph.Port(nil), tmpl.Inputs...),
			Outputs: append([]fcgraph.Port(nil), tmpl.Outputs...),
		},
	}
	o.G.AddNode(n)
	return n, nil
}

// place fits a new node into its container. Its size is a guess until the
// renderer measures it, so the container layout runs once more then.
func (o *Oracle) place(ctx context.Context, n *fcgraph.Node) {
	if n.ParentID == "" {
		o.topologyChanged(n.ID)
		return
	}
	_, pos := o.Containers.EnsureCapacity(ctx, o.G, n.ParentID, n.ID, n.Position)
	n.Position = pos
	o.suppress(o.Containers.LayoutChildren(ctx, o.G, n.ParentID, o.detaching))
	o.suppressed = o.suppressed.Add(n.ParentID)
	o.pendingMeasure = n.ID
	o.topologyChanged(n.ID)
}

func (o *Oracle) createContainer(ctx context.Context, owner *fcgraph.Node) error {
	tmpl, ok := o.registry.Template(fcgraph.TypeContainer)
	if !ok {
		return fmt.Errorf("unknown node type %q", fcgraph.TypeContainer)
	}
	ownerSize := o.Containers.ChildApproxSize(owner)
	pos := owner.Position.Add(geo.NewPoint(0, ownerSize.Height+o.layoutOpts.OwnerGap))

	c, err := o.newNode(fcgraph.TypeContainer, tmpl, pos, owner.ParentID)
	if err != nil {
		return err
	}
	c.SetConfig(fcgraph.ConfigOwnerID, owner.ID)
	owner.SetConfig(fcgraph.ConfigContainerID, c.ID)
	o.suppress(o.Containers.LayoutChildren(ctx, o.G, c.ID, o.detaching))
	o.place(ctx, c)
	if o.pendingMeasure == c.ID {
		o.pendingMeasure = owner.ID
	}

	o.G.AddEdge(&fcgraph.Edge{
		ID:           o.ids.EdgeID(),
		Source:       owner.ID,
		SourceHandle: fcgraph.HandleLoop,
		Target:       c.ID,
		TargetHandle: fcgraph.HandleLoopIn,
	})
	return nil
}

// DeleteNodes removes ids with everything that depends on them: descendants
// of containers, the container of an owner, and every edge touching a removed
// node. Unknown ids are ignored. It returns the removed ids.
func (o *Oracle) DeleteNodes(ctx context.Context, ids ...string) (removed []string, err error) {
	defer xdefer.Errorf(&err, "failed to delete nodes")

	expanded := make([]string, 0, len(ids))
	for _, id := range ids {
		n, ok := o.G.Node(id)
		if !ok {
			continue
		}
		expanded = append(expanded, id)
		if cid, ok := n.ConfigString(fcgraph.ConfigContainerID); ok && !n.IsContainer() {
			expanded = append(expanded, cid)
		}
	}
	if len(expanded) == 0 {
		return nil, nil
	}

	parents := make(map[string]struct{})
	for _, id := range expanded {
		if n, ok := o.G.Node(id); ok && n.ParentID != "" {
			parents[n.ParentID] = struct{}{}
		}
	}

	err = o.batch(ctx, func() error {
		removed = o.G.RemoveNodes(expanded...)
		gone := make(map[string]struct{}, len(removed))
		for _, id := range removed {
			gone[id] = struct{}{}
			delete(o.detaching, id)
			if o.pendingMeasure == id {
				o.pendingMeasure = ""
			}
		}
		o.dropRefs(gone)
		for _, pid := range o.G.Containers() {
			if _, ok := parents[pid.ID]; !ok {
				continue
			}
			o.suppress(o.Containers.LayoutChildren(ctx, o.G, pid.ID, o.detaching))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.metrics.applied("delete_nodes")
	log.Debug(ctx, "deleted nodes", slog.F("ids", removed))
	return removed, nil
}

// dropRefs removes owner and container references to removed nodes.
func (o *Oracle) dropRefs(gone map[string]struct{}) {
	for _, n := range o.G.Nodes {
		for _, k := range []string{fcgraph.ConfigContainerID, fcgraph.ConfigOwnerID} {
			if ref, ok := n.ConfigString(k); ok {
				if _, ok := gone[ref]; ok {
					delete(n.Data.Config, k)
				}
			}
		}
	}
}

// MoveNode moves id to pos, relative to its parent, during a drag. A child
// dragged past the content origin shifts its container instead of jumping,
// and the container grows to keep it. Unknown ids are ignored.
func (o *Oracle) MoveNode(ctx context.Context, id string, pos geo.Point) {
	n, ok := o.G.Node(id)
	if !ok {
		return
	}
	n.Dragging = true

	_, detaching := o.detaching[id]
	if c, ok := o.G.Node(n.ParentID); ok && n.ParentID != "" && !detaching {
		before := o.Containers.Footprint(c)
		_, pos = o.Containers.EnsureCapacity(ctx, o.G, n.ParentID, id, pos)
		if after := o.Containers.Footprint(c); after != before {
			o.suppressed = o.suppressed.Add(c.ID)
			o.suppress(o.Containers.FitAncestors(ctx, o.G, c.ID, o.detaching))
		}
	}
	if !n.Position.Equals(pos) {
		n.Position = pos
		o.topologyChanged(id)
	}
	o.schedule("move_node")
}

// SettleNode ends a drag of id and records the result.
func (o *Oracle) SettleNode(ctx context.Context, id string) error {
	n, ok := o.G.Node(id)
	if !ok {
		return nil
	}
	n.Dragging = false
	if _, detaching := o.detaching[id]; n.ParentID != "" && !detaching {
		o.suppress(o.Containers.LayoutChildren(ctx, o.G, n.ParentID, o.detaching))
	}
	return o.record(ctx, "settle_node")
}

// UpdateConfig sets one config value. Edits are debounced so typing collapses
// into one history entry.
func (o *Oracle) UpdateConfig(ctx context.Context, id, key string, value any) (err error) {
	defer xdefer.Errorf(&err, "failed to update %s of %s", key, id)

	n, ok := o.G.Node(id)
	if !ok {
		return nil
	}
	v, err := fcgraph.CloneValue(value)
	if err != nil {
		return err
	}
	n.SetConfig(key, v)
	o.schedule("update_config")
	return nil
}

// Rename sets the label of id and records it immediately.
func (o *Oracle) Rename(ctx context.Context, id, label string) error {
	n, ok := o.G.Node(id)
	if !ok {
		return nil
	}
	n.Data.Label = label
	return o.record(ctx, "rename")
}

// Connect adds the edge described by c. Invalid connections are declined with
// a warning and leave the graph untouched.
func (o *Oracle) Connect(ctx context.Context, c Connection) (*fcgraph.Edge, bool) {
	if err := ValidateConnection(o.G, c, o.allowDupes); err != nil {
		log.Warn(ctx, "rejected connection",
			slog.F("connection", c.String()),
			slog.Error(err),
		)
		o.metrics.rejected(rejectReason(err))
		return nil, false
	}
	e := &fcgraph.Edge{
		ID:           o.ids.EdgeID(),
		Source:       c.Source,
		SourceHandle: c.SourceHandle,
		Target:       c.Target,
		TargetHandle: c.TargetHandle,
	}
	o.G.AddEdge(e)
	if err := o.record(ctx, "connect"); err != nil {
		log.Warn(ctx, "failed to record connection", slog.Error(err))
	}
	return e, true
}

// CanConnect answers the connection preview while an edge is being dragged.
func (o *Oracle) CanConnect(c Connection) bool {
	return ValidateConnection(o.G, c, o.allowDupes) == nil
}

func rejectReason(err error) string {
	for _, r := range []struct {
		err    error
		reason string
	}{
		{ErrUnknownNode, "unknown_node"},
		{ErrSelfLoop, "self_loop"},
		{ErrDuplicate, "duplicate"},
		{ErrAmbiguousPort, "ambiguous_port"},
		{ErrDirection, "direction"},
		{ErrSidePort, "side_port"},
		{ErrLoopLink, "loop_link"},
		{ErrBoundary, "boundary"},
	} {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "other"
}

// Disconnect removes edgeID. Unknown ids are ignored.
func (o *Oracle) Disconnect(ctx context.Context, edgeID string) (bool, error) {
	removed := o.G.RemoveEdgesWhere(func(e *fcgraph.Edge) bool {
		return e.ID == edgeID
	})
	if len(removed) == 0 {
		return false, nil
	}
	return true, o.record(ctx, "disconnect")
}
