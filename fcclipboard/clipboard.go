// Package fcclipboard duplicates subgraphs. Copy captures nodes with their
// absolute positions; Paste rebuilds them around a new anchor with fresh ids,
// rewriting the parent links, config references and edges that stay inside
// the copied set.
package fcclipboard

import (
	"context"
	"sort"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/fclayouts/fccontainer"
	"oss.terrastruct.com/flowcanvas/lib/geo"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

type Entry struct {
	SourceID string
	Node     *fcgraph.Node
	Absolute geo.Point
	// Depth is the nesting depth of the source node.
	Depth int
}

// Snapshot is a copied subgraph. Only edges between copied nodes are kept.
type Snapshot struct {
	Entries []Entry
	Edges   []*fcgraph.Edge
	// Anchor is the minimum x and y over every entry's absolute position.
	Anchor geo.Point
}

func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Entries) == 0
}

// IDSource mints ids for pasted elements. Ids must not collide with any id
// ever used by the graph.
type IDSource interface {
	NodeID(nodeType string) string
	EdgeID() string
}

// Copy snapshots ids. Unknown and repeated ids are ignored. Transient UI state
// (selection, drag and measured size) is not copied.
func Copy(g *fcgraph.Graph, ids []string) (_ *Snapshot, err error) {
	defer xdefer.Errorf(&err, "failed to copy")

	abs := make(map[string]geo.Point)
	var absolute func(n *fcgraph.Node, hops int) geo.Point
	absolute = func(n *fcgraph.Node, hops int) geo.Point {
		if p, ok := abs[n.ID]; ok {
			return p
		}
		p := n.Position
		if parent, ok := g.Node(n.ParentID); ok && n.ParentID != "" && hops <= len(g.Nodes) {
			p = p.Add(absolute(parent, hops+1))
		}
		abs[n.ID] = p
		return p
	}

	snap := &Snapshot{}
	selected := make(map[string]struct{}, len(ids))
	var tls geo.Points
	for _, id := range ids {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		if _, ok := selected[id]; ok {
			continue
		}
		selected[id] = struct{}{}

		n2, err := n.Copy()
		if err != nil {
			return nil, err
		}
		n2.Selected = false
		n2.Dragging = false
		n2.Measured = nil

		p := absolute(n, 0)
		tls = append(tls, p)
		snap.Entries = append(snap.Entries, Entry{
			SourceID: id,
			Node:     n2,
			Absolute: p,
			Depth:    g.Depth(id),
		})
	}
	snap.Anchor, _ = tls.Min()

	for _, e := range g.Edges {
		_, src := selected[e.Source]
		_, dst := selected[e.Target]
		if src && dst {
			snap.Edges = append(snap.Edges, e.Copy())
		}
	}
	return snap, nil
}

// PasteResult describes what Paste inserted.
type PasteResult struct {
	// NodeIDs are the new node ids, parents before children.
	NodeIDs []string
	EdgeIDs []string
	// IDMap maps every copied node id to its pasted id.
	IDMap map[string]string
	// Suppression holds containers resized by the bounds recompute.
	Suppression fccontainer.Suppression
}

// Paste inserts snap into g so that its anchor lands on target, in absolute
// coordinates. A snapshot can be pasted any number of times.
func Paste(ctx context.Context, g *fcgraph.Graph, snap *Snapshot, target geo.Point, ids IDSource, containers *fccontainer.Engine) (_ *PasteResult, err error) {
	defer xdefer.Errorf(&err, "failed to paste")

	res := &PasteResult{
		IDMap: make(map[string]string),
	}
	if snap.Empty() {
		return res, nil
	}

	offset := target.Sub(snap.Anchor)

	oldAbs := make(map[string]geo.Point, len(snap.Entries))
	for _, ent := range snap.Entries {
		res.IDMap[ent.SourceID] = ids.NodeID(ent.Node.Type)
		oldAbs[ent.SourceID] = ent.Absolute
	}

	entries := append([]Entry(nil), snap.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Depth < entries[j].Depth
	})

	grown := make(map[string]struct{})
	for _, ent := range entries {
		n, err := ent.Node.Copy()
		if err != nil {
			return nil, err
		}
		n.ID = res.IDMap[ent.SourceID]

		abs := ent.Absolute.Add(offset)
		if newParent, ok := res.IDMap[n.ParentID]; ok && n.ParentID != "" {
			parentAbs := oldAbs[n.ParentID].Add(offset)
			n.Position = abs.Sub(parentAbs)
			n.ParentID = newParent
			grown[newParent] = struct{}{}
		} else {
			n.ParentID = ""
			n.Position = abs
		}

		rewriteRefs(n, res.IDMap)
		n.Data.Result = nil
		n.Data.Expanded = false
		if n.Data.Label != "" {
			n.Data.Label = fcgraph.UniqueLabel(g.Labels(), n.Data.Label)
		}

		g.AddNode(n)
		res.NodeIDs = append(res.NodeIDs, n.ID)
	}

	dropped := 0
	for _, e := range snap.Edges {
		src, ok1 := res.IDMap[e.Source]
		dst, ok2 := res.IDMap[e.Target]
		if !ok1 || !ok2 {
			dropped++
			continue
		}
		e2 := e.Copy()
		e2.ID = ids.EdgeID()
		e2.Source = src
		e2.Target = dst
		g.AddEdge(e2)
		res.EdgeIDs = append(res.EdgeIDs, e2.ID)
	}

	// Deepest first so an outer container sees its inner ones at final size.
	touched := make([]string, 0, len(grown))
	for id := range grown {
		touched = append(touched, id)
	}
	sort.Slice(touched, func(i, j int) bool {
		di, dj := g.Depth(touched[i]), g.Depth(touched[j])
		if di != dj {
			return di > dj
		}
		return touched[i] < touched[j]
	})
	for _, id := range touched {
		res.Suppression = res.Suppression.Merge(containers.FitChildren(ctx, g, id, nil))
	}

	log.Debug(ctx, "pasted",
		slog.F("nodes", len(res.NodeIDs)),
		slog.F("edges", len(res.EdgeIDs)),
		slog.F("dropped_edges", dropped),
		slog.F("offset", offset),
	)
	return res, nil
}

// rewriteRefs points config values that name a copied node at its pasted id.
// Owner and container references to anything else are removed rather than
// left pointing at a node that is not part of the paste. Other values are
// user data and kept as they are.
func rewriteRefs(n *fcgraph.Node, idMap map[string]string) {
	for k, v := range n.Data.Config {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if id, ok := idMap[s]; ok {
			n.Data.Config[k] = id
			continue
		}
		if isRefKey(k) {
			delete(n.Data.Config, k)
		}
	}
}

func isRefKey(k string) bool {
	return k == fcgraph.ConfigContainerID || k == fcgraph.ConfigOwnerID
}
