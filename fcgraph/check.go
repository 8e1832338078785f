package fcgraph

import (
	"errors"
	"fmt"
)

// Check reports structural invariant violations: duplicate ids, parents that
// are missing or not containers, parent cycles, dangling edges and owner and
// container configs that do not name each other.
func (g *Graph) Check() error {
	var errs []error

	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, ok := seen[n.ID]; ok {
			errs = append(errs, fmt.Errorf("duplicate node id %q", n.ID))
		}
		seen[n.ID] = struct{}{}
	}

	for _, n := range g.Nodes {
		if n.ParentID == "" {
			continue
		}
		p, ok := g.Node(n.ParentID)
		if !ok {
			errs = append(errs, fmt.Errorf("node %q references missing parent %q", n.ID, n.ParentID))
			continue
		}
		if !p.IsContainer() {
			errs = append(errs, fmt.Errorf("node %q has non-container parent %q", n.ID, p.ID))
		}
		if g.hasParentCycle(n) {
			errs = append(errs, fmt.Errorf("node %q is part of a parent cycle", n.ID))
		}
	}

	for _, e := range g.Edges {
		if _, ok := g.Node(e.Source); !ok {
			errs = append(errs, fmt.Errorf("edge %q references missing source %q", e.ID, e.Source))
		}
		if _, ok := g.Node(e.Target); !ok {
			errs = append(errs, fmt.Errorf("edge %q references missing target %q", e.ID, e.Target))
		}
	}

	for _, n := range g.Nodes {
		if n.IsContainer() {
			continue
		}
		cid, ok := n.ConfigString(ConfigContainerID)
		if !ok {
			continue
		}
		c, ok := g.Node(cid)
		if !ok {
			errs = append(errs, fmt.Errorf("owner %q references missing container %q", n.ID, cid))
			continue
		}
		if oid, _ := c.ConfigString(ConfigOwnerID); oid != n.ID {
			errs = append(errs, fmt.Errorf("owner %q and container %q do not reference each other", n.ID, cid))
		}
	}

	return errors.Join(errs...)
}

func (g *Graph) hasParentCycle(n *Node) bool {
	visited := map[string]struct{}{n.ID: {}}
	curr := n
	for curr.ParentID != "" {
		if _, ok := visited[curr.ParentID]; ok {
			return true
		}
		visited[curr.ParentID] = struct{}{}
		p, ok := g.Node(curr.ParentID)
		if !ok {
			return false
		}
		curr = p
	}
	return false
}

// Owner returns the node whose config names containerID as its container.
func (g *Graph) Owner(containerID string) (*Node, bool) {
	for _, n := range g.Nodes {
		if n.IsContainer() {
			continue
		}
		if cid, ok := n.ConfigString(ConfigContainerID); ok && cid == containerID {
			return n, true
		}
	}
	return nil, false
}
