package fcgraph

import (
	"fmt"
	"strings"

	"oss.terrastruct.com/flowcanvas/lib/geo"
)

// Outline renders g as indented text. Each node is one line, with its
// children indented beneath it. The edges follow, one per line. Both keep
// insertion order. Nodes whose parent chain never reaches the canvas are left
// out.
//
//	c: container "Body" (0, 0) 400x200
//	  k: http "K" (20, 60)
//	c.loop-left -> k.in
func Outline(g *Graph) string {
	var sb strings.Builder

	var walk func(parentID string, depth int)
	walk = func(parentID string, depth int) {
		for _, n := range g.Children(parentID) {
			sb.WriteString(strings.Repeat("  ", depth))
			fmt.Fprintf(&sb, "%s: %s", n.ID, n.Type)
			if n.Data.Label != "" {
				fmt.Fprintf(&sb, " %q", n.Data.Label)
			}
			sb.WriteString(" " + n.Position.ToString())
			if n.Data.Width != nil && n.Data.Height != nil {
				fmt.Fprintf(&sb, " %vx%v", geo.TruncateDecimals(*n.Data.Width), geo.TruncateDecimals(*n.Data.Height))
			}
			sb.WriteByte('\n')
			walk(n.ID, depth+1)
		}
	}
	walk("", 0)

	for _, e := range g.Edges {
		fmt.Fprintf(&sb, "%s -> %s\n", endpoint(e.Source, e.SourceHandle), endpoint(e.Target, e.TargetHandle))
	}
	return sb.String()
}

func endpoint(id, handle string) string {
	if handle == "" {
		return id
	}
	return id + "." + handle
}
