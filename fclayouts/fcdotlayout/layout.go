// Package fcdotlayout lays out graphs with Graphviz dot, run in process.
package fcdotlayout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"cdr.dev/slog"
	"github.com/goccy/go-graphviz"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/flowcanvas/fclayouts"
	"oss.terrastruct.com/flowcanvas/lib/geo"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

// POINTS_PER_INCH converts between canvas pixels and Graphviz inches.
const POINTS_PER_INCH = 72.

// Graphviz rejects separations below this many inches.
const MIN_SEP = 0.02

func DefaultLayout(ctx context.Context, g *fclayouts.Graph) error {
	return Layout(ctx, g, fclayouts.DefaultOpts)
}

func Layout(ctx context.Context, g *fclayouts.Graph, opts fclayouts.ConfigurableOpts) (err error) {
	defer xdefer.Errorf(&err, "failed to dot layout")

	if len(g.Nodes) == 0 {
		return nil
	}

	dot, names, err := ToDOT(g, opts)
	if err != nil {
		return err
	}
	log.Debug(ctx, "running dot", slog.F("nodes", len(g.Nodes)), slog.F("edges", len(g.Edges)))

	plain, err := render(ctx, dot)
	if err != nil {
		return err
	}
	centers, err := ParsePlain(plain)
	if err != nil {
		return err
	}

	for i, n := range g.Nodes {
		c, ok := centers[names[i]]
		if !ok {
			return fmt.Errorf("dot output is missing node %q", n.ID)
		}
		// dot's y axis points up.
		n.TopLeft = geo.NewPoint(c.X-n.Width/2, -c.Y-n.Height/2)
	}
	g.Normalize(geo.Point{})
	return nil
}

func render(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.Format("plain"), &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

func inches(px float64) string {
	return strconv.FormatFloat(px/POINTS_PER_INCH, 'f', 4, 64)
}

func sep(px float64) string {
	if px/POINTS_PER_INCH < MIN_SEP {
		return strconv.FormatFloat(MIN_SEP, 'f', 4, 64)
	}
	return inches(px)
}

// ToDOT writes g as a DOT digraph of fixed size boxes. Node ids are replaced
// with synthetic names, returned in node order, so any id is safe.
func ToDOT(g *fclayouts.Graph, opts fclayouts.ConfigurableOpts) (string, []string, error) {
	dir := opts.Direction
	if dir == "" {
		dir = fclayouts.DirectionDown
	}

	names := make([]string, len(g.Nodes))
	byID := make(map[string]string, len(g.Nodes))

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	fmt.Fprintf(&buf, "  nodesep=%s;\n", sep(opts.NodeSep))
	fmt.Fprintf(&buf, "  ranksep=%s;\n", sep(opts.RankSep))
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")
	buf.WriteString("\n")
	for i, n := range g.Nodes {
		if _, ok := byID[n.ID]; ok {
			return "", nil, fmt.Errorf("duplicate node %q", n.ID)
		}
		names[i] = "n" + strconv.Itoa(i)
		byID[n.ID] = names[i]
		fmt.Fprintf(&buf, "  %s [width=%s, height=%s];\n", names[i], inches(n.Width), inches(n.Height))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		src, ok := byID[e.Source]
		if !ok {
			return "", nil, fmt.Errorf("edge %s -> %s references unknown node %q", e.Source, e.Target, e.Source)
		}
		dst, ok := byID[e.Target]
		if !ok {
			return "", nil, fmt.Errorf("edge %s -> %s references unknown node %q", e.Source, e.Target, e.Target)
		}
		fmt.Fprintf(&buf, "  %s -> %s;\n", src, dst)
	}

	buf.WriteString("}\n")
	return buf.String(), names, nil
}

// ParsePlain reads node centers, in pixels, from dot's plain output format.
func ParsePlain(b []byte) (map[string]geo.Point, error) {
	out := make(map[string]geo.Point)
	sc := bufio.NewScanner(bytes.NewReader(b))
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "node" {
			continue
		}
		if len(fields) < 6 {
			return nil, fmt.Errorf("line %d: malformed node statement", line)
		}
		x, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad x: %w", line, err)
		}
		y, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad y: %w", line, err)
		}
		out[strings.Trim(fields[1], `"`)] = geo.NewPoint(x*POINTS_PER_INCH, y*POINTS_PER_INCH)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
