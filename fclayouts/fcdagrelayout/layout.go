// Package fcdagrelayout is a native layered (Sugiyama style) layout engine
// with dagre's behavior: cycles are broken by reversing back edges, nodes are
// ranked by longest path, long edges are split with virtual nodes, layers are
// ordered by barycenter sweeps and coordinates are balanced against neighbors.
package fcdagrelayout

import (
	"context"
	"fmt"
	"sort"

	"cdr.dev/slog"

	"oss.terrastruct.com/util-go/xdefer"

	"oss.terrastruct.com/flowcanvas/fclayouts"
	"oss.terrastruct.com/flowcanvas/lib/geo"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

const (
	MAX_ORDER_SWEEPS    = 24
	MAX_BALANCE_ROUNDS  = 4
	VIRTUAL_SEP_DIVISOR = 2
)

func DefaultLayout(ctx context.Context, g *fclayouts.Graph) error {
	return Layout(ctx, g, fclayouts.DefaultOpts)
}

func Layout(ctx context.Context, g *fclayouts.Graph, opts fclayouts.ConfigurableOpts) (err error) {
	defer xdefer.Errorf(&err, "failed to dagre layout")

	if len(g.Nodes) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, ok := idx[n.ID]; ok {
			return fmt.Errorf("duplicate node %q", n.ID)
		}
		idx[n.ID] = i
	}
	edges, err := collectEdges(g, idx)
	if err != nil {
		return err
	}

	edges = breakCycles(len(g.Nodes), edges)
	ranks := rank(len(g.Nodes), edges)

	l := newLayered(g, opts.Direction, ranks, edges)
	crossings := l.order()
	l.position(opts)
	l.apply(g, opts.Direction)

	log.Debug(ctx, "dagre layout done",
		slog.F("nodes", len(g.Nodes)),
		slog.F("virtual", len(l.nodes)-len(g.Nodes)),
		slog.F("ranks", len(l.layers)),
		slog.F("crossings", crossings),
	)
	return nil
}

type edge struct {
	from int
	to   int
}

// collectEdges drops self loops and parallel edges, neither of which affect
// placement.
func collectEdges(g *fclayouts.Graph, idx map[string]int) ([]edge, error) {
	seen := make(map[edge]struct{}, len(g.Edges))
	out := make([]edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		from, ok := idx[e.Source]
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s references unknown node %q", e.Source, e.Target, e.Source)
		}
		to, ok := idx[e.Target]
		if !ok {
			return nil, fmt.Errorf("edge %s -> %s references unknown node %q", e.Source, e.Target, e.Target)
		}
		if from == to {
			continue
		}
		k := edge{from, to}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}

// breakCycles reverses every edge that closes a cycle in a depth first walk
// that starts from nodes in insertion order.
func breakCycles(n int, edges []edge) []edge {
	out := make([][]int, n)
	for i, e := range edges {
		out[e.from] = append(out[e.from], i)
	}

	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, n)
	reversed := make([]bool, len(edges))
	var visit func(v int)
	visit = func(v int) {
		state[v] = onStack
		for _, ei := range out[v] {
			switch w := edges[ei].to; state[w] {
			case onStack:
				reversed[ei] = true
			case unvisited:
				visit(w)
			}
		}
		state[v] = done
	}
	for v := 0; v < n; v++ {
		if state[v] == unvisited {
			visit(v)
		}
	}

	seen := make(map[edge]struct{}, len(edges))
	acyclic := make([]edge, 0, len(edges))
	for i, e := range edges {
		if reversed[i] {
			e = edge{e.to, e.from}
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		acyclic = append(acyclic, e)
	}
	return acyclic
}

// rank assigns longest-path ranks, then pulls sources down next to their
// nearest successor so they don't stretch edges across the whole graph.
func rank(n int, edges []edge) []int {
	preds := make([][]int, n)
	succs := make([][]int, n)
	indeg := make([]int, n)
	for _, e := range edges {
		preds[e.to] = append(preds[e.to], e.from)
		succs[e.from] = append(succs[e.from], e.to)
		indeg[e.to]++
	}

	topo := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if indeg[v] == 0 {
			topo = append(topo, v)
		}
	}
	for i := 0; i < len(topo); i++ {
		for _, w := range succs[topo[i]] {
			indeg[w]--
			if indeg[w] == 0 {
				topo = append(topo, w)
			}
		}
	}

	ranks := make([]int, n)
	for _, v := range topo {
		for _, p := range preds[v] {
			if ranks[p]+1 > ranks[v] {
				ranks[v] = ranks[p] + 1
			}
		}
	}

	for i := len(topo) - 1; i >= 0; i-- {
		v := topo[i]
		if len(preds[v]) > 0 || len(succs[v]) == 0 {
			continue
		}
		min := -1
		for _, w := range succs[v] {
			if min == -1 || ranks[w] < min {
				min = ranks[w]
			}
		}
		ranks[v] = min - 1
	}

	lowest := ranks[0]
	for _, r := range ranks {
		if r < lowest {
			lowest = r
		}
	}
	for v := range ranks {
		ranks[v] -= lowest
	}
	return ranks
}

type layerNode struct {
	// real indexes the input graph, -1 for virtual nodes on long edges.
	real  int
	rank  int
	cross float64
	along float64

	preds []int
	succs []int

	// x is the cross axis center.
	x float64
}

type layered struct {
	nodes  []*layerNode
	layers [][]int
	pos    []int

	rankCenters []float64
}

func newLayered(g *fclayouts.Graph, dir fclayouts.Direction, ranks []int, edges []edge) *layered {
	l := &layered{}
	maxRank := 0
	for i, n := range g.Nodes {
		ln := &layerNode{
			real:  i,
			rank:  ranks[i],
			cross: n.Width,
			along: n.Height,
		}
		if dir.IsHorizontal() {
			ln.cross, ln.along = n.Height, n.Width
		}
		if ln.rank > maxRank {
			maxRank = ln.rank
		}
		l.nodes = append(l.nodes, ln)
	}

	link := func(from, to int) {
		l.nodes[from].succs = append(l.nodes[from].succs, to)
		l.nodes[to].preds = append(l.nodes[to].preds, from)
	}
	for _, e := range edges {
		prev := e.from
		for r := ranks[e.from] + 1; r < ranks[e.to]; r++ {
			l.nodes = append(l.nodes, &layerNode{real: -1, rank: r})
			v := len(l.nodes) - 1
			link(prev, v)
			prev = v
		}
		link(prev, e.to)
	}

	// Initial order: depth first from each real node by rank, so connected
	// nodes start next to each other.
	l.layers = make([][]int, maxRank+1)
	l.pos = make([]int, len(l.nodes))
	visited := make([]bool, len(l.nodes))
	var visit func(v int)
	visit = func(v int) {
		if visited[v] {
			return
		}
		visited[v] = true
		r := l.nodes[v].rank
		l.pos[v] = len(l.layers[r])
		l.layers[r] = append(l.layers[r], v)
		for _, w := range l.nodes[v].succs {
			visit(w)
		}
	}
	start := make([]int, len(g.Nodes))
	for i := range start {
		start[i] = i
	}
	sort.SliceStable(start, func(i, j int) bool {
		return ranks[start[i]] < ranks[start[j]]
	})
	for _, v := range start {
		visit(v)
	}
	return l
}

// order runs alternating barycenter sweeps and keeps the ordering with the
// fewest crossings.
func (l *layered) order() int {
	best := l.snapshot()
	bestCrossings := l.crossings()
	for i := 0; i < MAX_ORDER_SWEEPS && bestCrossings > 0; i++ {
		if i%2 == 0 {
			for r := 1; r < len(l.layers); r++ {
				l.sortLayer(r, true)
			}
		} else {
			for r := len(l.layers) - 2; r >= 0; r-- {
				l.sortLayer(r, false)
			}
		}
		if c := l.crossings(); c < bestCrossings {
			best, bestCrossings = l.snapshot(), c
		}
	}
	l.restore(best)
	return bestCrossings
}

func (l *layered) snapshot() [][]int {
	out := make([][]int, len(l.layers))
	for r, layer := range l.layers {
		out[r] = append([]int(nil), layer...)
	}
	return out
}

func (l *layered) restore(layers [][]int) {
	l.layers = layers
	for _, layer := range l.layers {
		for i, v := range layer {
			l.pos[v] = i
		}
	}
}

func (l *layered) sortLayer(r int, down bool) {
	layer := l.layers[r]
	keys := make(map[int]float64, len(layer))
	for _, v := range layer {
		ns := l.nodes[v].preds
		if !down {
			ns = l.nodes[v].succs
		}
		if len(ns) == 0 {
			keys[v] = float64(l.pos[v])
			continue
		}
		sum := 0.
		for _, w := range ns {
			sum += float64(l.pos[w])
		}
		keys[v] = sum / float64(len(ns))
	}
	sort.SliceStable(layer, func(i, j int) bool {
		return keys[layer[i]] < keys[layer[j]]
	})
	for i, v := range layer {
		l.pos[v] = i
	}
}

func (l *layered) crossings() int {
	total := 0
	for r := 0; r+1 < len(l.layers); r++ {
		total += countLayerCrossings(l.layers[r], len(l.layers[r+1]), l.pos, func(v int) []int {
			return l.nodes[v].succs
		})
	}
	return total
}

// countLayerCrossings counts crossings between two adjacent layers as the
// inversions of lower positions when edges are sorted by upper position, with
// a Fenwick tree.
func countLayerCrossings(upper []int, lowerLen int, pos []int, succs func(int) []int) int {
	var targets []int
	for _, v := range upper {
		start := len(targets)
		for _, w := range succs(v) {
			targets = append(targets, pos[w])
		}
		sort.Ints(targets[start:])
	}
	if len(targets) < 2 {
		return 0
	}

	fenwick := make([]int, lowerLen+1)
	crossings, seen := 0, 0
	for _, t := range targets {
		lessOrEqual := 0
		for q := t + 1; q > 0; q -= q & -q {
			lessOrEqual += fenwick[q]
		}
		crossings += seen - lessOrEqual
		seen++
		for q := t + 1; q <= lowerLen; q += q & -q {
			fenwick[q]++
		}
	}
	return crossings
}

// sep is the minimum distance between the centers of adjacent nodes a and b.
func (l *layered) sep(a, b int, nodeSep float64) float64 {
	na, nb := l.nodes[a], l.nodes[b]
	gap := nodeSep
	if na.real < 0 || nb.real < 0 {
		gap /= VIRTUAL_SEP_DIVISOR
	}
	return (na.cross+nb.cross)/2 + gap
}

func (l *layered) position(opts fclayouts.ConfigurableOpts) {
	l.rankCenters = make([]float64, len(l.layers))
	prevSize := 0.
	for r, layer := range l.layers {
		size := 0.
		for _, v := range layer {
			if l.nodes[v].along > size {
				size = l.nodes[v].along
			}
		}
		if r == 0 {
			l.rankCenters[r] = size / 2
		} else {
			l.rankCenters[r] = l.rankCenters[r-1] + prevSize/2 + opts.RankSep + size/2
		}
		prevSize = size
	}

	for _, layer := range l.layers {
		x := 0.
		for i, v := range layer {
			if i > 0 {
				x += l.sep(layer[i-1], v, opts.NodeSep)
			}
			l.nodes[v].x = x
		}
	}

	for round := 0; round < MAX_BALANCE_ROUNDS; round++ {
		for r := 1; r < len(l.layers); r++ {
			l.balance(r, true, opts.NodeSep)
		}
		for r := len(l.layers) - 2; r >= 0; r-- {
			l.balance(r, false, opts.NodeSep)
		}
	}
}

// balance moves every node of layer r as close as possible to the mean of its
// neighbors in the adjacent layer without breaking the order or the minimum
// separation. Nodes without neighbors there stay put.
func (l *layered) balance(r int, down bool, nodeSep float64) {
	layer := l.layers[r]
	if len(layer) == 0 {
		return
	}
	desired := make([]float64, len(layer))
	offsets := make([]float64, len(layer))
	for i, v := range layer {
		ns := l.nodes[v].preds
		if !down {
			ns = l.nodes[v].succs
		}
		desired[i] = l.nodes[v].x
		if len(ns) > 0 {
			sum := 0.
			for _, w := range ns {
				sum += l.nodes[w].x
			}
			desired[i] = sum / float64(len(ns))
		}
		if i > 0 {
			offsets[i] = offsets[i-1] + l.sep(layer[i-1], v, nodeSep)
		}
	}

	shifted := make([]float64, len(layer))
	for i := range layer {
		shifted[i] = desired[i] - offsets[i]
	}
	fitted := isotonic(shifted)
	for i, v := range layer {
		l.nodes[v].x = fitted[i] + offsets[i]
	}
}

// isotonic returns the non-decreasing sequence closest to y in the least
// squares sense (pool adjacent violators).
func isotonic(y []float64) []float64 {
	type block struct {
		sum float64
		n   int
	}
	blocks := make([]block, 0, len(y))
	for _, v := range y {
		blocks = append(blocks, block{v, 1})
		for len(blocks) > 1 {
			a, b := blocks[len(blocks)-2], blocks[len(blocks)-1]
			if a.sum/float64(a.n) <= b.sum/float64(b.n) {
				break
			}
			blocks = append(blocks[:len(blocks)-2], block{a.sum + b.sum, a.n + b.n})
		}
	}
	out := make([]float64, 0, len(y))
	for _, b := range blocks {
		mean := b.sum / float64(b.n)
		for i := 0; i < b.n; i++ {
			out = append(out, mean)
		}
	}
	return out
}

func (l *layered) apply(g *fclayouts.Graph, dir fclayouts.Direction) {
	for _, ln := range l.nodes {
		if ln.real < 0 {
			continue
		}
		n := g.Nodes[ln.real]
		cross, along := ln.x, l.rankCenters[ln.rank]
		switch dir {
		case fclayouts.DirectionUp:
			n.TopLeft = geo.NewPoint(cross-n.Width/2, -along-n.Height/2)
		case fclayouts.DirectionRight:
			n.TopLeft = geo.NewPoint(along-n.Width/2, cross-n.Height/2)
		case fclayouts.DirectionLeft:
			n.TopLeft = geo.NewPoint(-along-n.Width/2, cross-n.Height/2)
		default:
			n.TopLeft = geo.NewPoint(cross-n.Width/2, along-n.Height/2)
		}
	}
	g.Normalize(geo.Point{})
}
