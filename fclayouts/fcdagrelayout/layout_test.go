package fcdagrelayout

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oss.terrastruct.com/flowcanvas/fclayouts"
	"oss.terrastruct.com/flowcanvas/lib/geo"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

func box(id string, w, h float64) *fclayouts.Node {
	return &fclayouts.Node{ID: id, Width: w, Height: h}
}

func positions(g *fclayouts.Graph) map[string]geo.Point {
	out := make(map[string]geo.Point, len(g.Nodes))
	for _, n := range g.Nodes {
		out[n.ID] = n.TopLeft
	}
	return out
}

func TestDirections(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		dir fclayouts.Direction
		exp map[string]geo.Point
	}{
		{
			dir: fclayouts.DirectionDown,
			exp: map[string]geo.Point{"a": geo.NewPoint(0, 0), "b": geo.NewPoint(0, 150)},
		},
		{
			dir: fclayouts.DirectionUp,
			exp: map[string]geo.Point{"a": geo.NewPoint(0, 150), "b": geo.NewPoint(0, 0)},
		},
		{
			dir: fclayouts.DirectionRight,
			exp: map[string]geo.Point{"a": geo.NewPoint(0, 0), "b": geo.NewPoint(200, 0)},
		},
		{
			dir: fclayouts.DirectionLeft,
			exp: map[string]geo.Point{"a": geo.NewPoint(200, 0), "b": geo.NewPoint(0, 0)},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(string(tc.dir), func(t *testing.T) {
			t.Parallel()

			ctx := log.WithTB(context.Background(), t, nil)
			g := &fclayouts.Graph{
				Nodes: []*fclayouts.Node{box("a", 100, 50), box("b", 100, 50)},
				Edges: []*fclayouts.Edge{{Source: "a", Target: "b"}},
			}
			opts := fclayouts.DefaultOpts
			opts.Direction = tc.dir
			require.NoError(t, Layout(ctx, g, opts))
			assert.Equal(t, tc.exp, positions(g))
		})
	}
}

func TestFanInCentered(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	g := &fclayouts.Graph{
		Nodes: []*fclayouts.Node{box("a", 100, 50), box("b", 100, 50), box("c", 100, 50)},
		Edges: []*fclayouts.Edge{
			{Source: "a", Target: "c"},
			{Source: "b", Target: "c"},
		},
	}
	require.NoError(t, DefaultLayout(ctx, g))
	assert.Equal(t, map[string]geo.Point{
		"a": geo.NewPoint(0, 0),
		"b": geo.NewPoint(160, 0),
		"c": geo.NewPoint(80, 150),
	}, positions(g))
}

func TestCycle(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	g := &fclayouts.Graph{
		Nodes: []*fclayouts.Node{box("a", 100, 50), box("b", 100, 50), box("c", 100, 50)},
		Edges: []*fclayouts.Edge{
			{Source: "a", Target: "b"},
			{Source: "b", Target: "a"},
			{Source: "b", Target: "c"},
			{Source: "c", Target: "c"},
		},
	}
	require.NoError(t, DefaultLayout(ctx, g))
	p := positions(g)
	assert.Less(t, p["a"].Y, p["b"].Y)
	assert.Less(t, p["b"].Y, p["c"].Y)
}

func TestUnknownEndpoint(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	g := &fclayouts.Graph{
		Nodes: []*fclayouts.Node{box("a", 100, 50)},
		Edges: []*fclayouts.Edge{{Source: "a", Target: "ghost"}},
	}
	err := DefaultLayout(ctx, g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown node "ghost"`)

	assert.NoError(t, DefaultLayout(ctx, &fclayouts.Graph{}))
}

func TestCountLayerCrossings(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		succs map[int][]int
		exp   int
	}{
		{
			name:  "parallel",
			succs: map[int][]int{0: {2}, 1: {3}},
			exp:   0,
		},
		{
			name:  "crossed",
			succs: map[int][]int{0: {3}, 1: {2}},
			exp:   1,
		},
		{
			name:  "complete",
			succs: map[int][]int{0: {2, 3}, 1: {2, 3}},
			exp:   1,
		},
		{
			name:  "shared_target",
			succs: map[int][]int{0: {2}, 1: {2}},
			exp:   0,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pos := []int{0, 1, 0, 1}
			got := countLayerCrossings([]int{0, 1}, 2, pos, func(v int) []int {
				return tc.succs[v]
			})
			assert.Equal(t, tc.exp, got)
		})
	}
}

func TestIsotonic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []float64{2, 2, 2}, isotonic([]float64{3, 1, 2}))
	assert.Equal(t, []float64{1, 2, 3}, isotonic([]float64{1, 2, 3}))
	assert.Equal(t, []float64{0, 0}, isotonic([]float64{80, -80}))
}

func TestNoOverlapProperty(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	dirs := []fclayouts.Direction{
		fclayouts.DirectionDown,
		fclayouts.DirectionUp,
		fclayouts.DirectionRight,
		fclayouts.DirectionLeft,
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("laid out nodes never overlap", prop.ForAll(
		func(n int, raw []int, dir int) bool {
			g := &fclayouts.Graph{}
			for i := 0; i < n; i++ {
				g.Nodes = append(g.Nodes, box(fmt.Sprintf("n%d", i), 40+float64(i%3)*50, 30+float64(i%2)*40))
			}
			for _, r := range raw {
				g.Edges = append(g.Edges, &fclayouts.Edge{
					Source: fmt.Sprintf("n%d", (r/12)%n),
					Target: fmt.Sprintf("n%d", (r%12)%n),
				})
			}
			opts := fclayouts.DefaultOpts
			opts.Direction = dirs[dir]
			if err := Layout(ctx, g, opts); err != nil {
				return false
			}
			for i := range g.Nodes {
				for j := i + 1; j < len(g.Nodes); j++ {
					if g.Nodes[i].Box().Overlaps(g.Nodes[j].Box()) {
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(1, 12),
		gen.SliceOf(gen.IntRange(0, 143)),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}
