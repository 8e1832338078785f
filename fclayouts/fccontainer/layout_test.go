package fccontainer_test

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oss.terrastruct.com/util-go/go2"

	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/fclayouts/fccontainer"
	"oss.terrastruct.com/flowcanvas/lib/geo"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

func TestLayoutChildren(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		children []*fcgraph.Node
		size     *fcgraph.Size

		expWidth, expHeight float64
		expSuppressed       bool
		assertions          func(t *testing.T, g *fcgraph.Graph)
	}{
		{
			name:          "empty_resets",
			size:          &fcgraph.Size{Width: 900, Height: 700},
			expWidth:      400,
			expHeight:     200,
			expSuppressed: true,
		},
		{
			name: "single_centered",
			children: []*fcgraph.Node{
				{ID: "a", Type: "http", Position: geo.NewPoint(300, 150)},
			},
			expWidth:      400,
			expHeight:     200,
			expSuppressed: false,
			assertions: func(t *testing.T, g *fcgraph.Graph) {
				a, _ := g.Node("a")
				assert.Equal(t, geo.NewPoint(100, 60), a.Position)
			},
		},
		{
			name: "single_wide_grows",
			children: []*fcgraph.Node{
				{ID: "a", Type: "http", Measured: &fcgraph.Size{Width: 500, Height: 300}},
			},
			expWidth:      540,
			expHeight:     380,
			expSuppressed: true,
			assertions: func(t *testing.T, g *fcgraph.Graph) {
				a, _ := g.Node("a")
				assert.Equal(t, geo.NewPoint(20, 60), a.Position)
			},
		},
		{
			name: "header_overlap",
			children: []*fcgraph.Node{
				{ID: "a", Type: "http", Position: geo.NewPoint(0, 0), Measured: &fcgraph.Size{Width: 200, Height: 100}},
				{ID: "b", Type: "http", Position: geo.NewPoint(250, 10), Measured: &fcgraph.Size{Width: 200, Height: 100}},
				{ID: "c", Type: "http", Position: geo.NewPoint(100, 30), Measured: &fcgraph.Size{Width: 200, Height: 100}},
			},
			expWidth:      470,
			expHeight:     200,
			expSuppressed: true,
			assertions: func(t *testing.T, g *fcgraph.Graph) {
				for _, id := range []string{"a", "b", "c"} {
					n, _ := g.Node(id)
					assert.GreaterOrEqual(t, n.Position.Y, 60.)
					assert.GreaterOrEqual(t, n.Position.X, 20.)
				}
				b, _ := g.Node("b")
				assert.Equal(t, 250., b.Position.X, "manual placement is kept")
			},
		},
		{
			name: "many_preserved",
			children: []*fcgraph.Node{
				{ID: "a", Type: "http", Position: geo.NewPoint(20, 60)},
				{ID: "b", Type: "http", Position: geo.NewPoint(300, 400)},
			},
			expWidth:      520,
			expHeight:     520,
			expSuppressed: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := log.WithTB(context.Background(), t, nil)
			e := fccontainer.NewEngine(nil, nil)

			g := fcgraph.NewGraph()
			c := &fcgraph.Node{ID: "x", Type: fcgraph.TypeContainer, Position: geo.NewPoint(10, 10)}
			if tc.size != nil {
				c.Data.Width = go2.Pointer(tc.size.Width)
				c.Data.Height = go2.Pointer(tc.size.Height)
			}
			g.AddNode(c)
			for _, ch := range tc.children {
				ch.ParentID = "x"
				g.AddNode(ch)
			}

			sup := e.LayoutChildren(ctx, g, "x", nil)
			assert.Equal(t, tc.expSuppressed, sup.Has("x"))

			cfg := e.ResolveVisualConfig(c)
			assert.Equal(t, tc.expWidth, cfg.Width)
			assert.Equal(t, tc.expHeight, cfg.Height)
			assert.True(t, e.Contained(g, c))

			if tc.assertions != nil {
				tc.assertions(t, g)
			}
		})
	}
}

func TestLayoutChildrenStable(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	e := fccontainer.NewEngine(nil, nil)

	g := fcgraph.NewGraph()
	g.AddNode(&fcgraph.Node{ID: "x", Type: fcgraph.TypeContainer})
	g.AddNode(&fcgraph.Node{ID: "a", Type: "http", ParentID: "x", Position: geo.NewPoint(0, 0)})
	g.AddNode(&fcgraph.Node{ID: "b", Type: "http", ParentID: "x", Position: geo.NewPoint(400, 0)})

	require.True(t, e.LayoutChildren(ctx, g, "x", nil).Has("x"))
	assert.Empty(t, e.LayoutChildren(ctx, g, "x", nil), "a second pass changes nothing")
}

func TestLayoutChildrenExempt(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	e := fccontainer.NewEngine(nil, nil)

	g := fcgraph.NewGraph()
	g.AddNode(&fcgraph.Node{ID: "x", Type: fcgraph.TypeContainer})
	g.AddNode(&fcgraph.Node{ID: "a", Type: "http", ParentID: "x", Position: geo.NewPoint(40, 80)})
	g.AddNode(&fcgraph.Node{ID: "drag", Type: "http", ParentID: "x", Position: geo.NewPoint(-300, -300)})

	e.LayoutChildren(ctx, g, "x", map[string]struct{}{"drag": {}})
	drag, _ := g.Node("drag")
	assert.Equal(t, geo.NewPoint(-300, -300), drag.Position)
}

func TestFitChildren(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	e := fccontainer.NewEngine(nil, nil)

	g := fcgraph.NewGraph()
	g.AddNode(&fcgraph.Node{ID: "x", Type: fcgraph.TypeContainer, Data: fcgraph.NodeData{Width: go2.Pointer(400.), Height: go2.Pointer(200.)}})
	g.AddNode(&fcgraph.Node{ID: "a", Type: "http", ParentID: "x", Position: geo.NewPoint(40, 80)})

	// A lone child keeps its placement.
	assert.Empty(t, e.FitChildren(ctx, g, "x", nil))
	a, _ := g.Node("a")
	assert.Equal(t, geo.NewPoint(40, 80), a.Position)

	a.Position = geo.NewPoint(-10, 500)
	assert.True(t, e.FitChildren(ctx, g, "x", nil).Has("x"))
	assert.Equal(t, geo.NewPoint(20, 500), a.Position)
	x, _ := g.Node("x")
	assert.Equal(t, 620., e.ResolveVisualConfig(x).Height)
	assert.True(t, e.Contained(g, x))
}

func TestFitAncestorsExempt(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	e := fccontainer.NewEngine(nil, nil)

	g := fcgraph.NewGraph()
	g.AddNode(&fcgraph.Node{ID: "x", Type: fcgraph.TypeContainer, Data: fcgraph.NodeData{Width: go2.Pointer(400.), Height: go2.Pointer(200.)}})
	g.AddNode(&fcgraph.Node{ID: "a", Type: "http", ParentID: "x", Position: geo.NewPoint(20, 60)})
	g.AddNode(&fcgraph.Node{ID: "drag", Type: "http", ParentID: "x", Position: geo.NewPoint(900, 900)})

	x, _ := g.Node("x")
	assert.Empty(t, e.FitAncestors(ctx, g, "a", map[string]struct{}{"drag": {}}))
	assert.Equal(t, 400., e.ResolveVisualConfig(x).Width)

	assert.True(t, e.FitAncestors(ctx, g, "a", nil).Has("x"))
	assert.Equal(t, 1120., e.ResolveVisualConfig(x).Width)
}

func TestLayoutChildrenGrowsAncestors(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	e := fccontainer.NewEngine(nil, nil)

	g := fcgraph.NewGraph()
	g.AddNode(&fcgraph.Node{ID: "outer", Type: fcgraph.TypeContainer})
	g.AddNode(&fcgraph.Node{ID: "inner", Type: fcgraph.TypeContainer, ParentID: "outer", Position: geo.NewPoint(20, 60)})
	g.AddNode(&fcgraph.Node{ID: "a", Type: "http", ParentID: "inner", Position: geo.NewPoint(20, 60)})
	g.AddNode(&fcgraph.Node{ID: "b", Type: "http", ParentID: "inner", Position: geo.NewPoint(600, 60)})

	sup := e.LayoutAll(ctx, g)
	assert.True(t, sup.Has("inner"))
	assert.True(t, sup.Has("outer"))

	outer, _ := g.Node("outer")
	inner, _ := g.Node("inner")
	assert.True(t, e.Contained(g, inner))
	assert.True(t, e.Contained(g, outer))
}

func TestSuppression(t *testing.T) {
	t.Parallel()

	var sup fccontainer.Suppression
	assert.False(t, sup.Has("a"))
	assert.False(t, sup.Consume("a"))

	sup = sup.Add("b").Add("a")
	assert.Equal(t, []string{"a", "b"}, sup.IDs())
	assert.True(t, sup.Consume("a"))
	assert.False(t, sup.Consume("a"), "consumed once")
	assert.True(t, sup.Has("b"))
}

func TestContainmentProperty(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("children are contained after layout", prop.ForAll(
		func(xs, ys []float64, w, h float64) bool {
			e := fccontainer.NewEngine(nil, nil)
			g := fcgraph.NewGraph()
			c := &fcgraph.Node{ID: "x", Type: fcgraph.TypeContainer}
			g.AddNode(c)
			for i := range xs {
				if i >= len(ys) {
					break
				}
				g.AddNode(&fcgraph.Node{
					ID:       string(rune('a' + i)),
					Type:     "http",
					ParentID: "x",
					Position: geo.NewPoint(xs[i], ys[i]),
					Measured: &fcgraph.Size{Width: w, Height: h},
				})
			}
			e.LayoutChildren(ctx, g, "x", nil)
			return e.Contained(g, c)
		},
		gen.SliceOfN(5, gen.Float64Range(-500, 2000)),
		gen.SliceOfN(5, gen.Float64Range(-500, 2000)),
		gen.Float64Range(10, 600),
		gen.Float64Range(10, 400),
	))

	properties.TestingRun(t)
}
