package fcdotlayout_test

import (
	"context"
	"testing"

	tassert "github.com/stretchr/testify/assert"

	"oss.terrastruct.com/util-go/assert"

	"oss.terrastruct.com/flowcanvas/fclayouts"
	"oss.terrastruct.com/flowcanvas/fclayouts/fcdotlayout"
	"oss.terrastruct.com/flowcanvas/lib/geo"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

func TestToDOT(t *testing.T) {
	t.Parallel()

	g := &fclayouts.Graph{
		Nodes: []*fclayouts.Node{
			{ID: "http_1 \"quoted\"", Width: 144, Height: 72},
			{ID: "b", Width: 72, Height: 36},
		},
		Edges: []*fclayouts.Edge{{Source: "http_1 \"quoted\"", Target: "b"}},
	}
	opts := fclayouts.DefaultOpts
	opts.Direction = fclayouts.DirectionRight

	dot, names, err := fcdotlayout.ToDOT(g, opts)
	assert.Success(t, err)
	tassert.Equal(t, []string{"n0", "n1"}, names)
	assert.String(t, `digraph G {
  rankdir=LR;
  nodesep=0.8333;
  ranksep=1.3889;
  node [shape=box, fixedsize=true, label=""];

  n0 [width=2.0000, height=1.0000];
  n1 [width=1.0000, height=0.5000];

  n0 -> n1;
}
`, dot)

	g.Edges = append(g.Edges, &fclayouts.Edge{Source: "b", Target: "ghost"})
	_, _, err = fcdotlayout.ToDOT(g, opts)
	assert.ErrorString(t, err, `edge b -> ghost references unknown node "ghost"`)
}

func TestParsePlain(t *testing.T) {
	t.Parallel()

	centers, err := fcdotlayout.ParsePlain([]byte(`graph 1 2.0000 3.5000
node n0 1 3 2 1 "" solid box black lightgrey
node n1 1 0.5 1 0.5 "" solid box black lightgrey
edge n0 n1 4 1 2.5 1 2 1 1.5 1 1 solid black
stop
`))
	assert.Success(t, err)
	tassert.Equal(t, map[string]geo.Point{
		"n0": geo.NewPoint(72, 216),
		"n1": geo.NewPoint(72, 36),
	}, centers)

	_, err = fcdotlayout.ParsePlain([]byte("node n0 1\n"))
	assert.ErrorString(t, err, "line 1: malformed node statement")
}

func TestLayout(t *testing.T) {
	t.Parallel()

	ctx := log.WithTB(context.Background(), t, nil)
	g := &fclayouts.Graph{
		Nodes: []*fclayouts.Node{
			{ID: "a", Width: 100, Height: 50},
			{ID: "b", Width: 100, Height: 50},
		},
		Edges: []*fclayouts.Edge{{Source: "a", Target: "b"}},
	}
	assert.Success(t, fcdotlayout.DefaultLayout(ctx, g))

	a, b := g.Nodes[0].Box(), g.Nodes[1].Box()
	tassert.LessOrEqual(t, a.Bottom(), b.TopLeft.Y)
	tassert.InDelta(t, a.Center().X, b.Center().X, 1)
	tassert.Equal(t, 0., a.TopLeft.Y)
}
