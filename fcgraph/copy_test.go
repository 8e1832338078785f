package fcgraph_test

import (
	"errors"
	"testing"

	"oss.terrastruct.com/util-go/assert"
	"oss.terrastruct.com/util-go/go2"

	"oss.terrastruct.com/flowcanvas/fcgraph"
)

func TestCopy(t *testing.T) {
	t.Parallel()

	tca := []struct {
		name   string
		assert func(t *testing.T, g, g2 *fcgraph.Graph)
	}{
		{
			name: `nodes`,
			assert: func(t *testing.T, g, g2 *fcgraph.Graph) {
				n2, _ := g2.Node("leaf")
				n2.Data.Label = `saltedmeat`
				n, _ := g.Node("leaf")
				assert.String(t, `leaf`, n.Data.Label)

				n2.Position.X = 999
				assert.Equal(t, 5.0, n.Position.X)
			},
		},
		{
			name: `config`,
			assert: func(t *testing.T, g, g2 *fcgraph.Graph) {
				n2, _ := g2.Node("leaf")
				n2.Data.Config["nested"].(map[string]any)["k"] = "changed"
				n2.Data.Config["list"].([]any)[0] = 42.0
				n2.Data.Padding.Top = go2.Pointer(1.0)

				n, _ := g.Node("leaf")
				assert.Equal(t, "v", n.Data.Config["nested"].(map[string]any)["k"])
				assert.Equal(t, 1.0, n.Data.Config["list"].([]any)[0])
				assert.Equal(t, 10.0, *n.Data.Padding.Top)
			},
		},
		{
			name: `edges`,
			assert: func(t *testing.T, g, g2 *fcgraph.Graph) {
				g2.Edges[0].Target = "other"
				assert.String(t, "outer", g.Edges[0].Target)
			},
		},
	}

	for _, tc := range tca {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g := nestedGraph()
			leaf, _ := g.Node("leaf")
			leaf.Data.Label = "leaf"
			leaf.Data.Config = map[string]any{
				"nested": map[string]any{"k": "v"},
				"list":   []any{1.0, "two"},
			}
			leaf.Data.Padding = &fcgraph.PaddingConfig{Top: go2.Pointer(10.0)}

			g2, err := g.Copy()
			assert.Success(t, err)
			tc.assert(t, g, g2)
		})
	}
}

func TestCopyUnserializable(t *testing.T) {
	t.Parallel()

	g := nestedGraph()
	leaf, _ := g.Node("leaf")
	leaf.Data.Result = map[string]any{"ch": make(chan int)}

	_, err := g.Copy()
	assert.True(t, errors.Is(err, fcgraph.ErrUnserializable))

	cyclic := map[string]any{}
	cyclic["self"] = cyclic
	_, err = fcgraph.CloneValue(cyclic)
	assert.True(t, errors.Is(err, fcgraph.ErrUnserializable))
}
