//go:build !nodot

package fcplugin

import (
	"context"

	"oss.terrastruct.com/flowcanvas/fclayouts"
	"oss.terrastruct.com/flowcanvas/fclayouts/fcdotlayout"
)

var DotPlugin = dotPlugin{}

func init() {
	plugins = append(plugins, &DotPlugin)
}

type dotPlugin struct{}

func (p dotPlugin) Info(context.Context) (*PluginInfo, error) {
	return &PluginInfo{
		Name:      "dot",
		ShortHelp: "Graphviz dot, run in process",
		LongHelp: `dot is the hierarchical layout program of Graphviz.
See https://graphviz.org/docs/layouts/dot/
Graphviz is bundled as WebAssembly, no installation is needed.
`,
	}, nil
}

func (p dotPlugin) Layout(ctx context.Context, g *fclayouts.Graph, opts fclayouts.ConfigurableOpts) error {
	return fcdotlayout.Layout(ctx, g, opts)
}
