//go:build !nodagre

package fcplugin

import (
	"context"

	"oss.terrastruct.com/flowcanvas/fclayouts"
	"oss.terrastruct.com/flowcanvas/fclayouts/fcdagrelayout"
)

var DagrePlugin = dagrePlugin{}

func init() {
	plugins = append(plugins, &DagrePlugin)
}

type dagrePlugin struct{}

func (p dagrePlugin) Info(context.Context) (*PluginInfo, error) {
	return &PluginInfo{
		Name:      "dagre",
		ShortHelp: "Native layered layout in the style of Dagre",
		LongHelp: `dagre ranks nodes by longest path, orders every rank to reduce edge
crossings and balances each node against its neighbors.
It needs no external dependencies and is the default engine.
`,
	}, nil
}

func (p dagrePlugin) Layout(ctx context.Context, g *fclayouts.Graph, opts fclayouts.ConfigurableOpts) error {
	return fcdagrelayout.Layout(ctx, g, opts)
}
