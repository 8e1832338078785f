// Package fcplugin lists the layout engines bundled with flowcanvas and finds
// one by name.
//
// See plugin_* files for the engines available for bundling.
package fcplugin

import (
	"context"
	"errors"
	"strings"

	"oss.terrastruct.com/flowcanvas/fclayouts"
)

// plugins contains the bundled layout engines.
var plugins []Plugin

var ErrNotFound = errors.New("layout engine not found")

type Plugin interface {
	// Info returns the current info information of the plugin.
	Info(context.Context) (*PluginInfo, error)

	// Layout places every node of the input graph.
	Layout(context.Context, *fclayouts.Graph, fclayouts.ConfigurableOpts) error
}

type PluginInfo struct {
	Name      string `json:"name"`
	ShortHelp string `json:"shortHelp"`
	LongHelp  string `json:"longHelp"`
}

func ListPlugins() []Plugin {
	return append([]Plugin(nil), plugins...)
}

func ListPluginInfos(ctx context.Context, ps []Plugin) ([]*PluginInfo, error) {
	var infoSlice []*PluginInfo
	for _, p := range ps {
		info, err := p.Info(ctx)
		if err != nil {
			return nil, err
		}
		infoSlice = append(infoSlice, info)
	}

	return infoSlice, nil
}

// FindPlugin finds the plugin with the given name, ignoring case.
func FindPlugin(ctx context.Context, ps []Plugin, name string) (Plugin, error) {
	for _, p := range ps {
		info, err := p.Info(ctx)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(info.Name, name) {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

// LayoutGraph adapts p for fclayouts.Layout.
func LayoutGraph(p Plugin) fclayouts.LayoutGraph {
	return p.Layout
}
