package fccli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/flowcanvas/fcplugin"
	"oss.terrastruct.com/flowcanvas/lib/version"
)

func help(ms *xmain.State) {
	fmt.Fprintf(ms.Stdout, `%[1]s %[2]s
Usage:
  %[1]s [--layout=dagre] [--direction=TB] layout file.json [out.json]
  %[1]s repair file.json [out.json]
  %[1]s check file.json
  %[1]s engines [name]
  %[1]s store ls | get name [out.json] | put name file.json | rm name

%[1]s lays out, repairs and checks flowcanvas documents.
Output defaults to rewriting the input file.

Use - to have %[1]s read from stdin or write to stdout.

Flags:
%[3]s

Subcommands:
  %[1]s layout - Auto-layout every node, placing containers beneath their owners
  %[1]s repair - Migrate legacy fields and re-establish container sizes
  %[1]s check - Report structural problems and uncontained children
  %[1]s engines - Lists available layout engines with short help
  %[1]s engines [name] - Display long help for a particular layout engine
  %[1]s store - Manage documents in the configured store
`, filepath.Base(ms.Name), version.Version, ms.Opts.Defaults())
}

func enginesCmd(ctx context.Context, ms *xmain.State, ps []fcplugin.Plugin) error {
	switch len(ms.Opts.Flags.Args()) {
	case 1:
		return shortLayoutHelp(ctx, ms, ps)
	case 2:
		return longLayoutHelp(ctx, ms, ps)
	}
	return xmain.UsageErrorf("engines accepts at most one argument")
}

func shortLayoutHelp(ctx context.Context, ms *xmain.State, ps []fcplugin.Plugin) error {
	pinfos, err := fcplugin.ListPluginInfos(ctx, ps)
	if err != nil {
		return err
	}
	var lines []string
	for _, p := range pinfos {
		lines = append(lines, fmt.Sprintf("%s - %s", p.Name, p.ShortHelp))
	}
	fmt.Fprintf(ms.Stdout, `Available layout engines:

%s

Usage:
  To use a particular layout engine, set the environment variable FLOWCANVAS_LAYOUT=[name] or flag --layout=[name].

Example:
  FLOWCANVAS_LAYOUT=dot %s layout in.json out.json
`, strings.Join(lines, "\n"), filepath.Base(ms.Name))
	return nil
}

func longLayoutHelp(ctx context.Context, ms *xmain.State, ps []fcplugin.Plugin) error {
	name := ms.Opts.Flags.Arg(1)
	plugin, err := fcplugin.FindPlugin(ctx, ps, name)
	if errors.Is(err, fcplugin.ErrNotFound) {
		return layoutNotFound(ctx, ps, name)
	} else if err != nil {
		return err
	}
	pinfo, err := plugin.Info(ctx)
	if err != nil {
		return err
	}
	longHelp := pinfo.LongHelp
	if !strings.HasSuffix(longHelp, "\n") {
		longHelp += "\n"
	}
	fmt.Fprintf(ms.Stdout, "%s:\n\n%s", pinfo.Name, longHelp)
	return nil
}

func layoutNotFound(ctx context.Context, ps []fcplugin.Plugin, layout string) error {
	pinfos, err := fcplugin.ListPluginInfos(ctx, ps)
	if err != nil {
		return err
	}
	var names []string
	for _, p := range pinfos {
		names = append(names, p.Name)
	}
	return xmain.UsageErrorf(`layout engine %q is not bundled.
The available options are: %s. For details on each option, run "flowcanvas engines".`,
		layout, strings.Join(names, ", "))
}
