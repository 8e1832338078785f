// Package fccli implements the flowcanvas command line: batch auto-layout,
// repair and checking of persisted documents, plus document storage.
package fccli

import (
	"context"
	"errors"
	"fmt"

	"cdr.dev/slog"
	"github.com/spf13/pflag"

	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/flowcanvas/fcconfig"
	"oss.terrastruct.com/flowcanvas/fclayouts"
	"oss.terrastruct.com/flowcanvas/fcplugin"
	"oss.terrastruct.com/flowcanvas/lib/log"
	"oss.terrastruct.com/flowcanvas/lib/version"
)

func Run(ctx context.Context, ms *xmain.State) (err error) {
	ctx = log.Named(log.WithDefault(ctx), "flowcanvas")

	configFlag := ms.Opts.String("FLOWCANVAS_CONFIG", "config", "c", "", "path to a TOML config file")
	engineFlag := ms.Opts.String("FLOWCANVAS_LAYOUT", "layout", "l", fcconfig.DEFAULT_ENGINE, "the layout engine used")
	directionFlag := ms.Opts.String("FLOWCANVAS_DIRECTION", "direction", "", string(fclayouts.DirectionDown), "rank direction: TB, BT, LR or RL")
	nodeSepFlag, err := ms.Opts.Float64("FLOWCANVAS_NODE_SEP", "node-sep", "", fclayouts.DEFAULT_NODE_SEP, "pixels between nodes of the same rank")
	if err != nil {
		return err
	}
	rankSepFlag, err := ms.Opts.Float64("FLOWCANVAS_RANK_SEP", "rank-sep", "", fclayouts.DEFAULT_RANK_SEP, "pixels between ranks")
	if err != nil {
		return err
	}
	debugFlag, err := ms.Opts.Bool("DEBUG", "debug", "d", false, "print debug logs.")
	if err != nil {
		return err
	}
	versionFlag, err := ms.Opts.Bool("", "version", "v", false, "get the version")
	if err != nil {
		return err
	}

	err = ms.Opts.Flags.Parse(ms.Opts.Args)
	if !errors.Is(err, pflag.ErrHelp) && err != nil {
		return xmain.UsageErrorf("failed to parse flags: %v", err)
	}
	if errors.Is(err, pflag.ErrHelp) {
		help(ms)
		return nil
	}

	if *debugFlag {
		ctx = log.Leveled(ctx, slog.LevelDebug)
		ms.Env.Setenv("DEBUG", "1")
	}

	if len(ms.Opts.Flags.Args()) == 0 {
		if *versionFlag {
			fmt.Fprintln(ms.Stdout, version.Version)
			return nil
		}
		help(ms)
		return nil
	}

	cfg := fcconfig.Default()
	if *configFlag != "" {
		cfg, err = fcconfig.Load(ms.AbsPath(*configFlag))
		if err != nil {
			return err
		}
	}
	// Flags and env win over the config file.
	if set(ms, "layout", "FLOWCANVAS_LAYOUT") {
		cfg.Layout.Engine = *engineFlag
	}
	if set(ms, "direction", "FLOWCANVAS_DIRECTION") {
		dir, err := fclayouts.ParseDirection(*directionFlag)
		if err != nil {
			return xmain.UsageErrorf("%v", err)
		}
		cfg.Layout.Direction = dir
	}
	if set(ms, "node-sep", "FLOWCANVAS_NODE_SEP") {
		cfg.Layout.NodeSep = *nodeSepFlag
	}
	if set(ms, "rank-sep", "FLOWCANVAS_RANK_SEP") {
		cfg.Layout.RankSep = *rankSepFlag
	}
	if err := cfg.Validate(); err != nil {
		return xmain.UsageErrorf("%v", err)
	}

	plugins := fcplugin.ListPlugins()
	switch ms.Opts.Flags.Arg(0) {
	case "layout":
		return layoutCmd(ctx, ms, cfg, plugins)
	case "repair":
		return repairCmd(ctx, ms, cfg)
	case "check":
		return checkCmd(ctx, ms, cfg)
	case "engines":
		return enginesCmd(ctx, ms, plugins)
	case "store":
		return storeCmd(ctx, ms, cfg)
	case "version":
		if len(ms.Opts.Flags.Args()) > 1 {
			return xmain.UsageErrorf("version subcommand accepts no arguments")
		}
		fmt.Fprintln(ms.Stdout, version.Version)
		return nil
	}
	return xmain.UsageErrorf("unknown subcommand %q", ms.Opts.Flags.Arg(0))
}

func set(ms *xmain.State, flag, env string) bool {
	return ms.Opts.Flags.Changed(flag) || ms.Env.Getenv(env) != ""
}

// ioArgs returns the input and output paths of a subcommand. The output
// defaults to rewriting the input in place.
func ioArgs(ms *xmain.State, cmd string) (string, string, error) {
	args := ms.Opts.Flags.Args()[1:]
	switch len(args) {
	case 0:
		return "", "", xmain.UsageErrorf("%s must be passed an input file", cmd)
	case 1, 2:
	default:
		return "", "", xmain.UsageErrorf("too many arguments passed to %s", cmd)
	}
	in := args[0]
	out := in
	if len(args) == 2 {
		out = args[1]
	}
	if in != "-" {
		in = ms.AbsPath(in)
	}
	if out != "-" {
		out = ms.AbsPath(out)
	}
	return in, out, nil
}
