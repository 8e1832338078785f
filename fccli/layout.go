package fccli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oss.terrastruct.com/util-go/xdefer"
	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/flowcanvas/fcconfig"
	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/fclayouts/fccontainer"
	"oss.terrastruct.com/flowcanvas/fcoracle"
	"oss.terrastruct.com/flowcanvas/fcplugin"
	"oss.terrastruct.com/flowcanvas/lib/log"
)

func layoutCmd(ctx context.Context, ms *xmain.State, cfg *fcconfig.Config, ps []fcplugin.Plugin) (err error) {
	defer xdefer.Errorf(&err, "failed to lay out")

	inputPath, outputPath, err := ioArgs(ms, "layout")
	if err != nil {
		return err
	}
	plugin, err := fcplugin.FindPlugin(ctx, ps, cfg.Layout.Engine)
	if errors.Is(err, fcplugin.ErrNotFound) {
		return layoutNotFound(ctx, ps, cfg.Layout.Engine)
	} else if err != nil {
		return err
	}
	ms.Log.Debug.Printf("using layout engine %s", cfg.Layout.Engine)

	input, err := ms.ReadPath(inputPath)
	if err != nil {
		return err
	}
	opts := cfg.OracleOpts()
	opts.LayoutEngine = fcplugin.LayoutGraph(plugin)
	o, err := fcoracle.Load(ctx, input, opts)
	if err != nil {
		return err
	}

	ctx, cancel := log.WithTimeout(ctx, time.Minute*2)
	defer cancel()
	if err := o.AutoLayout(ctx, nil); err != nil {
		return err
	}
	if err := write(ms, o, outputPath); err != nil {
		return err
	}
	ms.Log.Success.Printf("successfully laid out %v to %v", inputPath, outputPath)
	return nil
}

func repairCmd(ctx context.Context, ms *xmain.State, cfg *fcconfig.Config) (err error) {
	defer xdefer.Errorf(&err, "failed to repair")

	inputPath, outputPath, err := ioArgs(ms, "repair")
	if err != nil {
		return err
	}
	input, err := ms.ReadPath(inputPath)
	if err != nil {
		return err
	}
	o, err := fcoracle.Load(ctx, input, cfg.OracleOpts())
	if err != nil {
		return err
	}
	if err := write(ms, o, outputPath); err != nil {
		return err
	}
	ms.Log.Success.Printf("successfully repaired %v to %v", inputPath, outputPath)
	return nil
}

func write(ms *xmain.State, o *fcoracle.Oracle, outputPath string) error {
	out, err := o.Serialize()
	if err != nil {
		return err
	}
	return ms.WritePath(outputPath, append(out, '\n'))
}

// checkCmd reports structural problems and containers that do not contain
// their children, without changing the document.
func checkCmd(ctx context.Context, ms *xmain.State, cfg *fcconfig.Config) (err error) {
	defer xdefer.Errorf(&err, "failed to check")

	args := ms.Opts.Flags.Args()[1:]
	if len(args) != 1 {
		return xmain.UsageErrorf("check must be passed exactly one input file")
	}
	inputPath := args[0]
	if inputPath != "-" {
		inputPath = ms.AbsPath(inputPath)
	}
	input, err := ms.ReadPath(inputPath)
	if err != nil {
		return err
	}
	g, err := fcgraph.DeserializeGraph(input)
	if err != nil {
		return err
	}
	if err := g.Check(); err != nil {
		return err
	}

	var errs []error
	ce := fccontainer.NewEngine(&cfg.Container, nil)
	for _, c := range g.Containers() {
		if !ce.Contained(g, c) {
			errs = append(errs, fmt.Errorf("container %q does not contain its children", c.ID))
		}
	}
	g2, err := g.Copy()
	if err != nil {
		return err
	}
	if n := fcgraph.Repair(g2); n > 0 {
		errs = append(errs, fmt.Errorf("%d legacy fields need repair", n))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w\nrun %s repair %s to fix", err, ms.Name, args[0])
	}
	ms.Log.Debug.Printf("outline:\n%s", fcgraph.Outline(g))
	ms.Log.Success.Printf("%v is valid", inputPath)
	return nil
}
