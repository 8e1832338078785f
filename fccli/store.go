package fccli

import (
	"context"
	"fmt"

	"oss.terrastruct.com/util-go/xdefer"
	"oss.terrastruct.com/util-go/xmain"

	"oss.terrastruct.com/flowcanvas/fcconfig"
	"oss.terrastruct.com/flowcanvas/fcgraph"
	"oss.terrastruct.com/flowcanvas/fcstore"
)

func openStore(ctx context.Context, ms *xmain.State, cfg *fcconfig.Config) (fcstore.Store, error) {
	switch cfg.Store.Backend {
	case fcconfig.BackendRedis:
		return fcstore.NewRedisStore(ctx, cfg.Store.Redis)
	default:
		return fcstore.NewFileStore(ms.AbsPath(cfg.Store.Dir))
	}
}

func storeCmd(ctx context.Context, ms *xmain.State, cfg *fcconfig.Config) (err error) {
	defer xdefer.Errorf(&err, "store")

	args := ms.Opts.Flags.Args()[1:]
	if len(args) == 0 {
		return xmain.UsageErrorf("store must be passed one of ls, get, put or rm")
	}
	arity := map[string][2]int{
		"ls":  {0, 0},
		"get": {1, 2},
		"put": {2, 2},
		"rm":  {1, 1},
	}
	bounds, ok := arity[args[0]]
	if !ok {
		return xmain.UsageErrorf("unknown store subcommand %q", args[0])
	}
	if n := len(args) - 1; n < bounds[0] || n > bounds[1] {
		return xmain.UsageErrorf("wrong number of arguments for store %s", args[0])
	}

	s, err := openStore(ctx, ms, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	switch args[0] {
	case "ls":
		names, err := s.List(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(ms.Stdout, n)
		}
	case "get":
		b, err := s.Load(ctx, args[1])
		if err != nil {
			return err
		}
		out := "-"
		if len(args) == 3 {
			out = ms.AbsPath(args[2])
		}
		return ms.WritePath(out, b)
	case "put":
		in := args[2]
		if in != "-" {
			in = ms.AbsPath(in)
		}
		b, err := ms.ReadPath(in)
		if err != nil {
			return err
		}
		// Only well formed documents are stored.
		g, err := fcgraph.DeserializeGraph(b)
		if err != nil {
			return err
		}
		if err := g.Check(); err != nil {
			return err
		}
		if err := s.Save(ctx, args[1], b); err != nil {
			return err
		}
		ms.Log.Success.Printf("stored %s", args[1])
	case "rm":
		return s.Delete(ctx, args[1])
	}
	return nil
}
