package main

import (
	"context"
	"fmt"
	"os"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/armopt/compiler"
	"github.com/slowlang/armopt/compiler/cfg"
	"github.com/slowlang/armopt/compiler/parse"
)

func main() {
	optCmd := &cli.Command{
		Name:   "opt",
		Action: optAct,
		Args:   cli.Args{},
	}

	dumpCmd := &cli.Command{
		Name:   "dump",
		Action: dumpAct,
		Args:   cli.Args{},
	}

	app := &cli.Command{
		Name:        "armopt",
		Description: "armopt rewrites related conditional compares in arm listings to enable cse",
		Commands: []*cli.Command{
			optCmd,
			dumpCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func optAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		obj, err := compiler.OptimizeFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "optimize %v", a)
		}

		fmt.Printf("%s", obj)
	}

	return nil
}

func dumpAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		ff, err := parse.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		for _, f := range ff {
			dom := cfg.Dominators(f)
			live := cfg.FlagsLiveIn(f)

			tlog.Printw("func", "name", f.Name, "blocks", len(f.Blocks), "flags_live_blocks", live.Size())

			for b := range f.Blocks {
				tlog.Printw("block", "func", f.Name, "block", b, "name", f.Blocks[b].Name,
					"succ", f.Successors(b), "idom", dom.Idom[b], "flags_live_in", live.IsSet(b))
			}
		}
	}

	return nil
}
