package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/armopt/compiler/condopt"
	"github.com/slowlang/armopt/compiler/format"
	"github.com/slowlang/armopt/compiler/parse"
)

func OptimizeFile(ctx context.Context, name string) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Optimize(ctx, name, text)
}

func Optimize(ctx context.Context, name string, text []byte) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "optimize listing", "name", name)
	defer tr.Finish("err", &err)

	ff, err := parse.Parse(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse listing")
	}

	changed := 0

	for _, f := range ff {
		if condopt.Run(ctx, f) {
			changed++
		}
	}

	tr.Printw("conditions optimized", "funcs", len(ff), "changed", changed, "total_adjusted", condopt.ConditionsAdjusted())

	obj, err = format.Format(ctx, nil, ff...)
	if err != nil {
		return nil, errors.Wrap(err, "format listing")
	}

	return obj, nil
}
