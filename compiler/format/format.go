package format

import (
	"context"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"

	"github.com/slowlang/armopt/compiler/asm"
)

// Format renders functions back into listing form parseable by parse.
func Format(ctx context.Context, b []byte, ff ...*asm.Func) ([]byte, error) {
	var err error

	for i, f := range ff {
		if i != 0 {
			b = append(b, '\n')
		}

		b, err = formatFunc(ctx, b, f)
		if err != nil {
			return nil, errors.Wrap(err, "func %v", f.Name)
		}
	}

	return b, nil
}

func formatFunc(ctx context.Context, b []byte, f *asm.Func) (_ []byte, err error) {
	b = hfmt.Appendf(b, "func %s\n", f.Name)

	for i := range f.Blocks {
		b, err = formatBlock(ctx, b, f, i)
		if err != nil {
			return nil, errors.Wrap(err, "block %v", f.Blocks[i].Name)
		}
	}

	return b, nil
}

func formatBlock(ctx context.Context, b []byte, f *asm.Func, blk int) ([]byte, error) {
	b = hfmt.Appendf(b, "%s:\n", f.Blocks[blk].Name)

	for _, x := range f.Blocks[blk].Code {
		switch x := x.(type) {
		case asm.Cmp:
			b = formatCmp(b, x)
		case asm.B:
			b = hfmt.Appendf(b, "\tb %s\n", f.Blocks[x.Block].Name)
		case asm.BCond:
			b = hfmt.Appendf(b, "\tb%v %s\n", x.Cond, f.Blocks[x.Block].Name)
		case asm.Ret:
			b = append(b, "\tret\n"...)
		case asm.Other:
			b = hfmt.Appendf(b, "\t%s\n", x.Name)
		default:
			return nil, errors.New("unsupported instruction: %T", x)
		}
	}

	return b, nil
}

func formatCmp(b []byte, x asm.Cmp) []byte {
	op := x.Op.String()

	if x.Pred != asm.AL {
		// cmpgt.w, predicate goes before the width suffix
		base, width := op, ""
		if len(op) > 3 {
			base, width = op[:3], op[3:]
		}

		op = base + x.Pred.String() + width
	}

	b = hfmt.Appendf(b, "\t%s r%d, ", op, x.Rn)

	if x.Sym != "" {
		return hfmt.Appendf(b, "#%s\n", x.Sym)
	}

	return hfmt.Appendf(b, "#%d\n", x.Imm)
}
