package parse

import (
	"context"
	"os"
	"strconv"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/armopt/compiler/asm"
)

type (
	state struct {
		fn     *asm.Func
		labels map[string]int

		fixups []fixup
	}

	// fixup is a branch waiting for its target label to resolve.
	fixup struct {
		block int
		instr int
		label string
		line  int
	}
)

func ParseFile(ctx context.Context, name string) ([]*asm.Func, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read listing", "size", len(data), "name", name)

	return Parse(ctx, data)
}

// Parse reads an assembler listing into functions of basic blocks.
//
//	func clamp
//	b0:
//		cmp r8, #4
//		bgt b2
//	...
func Parse(ctx context.Context, text []byte) (ff []*asm.Func, err error) {
	s := &state{}

	for ln, line := range strings.Split(string(text), "\n") {
		if i := strings.IndexAny(line, ";@"); i >= 0 {
			line = line[:i]
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "func "):
			ff, err = s.finish(ff)
			if err != nil {
				return nil, err
			}

			s.fn = &asm.Func{Name: strings.TrimSpace(strings.TrimPrefix(line, "func "))}
			s.labels = map[string]int{}
		case strings.HasSuffix(line, ":"):
			if s.fn == nil {
				return nil, errors.New("line %d: label outside func", ln+1)
			}

			name := strings.TrimSuffix(line, ":")

			if _, ok := s.labels[name]; ok {
				return nil, errors.New("line %d: duplicate label %q", ln+1, name)
			}

			s.labels[name] = len(s.fn.Blocks)
			s.fn.Blocks = append(s.fn.Blocks, asm.Block{Name: name})
		default:
			if s.fn == nil || len(s.fn.Blocks) == 0 {
				return nil, errors.New("line %d: instruction outside block", ln+1)
			}

			err = s.instr(line, ln+1)
			if err != nil {
				return nil, errors.Wrap(err, "line %d", ln+1)
			}
		}
	}

	ff, err = s.finish(ff)
	if err != nil {
		return nil, err
	}

	return ff, nil
}

func (s *state) finish(ff []*asm.Func) ([]*asm.Func, error) {
	if s.fn == nil {
		return ff, nil
	}

	for _, fx := range s.fixups {
		to, ok := s.labels[fx.label]
		if !ok {
			return nil, errors.New("line %d: unknown label %q", fx.line, fx.label)
		}

		code := s.fn.Blocks[fx.block].Code

		switch x := code[fx.instr].(type) {
		case asm.B:
			x.Block = to
			code[fx.instr] = x
		case asm.BCond:
			x.Block = to
			code[fx.instr] = x
		}
	}

	ff = append(ff, s.fn)

	s.fn = nil
	s.labels = nil
	s.fixups = nil

	return ff, nil
}

func (s *state) instr(line string, ln int) error {
	mnem, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	b := len(s.fn.Blocks) - 1
	blk := &s.fn.Blocks[b]

	emit := func(x asm.Instr) {
		blk.Code = append(blk.Code, x)
	}

	branch := func(x asm.Instr, label string) {
		s.fixups = append(s.fixups, fixup{block: b, instr: len(blk.Code), label: label, line: ln})
		emit(x)
	}

	switch {
	case mnem == "ret", mnem == "bx" && rest == "lr":
		emit(asm.Ret{})
	case mnem == "b", mnem == "b.n", mnem == "b.w":
		branch(asm.B{}, rest)
	case len(mnem) == 3 && mnem[0] == 'b':
		cond, ok := asm.CondBySuffix(mnem[1:])
		if !ok {
			emit(other(line, mnem))
			return nil
		}

		branch(asm.BCond{Cond: cond}, rest)
	case strings.HasPrefix(mnem, "cmp"), strings.HasPrefix(mnem, "cmn"):
		x, err := compare(mnem, rest)
		if err != nil {
			return err
		}

		emit(x)
	default:
		emit(other(line, mnem))
	}

	return nil
}

func compare(mnem, rest string) (asm.Instr, error) {
	variant := ""

	for _, v := range []string{".n", ".w"} {
		if strings.HasSuffix(mnem, v) {
			variant = v
			mnem = strings.TrimSuffix(mnem, v)
		}
	}

	pred := asm.AL

	if len(mnem) == 5 {
		c, ok := asm.CondBySuffix(mnem[3:])
		if !ok {
			return nil, errors.New("bad compare mnemonic %q", mnem)
		}

		pred = c
		mnem = mnem[:3]
	}

	var op asm.Opcode

	switch mnem + variant {
	case "cmp":
		op = asm.OpCmpA32
	case "cmn":
		op = asm.OpCmnA32
	case "cmp.n":
		op = asm.OpCmpT16
	case "cmp.w":
		op = asm.OpCmpT32
	case "cmn.w":
		op = asm.OpCmnT32
	default:
		return nil, errors.New("unsupported compare form %q", mnem+variant)
	}

	reg, imm, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("compare expects two operands: %q", rest)
	}

	rn, err := parseReg(strings.TrimSpace(reg))
	if err != nil {
		return nil, err
	}

	x := asm.Cmp{Op: op, Rn: rn, Pred: pred}

	imm = strings.TrimSpace(imm)
	if !strings.HasPrefix(imm, "#") {
		return nil, errors.New("compare expects immediate operand: %q", imm)
	}

	imm = strings.TrimPrefix(imm, "#")

	v, err := strconv.ParseInt(imm, 0, 32)
	if err != nil {
		x.Sym = imm
	} else {
		x.Imm = asm.Imm(v)
	}

	return x, nil
}

func parseReg(s string) (asm.Reg, error) {
	if len(s) < 2 || s[0] != 'r' {
		return 0, errors.New("bad register %q", s)
	}

	n, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, errors.Wrap(err, "bad register %q", s)
	}

	return asm.Reg(n), nil
}

// other keeps the raw instruction text, classifying only its flags access.
// msr/mrs touch the flags directly; tst/teq and the s-suffixed data ops set
// them; a condition suffix means the instruction is predicated and reads them.
func other(line, mnem string) asm.Other {
	base := strings.TrimSuffix(strings.TrimSuffix(mnem, ".w"), ".n")

	o := asm.Other{Name: line}

	switch base {
	case "msr":
		o.WritesFlags = true
		return o
	case "mrs":
		o.ReadsFlags = true
		return o
	case "tst", "teq":
		o.WritesFlags = true
		return o
	}

	if len(base) > 4 {
		if _, ok := asm.CondBySuffix(base[len(base)-2:]); ok {
			o.ReadsFlags = true
			base = base[:len(base)-2]
		}
	}

	if len(base) > 1 && strings.HasSuffix(base, "s") {
		o.WritesFlags = true
	}

	return o
}
