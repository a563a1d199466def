// Package condopt makes related immediate compares use the same operands so
// a later CSE pass can remove the duplicates.
//
// Each conditional branch pair on a dominance edge is inspected: when the two
// compared immediates can be corrected towards each other by converting
// GT <-> GE, LT <-> LE (and unsigned counterparts), both blocks end up
// comparing against the same value.
//
//	cmp r8, #4        cmp r8, #5
//	bgt .b2           bge .b2
//	...          =>   ...
//	cmp r8, #6        cmp r8, #5    // CSE removes this one
//	blt .b6           ble .b6
package condopt

import (
	"context"
	"sync/atomic"

	"tlog.app/go/tlog"

	"github.com/slowlang/armopt/compiler/asm"
	"github.com/slowlang/armopt/compiler/cfg"
)

var numConditionsAdjusted int64

// ConditionsAdjusted returns the total number of compares rewritten by Run
// across all invocations.
func ConditionsAdjusted() int64 {
	return atomic.LoadInt64(&numConditionsAdjusted)
}

// Run rewrites eligible compare pairs of f. It reports whether the function
// changed; running again on the result changes nothing.
func Run(ctx context.Context, f *asm.Func) (changed bool) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "condopt", "func", f.Name)
	defer tr.Finish("changed", &changed)

	if tr.If("dump_func") {
		defer dumpFunc(tr, f, "func after")

		dumpFunc(tr, f, "func before")
	}

	dom := cfg.Dominators(f)
	flagsLive := cfg.FlagsLiveIn(f)

	// Preorder enables multiple conversions from the same head block:
	// a rewrite at an ancestor is visible before descendants are examined.
	dom.Preorder(func(h int) {
		tbb, _, headCond, ok := f.AnalyzeBranch(h)
		if !ok {
			return
		}

		// Back-edge: the true successor dominates the head, adjusting
		// along it could cycle.
		if dom.Dominates(tbb, h) {
			return
		}

		_, _, trueCond, ok := f.AnalyzeBranch(tbb)
		if !ok {
			return
		}

		headIdx := findSuitableCompare(tr, f, h, flagsLive)
		if headIdx < 0 {
			return
		}

		headCmp := f.Blocks[h].Code[headIdx].(asm.Cmp)
		headCond = normalizeZero(headCond, headCmp.Imm)

		headVal := logicalImm(headCmp)

		trueIdx := findSuitableCompare(tr, f, tbb, flagsLive)
		if trueIdx < 0 {
			return
		}

		trueCmp := f.Blocks[tbb].Code[trueIdx].(asm.Cmp)
		trueCond = normalizeZero(trueCond, trueCmp.Imm)

		trueVal := logicalImm(trueCmp)

		diff := trueVal - headVal
		if diff < 0 {
			diff = -diff
		}

		opposite := isGreaterThan(headCond) && isLessThan(trueCond) ||
			isLessThan(headCond) && isGreaterThan(trueCond)
		sameDir := isGreaterThan(headCond) && isGreaterThan(trueCond) ||
			isLessThan(headCond) && isLessThan(trueCond)

		switch {
		case opposite && diff == 2:
			// (a > x && ...) || (a < y && ...) with |x-y| == 2
			// converges on the shared boundary value:
			// (a >= v && ...) || (a <= v && ...)
			headInfo, hok := adjustCmp(headCmp, headCond)
			trueInfo, tok := adjustCmp(trueCmp, trueCond)

			if hok && tok && headInfo.Imm == trueInfo.Imm && headInfo.Op == trueInfo.Op {
				modifyCmp(tr, f, h, headIdx, headInfo)
				modifyCmp(tr, f, tbb, trueIdx, trueInfo)

				changed = true
			}
		case sameDir && diff == 1:
			// (a > x && ...) || (a > y && ...) with |x-y| == 1.
			// GT -> GE grows the immediate, so the smaller side moves;
			// LT -> LE shrinks it, so invert the choice.
			adjustHead := headVal < trueVal
			if isLessThan(headCond) {
				adjustHead = !adjustHead
			}

			if adjustHead {
				changed = adjustTo(tr, f, h, headIdx, headCond, trueCmp) || changed
			} else {
				changed = adjustTo(tr, f, tbb, trueIdx, trueCond, headCmp) || changed
			}
		}
	})

	return changed
}

func dumpFunc(tr tlog.Span, f *asm.Func, msg string) {
	tr.Printw(msg)

	for b := range f.Blocks {
		for i, x := range f.Blocks[b].Code {
			tr.Printw("instr", "block", b, "i", i, "typ", tlog.NextAsType, x, "val", x)
		}
	}
}

// normalizeZero rewrites zero-immediate sign tests to the ordered form they
// are equivalent to: pl == ge and mi == lt when comparing with 0.
func normalizeZero(c asm.Cond, imm asm.Imm) asm.Cond {
	if imm != 0 {
		return c
	}

	switch c {
	case asm.PL:
		return asm.GE
	case asm.MI:
		return asm.LT
	}

	return c
}

// logicalImm is the comparand the instruction actually tests against:
// the stored immediate, negated for cmn forms.
func logicalImm(cmp asm.Cmp) asm.Imm {
	if cmp.Op.IsCmn() {
		return -cmp.Imm
	}

	return cmp.Imm
}
