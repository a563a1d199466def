package condopt

import (
	"sync/atomic"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/slowlang/armopt/compiler/asm"
	"github.com/slowlang/armopt/compiler/set"
)

// CmpInfo is a proposed replacement for a compare and its branch:
// stored immediate, compare opcode and branch condition.
type CmpInfo struct {
	Imm  asm.Imm
	Op   asm.Opcode
	Cond asm.Cond
}

// adjustedCond changes the form of a comparison inclusive <-> exclusive.
func adjustedCond(c asm.Cond) asm.Cond {
	switch c {
	case asm.GT:
		return asm.GE
	case asm.GE:
		return asm.GT
	case asm.LT:
		return asm.LE
	case asm.LE:
		return asm.LT
	case asm.HI:
		return asm.HS
	case asm.HS:
		return asm.HI
	case asm.LO:
		return asm.LS
	case asm.LS:
		return asm.LO
	}

	panic(c)
}

// complementOpc changes opcode cmp <-> cmn.
// Thumb-1 cmp has no cmn counterpart, that maps to OpInvalid.
func complementOpc(op asm.Opcode) asm.Opcode {
	switch op {
	case asm.OpCmpA32:
		return asm.OpCmnA32
	case asm.OpCmnA32:
		return asm.OpCmpA32
	case asm.OpCmpT16:
		return asm.OpInvalid
	case asm.OpCmpT32:
		return asm.OpCmnT32
	case asm.OpCmnT32:
		return asm.OpCmpT32
	}

	panic(op)
}

func isGreaterThan(c asm.Cond) bool { return c == asm.GT || c == asm.HI }

func isLessThan(c asm.Cond) bool { return c == asm.LT || c == asm.LO }

func isSigned(c asm.Cond) bool {
	return c == asm.GT || c == asm.GE || c == asm.LT || c == asm.LE
}

// findSuitableCompare locates the compare controlling the block terminator:
// the unique unpredicated immediate cmp/cmn whose flags reach the branch
// with no other flags access in between. Returns the instruction index or -1.
func findSuitableCompare(tr tlog.Span, f *asm.Func, b int, flagsLive set.Bits[int]) int {
	term := f.FirstTerminator(b)
	if term < 0 {
		return -1
	}

	code := f.Blocks[b].Code

	if _, ok := code[term].(asm.BCond); !ok {
		return -1
	}

	// The cmp of this block may be modified, so flags must not live out.
	for _, s := range f.Successors(b) {
		if flagsLive.IsSet(s) {
			skipped(tr, "flags live into successor", "block", b, "succ", s)
			return -1
		}
	}

	for i := term - 1; i >= 0; i-- {
		switch x := code[i].(type) {
		case asm.Cmp:
			if x.Pred != asm.AL {
				skipped(tr, "predicated compare", "block", b, "i", i)
				return -1
			}

			if x.Sym != "" {
				skipped(tr, "symbolic immediate", "block", b, "i", i, "sym", x.Sym)
				return -1
			}

			// The adjustment arithmetic assumes a non-negative stored
			// immediate; otherwise abs would flip the comparand's sign.
			if x.Imm < 0 {
				skipped(tr, "negative immediate", "block", b, "i", i, "imm", x.Imm)
				return -1
			}

			return i
		default:
			// Any other flags access between cmp and branch gives up.
			if asm.ReadsFlags(x) || asm.WritesFlags(x) {
				return -1
			}
		}
	}

	skipped(tr, "flags not defined in block", "block", b)

	return -1
}

// adjustCmp computes an equivalent (imm, opcode, cond) shifted one step on
// the number line: GT -> GE, GE -> GT, LT -> LE, LE -> LT and unsigned
// counterparts. ok is false when no sound adjustment exists; the returned
// info then carries the original triple.
func adjustCmp(cmp asm.Cmp, cond asm.Cond) (CmpInfo, bool) {
	op := cmp.Op
	oldOp := op

	signed := isSigned(cond)

	// cmn stores the negated comparand ("x - (-imm)" == "x + imm").
	negative := op.IsCmn()

	correction := asm.Imm(-1)
	if cond == asm.GT || cond == asm.HI {
		correction = 1
	}

	if negative {
		correction = -correction
	}

	oldImm := cmp.Imm

	newImm := oldImm + correction
	if newImm < 0 {
		newImm = -newImm
	}

	// cmn 1 -> cmp 0: the logical comparand crossed zero from below.
	if oldImm == 1 && negative && correction == -1 {
		op = complementOpc(op)
	}

	// cmp 0 -> cmn 1: crossed zero from above.
	if oldImm == 0 && correction == -1 {
		op = complementOpc(op)
	}

	// An opcode change on an unsigned comparison means the comparand
	// crossed zero and the adjustment wrapped; the adjusted code would
	// differ from the modular wrap. cmn 0 -> cmn 1 crosses zero too,
	// with no opcode change to witness it.
	wrapped := op != oldOp || negative && oldImm == 0 && correction == 1

	if op == asm.OpInvalid || !signed && wrapped {
		return CmpInfo{Imm: oldImm, Op: oldOp, Cond: cond}, false
	}

	return CmpInfo{Imm: newImm, Op: op, Cond: adjustedCond(cond)}, true
}

// modifyCmp applies info to the compare at idx and to the block terminator.
// Feasibility must have been confirmed, there is no failure path.
func modifyCmp(tr tlog.Span, f *asm.Func, b, idx int, info CmpInfo) {
	cond := info.Cond

	if info.Imm == 0 {
		if cond == asm.GE {
			cond = asm.PL
		}
		if cond == asm.LT {
			cond = asm.MI
		}
	}

	blk := &f.Blocks[b]
	old := blk.Code[idx].(asm.Cmp)

	blk.Insert(idx, asm.Cmp{Op: info.Op, Rn: old.Rn, Imm: info.Imm, Pred: asm.AL})
	blk.Erase(idx + 1)

	// The compare was picked for this block's first terminator.
	term := f.FirstTerminator(b)
	br := blk.Code[term].(asm.BCond)

	blk.Insert(term, asm.BCond{Cond: cond, Block: br.Block})
	blk.Erase(term + 1)

	atomic.AddInt64(&numConditionsAdjusted, 1)

	tr.V("adjust").Printw("condition adjusted", "block", b, "cmp", blk.Code[idx], "cond", cond)
}

// adjustTo adjusts one compare to another if the result allows CSE.
func adjustTo(tr tlog.Span, f *asm.Func, b, idx int, cond asm.Cond, to asm.Cmp) bool {
	cmp := f.Blocks[b].Code[idx].(asm.Cmp)

	info, ok := adjustCmp(cmp, cond)
	if !ok || info.Imm != to.Imm || info.Op != to.Op {
		return false
	}

	modifyCmp(tr, f, b, idx, info)

	return true
}

func skipped(tr tlog.Span, msg string, kv ...any) {
	tr.V("skip").Printw(msg, append(kv, "from", loc.Caller(1))...)
}
