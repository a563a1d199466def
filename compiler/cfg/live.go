package cfg

import (
	"nikand.dev/go/heap"

	"github.com/slowlang/armopt/compiler/asm"
	"github.com/slowlang/armopt/compiler/set"
)

// FlagsLiveIn computes the set of blocks the flags register is live into.
// Backward dataflow: flags are live into a block if it reads them before
// writing them, or passes them through untouched into a live successor.
func FlagsLiveIn(f *asm.Func) set.Bits[int] {
	n := len(f.Blocks)

	use := make([]bool, n)
	def := make([]bool, n)

	for b := range f.Blocks {
		for _, x := range f.Blocks[b].Code {
			if asm.ReadsFlags(x) && !def[b] {
				use[b] = true
			}

			if asm.WritesFlags(x) {
				def[b] = true
			}
		}
	}

	post := Postorder(f)

	postnum := make([]int, n)
	for i, b := range post {
		postnum[b] = i
	}

	preds := Preds(f)

	live := set.MakeBits[int](n)
	queued := set.MakeBits[int](n)

	// Successors first converges the backward problem in few passes.
	q := heap.Heap[int]{
		Less: func(d []int, i, j int) bool { return postnum[d[i]] < postnum[d[j]] },
	}

	for _, b := range post {
		q.Push(b)
		queued.Set(b)
	}

	for q.Len() != 0 {
		b := q.Pop()
		queued.Clear(b)

		in := use[b]

		if !in && !def[b] {
			for _, s := range f.Successors(b) {
				if live.IsSet(s) {
					in = true
					break
				}
			}
		}

		if !in || live.IsSet(b) {
			continue
		}

		live.Set(b)

		for _, p := range preds[b] {
			if queued.IsSet(p) {
				continue
			}

			q.Push(p)
			queued.Set(p)
		}
	}

	return live
}
