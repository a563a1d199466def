package cfg

import (
	"github.com/slowlang/armopt/compiler/asm"
	"github.com/slowlang/armopt/compiler/set"
)

type (
	// DomTree is the dominator tree of a function's blocks.
	// Idom[asm.Entry] == asm.Entry, unreachable blocks get -1.
	DomTree struct {
		Idom []int

		children [][]int
	}

	blockAndIndex struct {
		b     int
		index int // number of successor edges of b already explored
	}
)

// Postorder returns a DFS postordering of the reachable blocks.
func Postorder(f *asm.Func) []int {
	seen := set.MakeBits[int](len(f.Blocks))
	order := make([]int, 0, len(f.Blocks))

	s := make([]blockAndIndex, 0, 32)
	s = append(s, blockAndIndex{b: asm.Entry})
	seen.Set(asm.Entry)

	for len(s) > 0 {
		tos := len(s) - 1
		x := s[tos]

		succ := f.Successors(x.b)

		if i := x.index; i < len(succ) {
			s[tos].index++

			if bb := succ[i]; !seen.IsSet(bb) {
				seen.Set(bb)
				s = append(s, blockAndIndex{b: bb})
			}

			continue
		}

		s = s[:tos]
		order = append(order, x.b)
	}

	return order
}

// Preds returns predecessor lists for every block.
func Preds(f *asm.Func) [][]int {
	preds := make([][]int, len(f.Blocks))

	for b := range f.Blocks {
		for _, s := range f.Successors(b) {
			preds[s] = append(preds[s], b)
		}
	}

	return preds
}

// Dominators builds the dominator tree.
// Cooper, Harvey, Kennedy iterative relaxation over reverse postorder.
func Dominators(f *asm.Func) *DomTree {
	post := Postorder(f)

	postnum := make([]int, len(f.Blocks))
	for i := range postnum {
		postnum[i] = -1
	}
	for i, b := range post {
		postnum[b] = i
	}

	preds := Preds(f)

	idom := make([]int, len(f.Blocks))
	for i := range idom {
		idom[i] = -1
	}

	idom[asm.Entry] = asm.Entry

	for {
		changed := false

		for i := len(post) - 2; i >= 0; i-- {
			b := post[i]

			d := -1

			for _, p := range preds[b] {
				if postnum[p] < 0 || idom[p] < 0 {
					continue
				}

				if d < 0 {
					d = p
					continue
				}

				d = intersect(d, p, postnum, idom)
			}

			if d >= 0 && d != idom[b] {
				idom[b] = d
				changed = true
			}
		}

		if !changed {
			break
		}
	}

	t := &DomTree{
		Idom:     idom,
		children: make([][]int, len(idom)),
	}

	for b, p := range idom {
		if b == asm.Entry || p < 0 {
			continue
		}

		t.children[p] = append(t.children[p], b)
	}

	return t
}

// intersect finds the closest common dominator of b and c.
func intersect(b, c int, postnum, idom []int) int {
	for b != c {
		if postnum[b] < postnum[c] {
			b = idom[b]
		} else {
			c = idom[c]
		}
	}

	return b
}

// Preorder visits reachable blocks parent before children.
// A visited block may be mutated by the visitor as long as the
// block and edge topology stays intact.
func (t *DomTree) Preorder(visit func(b int)) {
	s := make([]int, 0, 32)
	s = append(s, asm.Entry)

	for len(s) > 0 {
		b := s[len(s)-1]
		s = s[:len(s)-1]

		visit(b)

		ch := t.children[b]

		for i := len(ch) - 1; i >= 0; i-- {
			s = append(s, ch[i])
		}
	}
}

// Dominates reports whether a dominates b. A block dominates itself.
func (t *DomTree) Dominates(a, b int) bool {
	if t.Idom[b] < 0 {
		return false
	}

	for {
		if b == a {
			return true
		}

		p := t.Idom[b]
		if p == b {
			return false
		}

		b = p
	}
}
