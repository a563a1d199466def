package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/armopt/compiler/asm"
)

func cmpBlock(name string, to, fall int) asm.Block {
	return asm.Block{
		Name: name,
		Code: []asm.Instr{
			asm.Cmp{Op: asm.OpCmpA32, Rn: 0, Imm: 1, Pred: asm.AL},
			asm.BCond{Cond: asm.EQ, Block: to},
			asm.B{Block: fall},
		},
	}
}

func plainBlock(name string, to int) asm.Block {
	return asm.Block{Name: name, Code: []asm.Instr{asm.B{Block: to}}}
}

func retBlock(name string) asm.Block {
	return asm.Block{Name: name, Code: []asm.Instr{asm.Ret{}}}
}

func diamond() *asm.Func {
	return &asm.Func{
		Name: "diamond",
		Blocks: []asm.Block{
			cmpBlock("b0", 2, 1),
			plainBlock("b1", 3),
			plainBlock("b2", 3),
			retBlock("b3"),
		},
	}
}

func TestPostorder(t *testing.T) {
	f := diamond()

	post := Postorder(f)

	require.Len(t, post, 4)
	assert.Equal(t, asm.Entry, post[len(post)-1])

	pos := make([]int, len(f.Blocks))
	for i, b := range post {
		pos[b] = i
	}

	// every successor is ordered before its predecessor on tree edges
	assert.Greater(t, pos[0], pos[1])
	assert.Greater(t, pos[0], pos[2])
	assert.Greater(t, pos[1], pos[3])
}

func TestDominatorsDiamond(t *testing.T) {
	f := diamond()

	dom := Dominators(f)

	assert.Equal(t, []int{0, 0, 0, 0}, dom.Idom)

	assert.True(t, dom.Dominates(0, 3))
	assert.True(t, dom.Dominates(2, 2))
	assert.False(t, dom.Dominates(1, 3))
	assert.False(t, dom.Dominates(3, 0))
}

func TestDominatorsChain(t *testing.T) {
	f := &asm.Func{
		Name: "chain",
		Blocks: []asm.Block{
			cmpBlock("b0", 1, 3),
			cmpBlock("b1", 2, 3),
			plainBlock("b2", 3),
			retBlock("b3"),
		},
	}

	dom := Dominators(f)

	assert.Equal(t, []int{0, 0, 1, 0}, dom.Idom)
	assert.True(t, dom.Dominates(1, 2))
	assert.False(t, dom.Dominates(2, 3))
}

func TestDominatorsLoop(t *testing.T) {
	f := &asm.Func{
		Name: "loop",
		Blocks: []asm.Block{
			plainBlock("b0", 1),
			cmpBlock("b1", 1, 2),
			retBlock("b2"),
		},
	}

	dom := Dominators(f)

	assert.Equal(t, []int{0, 0, 1}, dom.Idom)
	assert.True(t, dom.Dominates(1, 1))
	assert.True(t, dom.Dominates(0, 2))
}

func TestDominatorsUnreachable(t *testing.T) {
	f := &asm.Func{
		Name: "unreachable",
		Blocks: []asm.Block{
			plainBlock("b0", 2),
			retBlock("b1"),
			retBlock("b2"),
		},
	}

	dom := Dominators(f)

	assert.Equal(t, -1, dom.Idom[1])

	visited := []int{}
	dom.Preorder(func(b int) { visited = append(visited, b) })

	assert.Equal(t, []int{0, 2}, visited)
}

func TestPreorderParentFirst(t *testing.T) {
	f := diamond()

	dom := Dominators(f)

	pos := map[int]int{}
	i := 0

	dom.Preorder(func(b int) {
		pos[b] = i
		i++
	})

	require.Len(t, pos, 4)

	for b := 1; b < 4; b++ {
		assert.Less(t, pos[dom.Idom[b]], pos[b], "block %d after its idom", b)
	}
}
