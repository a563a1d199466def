package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/armopt/compiler/asm"
)

func TestParse(t *testing.T) {
	ff, err := Parse(context.Background(), []byte(`
func clamp
b0:
	cmp r8, #4	; head compare
	bgt b2
	b b1
b1:
	movs r0, r1
	b b3
b2:
	cmn.w r8, #0x6
	blt b3
b3:
	bx lr
`))
	require.NoError(t, err)
	require.Len(t, ff, 1)

	f := ff[0]

	assert.Equal(t, "clamp", f.Name)
	require.Len(t, f.Blocks, 4)

	assert.Equal(t, asm.Cmp{Op: asm.OpCmpA32, Rn: 8, Imm: 4, Pred: asm.AL}, f.Blocks[0].Code[0])
	assert.Equal(t, asm.BCond{Cond: asm.GT, Block: 2}, f.Blocks[0].Code[1])
	assert.Equal(t, asm.B{Block: 1}, f.Blocks[0].Code[2])

	assert.Equal(t, asm.Other{Name: "movs r0, r1", WritesFlags: true}, f.Blocks[1].Code[0])

	assert.Equal(t, asm.Cmp{Op: asm.OpCmnT32, Rn: 8, Imm: 6, Pred: asm.AL}, f.Blocks[2].Code[0])
	assert.Equal(t, asm.BCond{Cond: asm.LT, Block: 3}, f.Blocks[2].Code[1])

	assert.Equal(t, asm.Ret{}, f.Blocks[3].Code[0])
}

func TestParsePredicatedAndSymbolic(t *testing.T) {
	ff, err := Parse(context.Background(), []byte(`
func f
b0:
	cmpgt r0, #3
	cmp r1, #limit
	movgt r0, #1
	ret
`))
	require.NoError(t, err)

	code := ff[0].Blocks[0].Code

	assert.Equal(t, asm.Cmp{Op: asm.OpCmpA32, Rn: 0, Imm: 3, Pred: asm.GT}, code[0])
	assert.Equal(t, asm.Cmp{Op: asm.OpCmpA32, Rn: 1, Sym: "limit", Pred: asm.AL}, code[1])
	assert.Equal(t, asm.Other{Name: "movgt r0, #1", ReadsFlags: true}, code[2])
}

func TestParseNegativeImmediate(t *testing.T) {
	ff, err := Parse(context.Background(), []byte(`
func f
b0:
	cmp r0, #-3
	bge b1
b1:
	ret
`))
	require.NoError(t, err)

	assert.Equal(t, asm.Cmp{Op: asm.OpCmpA32, Rn: 0, Imm: -3, Pred: asm.AL}, ff[0].Blocks[0].Code[0])
}

func TestParseMultipleFuncs(t *testing.T) {
	ff, err := Parse(context.Background(), []byte(`
func a
entry:
	ret

func b
entry:
	ret
`))
	require.NoError(t, err)
	require.Len(t, ff, 2)

	assert.Equal(t, "a", ff[0].Name)
	assert.Equal(t, "b", ff[1].Name)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(context.Background(), []byte("func f\nb0:\n\tb nowhere\n"))
	assert.ErrorContains(t, err, "unknown label")

	_, err = Parse(context.Background(), []byte("func f\n\tret\n"))
	assert.ErrorContains(t, err, "outside block")

	_, err = Parse(context.Background(), []byte("func f\nb0:\n\tcmp r0\n"))
	assert.ErrorContains(t, err, "two operands")
}
