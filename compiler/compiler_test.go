package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeSmoke(t *testing.T) {
	ctx := context.Background()

	obj, err := Optimize(ctx, "smoke.s", []byte(`
func range_check
b0:
	cmp r8, #4
	bgt b2
	b b1
b1:
	mov r0, #0
	b b3
b2:
	cmp r8, #6
	blt b3
	b b1
b3:
	ret
`))
	require.NoError(t, err)

	t.Logf("result:\n%s", obj)

	s := string(obj)

	assert.Contains(t, s, "cmp r8, #5\n\tbge b2")
	assert.Contains(t, s, "cmp r8, #5\n\tble b3")
	assert.NotContains(t, s, "#4")
	assert.NotContains(t, s, "#6")
}

func TestOptimizeRoundTrip(t *testing.T) {
	ctx := context.Background()

	// nothing to adjust, the listing survives untouched
	text := `func id
entry:
	mov r0, r1
	ret
`

	obj, err := Optimize(ctx, "id.s", []byte(text))
	require.NoError(t, err)

	assert.Equal(t, text, string(obj))
}
