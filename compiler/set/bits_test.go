package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBits(t *testing.T) {
	s := MakeBits[int](4)

	assert.Equal(t, 0, s.Size())

	s.Set(1)
	s.Set(3)
	s.Set(200) // beyond the inline buffer

	assert.True(t, s.IsSet(1))
	assert.True(t, s.IsSet(200))
	assert.False(t, s.IsSet(2))
	assert.False(t, s.IsSet(500))

	assert.Equal(t, 3, s.Size())

	s.Clear(3)
	s.Clear(500)

	assert.False(t, s.IsSet(3))
	assert.Equal(t, 2, s.Size())

	var got []int
	s.Range(func(k int) bool {
		got = append(got, k)
		return true
	})

	assert.Equal(t, []int{1, 200}, got)
}
