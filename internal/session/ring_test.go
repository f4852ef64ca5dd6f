package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingEvictsOldest(t *testing.T) {
	t.Parallel()

	r := NewRing[int](3)
	assert.Nil(t, r.Items())

	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	assert.Equal(t, []int{3, 4, 5}, r.Items())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.Capacity())
}

func TestRingPartialAndReset(t *testing.T) {
	t.Parallel()

	r := NewRing[string](4)
	r.Push("a")
	r.Push("b")
	assert.Equal(t, []string{"a", "b"}, r.Items())

	r.Reset()
	assert.Equal(t, 0, r.Len())
	r.Push("c")
	assert.Equal(t, []string{"c"}, r.Items())
}

func TestRingZeroCapacity(t *testing.T) {
	t.Parallel()

	r := NewRing[int](0)
	r.Push(1)
	r.Push(2)
	assert.Equal(t, []int{2}, r.Items())
}
