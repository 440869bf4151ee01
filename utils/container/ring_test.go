package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/racer-sim/utils/container"
)

func TestRingFill(t *testing.T) {
	r := container.NewRing[int](3)
	assert.Equal(t, 3, r.Cap())
	assert.False(t, r.Full())
	assert.Equal(t, 0, r.Newest())

	r.Push(1)
	r.Push(2)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 1, r.Oldest())
	assert.Equal(t, 2, r.Newest())

	r.Push(3)
	assert.True(t, r.Full())
	assert.Equal(t, 0, r.NextIndex())
	assert.Equal(t, 1, r.Oldest())
	assert.Equal(t, 3, r.Newest())

	// 覆盖最早元素后，最早元素位于下一次写入的位置
	r.Push(4)
	assert.Equal(t, 4, r.Count())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 2, r.Oldest())
	assert.Equal(t, 4, r.Newest())
}

func TestRingResetIdempotent(t *testing.T) {
	r := container.NewRing[int](4)
	for i := 0; i < 6; i++ {
		r.Push(i)
	}
	for i := 0; i < 2; i++ {
		r.Reset()
		assert.False(t, r.Full())
		assert.Equal(t, 0, r.NextIndex())
		assert.Equal(t, 0, r.Count())
	}
}

func TestRingStateRestore(t *testing.T) {
	r := container.NewRing[string](2)
	r.Push("a")
	r.Push("b")
	r.Push("c")
	s := r.State()

	r.Reset()
	r.Push("x")
	r.Restore(s)
	assert.Equal(t, "b", r.Oldest())
	assert.Equal(t, "c", r.Newest())
	assert.Equal(t, 3, r.Count())

	// 快照是值拷贝
	s.Data[0] = "z"
	assert.Equal(t, "c", r.Newest())

	assert.Panics(t, func() {
		container.NewRing[string](5).Restore(s)
	})
}
