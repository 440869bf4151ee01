package rewind_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/racer-sim/rewind"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

// counter 每步加一的被回溯对象
type counter struct {
	value    int
	restored []float64
}

func (c *counter) CaptureSnapshot() int {
	return c.value
}

func (c *counter) RestoreFromSnapshot(s int, rewindTime float64) {
	c.value = s
	c.restored = append(c.restored, rewindTime)
}

func advance(c *counter, h *rewind.History[int], steps int) {
	for i := 0; i < steps; i++ {
		c.value++
		h.Tick(0.1)
	}
}

func TestHistoryRecordAndBound(t *testing.T) {
	c := &counter{}
	h := rewind.NewHistory[int](c, rewind.Immediate, 0.1, 1)
	advance(c, h, 30)
	// 最多保留floor(1/0.1)+1个快照
	assert.Equal(t, 11, h.Len())
}

func TestHistoryImmediateRestore(t *testing.T) {
	c := &counter{}
	h := rewind.NewHistory[int](c, rewind.Immediate, 0.1, 10)
	advance(c, h, 10) // 快照1..10

	h.PauseRecordingSnapshots() // 再记录一次10
	assert.True(t, h.Paused())
	h.SetRewindTime(0.5) // 下标 11-(5+1)=5 -> 值6
	assert.Equal(t, 6, c.value)
	assert.Equal(t, []float64{0.5}, c.restored)

	// 超出已记录范围时跳过，保留上一次的选择
	h.SetRewindTime(100)
	assert.Equal(t, 6, c.value)
	assert.Len(t, c.restored, 1)

	h.SetRewindTime(0.5)
	h.ResumeRecordingSnapshots()
	assert.Equal(t, 6, h.Len())
	assert.False(t, h.Paused())
}

func TestHistoryResumeTiming(t *testing.T) {
	c := &counter{}
	h := rewind.NewHistory[int](c, rewind.Resume, 0.1, 10)
	advance(c, h, 10)
	h.PauseRecordingSnapshots()
	h.SetRewindTime(0.3)
	// Resume时机不立即恢复
	assert.Equal(t, 10, c.value)
	h.ResumeRecordingSnapshots()
	h.RecalculateOnRewind()
	assert.Equal(t, 8, c.value)
}

func TestHistoryEmptyRewindSkipped(t *testing.T) {
	c := &counter{value: 3}
	h := rewind.NewHistory[int](c, rewind.Immediate, 0.1, 10)
	h.SetRewindTime(1)
	assert.Equal(t, 3, c.value)
	assert.Empty(t, c.restored)

	advance(c, h, 5)
	h.ResetRewindHistory()
	assert.Equal(t, 0, h.Len())
	h.RecalculateOnRewind()
	assert.Empty(t, c.restored)
}

func TestManagerLifecycle(t *testing.T) {
	m := rewind.NewManager(config.Rewind{RecordingResolution: 0.1, MaxRecordingLength: 10})
	c := &counter{}
	h := rewind.NewHistory[int](c, rewind.Resume, m.RecordingResolution, m.MaxRecordingLength)
	m.Register(h)
	m.Register(h)
	assert.Equal(t, 1, m.Len())

	for i := 0; i < 20; i++ {
		c.value++
		m.Update(0.1)
	}
	m.EnterRewind()
	assert.True(t, m.IsRewinding())
	m.Update(0.1)
	assert.Equal(t, 21, h.Len())

	m.SetRewindTime(1.0)
	c.value = 99
	m.ExitRewind()
	assert.False(t, m.IsRewinding())
	// 下标 21-(10+1)=10 -> 值11
	assert.Equal(t, 11, c.value)
	assert.Equal(t, 11, h.Len())

	m.Unregister(h)
	assert.Equal(t, 0, m.Len())
}

func TestHistoryOutOfRangeSkipped(t *testing.T) {
	c := &counter{}
	h := rewind.NewHistory[int](c, rewind.Resume, 0.1, 10)
	advance(c, h, 3)
	h.PauseRecordingSnapshots()
	h.SetRewindTime(2)
	h.ResumeRecordingSnapshots()
	h.RecalculateOnRewind()
	assert.Equal(t, 3, c.value)
	assert.Empty(t, c.restored)
	assert.Equal(t, 4, h.Len())
}

func TestManagerSecondRewindWithoutScrub(t *testing.T) {
	m := rewind.NewManager(config.Rewind{RecordingResolution: 0.1, MaxRecordingLength: 10})
	c := &counter{}
	h := rewind.NewHistory[int](c, rewind.Resume, m.RecordingResolution, m.MaxRecordingLength)
	m.Register(h)
	record := func(steps int) {
		for i := 0; i < steps; i++ {
			c.value++
			m.Update(0.1)
		}
	}

	record(10)
	m.EnterRewind()
	m.SetRewindTime(0.5)
	m.ExitRewind()
	// 快照1..10加暂停时的10，回到下标5 -> 值6
	assert.Equal(t, 6, c.value)
	assert.Equal(t, 6, h.Len())

	record(10)
	assert.Equal(t, 16, c.value)
	before := h.Len()
	m.EnterRewind()
	m.ExitRewind()
	assert.Equal(t, 16, c.value)
	assert.Equal(t, before+1, h.Len())
	assert.Len(t, c.restored, 1)
}

func TestManagerCancelRewind(t *testing.T) {
	m := rewind.NewManager(config.Rewind{RecordingResolution: 0.1, MaxRecordingLength: 10})
	c := &counter{}
	h := rewind.NewHistory[int](c, rewind.Immediate, m.RecordingResolution, m.MaxRecordingLength)
	m.Register(h)
	for i := 0; i < 10; i++ {
		c.value++
		m.Update(0.1)
	}
	m.EnterRewind()
	m.SetRewindTime(0.5)
	assert.Equal(t, 6, c.value)

	m.CancelRewind()
	assert.False(t, m.IsRewinding())
	assert.False(t, h.Paused())
	// 回到暂停时的状态，历史不截断
	assert.Equal(t, 10, c.value)
	assert.Equal(t, 11, h.Len())
	m.CancelRewind()
	assert.Equal(t, 11, h.Len())
}
