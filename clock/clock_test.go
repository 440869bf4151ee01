package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/racer-sim/clock"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

func newClock() *clock.Clock {
	return clock.New(config.ControlStep{Start: 0, Total: 100, Interval: 0.1})
}

func TestClockAdvance(t *testing.T) {
	c := newClock()
	assert.Equal(t, 0.0, c.T)
	for i := 0; i < 10; i++ {
		c.Advance()
	}
	assert.Equal(t, int32(10), c.InternalStep)
	assert.InDelta(t, 1.0, c.T, 1e-12)
	assert.Equal(t, "00:01.00", c.String())
	assert.False(t, c.Finished())
}

func TestTickerInterval(t *testing.T) {
	tk := clock.NewTicker(0.2)
	fired := 0
	for i := 0; i < 10; i++ {
		if ok, dt := tk.Advance(0.1); ok {
			fired++
			assert.InDelta(t, 0.2, dt, 1e-12)
		}
	}
	assert.Equal(t, 5, fired)

	tk.SetEnabled(false)
	tk.SetEnabled(false)
	ok, _ := tk.Advance(1)
	assert.False(t, ok)

	every := clock.NewTicker(0)
	ok, dt := every.Advance(0.05)
	assert.True(t, ok)
	assert.Equal(t, 0.05, dt)
}

func TestTimerNextTick(t *testing.T) {
	c := newClock()
	m := clock.NewTimerManager(c)
	order := []int{}
	m.SetTimerForNextTick(func() {
		order = append(order, 1)
		// 回调中设置的定时器在下一步执行
		m.SetTimerForNextTick(func() { order = append(order, 3) })
	})
	m.SetTimerForNextTick(func() { order = append(order, 2) })

	m.Update()
	assert.Empty(t, order)

	c.Advance()
	m.Update()
	assert.Equal(t, []int{1, 2}, order)

	c.Advance()
	m.Update()
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.Equal(t, 0, m.Pending())
}

func TestTimerDelayAndCancel(t *testing.T) {
	c := newClock()
	m := clock.NewTimerManager(c)
	fired := false
	h := m.SetTimer(0.5, func() { fired = true })
	cancelled := m.SetTimer(0.2, func() { t.Fatal("cancelled timer fired") })
	m.ClearTimer(cancelled)
	assert.False(t, m.IsPending(cancelled))
	assert.True(t, m.IsPending(h))

	for i := 0; i < 4; i++ {
		c.Advance()
		m.Update()
	}
	assert.False(t, fired)
	c.Advance()
	m.Update()
	assert.True(t, fired)
	assert.False(t, m.IsPending(h))
}
