package clock

import (
	"math"

	"github.com/tsinghua-fib-lab/racer-sim/utils/container"
)

// TimerHandle 定时器句柄，0表示无效句柄
type TimerHandle uint64

type timer struct {
	handle TimerHandle
	fn     func()
}

// TimerManager 延迟回调管理器
// 功能：支持“下一步执行”与“延迟若干秒执行”的一次性回调，按触发步排序执行
// 说明：回调只在Update中于仿真线程上同步执行；被取消的定时器不会执行。
// 回调持有者需要自行检查存活状态（例如组件已停用），管理器只保证顺序与取消语义。
type TimerManager struct {
	clock     *Clock
	queue     *container.PriorityQueue[*timer]
	cancelled map[TimerHandle]struct{}
	pending   map[TimerHandle]struct{}
	next      TimerHandle
}

// NewTimerManager 创建定时器管理器
func NewTimerManager(clock *Clock) *TimerManager {
	return &TimerManager{
		clock:     clock,
		queue:     container.NewPriorityQueue[*timer](),
		cancelled: make(map[TimerHandle]struct{}),
		pending:   make(map[TimerHandle]struct{}),
	}
}

// SetTimerForNextTick 在下一个仿真步执行回调
func (m *TimerManager) SetTimerForNextTick(fn func()) TimerHandle {
	return m.schedule(m.clock.InternalStep+1, fn)
}

// SetTimer 在delay秒后执行回调（向上取整到步，至少下一步）
func (m *TimerManager) SetTimer(delay float64, fn func()) TimerHandle {
	steps := int32(math.Ceil(delay/m.clock.DT - 1e-9))
	if steps < 1 {
		steps = 1
	}
	return m.schedule(m.clock.InternalStep+steps, fn)
}

func (m *TimerManager) schedule(step int32, fn func()) TimerHandle {
	m.next++
	h := m.next
	m.queue.HeapPush(&timer{handle: h, fn: fn}, float64(step))
	m.pending[h] = struct{}{}
	return h
}

// ClearTimer 取消尚未执行的定时器，对已执行或无效句柄无影响
func (m *TimerManager) ClearTimer(h TimerHandle) {
	if _, ok := m.pending[h]; ok {
		m.cancelled[h] = struct{}{}
	}
}

// IsPending 定时器是否仍在等待执行
func (m *TimerManager) IsPending(h TimerHandle) bool {
	if _, ok := m.cancelled[h]; ok {
		return false
	}
	_, ok := m.pending[h]
	return ok
}

// Pending 等待执行的定时器数量（含已取消但尚未出队的）
func (m *TimerManager) Pending() int {
	return m.queue.Len()
}

// Update 执行所有到期的回调
// 说明：回调中新设置的“下一步”定时器不会在本次Update中执行
func (m *TimerManager) Update() {
	now := float64(m.clock.InternalStep)
	for m.queue.Len() > 0 {
		if _, step := m.queue.Peek(); step > now {
			break
		}
		t, _ := m.queue.HeapPop()
		delete(m.pending, t.handle)
		if _, ok := m.cancelled[t.handle]; ok {
			delete(m.cancelled, t.handle)
			continue
		}
		t.fn()
	}
}
