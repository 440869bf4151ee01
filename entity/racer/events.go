package racer

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/entity/track"
)

// EventHandle 事件订阅句柄
type EventHandle int

type subscriber[T any] struct {
	handle EventHandle
	fn     func(T)
}

// Event 多播事件
// 功能：按订阅顺序同步调用所有处理函数
// 说明：广播期间增删订阅不影响本次广播
type Event[T any] struct {
	subscribers []subscriber[T]
	next        EventHandle
}

// Add 订阅事件
func (e *Event[T]) Add(fn func(T)) EventHandle {
	e.next++
	e.subscribers = append(e.subscribers, subscriber[T]{handle: e.next, fn: fn})
	return e.next
}

// Remove 取消订阅，对无效句柄无影响
func (e *Event[T]) Remove(h EventHandle) {
	for i, s := range e.subscribers {
		if s.handle == h {
			e.subscribers = append(e.subscribers[:i:i], e.subscribers[i+1:]...)
			return
		}
	}
}

func (e *Event[T]) Clear() {
	e.subscribers = nil
}

func (e *Event[T]) Len() int {
	return len(e.subscribers)
}

// Broadcast 广播事件
func (e *Event[T]) Broadcast(v T) {
	subscribers := e.subscribers
	for _, s := range subscribers {
		s.fn(v)
	}
}

// ObstaclesUpdated 障碍物检测结果
type ObstaclesUpdated struct {
	Vehicle   entity.IVehicle
	Obstacles []entity.IVehicle
}

// AvoidanceUpdated 避让计算结果，即使没有威胁也会发出
type AvoidanceUpdated struct {
	Vehicle entity.IVehicle
	Context AvoidanceContext
}

// TargetUpdated 移动目标或期望速度更新
type TargetUpdated struct {
	Vehicle         entity.IVehicle
	Target          mgl64.Vec3
	DesiredSpeedMph float64
}

// TargetReached 到达移动目标
type TargetReached struct {
	Vehicle entity.IVehicle
	Target  mgl64.Vec3
}

// Stuck 卡住事件
type Stuck struct {
	Vehicle               entity.IVehicle
	IdealSeekPosition     mgl64.Vec3
	ConsecutiveStuckCount int32
	PermanentlyStuck      bool
}

// RaceCompleted 没有后续目标，本车比赛结束
type RaceCompleted struct {
	Vehicle   entity.IVehicle
	RaceState track.RaceState
}
