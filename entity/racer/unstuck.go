package racer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/racer-sim/clock"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/rewind"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"github.com/tsinghua-fib-lab/racer-sim/utils/container"
	"github.com/tsinghua-fib-lab/racer-sim/utils/geometry"
)

// StuckState 卡住检测的阶段
type StuckState int

const (
	Collecting StuckState = iota // 样本不足
	Monitoring                   // 样本充足，监控平均位移
	Cooldown                     // 刚发生卡住事件或油门换向，缓冲区已清空
)

func (s StuckState) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case Monitoring:
		return "monitoring"
	case Cooldown:
		return "cooldown"
	}
	return "unknown"
}

// stuckSample 缓冲区中的一个样本
type stuckSample struct {
	Position         mgl64.Vec3 // 车头位置
	ThrottlePositive bool       // 油门输入>=0
}

// StuckSnapshot 卡住检测组件的快照
type StuckSnapshot struct {
	Window                container.RingState[stuckSample]
	State                 StuckState
	HasStarted            bool
	ConsecutiveStuckCount int32
	LastStuckTime         float64
}

// StuckDetector 卡住检测组件
// 功能：以环形缓冲区记录最近minStuckTime内的车头位置与油门方向，平均速度过低时判定卡住并给出脱困目标
// 说明：车辆还没有真正移动过（hasStarted=false）时不会判定卡住
type StuckDetector struct {
	provider IRacerContextProvider
	clock    *clock.Clock

	config config.Unstuck
	ticker *clock.Ticker

	window                *container.Ring[stuckSample]
	state                 StuckState
	hasStarted            bool
	consecutiveStuckCount int32
	lastStuckTime         float64

	history *rewind.History[StuckSnapshot]

	OnStuck Event[Stuck]

	log *logrus.Entry
}

// NewStuckDetector 创建卡住检测组件，初始为停用状态
// 说明：缓冲区容量为minStuckTime/tickInterval（向上取整）
func NewStuckDetector(
	provider IRacerContextProvider,
	clk *clock.Clock,
	c config.Unstuck,
	rc config.Rewind,
	logger *logrus.Entry,
) *StuckDetector {
	if c.TickInterval <= 0 || c.MinStuckTime <= 0 {
		log.Panicf("bad unstuck config: %+v", c)
	}
	samples := int(math.Ceil(c.MinStuckTime/c.TickInterval - 1e-6))
	s := &StuckDetector{
		provider:      provider,
		clock:         clk,
		config:        c,
		ticker:        clock.NewTicker(c.TickInterval),
		window:        container.NewRing[stuckSample](samples),
		lastStuckTime: math.Inf(-1),
		log:           logger,
	}
	s.ticker.SetEnabled(false)
	s.history = rewind.NewHistory[StuckSnapshot](s, rewind.Resume, rc.RecordingResolution, rc.MaxRecordingLength)
	return s
}

func (s *StuckDetector) Active() bool {
	return s.ticker.Enabled()
}

func (s *StuckDetector) SetActive(active bool) {
	s.ticker.SetEnabled(active)
}

// Rewindable 供回溯子系统登记的快照历史
func (s *StuckDetector) Rewindable() rewind.Rewindable {
	return s.history
}

func (s *StuckDetector) State() StuckState {
	return s.state
}

func (s *StuckDetector) HasStarted() bool {
	return s.hasStarted
}

func (s *StuckDetector) ConsecutiveStuckCount() int32 {
	return s.consecutiveStuckCount
}

// MinNumSamples 判定前需要的样本数
func (s *StuckDetector) MinNumSamples() int {
	return s.window.Cap()
}

// SufficientSamples 缓冲区是否已被写满
func (s *StuckDetector) SufficientSamples() bool {
	return s.window.Full()
}

// NextIndex 下一次写入的缓冲区位置
func (s *StuckDetector) NextIndex() int {
	return s.window.NextIndex()
}

// ResetBuffer 清空缓冲区，重复调用结果相同
func (s *StuckDetector) ResetBuffer() {
	s.window.Reset()
	s.state = Cooldown
}

// Tick 组件Tick
func (s *StuckDetector) Tick(dt float64) {
	if ok, _ := s.ticker.Advance(dt); !ok {
		return
	}
	rc := s.provider.RacerContext()
	if rc.Vehicle == nil {
		s.log.Warn("stuck detector disabled: no vehicle")
		s.SetActive(false)
		return
	}
	s.Sample(rc)
}

// Sample 记录一个样本并进行卡住判定
// 返回：本次是否触发卡住事件
func (s *StuckDetector) Sample(rc *RacerContext) bool {
	vehicle := rc.Vehicle
	current := stuckSample{
		Position:         vehicle.FrontPosition(),
		ThrottlePositive: vehicle.ThrottleInput() >= 0,
	}
	s.window.Push(current)
	if !s.window.Full() {
		s.state = Collecting
		return false
	}
	s.state = Monitoring

	oldest := s.window.Oldest()
	if current.ThrottlePositive != oldest.ThrottlePositive {
		s.log.Debugf("throttle direction changed %v -> %v", oldest.ThrottlePositive, current.ThrottlePositive)
		s.ResetBuffer()
		return false
	}

	displacement := current.Position.Sub(oldest.Position)
	averageSpeedSq := displacement.LenSqr() / s.config.MinStuckTime
	if averageSpeedSq >= s.config.MinAverageSpeed*s.config.MinAverageSpeed {
		s.hasStarted = true
		return false
	}
	if !s.hasStarted {
		s.ResetBuffer()
		return false
	}

	now := s.clock.T
	if now-s.lastStuckTime > 2*s.config.MinStuckTime || s.consecutiveStuckCount >= s.config.MaxOffsets {
		s.consecutiveStuckCount = 1
	} else {
		s.consecutiveStuckCount++
	}
	s.lastStuckTime = now
	s.ResetBuffer()

	seek := s.idealSeekPosition(rc)
	permanent := s.consecutiveStuckCount >= s.config.MaxOffsets || s.IsFlippedOver(vehicle)
	s.log.Infof("vehicle stuck (%d x), average speed %.1fcm/s, seek %v, permanent=%v",
		s.consecutiveStuckCount, math.Sqrt(averageSpeedSq), seek, permanent)
	s.OnStuck.Broadcast(Stuck{
		Vehicle:               vehicle,
		IdealSeekPosition:     seek,
		ConsecutiveStuckCount: s.consecutiveStuckCount,
		PermanentlyStuck:      permanent,
	})
	return true
}

// IsFlippedOver 车身向上方向与竖直方向的夹角是否达到翻车阈值
func (s *StuckDetector) IsFlippedOver(vehicle entity.IVehicle) bool {
	cos := lo.Clamp(geometry.SafeNormal(vehicle.Up()).Dot(mgl64.Vec3{0, 0, 1}), -1, 1)
	angle := mgl64.RadToDeg(math.Acos(cos))
	return angle >= s.config.FlippedOverAngle
}

// idealSeekPosition 脱困目标：倒车时向前找，否则向后找，距离随连续卡住次数增加
func (s *StuckDetector) idealSeekPosition(rc *RacerContext) mgl64.Vec3 {
	vehicle := rc.Vehicle
	offset := s.config.UnstuckSeekOffset * float64(s.consecutiveStuckCount)
	if vehicle.ThrottleInput() < 0 {
		return vehicle.FrontPosition().Add(vehicle.Forward().Mul(offset))
	}
	return vehicle.BackPosition().Sub(vehicle.Forward().Mul(offset))
}

// Reset 附身时重置全部状态
func (s *StuckDetector) Reset() {
	s.window.Reset()
	s.state = Collecting
	s.hasStarted = false
	s.consecutiveStuckCount = 0
	s.lastStuckTime = math.Inf(-1)
	s.history.ResetRewindHistory()
}

func (s *StuckDetector) CaptureSnapshot() StuckSnapshot {
	return StuckSnapshot{
		Window:                s.window.State(),
		State:                 s.state,
		HasStarted:            s.hasStarted,
		ConsecutiveStuckCount: s.consecutiveStuckCount,
		LastStuckTime:         s.lastStuckTime,
	}
}

// RestoreFromSnapshot 恢复快照
// 说明：仿真时钟没有回退，lastStuckTime需要加上回溯时间才能保持相对间隔
func (s *StuckDetector) RestoreFromSnapshot(snapshot StuckSnapshot, rewindTime float64) {
	s.log.Debugf("restore stuck detector, rewind %.2fs", rewindTime)
	s.window.Restore(snapshot.Window)
	s.state = snapshot.State
	s.hasStarted = snapshot.HasStarted
	s.consecutiveStuckCount = snapshot.ConsecutiveStuckCount
	s.lastStuckTime = snapshot.LastStuckTime + rewindTime
}
