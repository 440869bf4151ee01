package racer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/racer-sim/clock"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/entity/track"
	"github.com/tsinghua-fib-lab/racer-sim/rewind"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"github.com/tsinghua-fib-lab/racer-sim/utils/geometry"
)

// ControllerState 车手控制器状态
type ControllerState int

const (
	Unpossessed   ControllerState = iota // 未控制车辆
	Racing                               // 控制车辆比赛中
	RacingStopped                        // 已停赛，车辆减速
)

func (s ControllerState) String() string {
	switch s {
	case Unpossessed:
		return "unpossessed"
	case Racing:
		return "racing"
	case RacingStopped:
		return "racing-stopped"
	}
	return "unknown"
}

// RacerSnapshot 车手决策状态的快照
type RacerSnapshot struct {
	RaceState                 track.RaceState
	MovementTarget            mgl64.Vec3
	DesiredSpeedMph           float64
	TargetDistanceAlongSpline float64
}

// RacerController AI车手控制器
// 功能：持有RacerContext与全部决策组件，负责组件间事件连接、难度调校、回溯快照与附身生命周期
// 说明：状态转移 Unpossessed -> Racing -> RacingStopped -> Unpossessed
type RacerController struct {
	id  int32
	ctx entity.ITaskContext

	config       config.Racer
	difficulties IDifficultyProvider

	context RacerContext
	state   ControllerState
	// 每次附身或解除附身加一，延迟回调据此判断自己是否过期
	generation uint64

	Detector  *ObstacleDetector
	Avoidance *AvoidanceComponent
	Unstuck   *StuckDetector
	Follower  *SplineFollower
	Control   *VehicleControlComponent
	Barks     *BarkComponent

	history *rewind.History[RacerSnapshot]
	unwire  []func()
	timers  []clock.TimerHandle

	log *logrus.Entry
}

// NewRacerController 创建车手控制器
func NewRacerController(id int32, ctx entity.ITaskContext, difficulties IDifficultyProvider) *RacerController {
	c := &RacerController{
		id:           id,
		ctx:          ctx,
		config:       ctx.RuntimeConfig().All.Racer,
		difficulties: difficulties,
		log:          log.WithField("racer", id),
	}
	rw := ctx.Rewind()
	rewindConfig := config.Rewind{RecordingResolution: rw.RecordingResolution, MaxRecordingLength: rw.MaxRecordingLength}
	c.Detector = NewObstacleDetector(c, ctx.VehicleManager(), ctx.Visibility(), c.config.Detector, c.log.WithField("component", "detector"))
	c.Avoidance = NewAvoidanceComponent(c, c.log.WithField("component", "avoidance"))
	c.Unstuck = NewStuckDetector(c, ctx.Clock(), c.config.Unstuck, rewindConfig, c.log.WithField("component", "unstuck"))
	c.Follower = NewSplineFollower(c, c.config.Follower, c.log.WithField("component", "follower"))
	c.Control = NewVehicleControlComponent(c, c.config.VehicleControl, c.log.WithField("component", "control"))
	c.Barks = NewBarkComponent(c, ctx.Clock(), c.config.Barks, c.log.WithField("component", "barks"))
	c.history = rewind.NewHistory[RacerSnapshot](c, rewind.Resume, rewindConfig.RecordingResolution, rewindConfig.MaxRecordingLength)
	return c
}

func (c *RacerController) ID() int32 {
	return c.id
}

func (c *RacerController) State() ControllerState {
	return c.state
}

// RacerContext 实现IRacerContextProvider
func (c *RacerController) RacerContext() *RacerContext {
	return &c.context
}

// Vehicle 当前控制的车辆，未附身时为nil
func (c *RacerController) Vehicle() entity.IVehicle {
	return c.context.Vehicle
}

func (c *RacerController) String() string {
	return fmt.Sprintf("RacerController{id=%d state=%v %v}", c.id, c.state, &c.context)
}

// Possess 控制车辆开始比赛
// 功能：重置决策状态，选择赛道，应用难度，连接组件事件，登记回溯
// 返回：附近没有可用赛道时返回错误，控制器保持未附身
func (c *RacerController) Possess(vehicle entity.IVehicle, difficulty Difficulty) error {
	if vehicle == nil {
		log.Panicf("racer %d: possess nil vehicle", c.id)
	}
	if c.state != Unpossessed {
		c.UnPossess()
	}
	maxDistance := c.config.Controller.MaxTrackDistanceMeters * geometry.MetersToCm
	raceTrack, ok := c.ctx.TrackManager().SelectNearest(vehicle.FrontPosition(), maxDistance)
	if !ok {
		return fmt.Errorf("racer %d: no track within %.0fm of vehicle %d", c.id, c.config.Controller.MaxTrackDistanceMeters, vehicle.ID())
	}
	c.generation++
	c.context = RacerContext{
		Vehicle:         vehicle,
		RaceTrack:       raceTrack,
		RaceState:       track.NewRaceState(raceTrack),
		DesiredSpeedMph: c.config.VehicleControl.DefaultDesiredSpeedMph,
		Difficulty:      difficulty,
		Settings:        c.difficulties.Settings(difficulty),
	}
	c.context.RaceState.UpdateFromPosition(raceTrack, vehicle.FrontPosition())
	c.Unstuck.Reset()
	c.Follower.Reset()
	c.Control.Reset()
	c.Barks.Reset()
	c.history.ResetRewindHistory()

	c.wire()
	c.setComponentsActive(true)
	c.state = Racing

	generation := c.generation
	c.addTimers(
		c.ctx.Timers().SetTimer(c.config.Controller.TuningDelay, func() {
			if c.generation != generation || c.state != Racing {
				return
			}
			c.applyTuning()
		}),
		c.ctx.Timers().SetTimerForNextTick(func() {
			if c.generation != generation || c.state != Racing {
				return
			}
			c.Follower.SetInitialMovementTarget()
		}),
	)
	c.ctx.Rewind().Register(c.history)
	c.ctx.Rewind().Register(c.Unstuck.Rewindable())
	c.log.Infof("possessed vehicle %d on track %d, difficulty %v", vehicle.ID(), raceTrack.ID(), difficulty)
	return nil
}

// wire 连接组件事件：检测->避让->跟随，到达->选择下一目标，卡住->跟随与提示
func (c *RacerController) wire() {
	c.unwireAll()
	h1 := c.Detector.OnObstaclesUpdated.Add(c.Avoidance.OnObstaclesUpdated)
	h2 := c.Avoidance.OnAvoidanceUpdated.Add(c.Follower.OnVehicleAvoidancePositionUpdated)
	h3 := c.Follower.OnTargetUpdated.Add(c.Control.OnTargetUpdated)
	h4 := c.Control.OnTargetReached.Add(c.Follower.SelectNewMovementTarget)
	h5 := c.Unstuck.OnStuck.Add(c.Follower.OnStuck)
	h6 := c.Unstuck.OnStuck.Add(c.Barks.OnStuck)
	c.unwire = []func(){
		func() { c.Detector.OnObstaclesUpdated.Remove(h1) },
		func() { c.Avoidance.OnAvoidanceUpdated.Remove(h2) },
		func() { c.Follower.OnTargetUpdated.Remove(h3) },
		func() { c.Control.OnTargetReached.Remove(h4) },
		func() { c.Unstuck.OnStuck.Remove(h5) },
		func() { c.Unstuck.OnStuck.Remove(h6) },
	}
}

func (c *RacerController) unwireAll() {
	for _, f := range c.unwire {
		f()
	}
	c.unwire = nil
}

func (c *RacerController) setComponentsActive(active bool) {
	c.Detector.SetActive(active)
	c.Avoidance.SetActive(active)
	c.Unstuck.SetActive(active)
	c.Follower.SetActive(active)
	c.Control.SetActive(active)
	c.Barks.SetActive(active)
}

// addTimers 记录定时器句柄，同时丢弃已执行的句柄
func (c *RacerController) addTimers(hs ...clock.TimerHandle) {
	c.timers = lo.Filter(c.timers, func(h clock.TimerHandle, _ int) bool {
		return c.ctx.Timers().IsPending(h)
	})
	c.timers = append(c.timers, hs...)
}

// TimerCount 记录中的定时器句柄数量
func (c *RacerController) TimerCount() int {
	return len(c.timers)
}

func (c *RacerController) clearTimers() {
	for _, h := range c.timers {
		c.ctx.Timers().ClearTimer(h)
	}
	c.timers = nil
}

// applyTuning 对支持调校的车辆应用难度参数
func (c *RacerController) applyTuning() {
	tunable, ok := c.context.Vehicle.(entity.ITunableVehicle)
	if !ok {
		c.log.Debug("vehicle is not tunable")
		return
	}
	s := c.context.Settings
	tunable.SetABSEnabled(s.ABSEnabled)
	tunable.SetTractionControlEnabled(s.TractionControlEnabled)
	tunable.SetBrakingBoostMultiplier(s.BrakingBoostMultiplier)
	tunable.SetWheelLoadRatio(s.WheelLoadRatio)
	c.log.Debugf("applied %v tuning", c.context.Difficulty)
}

// UnPossess 解除控制
func (c *RacerController) UnPossess() {
	if c.state == Unpossessed {
		return
	}
	c.setComponentsActive(false)
	c.unwireAll()
	c.clearTimers()
	c.ctx.Rewind().Unregister(c.history)
	c.ctx.Rewind().Unregister(c.Unstuck.Rewindable())
	c.generation++
	c.log.Infof("unpossessed vehicle %d", c.context.Vehicle.ID())
	c.context.Vehicle = nil
	c.state = Unpossessed
}

// StopRacing 停赛：停用全部组件，下一步刹车并带一个随机转向偏差
// 说明：重复调用无影响；延迟一步执行以免与本步的AI输出冲突
func (c *RacerController) StopRacing() {
	if c.state != Racing {
		return
	}
	c.setComponentsActive(false)
	c.state = RacingStopped
	generation := c.generation
	c.addTimers(c.ctx.Timers().SetTimerForNextTick(func() {
		if c.generation != generation || c.context.Vehicle == nil {
			return
		}
		deviation := c.config.Controller.StopSteeringDeviation
		v := c.context.Vehicle
		v.SetThrottle(0)
		v.SetBrake(c.config.Controller.StopBrake)
		v.SetSteering(c.ctx.Rand().FloatRange(-deviation, deviation))
	}))
	c.log.Infof("stopped racing: %v", c.context.RaceState)
}

// UpdateRaceState 根据车头位置更新比赛进度
func (c *RacerController) UpdateRaceState() {
	if c.state == Unpossessed || c.context.Vehicle == nil || c.context.RaceTrack == nil {
		return
	}
	c.context.RaceState.UpdateFromPosition(c.context.RaceTrack, c.context.Vehicle.FrontPosition())
}

// Update 按检测、脱困、控制的顺序驱动组件
func (c *RacerController) Update(dt float64) {
	if c.state != Racing {
		return
	}
	c.Detector.Tick(dt)
	c.Unstuck.Tick(dt)
	c.Control.Tick(dt)
	c.Barks.Tick(dt)
}

// Rewindable 供回溯子系统登记的快照历史
func (c *RacerController) Rewindable() rewind.Rewindable {
	return c.history
}

func (c *RacerController) CaptureSnapshot() RacerSnapshot {
	return RacerSnapshot{
		RaceState:                 c.context.RaceState,
		MovementTarget:            c.context.MovementTarget,
		DesiredSpeedMph:           c.context.DesiredSpeedMph,
		TargetDistanceAlongSpline: c.context.TargetDistanceAlongSpline,
	}
}

// RestoreFromSnapshot 恢复决策状态，并同步到跟随与控制组件
func (c *RacerController) RestoreFromSnapshot(s RacerSnapshot, rewindTime float64) {
	c.context.RaceState = s.RaceState
	c.context.MovementTarget = s.MovementTarget
	c.context.DesiredSpeedMph = s.DesiredSpeedMph
	c.context.TargetDistanceAlongSpline = s.TargetDistanceAlongSpline
	if c.state == Racing {
		if c.context.RaceTrack != nil {
			c.Follower.RestoreFrom(splineStateAt(c.context.RaceTrack, s.TargetDistanceAlongSpline), s.MovementTarget)
		}
		c.Control.SetDesiredSpeedMph(s.DesiredSpeedMph)
		c.Control.SetMovementTarget(s.MovementTarget)
		c.Control.ClearTargetReached()
	}
	c.log.Debugf("restored snapshot, rewind %.2fs", rewindTime)
}
