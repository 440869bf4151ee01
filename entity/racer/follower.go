package racer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

// endOfSplineTolerance 判定到达样条末端的距离容差（厘米）
const endOfSplineTolerance = 1e-3

// SplineFollower 赛道跟随组件
// 功能：沿赛道样条按前瞻距离推进移动目标，并根据前方弯曲程度调整期望速度
// 说明：事件驱动，没有自己的Tick；卡住事件会用脱困位置临时覆盖移动目标
type SplineFollower struct {
	provider IRacerContextProvider
	config   config.Follower
	active   bool

	lastSplineState SplineState
	hasLast         bool

	// 当前目标为脱困目标，到达后回到lastSplineState
	overridden bool
	// 下一次选择目标时从车头最近的样条距离重新锚定
	reanchor  bool
	completed bool

	OnTargetUpdated Event[TargetUpdated]
	OnRaceCompleted Event[RaceCompleted]

	log *logrus.Entry
}

func NewSplineFollower(provider IRacerContextProvider, c config.Follower, logger *logrus.Entry) *SplineFollower {
	return &SplineFollower{provider: provider, config: c, log: logger}
}

func (f *SplineFollower) Active() bool {
	return f.active
}

func (f *SplineFollower) SetActive(active bool) {
	f.active = active
}

// Reset 附身时清空跟随状态
func (f *SplineFollower) Reset() {
	f.lastSplineState = SplineState{}
	f.hasLast = false
	f.overridden = false
	f.reanchor = false
	f.completed = false
}

// RestoreFrom 回溯恢复后重建跟随状态
// 参数：state-恢复的样条目标，target-恢复的移动目标
// 说明：移动目标不在样条目标上时说明快照处于脱困覆盖中，到达后回到state；重新锚定与完赛标记清除
func (f *SplineFollower) RestoreFrom(state SplineState, target mgl64.Vec3) {
	f.lastSplineState, f.hasLast = state, true
	f.overridden = !target.ApproxEqualThreshold(state.WorldLocation, endOfSplineTolerance)
	f.reanchor = false
	f.completed = false
}

// LastSplineState 最近一次选择的样条目标
func (f *SplineFollower) LastSplineState() (SplineState, bool) {
	return f.lastSplineState, f.hasLast
}

// Completed 是否已没有后续目标
func (f *SplineFollower) Completed() bool {
	return f.completed
}

// GetInitialSplineState 样条起点
func (f *SplineFollower) GetInitialSplineState(rc *RacerContext) SplineState {
	return splineStateAt(rc.RaceTrack, 0)
}

// GetNextSplineState 计算下一个样条目标
// 参数：overrideDistance-大于0时代替前瞻距离
// 返回：目标距离=min(当前目标距离+前瞻距离, 样条长度)；已在样条末端时返回false。
// 环形赛道在还有剩余圈数时从起点重新开始
func (f *SplineFollower) GetNextSplineState(rc *RacerContext, overrideDistance float64) (SplineState, bool) {
	t := rc.RaceTrack
	if t == nil {
		return SplineState{}, false
	}
	step := lo.Ternary(overrideDistance > 0, overrideDistance, f.config.LookaheadDistance)
	length := t.Length()
	prev := rc.TargetDistanceAlongSpline
	if prev >= length-endOfSplineTolerance {
		if !t.IsCircuit() || rc.RaceState.LapCount+1 >= t.Laps() {
			return SplineState{}, false
		}
		prev = 0
	}
	return splineStateAt(t, math.Min(prev+step, length)), true
}

// CalculateDesiredSpeed 根据前方弯曲程度计算期望速度
// 算法说明：curvature=(1-dot(当前方向, 前瞻方向))/2，直道为0，掉头接近1；
// 速度=clamp(maxSpeed×speedFactor(curvature), minSpeed, maxSpeed)
func (f *SplineFollower) CalculateDesiredSpeed(rc *RacerContext, state SplineState) float64 {
	t := rc.RaceTrack
	ahead := state.DistanceAlongSpline + f.config.LookaheadDistance*f.config.CurvatureLookaheadFactor
	if t.IsCircuit() {
		ahead = math.Mod(ahead, t.Length())
	}
	curvature := lo.Clamp((1-state.Direction.Dot(t.DirectionAtDistance(ahead)))*0.5, 0, 1)
	s := rc.Settings
	return lo.Clamp(s.MaxSpeedMph*s.SpeedFactor(curvature), s.MinSpeedMph, s.MaxSpeedMph)
}

// SetInitialMovementTarget 附身后的首个目标：从起点锚定，按车头所在位置向前推进一个前瞻距离
func (f *SplineFollower) SetInitialMovementTarget() {
	if !f.active {
		return
	}
	rc := f.provider.RacerContext()
	if rc.Vehicle == nil || rc.RaceTrack == nil {
		f.log.Warn("cannot set initial movement target: no vehicle or race track")
		return
	}
	initial := f.GetInitialSplineState(rc)
	rc.TargetDistanceAlongSpline = initial.DistanceAlongSpline
	f.lastSplineState, f.hasLast = initial, true

	next, ok := f.GetNextSplineState(rc, f.startDistance(rc)+f.config.LookaheadDistance)
	if !ok {
		f.complete(rc)
		return
	}
	f.apply(rc, next)
}

// startDistance 车头在样条上的位置；环形赛道上刚过起点之前的位置视为0
func (f *SplineFollower) startDistance(rc *RacerContext) float64 {
	t := rc.RaceTrack
	d := t.DistanceAlongSplineNearestTo(rc.Vehicle.FrontPosition())
	if t.IsCircuit() && d > t.Length()/2 {
		return 0
	}
	return d
}

// SelectNewMovementTarget 到达目标后选择下一个目标
func (f *SplineFollower) SelectNewMovementTarget(e TargetReached) {
	if !f.active || f.completed {
		return
	}
	rc := f.provider.RacerContext()
	if rc.RaceTrack == nil {
		f.log.Warn("cannot select movement target: no race track")
		return
	}
	if f.reanchor && rc.Vehicle != nil {
		rc.TargetDistanceAlongSpline = rc.RaceTrack.DistanceAlongSplineNearestTo(rc.Vehicle.FrontPosition())
		f.reanchor, f.overridden = false, false
		f.log.Infof("re-anchored onto spline at %.1f", rc.TargetDistanceAlongSpline)
	} else if f.overridden && f.hasLast {
		// 脱困后回到原来的样条目标
		f.overridden = false
		f.apply(rc, f.lastSplineState)
		return
	}
	next, ok := f.GetNextSplineState(rc, 0)
	if !ok {
		f.complete(rc)
		return
	}
	f.apply(rc, next)
}

func (f *SplineFollower) apply(rc *RacerContext, state SplineState) {
	rc.MovementTarget = state.WorldLocation
	rc.TargetDistanceAlongSpline = state.DistanceAlongSpline
	rc.DesiredSpeedMph = f.CalculateDesiredSpeed(rc, state)
	f.lastSplineState, f.hasLast = state, true
	f.log.Debugf("new movement target %v at %.1f, speed %.1fmph", state.WorldLocation, state.DistanceAlongSpline, rc.DesiredSpeedMph)
	f.OnTargetUpdated.Broadcast(TargetUpdated{Vehicle: rc.Vehicle, Target: rc.MovementTarget, DesiredSpeedMph: rc.DesiredSpeedMph})
}

func (f *SplineFollower) complete(rc *RacerContext) {
	f.completed = true
	f.log.Infof("race completed: %v", rc.RaceState)
	f.OnRaceCompleted.Broadcast(RaceCompleted{Vehicle: rc.Vehicle, RaceState: rc.RaceState})
}

// OnStuck 卡住事件回调：直接以脱困位置作为移动目标
func (f *SplineFollower) OnStuck(e Stuck) {
	if !f.active || f.completed {
		return
	}
	rc := f.provider.RacerContext()
	rc.MovementTarget = e.IdealSeekPosition
	f.overridden = true
	if e.PermanentlyStuck {
		f.reanchor = true
	}
	f.OnTargetUpdated.Broadcast(TargetUpdated{Vehicle: e.Vehicle, Target: rc.MovementTarget, DesiredSpeedMph: rc.DesiredSpeedMph})
}

// OnVehicleAvoidancePositionUpdated 避让结果回调，目前不改变移动目标
func (f *SplineFollower) OnVehicleAvoidancePositionUpdated(e AvoidanceUpdated) {
}
