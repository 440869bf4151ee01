package racer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/entity/track"
)

// RacerContext 每辆AI车的共享决策状态
// 功能：由RacerController独占持有，各组件通过IRacerContextProvider读写
// 说明：所有写入都在仿真线程的组件回调中同步进行
type RacerContext struct {
	Vehicle   entity.IVehicle // 附身期间控制的车辆，解除附身时清空
	RaceTrack entity.ITrack   // 本场比赛的赛道

	MovementTarget  mgl64.Vec3 // 当前转向目标
	DesiredSpeedMph float64    // 期望车速

	RaceState                 track.RaceState
	TargetDistanceAlongSpline float64 // MovementTarget对应的样条距离

	Difficulty Difficulty
	Settings   DifficultySettings
}

func (c *RacerContext) String() string {
	vid := int32(-1)
	if c.Vehicle != nil {
		vid = c.Vehicle.ID()
	}
	return fmt.Sprintf("RacerContext{vehicle=%d target=%v speed=%.1f targetD=%.1f %v}",
		vid, c.MovementTarget, c.DesiredSpeedMph, c.TargetDistanceAlongSpline, c.RaceState)
}

// IRacerContextProvider 组件获取共享决策状态的接口，避免组件直接依赖RacerController
type IRacerContextProvider interface {
	RacerContext() *RacerContext
}

// SplineState 样条上的一个目标点
type SplineState struct {
	SplineKey           float64
	DistanceAlongSpline float64
	Direction           mgl64.Vec3
	WorldLocation       mgl64.Vec3
}

// splineStateAt 计算样条距离d处的目标点
func splineStateAt(t entity.ITrack, d float64) SplineState {
	return SplineState{
		SplineKey:           t.InputKeyAtDistance(d),
		DistanceAlongSpline: d,
		Direction:           t.DirectionAtDistance(d),
		WorldLocation:       t.LocationAtDistance(d),
	}
}

// AvoidanceContext 避让组件的输出
type AvoidanceContext struct {
	ThreatVector          mgl64.Vec3 // 单位向量，无威胁时为零向量
	NormalizedThreatScore float64    // [0, 1]
	ThreatCount           int
}

// ThreatContext 一次威胁评估的参考量
type ThreatContext struct {
	ReferencePosition mgl64.Vec3 // 本车车头
	ToTarget          mgl64.Vec3 // 指向移动目标的单位向量
	DistanceToTarget  float64
	SpeedMph          float64
}

// newThreatContext 由共享状态构造威胁评估参考量
// 说明：车辆缺失或车头与目标重合时返回false
func newThreatContext(rc *RacerContext) (ThreatContext, bool) {
	if rc.Vehicle == nil {
		return ThreatContext{}, false
	}
	ref := rc.Vehicle.FrontPosition()
	delta := rc.MovementTarget.Sub(ref)
	dist := delta.Len()
	if dist < minDistanceToTarget {
		return ThreatContext{}, false
	}
	return ThreatContext{
		ReferencePosition: ref,
		ToTarget:          delta.Mul(1 / dist),
		DistanceToTarget:  dist,
		SpeedMph:          rc.Vehicle.ForwardSpeedMph(),
	}, true
}

// minDistanceToTarget 车头到目标的最小有效距离（厘米）
const minDistanceToTarget = 1e-2
