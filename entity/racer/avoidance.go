package racer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/utils/geometry"
)

// AvoidanceComponent 避让组件
// 功能：接收障碍物检测结果，为每个候选车辆计算威胁向量，汇总为一个避让信号
// 说明：没有威胁时同样广播（零向量），下游据此清除之前的避让状态
type AvoidanceComponent struct {
	provider IRacerContextProvider
	active   bool

	last AvoidanceContext

	OnAvoidanceUpdated Event[AvoidanceUpdated]

	log *logrus.Entry
}

func NewAvoidanceComponent(provider IRacerContextProvider, logger *logrus.Entry) *AvoidanceComponent {
	return &AvoidanceComponent{provider: provider, log: logger}
}

func (a *AvoidanceComponent) Active() bool {
	return a.active
}

func (a *AvoidanceComponent) SetActive(active bool) {
	a.active = active
}

// Last 最近一次广播的避让结果
func (a *AvoidanceComponent) Last() AvoidanceContext {
	return a.last
}

// OnObstaclesUpdated 障碍物检测结果回调
func (a *AvoidanceComponent) OnObstaclesUpdated(e ObstaclesUpdated) {
	if !a.active {
		return
	}
	rc := a.provider.RacerContext()
	tc, ok := newThreatContext(rc)
	if !ok {
		a.log.Debug("avoidance skipped: no distance to movement target")
		return
	}
	a.last = ComputeAvoidance(tc, e.Obstacles)
	a.OnAvoidanceUpdated.Broadcast(AvoidanceUpdated{Vehicle: e.Vehicle, Context: a.last})
}

// ComputeAvoidance 汇总所有候选车辆的威胁
// 返回：threatVector为威胁向量和的单位向量，normalizedThreatScore为和的长度（不超过1）
func ComputeAvoidance(tc ThreatContext, obstacles []entity.IVehicle) AvoidanceContext {
	var sum mgl64.Vec3
	count := 0
	for _, o := range obstacles {
		if v, ok := threatVector(tc, o); ok {
			sum = sum.Add(v)
			count++
		}
	}
	return AvoidanceContext{
		ThreatVector:          geometry.SafeNormal(sum),
		NormalizedThreatScore: math.Min(sum.Len(), 1),
		ThreatCount:           count,
	}
}

// threatVector 单个候选车辆的威胁向量
// 算法说明：
// 1. 本车车头指向候选车尾的向量toThreat，过短则忽略
// 2. 拦截时间t=(本车速度-候选车速度)/|toThreat|，为负表示候选车拉开距离
// 3. 候选车在t内行驶的距离超过本车到目标的距离则不会与本车路径相交
// 4. 比值r=(到目标距离-候选车行驶距离)/到目标距离，先截断到[0,1]再平方作为得分，时间越近得分越高
func threatVector(tc ThreatContext, candidate entity.IVehicle) (mgl64.Vec3, bool) {
	toThreat := candidate.BackPosition().Sub(tc.ReferencePosition)
	dist := toThreat.Len()
	if dist < minDistanceToTarget {
		return mgl64.Vec3{}, false
	}
	egoSpeed := geometry.MphToCmPerSecond(tc.SpeedMph)
	candidateSpeed := geometry.MphToCmPerSecond(candidate.ForwardSpeedMph())
	t := (egoSpeed - candidateSpeed) / dist
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	candidateDistance := candidateSpeed * t
	if candidateDistance > tc.DistanceToTarget {
		return mgl64.Vec3{}, false
	}
	score := lo.Clamp((tc.DistanceToTarget-candidateDistance)/tc.DistanceToTarget, 0, 1)
	score *= score
	return toThreat.Mul(score / dist), true
}
