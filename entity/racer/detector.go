package racer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/racer-sim/clock"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"github.com/tsinghua-fib-lab/racer-sim/utils/geometry"
)

// ObstacleDetector 障碍物检测组件
// 功能：按固定间隔扫描其他车辆，筛选出位于前方且可能构成威胁的车辆并广播
// 说明：候选车辆列表惰性填充，列表为空时才重新从车辆管理器获取
type ObstacleDetector struct {
	provider   IRacerContextProvider
	vehicles   entity.IVehicleManager
	visibility entity.IVisibility

	config config.Detector
	ticker *clock.Ticker

	candidates []entity.IVehicle

	OnObstaclesUpdated Event[ObstaclesUpdated]

	log *logrus.Entry
}

// NewObstacleDetector 创建障碍物检测组件，初始为停用状态
func NewObstacleDetector(
	provider IRacerContextProvider,
	vehicles entity.IVehicleManager,
	visibility entity.IVisibility,
	c config.Detector,
	logger *logrus.Entry,
) *ObstacleDetector {
	d := &ObstacleDetector{
		provider:   provider,
		vehicles:   vehicles,
		visibility: visibility,
		config:     c,
		ticker:     clock.NewTicker(c.TickInterval),
		log:        logger,
	}
	d.ticker.SetEnabled(false)
	return d
}

func (d *ObstacleDetector) Active() bool {
	return d.ticker.Enabled()
}

// SetActive 启用或停用，停用后不再广播任何事件
func (d *ObstacleDetector) SetActive(active bool) {
	d.ticker.SetEnabled(active)
	if !active {
		d.candidates = nil
	}
}

// thresholdCm 检测距离阈值（厘米）
func (d *ObstacleDetector) thresholdCm() float64 {
	return d.config.DistanceThresholdMeters * geometry.MetersToCm
}

// Tick 组件Tick
func (d *ObstacleDetector) Tick(dt float64) {
	if ok, _ := d.ticker.Advance(dt); !ok {
		return
	}
	d.Detect()
}

// Detect 执行一次检测并广播结果
// 返回：检测到的威胁车辆，第二个返回值表示本次检测是否有效
func (d *ObstacleDetector) Detect() ([]entity.IVehicle, bool) {
	rc := d.provider.RacerContext()
	if rc.Vehicle == nil || rc.RaceTrack == nil {
		d.log.Warn("obstacle detection skipped: no vehicle or race track")
		return nil, false
	}
	tc, ok := newThreatContext(rc)
	if !ok {
		d.log.Debug("obstacle detection skipped: vehicle is on its movement target")
		return nil, false
	}
	obstacles := lo.Filter(d.getCandidates(rc.Vehicle), func(c entity.IVehicle, _ int) bool {
		return d.IsPotentialThreat(rc, tc, c)
	})
	d.log.Debugf("detected %d obstacles", len(obstacles))
	d.OnObstaclesUpdated.Broadcast(ObstaclesUpdated{Vehicle: rc.Vehicle, Obstacles: obstacles})
	return obstacles, true
}

// getCandidates 获取候选车辆，剔除已离开仿真的车辆
func (d *ObstacleDetector) getCandidates(ego entity.IVehicle) []entity.IVehicle {
	if len(d.candidates) > 0 {
		d.candidates = lo.Filter(d.candidates, func(v entity.IVehicle, _ int) bool {
			return d.vehicles.Contains(v.ID())
		})
	}
	if len(d.candidates) == 0 {
		d.candidates = lo.Filter(d.vehicles.Vehicles(), func(v entity.IVehicle, _ int) bool {
			return v.ID() != ego.ID()
		})
	}
	return d.candidates
}

// IsPotentialThreat 判断候选车辆是否构成潜在威胁
// 算法说明：
// 1. 候选车尾相对本车车头位于移动方向后方：不是威胁
// 2. 直线距离超过阈值：不是威胁
// 3. 本车看不到候选车上方的点：不是威胁
// 4. 候选车的赛道距离与本车目标赛道距离相差超过阈值：不是威胁
func (d *ObstacleDetector) IsPotentialThreat(rc *RacerContext, tc ThreatContext, candidate entity.IVehicle) bool {
	toCandidate := candidate.BackPosition().Sub(tc.ReferencePosition)
	if toCandidate.Dot(tc.ToTarget) < 0 {
		return false
	}
	threshold := d.thresholdCm()
	if toCandidate.LenSqr() > threshold*threshold {
		return false
	}
	if d.visibility != nil {
		sight := candidate.TopPosition().Add(mgl64.Vec3{0, 0, d.config.SightHeightOffset})
		if !d.visibility.LineOfSight(rc.Vehicle.TopPosition(), sight) {
			return false
		}
	}
	if rc.RaceTrack != nil {
		candidateD := rc.RaceTrack.DistanceAlongSplineNearestTo(candidate.Location())
		if splineGap(rc.RaceTrack, candidateD, rc.TargetDistanceAlongSpline) > threshold {
			return false
		}
	}
	return true
}

// splineGap 两个赛道距离之差，环形赛道考虑首尾相接
func splineGap(t entity.ITrack, a, b float64) float64 {
	gap := math.Abs(a - b)
	if t.IsCircuit() {
		gap = math.Min(gap, t.Length()-gap)
	}
	return gap
}
