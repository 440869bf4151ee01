package task

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"github.com/tsinghua-fib-lab/racer-sim/utils/geometry"
)

type sphere struct {
	center mgl64.Vec3
	radius float64
}

// OccluderVisibility 基于球形遮挡物的视线检测
// 说明：线段与任一球体相交即视为被遮挡；没有遮挡物时总是可见
type OccluderVisibility struct {
	occluders []sphere
}

func NewOccluderVisibility(cs []config.Occluder) *OccluderVisibility {
	return &OccluderVisibility{
		occluders: lo.Map(cs, func(c config.Occluder, _ int) sphere {
			if c.Radius <= 0 {
				log.Panicf("occluder at %v: radius must be positive, got %v", c.Center, c.Radius)
			}
			return sphere{center: mgl64.Vec3(c.Center), radius: c.Radius}
		}),
	}
}

// LineOfSight 从from到to的线段是否未被遮挡
func (v *OccluderVisibility) LineOfSight(from, to mgl64.Vec3) bool {
	return !lo.ContainsBy(v.occluders, func(s sphere) bool {
		closest, _ := geometry.ClosestPointOnSegment(s.center, from, to)
		return geometry.DistanceSquared(closest, s.center) < s.radius*s.radius
	})
}
