package track

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"github.com/tsinghua-fib-lab/racer-sim/utils/geometry"
)

// Track 折线表示的赛道样条
// 功能：提供沿样条的距离、方向、位置查询，以及世界坐标到样条距离的投影
// 说明：环形赛道在首尾之间补一段闭合线段；距离超出[0, Length]时截断
type Track struct {
	id      int32
	circuit bool
	laps    int32

	line        []mgl64.Vec3 // 控制点（环形赛道末尾重复首点）
	lineLengths []float64    // 控制点处的累计弧长，lineLengths[0]=0
	directions  []mgl64.Vec3 // 每段的单位方向，len(line)-1个
}

// New 从配置创建赛道
// 说明：相邻重合的控制点会被去除，去除后不足2个点则panic
func New(c config.Track) *Track {
	points := make([]mgl64.Vec3, 0, len(c.Points)+1)
	for _, p := range c.Points {
		v := mgl64.Vec3(p)
		if len(points) > 0 && geometry.DistanceSquared(points[len(points)-1], v) < geometry.SmallNumber {
			continue
		}
		points = append(points, v)
	}
	if c.Circuit && len(points) > 2 && geometry.DistanceSquared(points[0], points[len(points)-1]) >= geometry.SmallNumber {
		points = append(points, points[0])
	}
	if len(points) < 2 {
		log.Panicf("track %d: need at least 2 distinct points, got %d", c.ID, len(points))
	}
	t := &Track{
		id:          c.ID,
		circuit:     c.Circuit,
		laps:        lo.Ternary(c.Circuit && c.Laps > 0, c.Laps, 1),
		line:        points,
		lineLengths: make([]float64, len(points)),
		directions:  make([]mgl64.Vec3, len(points)-1),
	}
	for i := 1; i < len(points); i++ {
		seg := points[i].Sub(points[i-1])
		t.lineLengths[i] = t.lineLengths[i-1] + seg.Len()
		t.directions[i-1] = geometry.SafeNormal(seg)
	}
	return t
}

func (t *Track) String() string {
	return fmt.Sprintf("Track %d (length=%.0f circuit=%v laps=%d)", t.id, t.Length(), t.circuit, t.laps)
}

func (t *Track) ID() int32 {
	return t.id
}

func (t *Track) Length() float64 {
	return t.lineLengths[len(t.lineLengths)-1]
}

func (t *Track) IsCircuit() bool {
	return t.circuit
}

func (t *Track) Laps() int32 {
	return t.laps
}

// Points 控制点（只读）
func (t *Track) Points() []mgl64.Vec3 {
	return t.line
}

func (t *Track) clamp(d float64) float64 {
	if d < 0 || d > t.Length() {
		log.Debugf("track %d: distance %v out of range {0,%v}", t.id, d, t.Length())
		return lo.Clamp(d, 0, t.Length())
	}
	return d
}

// segment 距离d所在的线段下标与段内比例
func (t *Track) segment(d float64) (int, float64) {
	d = t.clamp(d)
	i := sort.SearchFloat64s(t.lineLengths, d)
	if i == 0 {
		return 0, 0
	}
	sLow, sHigh := t.lineLengths[i-1], t.lineLengths[i]
	return i - 1, (d - sLow) / (sHigh - sLow)
}

// LocationAtDistance 将样条距离转换为世界坐标
func (t *Track) LocationAtDistance(d float64) mgl64.Vec3 {
	i, k := t.segment(d)
	return geometry.Lerp(t.line[i], t.line[i+1], k)
}

// DirectionAtDistance 样条距离处的切线方向（单位向量）
// 说明：正好落在控制点上时取其后一段的方向，终点取最后一段
func (t *Track) DirectionAtDistance(d float64) mgl64.Vec3 {
	i, k := t.segment(d)
	if k >= 1 && i+1 < len(t.directions) {
		return t.directions[i+1]
	}
	return t.directions[i]
}

// InputKeyAtDistance 样条输入键：控制点下标加段内比例
func (t *Track) InputKeyAtDistance(d float64) float64 {
	i, k := t.segment(d)
	return float64(i) + k
}

// DistanceAlongSplineNearestTo 将世界坐标投影到赛道折线上，返回最近点的样条距离
func (t *Track) DistanceAlongSplineNearestTo(pos mgl64.Vec3) float64 {
	d, _ := t.project(pos)
	return d
}

// project 返回最近点的样条距离与到最近点的直线距离
func (t *Track) project(pos mgl64.Vec3) (float64, float64) {
	best, bestDistSqr := 0.0, math.Inf(1)
	for i := 0; i+1 < len(t.line); i++ {
		p, k := geometry.ClosestPointOnSegment(pos, t.line[i], t.line[i+1])
		if dd := geometry.DistanceSquared(p, pos); dd < bestDistSqr {
			bestDistSqr = dd
			best = t.lineLengths[i] + k*(t.lineLengths[i+1]-t.lineLengths[i])
		}
	}
	return best, math.Sqrt(bestDistSqr)
}
