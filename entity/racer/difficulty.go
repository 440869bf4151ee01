package racer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

// Difficulty 难度档位
type Difficulty int

const (
	Easy Difficulty = iota
	Normal
	Hard
)

var difficultyNames = map[Difficulty]string{
	Easy:   "easy",
	Normal: "normal",
	Hard:   "hard",
}

func (d Difficulty) String() string {
	if s, ok := difficultyNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Difficulty(%d)", int(d))
}

// ParseDifficulty 解析难度名称（大小写不敏感）
func ParseDifficulty(s string) (Difficulty, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d, n := range difficultyNames {
		if n == name {
			return d, nil
		}
	}
	return Easy, fmt.Errorf("unknown difficulty %q", s)
}

// CurveKey 曲线关键点
type CurveKey struct {
	X, Y float64
}

// Curve 分段线性曲线，X超出范围时取端点值
type Curve struct {
	Keys []CurveKey // 按X升序
}

// NewCurve 由[x, y]点对构造曲线，自动按X排序
func NewCurve(points [][2]float64) Curve {
	keys := lo.Map(points, func(p [2]float64, _ int) CurveKey { return CurveKey{X: p[0], Y: p[1]} })
	sort.Slice(keys, func(i, j int) bool { return keys[i].X < keys[j].X })
	return Curve{Keys: keys}
}

func (c Curve) Empty() bool {
	return len(c.Keys) == 0
}

// Eval 求曲线在x处的值
func (c Curve) Eval(x float64) float64 {
	n := len(c.Keys)
	if n == 0 {
		return 0
	}
	if x <= c.Keys[0].X {
		return c.Keys[0].Y
	}
	if x >= c.Keys[n-1].X {
		return c.Keys[n-1].Y
	}
	i := sort.Search(n, func(i int) bool { return c.Keys[i].X >= x })
	a, b := c.Keys[i-1], c.Keys[i]
	k := (x - a.X) / (b.X - a.X)
	return a.Y + k*(b.Y-a.Y)
}

// DifficultySettings 难度调校参数
type DifficultySettings struct {
	MinSpeedMph            float64
	MaxSpeedMph            float64
	ABSEnabled             bool
	TractionControlEnabled bool
	BrakingBoostMultiplier float64
	WheelLoadRatio         float64
	SpeedVsCurvature       Curve
}

// SpeedFactor 曲率对应的速度系数，未配置曲线时为1-曲率
func (s DifficultySettings) SpeedFactor(curvature float64) float64 {
	if s.SpeedVsCurvature.Empty() {
		return 1 - curvature
	}
	return s.SpeedVsCurvature.Eval(curvature)
}

// IDifficultyProvider 按难度档位提供调校参数
type IDifficultyProvider interface {
	Settings(d Difficulty) DifficultySettings
}

// DifficultyProvider 基于配置的难度调校表
type DifficultyProvider struct {
	tiers map[Difficulty]DifficultySettings
}

// NewDifficultyProvider 由配置创建难度表，档位名称非法时panic
func NewDifficultyProvider(tiers map[string]config.DifficultyTier) *DifficultyProvider {
	p := &DifficultyProvider{tiers: make(map[Difficulty]DifficultySettings, len(tiers))}
	for name, t := range tiers {
		d, err := ParseDifficulty(name)
		if err != nil {
			log.Panicf("difficulty table: %v", err)
		}
		p.tiers[d] = DifficultySettings{
			MinSpeedMph:            t.MinSpeedMph,
			MaxSpeedMph:            t.MaxSpeedMph,
			ABSEnabled:             t.ABS,
			TractionControlEnabled: t.TractionControl,
			BrakingBoostMultiplier: t.BrakingBoost,
			WheelLoadRatio:         t.WheelLoadRatio,
			SpeedVsCurvature:       NewCurve(t.SpeedVsCurvature),
		}
	}
	return p
}

// Settings 获取档位参数，档位未配置时退回Normal，仍没有则panic
func (p *DifficultyProvider) Settings(d Difficulty) DifficultySettings {
	if s, ok := p.tiers[d]; ok {
		return s
	}
	if s, ok := p.tiers[Normal]; ok {
		log.Warnf("difficulty %v not configured, fall back to normal", d)
		return s
	}
	log.Panicf("difficulty %v not configured", d)
	return DifficultySettings{}
}
