package racer

import (
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/racer-sim/clock"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

// BarkCue 语音提示类型
type BarkCue int

const (
	CueStuck         BarkCue = iota // 卡住
	CuePassedRival                  // 超过参照车手
	CuePassedByRival                // 被参照车手超过
)

func (c BarkCue) String() string {
	switch c {
	case CueStuck:
		return "stuck"
	case CuePassedRival:
		return "passed-rival"
	case CuePassedByRival:
		return "passed-by-rival"
	}
	return "unknown"
}

// Bark 语音提示事件
type Bark struct {
	Vehicle entity.IVehicle
	Cue     BarkCue
}

// barkTickInterval 相对位置检查间隔（秒）
const barkTickInterval = 0.5

// BarkComponent 语音提示组件
// 功能：卡住、超车、被超车时发出提示事件，同一提示有冷却时间
type BarkComponent struct {
	provider IRacerContextProvider
	rival    IRacerContextProvider
	clock    *clock.Clock
	config   config.Barks
	ticker   *clock.Ticker

	// 上一次检查时是否领先参照车手
	lastAhead  bool
	hasLast    bool
	lastPlayed map[BarkCue]float64

	OnBark Event[Bark]

	log *logrus.Entry
}

func NewBarkComponent(provider IRacerContextProvider, clk *clock.Clock, c config.Barks, logger *logrus.Entry) *BarkComponent {
	b := &BarkComponent{
		provider:   provider,
		clock:      clk,
		config:     c,
		ticker:     clock.NewTicker(barkTickInterval),
		lastPlayed: make(map[BarkCue]float64),
		log:        logger,
	}
	b.ticker.SetEnabled(false)
	return b
}

func (b *BarkComponent) Active() bool {
	return b.ticker.Enabled()
}

func (b *BarkComponent) SetActive(active bool) {
	b.ticker.SetEnabled(active)
}

// SetRival 设置比较名次的参照车手，nil表示不比较
func (b *BarkComponent) SetRival(rival IRacerContextProvider) {
	b.rival = rival
	b.hasLast = false
}

// Reset 清空提示状态
func (b *BarkComponent) Reset() {
	b.hasLast = false
	clear(b.lastPlayed)
}

// OnStuck 卡住事件回调
func (b *BarkComponent) OnStuck(e Stuck) {
	if !b.Active() {
		return
	}
	b.play(e.Vehicle, CueStuck)
}

// Tick 组件Tick
func (b *BarkComponent) Tick(dt float64) {
	if ok, _ := b.ticker.Advance(dt); !ok {
		return
	}
	b.checkRelativePosition()
}

// checkRelativePosition 与参照车手比较总行驶距离，领先关系变化时提示
func (b *BarkComponent) checkRelativePosition() bool {
	if b.rival == nil {
		return false
	}
	rc := b.provider.RacerContext()
	rival := b.rival.RacerContext()
	if rc.Vehicle == nil || rival.Vehicle == nil {
		return false
	}
	ahead := rc.RaceState.TotalDistance()-rival.RaceState.TotalDistance() >= 0
	last, hasLast := b.lastAhead, b.hasLast
	b.lastAhead, b.hasLast = ahead, true
	if !hasLast || ahead == last {
		return false
	}
	return b.play(rc.Vehicle, lo.Ternary(ahead, CuePassedRival, CuePassedByRival))
}

// play 发出提示，处于冷却期内则忽略
func (b *BarkComponent) play(vehicle entity.IVehicle, cue BarkCue) bool {
	now := b.clock.T
	if last, ok := b.lastPlayed[cue]; ok && now-last <= b.config.Cooldown {
		return false
	}
	b.lastPlayed[cue] = now
	b.log.Infof("bark: %v", cue)
	b.OnBark.Broadcast(Bark{Vehicle: vehicle, Cue: cue})
	return true
}
