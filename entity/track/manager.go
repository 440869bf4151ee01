package track

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

// completionTieEpsilon 完成比例差在此范围内视为并列，按物理距离决胜
const completionTieEpsilon = 1e-3

// TrackManager 赛道管理器
// 功能：维护赛道注册表，按ID查找，并为车辆选择最合适的赛道
type TrackManager struct {
	data   map[int32]*Track
	tracks []*Track
}

func NewManager() *TrackManager {
	return &TrackManager{
		data:   make(map[int32]*Track),
		tracks: make([]*Track, 0),
	}
}

// Init 根据配置初始化所有赛道
func (m *TrackManager) Init(cs []config.Track) {
	m.tracks = lo.Map(cs, func(c config.Track, _ int) *Track { return New(c) })
	m.data = lo.SliceToMap(m.tracks, func(t *Track) (int32, *Track) {
		return t.id, t
	})
	if len(m.data) != len(m.tracks) {
		log.Panic("duplicate track id")
	}
	for _, t := range m.tracks {
		log.Infof("%v", t)
	}
}

// Get 根据ID获取赛道，不存在则panic
func (m *TrackManager) Get(id int32) entity.ITrack {
	if t, ok := m.data[id]; !ok {
		log.Panicf("no id %d in track data", id)
		return nil
	} else {
		return t
	}
}

// GetOrError 根据ID获取赛道，不存在则返回错误
func (m *TrackManager) GetOrError(id int32) (entity.ITrack, error) {
	if t, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in track data", id)
	} else {
		return t, nil
	}
}

func (m *TrackManager) Tracks() []entity.ITrack {
	return lo.Map(m.tracks, func(t *Track, _ int) entity.ITrack { return t })
}

// SelectNearest 为位置pos选择赛道
// 算法说明：
// 1. 只考虑pos到赛道折线最近距离不超过maxDistance的赛道
// 2. 选择完成比例（最近点样条距离/赛道长度）最小的赛道
// 3. 完成比例并列时选择物理距离更近的赛道
// 返回：选中的赛道，无合格赛道时返回false
func (m *TrackManager) SelectNearest(pos mgl64.Vec3, maxDistance float64) (entity.ITrack, bool) {
	var best *Track
	bestFraction, bestDistance := math.Inf(1), math.Inf(1)
	for _, t := range m.tracks {
		d, dist := t.project(pos)
		if dist > maxDistance {
			continue
		}
		fraction := d / t.Length()
		switch {
		case fraction < bestFraction-completionTieEpsilon,
			math.Abs(fraction-bestFraction) <= completionTieEpsilon && dist < bestDistance:
			best, bestFraction, bestDistance = t, fraction, dist
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}
