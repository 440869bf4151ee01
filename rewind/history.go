package rewind

import (
	"math"
)

// RestoreTiming 快照恢复时机
type RestoreTiming int

const (
	// Immediate 设置回溯时间时立即恢复，用于需要实时呈现的状态
	Immediate RestoreTiming = iota
	// Resume 退出回溯、恢复运行时才恢复，用于决策等非呈现状态
	Resume
)

// Rewindable 可回溯对象，由Manager统一驱动
type Rewindable interface {
	Tick(dt float64)
	SetRewindTime(t float64)
	PauseRecordingSnapshots()
	ResumeRecordingSnapshots()
	ResetRewindHistory()
	RecalculateOnRewind()
	CancelRewind()
}

// Snapshotter 快照的采集与恢复，由具体组件实现
type Snapshotter[S any] interface {
	CaptureSnapshot() S
	RestoreFromSnapshot(s S, rewindTime float64)
}

// History 快照历史
// 功能：按固定分辨率记录快照，最多保留maxRecordingLength/resolution个，支持按回溯时间恢复
// 说明：快照按时间顺序存放，最新的在末尾
type History[S any] struct {
	owner      Snapshotter[S]
	timing     RestoreTiming
	resolution float64
	maxCount   int

	snapshots  []S
	lastIndex  int // 最近一次SetRewindTime选中的下标，-1表示无
	rewindTime float64
	paused     bool
	elapsed    float64
}

// NewHistory 创建快照历史
func NewHistory[S any](owner Snapshotter[S], timing RestoreTiming, resolution, maxRecordingLength float64) *History[S] {
	if resolution <= 0 {
		log.Panicf("rewind: bad recording resolution %v", resolution)
	}
	maxCount := int(math.Floor(maxRecordingLength / resolution))
	return &History[S]{
		owner:      owner,
		timing:     timing,
		resolution: resolution,
		maxCount:   maxCount,
		snapshots:  make([]S, 0, maxCount+1),
		lastIndex:  -1,
	}
}

// Len 已记录的快照数
func (h *History[S]) Len() int {
	return len(h.snapshots)
}

func (h *History[S]) Paused() bool {
	return h.paused
}

// Tick 累计时间，每经过一个分辨率记录一次快照
func (h *History[S]) Tick(dt float64) {
	if h.paused {
		return
	}
	h.elapsed += dt
	for h.elapsed+1e-9 >= h.resolution {
		h.elapsed -= h.resolution
		h.record()
	}
}

func (h *History[S]) record() {
	if h.paused {
		return
	}
	if len(h.snapshots) > h.maxCount {
		h.snapshots = h.snapshots[1:]
	}
	h.snapshots = append(h.snapshots, h.owner.CaptureSnapshot())
}

// indexFor 回溯时间t对应的快照下标：从最新往前数floor(t/res)个
// 返回：超出已记录范围时ok为false
func (h *History[S]) indexFor(t float64) (int, bool) {
	index := len(h.snapshots) - (int(math.Floor(t/h.resolution+1e-9)) + 1)
	return index, index >= 0 && index < len(h.snapshots)
}

// SetRewindTime 设置回溯时间（相对当前时刻向前的秒数）
// 说明：超出已记录范围时记录错误并跳过，保留上一次有效的选择
func (h *History[S]) SetRewindTime(t float64) {
	index, ok := h.indexFor(t)
	if !ok {
		log.Errorf("rewind: %.2fs selects snapshot index %d out of range [0,%d), skipped", t, index, len(h.snapshots))
		return
	}
	h.rewindTime = t
	h.lastIndex = index
	if h.timing == Immediate {
		h.owner.RestoreFromSnapshot(h.snapshots[index], t)
	}
}

// PauseRecordingSnapshots 记录一个最终快照后暂停记录，并清除上一次回溯的选择
func (h *History[S]) PauseRecordingSnapshots() {
	h.record()
	h.paused = true
	h.rewindTime = 0
	h.lastIndex = -1
}

// ResumeRecordingSnapshots 丢弃回溯点之后的快照并恢复记录
func (h *History[S]) ResumeRecordingSnapshots() {
	if h.lastIndex >= 0 && h.lastIndex < len(h.snapshots) {
		h.snapshots = h.snapshots[:h.lastIndex+1]
	}
	h.paused = false
	h.elapsed = 0
}

// CancelRewind 放弃回溯：不截断历史，Immediate时机的对象恢复到暂停时的最终快照
func (h *History[S]) CancelRewind() {
	if h.timing == Immediate && h.lastIndex >= 0 && h.lastIndex != len(h.snapshots)-1 {
		h.owner.RestoreFromSnapshot(h.snapshots[len(h.snapshots)-1], 0)
	}
	h.rewindTime = 0
	h.lastIndex = -1
	h.paused = false
	h.elapsed = 0
}

// ResetRewindHistory 清空全部快照
func (h *History[S]) ResetRewindHistory() {
	h.snapshots = h.snapshots[:0]
	h.rewindTime = 0
	h.lastIndex = -1
}

// RecalculateOnRewind 退出回溯后恢复快照，只对Resume时机生效
func (h *History[S]) RecalculateOnRewind() {
	if h.timing != Resume {
		return
	}
	// 历史被重置、没有选择回溯点或回溯时间为0
	if h.lastIndex < 0 || h.lastIndex >= len(h.snapshots) || math.Abs(h.rewindTime) < 1e-6 {
		return
	}
	h.owner.RestoreFromSnapshot(h.snapshots[h.lastIndex], h.rewindTime)
}
