package rewind

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

// Manager 回溯子系统
// 功能：登记所有可回溯对象，统一驱动快照记录、进入/退出回溯与回溯时间设置
type Manager struct {
	RecordingResolution float64
	MaxRecordingLength  float64

	rewindables []Rewindable
	rewinding   bool
	rewindTime  float64
}

func NewManager(c config.Rewind) *Manager {
	return &Manager{
		RecordingResolution: c.RecordingResolution,
		MaxRecordingLength:  c.MaxRecordingLength,
	}
}

func (m *Manager) Register(r Rewindable) {
	if lo.Contains(m.rewindables, r) {
		log.Warn("rewindable registered twice")
		return
	}
	m.rewindables = append(m.rewindables, r)
}

func (m *Manager) Unregister(r Rewindable) {
	m.rewindables = lo.Without(m.rewindables, r)
}

// Len 已登记的对象数
func (m *Manager) Len() int {
	return len(m.rewindables)
}

func (m *Manager) IsRewinding() bool {
	return m.rewinding
}

// Update 回溯期间不记录
func (m *Manager) Update(dt float64) {
	if m.rewinding {
		return
	}
	for _, r := range m.rewindables {
		r.Tick(dt)
	}
}

// EnterRewind 进入回溯模式，暂停所有记录
func (m *Manager) EnterRewind() {
	if m.rewinding {
		return
	}
	m.rewinding = true
	m.rewindTime = 0
	for _, r := range m.rewindables {
		r.PauseRecordingSnapshots()
	}
	log.Info("enter rewind")
}

// SetRewindTime 设置回溯时间，截断到[0, MaxRecordingLength]
func (m *Manager) SetRewindTime(t float64) {
	if !m.rewinding {
		log.Warn("SetRewindTime called outside rewind mode")
		return
	}
	m.rewindTime = lo.Clamp(t, 0, m.MaxRecordingLength)
	for _, r := range m.rewindables {
		r.SetRewindTime(m.rewindTime)
	}
}

// ExitRewind 退出回溯模式：截断历史、恢复记录，并让Resume时机的对象恢复快照
func (m *Manager) ExitRewind() {
	if !m.rewinding {
		return
	}
	for _, r := range m.rewindables {
		r.ResumeRecordingSnapshots()
	}
	for _, r := range m.rewindables {
		r.RecalculateOnRewind()
	}
	m.rewinding = false
	log.Infof("exit rewind at -%.2fs", m.rewindTime)
}

// CancelRewind 放弃回溯并恢复运行，不截断任何历史
func (m *Manager) CancelRewind() {
	if !m.rewinding {
		return
	}
	for _, r := range m.rewindables {
		r.CancelRewind()
	}
	m.rewinding = false
	m.rewindTime = 0
	log.Info("cancel rewind")
}

// Reset 清空所有对象的历史
func (m *Manager) Reset() {
	for _, r := range m.rewindables {
		r.ResetRewindHistory()
	}
}
