package track

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
)

const (
	// 圈数只在完成比例从此值以上
	lapWrapHighFraction = 0.9
	// 跳变到此值以下时增加
	lapWrapLowFraction = 0.1
	// 单次更新允许的最大样条距离变化（相对赛道长度）
	maxUpdateFraction = 0.5
	// 终点判定容差（厘米）
	finishTolerance = 1e-3
)

// RaceState 比赛进度
// 说明：CurrentLapMaxCompletionFraction记录本圈达到过的最大完成比例，防止倒退越线刷圈
type RaceState struct {
	DistanceAlongSpline             float64
	SplineLength                    float64
	LapCount                        int32
	CurrentLapMaxCompletionFraction float64
}

// NewRaceState 比赛开始时的进度（位于起点）
func NewRaceState(track entity.ITrack) RaceState {
	return RaceState{SplineLength: track.Length()}
}

func (s RaceState) String() string {
	return fmt.Sprintf("RaceState{d=%.1f len=%.1f lap=%d max=%.3f}",
		s.DistanceAlongSpline, s.SplineLength, s.LapCount, s.CurrentLapMaxCompletionFraction)
}

// TotalDistance 累计行驶的样条距离
func (s RaceState) TotalDistance() float64 {
	return s.DistanceAlongSpline + float64(s.LapCount)*s.SplineLength
}

// CurrentLapCompletionFraction 本圈完成比例
func (s RaceState) CurrentLapCompletionFraction() float64 {
	if s.SplineLength <= 0 {
		return 0
	}
	return s.DistanceAlongSpline / s.SplineLength
}

// LapsFraction 以圈为单位的总进度
func (s RaceState) LapsFraction() float64 {
	return float64(s.LapCount) + s.CurrentLapCompletionFraction()
}

// UpdateDistance 用新的样条距离更新进度
// 算法说明：
// 1. 环形赛道上，上次完成比例与本圈最大完成比例都>=0.9且新完成比例<0.1时视为过线，圈数加一；
// 倒车回到起点附近的逐步更新不会满足“上次>=0.9”
// 2. 否则距离变化超过半圈视为投影跳变（例如起跑线后方或倒车越线），拒绝更新
// 3. 接受更新时刷新本圈最大完成比例
// 返回：是否接受了本次更新
func (s *RaceState) UpdateDistance(d float64, circuit bool) bool {
	if s.SplineLength <= 0 {
		return false
	}
	fraction := d / s.SplineLength
	previous := s.DistanceAlongSpline / s.SplineLength
	if circuit && previous >= lapWrapHighFraction && s.CurrentLapMaxCompletionFraction >= lapWrapHighFraction && fraction < lapWrapLowFraction {
		s.LapCount++
		s.DistanceAlongSpline = d
		s.CurrentLapMaxCompletionFraction = fraction
		return true
	}
	if delta := (d - s.DistanceAlongSpline) / s.SplineLength; delta > maxUpdateFraction || delta < -maxUpdateFraction {
		return false
	}
	s.DistanceAlongSpline = d
	s.CurrentLapMaxCompletionFraction = max(s.CurrentLapMaxCompletionFraction, fraction)
	return true
}

// UpdateFromPosition 由车头位置投影到赛道后更新进度
func (s *RaceState) UpdateFromPosition(track entity.ITrack, front mgl64.Vec3) bool {
	return s.UpdateDistance(track.DistanceAlongSplineNearestTo(front), track.IsCircuit())
}

// Finished 是否已完成全部圈数
// 说明：非环形赛道到达终点即完成
func (s RaceState) Finished(track entity.ITrack) bool {
	if !track.IsCircuit() {
		return s.DistanceAlongSpline >= s.SplineLength-finishTolerance
	}
	return s.LapCount >= track.Laps()
}
