package entity

import "github.com/go-gl/mathgl/mgl64"

// 实体依赖倒置

// IVehicle 车辆（物理仿真对外暴露的最小接口）
// 坐标单位为厘米，速度单位为英里/小时，偏航角单位为度
type IVehicle interface {
	ID() int32

	ForwardSpeedMph() float64  // 沿车头方向的有符号速度，倒车为负
	Location() mgl64.Vec3      // 车辆中心
	Yaw() float64              // 偏航角
	Forward() mgl64.Vec3       // 车头方向单位向量
	FrontPosition() mgl64.Vec3 // 前保险杠
	BackPosition() mgl64.Vec3  // 后保险杠
	TopPosition() mgl64.Vec3   // 车顶
	Up() mgl64.Vec3            // 车身向上方向单位向量

	SetThrottle(v float64) // [-1, 1]，负值为倒车
	SetBrake(v float64)    // [0, 1]
	SetSteering(v float64) // [-1, 1]
	SetHandbrake(on bool)
	ThrottleInput() float64 // 当前油门输入（有符号）
}

// ITunableVehicle 支持难度调校的车辆
type ITunableVehicle interface {
	SetABSEnabled(enabled bool)
	SetTractionControlEnabled(enabled bool)
	SetBrakingBoostMultiplier(v float64)
	SetWheelLoadRatio(v float64)
}

// ITrack 赛道样条
// 距离均为沿样条的弧长（厘米），超出[0, Length()]的输入被截断
type ITrack interface {
	ID() int32

	Length() float64
	IsCircuit() bool
	Laps() int32 // 环形赛道的圈数，非环形赛道为1

	DistanceAlongSplineNearestTo(pos mgl64.Vec3) float64
	DirectionAtDistance(d float64) mgl64.Vec3
	LocationAtDistance(d float64) mgl64.Vec3
	InputKeyAtDistance(d float64) float64
}

// IVisibility 视线检测
type IVisibility interface {
	// 从from到to的线段是否未被遮挡
	LineOfSight(from, to mgl64.Vec3) bool
}
