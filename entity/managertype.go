package entity

import "github.com/go-gl/mathgl/mgl64"

// Manager依赖倒置

// entity/vehicle/manager.go的依赖倒置
type IVehicleManager interface {
	// 输入车辆ID，查找车辆，如果不存在则panic
	Get(id int32) IVehicle
	// 输入车辆ID，查找车辆，如果不存在则返回error
	GetOrError(id int32) (IVehicle, error)
	// 车辆是否仍在仿真中
	Contains(id int32) bool
	// 当前所有车辆
	Vehicles() []IVehicle

	Prepare()          // 准备阶段
	Update(dt float64) // 更新阶段
}

// entity/track/manager.go的依赖倒置
type ITrackManager interface {
	// 输入赛道ID，查找赛道，如果不存在则panic
	Get(id int32) ITrack
	// 输入赛道ID，查找赛道，如果不存在则返回error
	GetOrError(id int32) (ITrack, error)
	// 当前所有赛道
	Tracks() []ITrack
	// 在maxDistance范围内为pos选择赛道
	SelectNearest(pos mgl64.Vec3, maxDistance float64) (ITrack, bool)
}
