package vehicle

import (
	"fmt"
	"runtime"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"github.com/tsinghua-fib-lab/racer-sim/utils/container"
	"golang.org/x/sync/errgroup"
)

// VehicleManager 车辆注册表
// 功能：维护仿真中所有车辆，替代按类型遍历世界对象的做法
// 说明：增删在Prepare阶段统一生效；Update阶段并行积分所有车辆的运动
type VehicleManager struct {
	data     map[int32]*Vehicle
	vehicles *container.IncrementalArray[*Vehicle]
}

func NewManager() *VehicleManager {
	return &VehicleManager{
		data:     make(map[int32]*Vehicle),
		vehicles: container.NewIncrementalArray[*Vehicle](),
	}
}

// Init 根据配置创建所有车辆
func (m *VehicleManager) Init(cs []config.Vehicle) {
	for _, c := range cs {
		m.Add(New(c))
	}
	m.Prepare()
	log.Infof("Vehicle: %v", len(m.data))
}

// Add 加入车辆（Prepare后可见）
func (m *VehicleManager) Add(v *Vehicle) {
	if _, ok := m.data[v.id]; ok {
		log.Panicf("vehicle ID %v already exists", v.id)
	}
	m.data[v.id] = v
	m.vehicles.Add(v)
}

// Remove 移除车辆，Contains立即返回false，数组在Prepare时更新
func (m *VehicleManager) Remove(id int32) {
	v, ok := m.data[id]
	if !ok {
		log.Warnf("remove: no id %d in vehicle data", id)
		return
	}
	delete(m.data, id)
	m.vehicles.Remove(v)
}

// Get 根据ID获取车辆，不存在则panic
func (m *VehicleManager) Get(id int32) entity.IVehicle {
	if v, ok := m.data[id]; !ok {
		log.Panicf("no id %d in vehicle data", id)
		return nil
	} else {
		return v
	}
}

// GetOrError 根据ID获取车辆，不存在则返回错误
func (m *VehicleManager) GetOrError(id int32) (entity.IVehicle, error) {
	if v, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in vehicle data", id)
	} else {
		return v, nil
	}
}

func (m *VehicleManager) Contains(id int32) bool {
	_, ok := m.data[id]
	return ok
}

func (m *VehicleManager) Vehicles() []entity.IVehicle {
	return lo.Map(m.vehicles.Data(), func(v *Vehicle, _ int) entity.IVehicle { return v })
}

// Prepare 准备阶段：应用增删
func (m *VehicleManager) Prepare() {
	m.vehicles.Prepare()
}

// Update 更新阶段：并行积分车辆运动
func (m *VehicleManager) Update(dt float64) {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, v := range m.vehicles.Data() {
		v := v
		g.Go(func() error {
			v.step(dt)
			return nil
		})
	}
	_ = g.Wait()
}
