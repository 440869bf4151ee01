package task

import (
	"sync/atomic"

	"github.com/tsinghua-fib-lab/racer-sim/clock"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/entity/racer"
	"github.com/tsinghua-fib-lab/racer-sim/entity/track"
	"github.com/tsinghua-fib-lab/racer-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/racer-sim/rewind"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"github.com/tsinghua-fib-lab/racer-sim/utils/randengine"
)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态，替代全局变量
// 说明：实现entity.ITaskContext，各管理器通过它访问彼此
type Context struct {
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock
	// 延迟回调
	timers *clock.TimerManager

	// Track管理器
	trackManager *track.TrackManager
	// Vehicle管理器
	vehicleManager *vehicle.VehicleManager
	// AI车手管理器
	racerManager *racer.RacerManager

	visibility entity.IVisibility
	rewind     *rewind.Manager
	rand       *randengine.Engine

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig
}

// NewContext 创建新的仿真任务上下文
// 参数：c-已经过Validate的配置
// 返回：尚未初始化实体的Context，Init或Run时加载赛道、车辆与车手
func NewContext(c config.Config) *Context {
	ctx := &Context{}
	ctx.clock = clock.New(c.Control.Step)
	ctx.timers = clock.NewTimerManager(ctx.clock)
	ctx.runtimeConfig = config.NewRuntimeConfig(c)
	ctx.rand = randengine.New(c.Control.Seed)
	ctx.rewind = rewind.NewManager(c.Rewind)
	ctx.visibility = NewOccluderVisibility(c.Occluders)

	// 新建各类模拟对象
	ctx.trackManager = track.NewManager()
	ctx.vehicleManager = vehicle.NewManager()
	ctx.racerManager = racer.NewManager(ctx)
	return ctx
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) Timers() *clock.TimerManager {
	return ctx.timers
}

func (ctx *Context) VehicleManager() entity.IVehicleManager {
	return ctx.vehicleManager
}

func (ctx *Context) TrackManager() entity.ITrackManager {
	return ctx.trackManager
}

func (ctx *Context) RacerManager() *racer.RacerManager {
	return ctx.racerManager
}

func (ctx *Context) Visibility() entity.IVisibility {
	return ctx.visibility
}

func (ctx *Context) Rewind() *rewind.Manager {
	return ctx.rewind
}

func (ctx *Context) Rand() *randengine.Engine {
	return ctx.rand
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// Init 加载实体，顺序为赛道、车辆、车手（车手附身时需要前两者）
func (ctx *Context) Init() {
	ctx.clock.Init()

	c := ctx.runtimeConfig.All
	log.Infof("Track: %v", len(c.Tracks))
	log.Infof("Occluder: %v", len(c.Occluders))

	ctx.trackManager.Init(c.Tracks)
	ctx.vehicleManager.Init(c.Vehicles)
	ctx.racerManager.Init(c.Vehicles)
}

// Close 请求结束运行，Run在当前步完成后退出
func (ctx *Context) Close() {
	ctx.closed.Store(true)
}
