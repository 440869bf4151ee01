package task

import (
	"flag"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 算法说明：
// 1. 推进时钟
// 2. 心跳日志：定期输出当前名次
// 3. 车辆管理器应用增删
// 4. 车手根据车头位置更新比赛进度
//
// 说明：确保更新阶段读到的车辆集合与比赛进度在本步内不变
func (ctx *Context) prepare() {
	ctx.clock.Advance()

	if *heartBeatInterval > 0 && ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		log.Infof("STEP: %d(%v) standings: %v", ctx.clock.InternalStep, ctx.clock, ctx.racerManager.Standings())
	}

	ctx.vehicleManager.Prepare()
	ctx.racerManager.Prepare()
}

// update 更新阶段，每步执行一次
// 算法说明：
// 1. 执行到期的延迟回调（初始目标、调校、停赛刹车）
// 2. 车手决策：检测->避让->跟随，脱困->跟随，控制->到达->选择下一目标
// 3. 车辆并行积分运动
// 4. 回溯子系统记录快照
func (ctx *Context) update() {
	dt := ctx.clock.DT
	ctx.timers.Update()
	ctx.racerManager.Update(dt)
	ctx.vehicleManager.Update(dt)
	ctx.rewind.Update(dt)
}

// Run 运行
// 说明：运行到结束步为止；control.stop_when_finished为true时所有AI车手完赛后提前结束
func (ctx *Context) Run() {
	ctx.Init()
	stopWhenFinished := ctx.runtimeConfig.C.StopWhenFinished
	for !ctx.closed.Load() {
		ctx.prepare()
		ctx.update()
		if ctx.clock.Finished() {
			break
		}
		if stopWhenFinished && ctx.racerManager.AllFinished() {
			log.Infof("all racers finished at %v", ctx.clock)
			break
		}
	}
	log.Infof("engine complete at step %d, standings: %v", ctx.clock.InternalStep, ctx.racerManager.Standings())
}
