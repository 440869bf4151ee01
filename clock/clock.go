package clock

import (
	"fmt"

	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

// Clock 仿真时钟
// 功能：管理仿真系统的时间推进，维护当前仿真时间与步数
type Clock struct {
	DT         float64 // 每个模拟步时间间隔（秒）
	START_STEP int32   // 起始步
	END_STEP   int32   // 结束步，模拟区间[START, END)

	T            float64 // 当前时间（秒）
	InternalStep int32   // 当前步数
}

// New 根据配置创建新的时钟实例
func New(stepConfig config.ControlStep) *Clock {
	c := &Clock{
		DT:         stepConfig.Interval,
		START_STEP: stepConfig.Start,
		END_STEP:   stepConfig.Start + stepConfig.Total,
	}
	c.Init()
	return c
}

// Init 重置时钟到起始步
func (c *Clock) Init() {
	c.InternalStep = c.START_STEP
	c.T = float64(c.InternalStep) * c.DT
}

// Advance 推进一步
// 说明：时间由步数乘步长得到而不是累加，避免浮点误差积累
func (c *Clock) Advance() {
	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT
}

// Finished 是否已经到达结束步
func (c *Clock) Finished() bool {
	return c.InternalStep+1 >= c.END_STEP
}

// String 获取时钟的字符串表示（MM:SS.ss）
func (c *Clock) String() string {
	m := int(c.T / 60)
	s := c.T - float64(m*60)
	return fmt.Sprintf("%02d:%05.2f", m, s)
}
