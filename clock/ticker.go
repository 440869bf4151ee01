package clock

// Ticker 组件级别的Tick函数
// 功能：让每个组件以自身配置的间隔运行，而不是每个仿真步都运行
// 说明：Interval<=0表示每步都触发；停用后Advance不再触发，重新启用时清空累计时间
type Ticker struct {
	Interval float64

	enabled bool
	elapsed float64
}

// NewTicker 创建一个处于启用状态的Ticker
func NewTicker(interval float64) *Ticker {
	return &Ticker{Interval: interval, enabled: true}
}

func (t *Ticker) Enabled() bool {
	return t.enabled
}

// SetEnabled 启用或停用，重复调用是幂等的
func (t *Ticker) SetEnabled(enabled bool) {
	if t.enabled == enabled {
		return
	}
	t.enabled = enabled
	t.elapsed = 0
}

// Advance 累计时间dt，到达间隔时返回true和本次触发对应的时间增量
// 算法说明：触发后扣除一个间隔而不是清零，保持长期的触发节奏
func (t *Ticker) Advance(dt float64) (bool, float64) {
	if !t.enabled {
		return false, 0
	}
	if t.Interval <= 0 {
		return true, dt
	}
	t.elapsed += dt
	// 允许微小的浮点误差，例如0.1+0.1 vs 0.2
	if t.elapsed+1e-9 < t.Interval {
		return false, 0
	}
	t.elapsed -= t.Interval
	if t.elapsed < 0 {
		t.elapsed = 0
	}
	return true, t.Interval
}
