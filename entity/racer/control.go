package racer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/racer-sim/clock"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"github.com/tsinghua-fib-lab/racer-sim/utils/geometry"
)

// VehicleControlComponent 车辆控制组件
// 功能：把（移动目标, 期望速度）转换为油门、刹车与转向输入，并在到达目标时广播事件
// 说明：目标在转向圈内且位于车后时倒车掉头
type VehicleControlComponent struct {
	provider IRacerContextProvider
	config   config.VehicleControl
	ticker   *clock.Ticker

	movementTarget  mgl64.Vec3
	desiredSpeedMph float64
	targetSet       bool
	targetReached   bool
	turningAround   bool

	OnTargetReached Event[TargetReached]

	log *logrus.Entry
}

// NewVehicleControlComponent 创建控制组件，初始为停用状态
func NewVehicleControlComponent(provider IRacerContextProvider, c config.VehicleControl, logger *logrus.Entry) *VehicleControlComponent {
	ctl := &VehicleControlComponent{
		provider:        provider,
		config:          c,
		ticker:          clock.NewTicker(c.TickInterval),
		desiredSpeedMph: c.DefaultDesiredSpeedMph,
		log:             logger,
	}
	ctl.ticker.SetEnabled(false)
	return ctl
}

func (c *VehicleControlComponent) Active() bool {
	return c.ticker.Enabled()
}

func (c *VehicleControlComponent) SetActive(active bool) {
	c.ticker.SetEnabled(active)
}

// Reset 清空目标
func (c *VehicleControlComponent) Reset() {
	c.movementTarget = mgl64.Vec3{}
	c.desiredSpeedMph = c.config.DefaultDesiredSpeedMph
	c.targetSet = false
	c.targetReached = false
	c.turningAround = false
}

func (c *VehicleControlComponent) MovementTarget() (mgl64.Vec3, bool) {
	return c.movementTarget, c.targetSet
}

func (c *VehicleControlComponent) DesiredSpeedMph() float64 {
	return c.desiredSpeedMph
}

func (c *VehicleControlComponent) TurningAround() bool {
	return c.turningAround
}

// OnTargetUpdated 目标更新回调
func (c *VehicleControlComponent) OnTargetUpdated(e TargetUpdated) {
	c.SetDesiredSpeedMph(e.DesiredSpeedMph)
	c.SetMovementTarget(e.Target)
}

func (c *VehicleControlComponent) SetDesiredSpeedMph(v float64) {
	c.desiredSpeedMph = v
}

// SetMovementTarget 设置移动目标，目标改变时清除到达标记
func (c *VehicleControlComponent) SetMovementTarget(target mgl64.Vec3) {
	c.targetSet = true
	if target == c.movementTarget {
		return
	}
	c.movementTarget = target
	c.targetReached = false
}

// ClearTargetReached 清除到达标记，使当前目标可以再次触发到达
func (c *VehicleControlComponent) ClearTargetReached() {
	c.targetReached = false
}

// Tick 组件Tick
func (c *VehicleControlComponent) Tick(dt float64) {
	if ok, _ := c.ticker.Advance(dt); !ok {
		return
	}
	c.Control()
}

// Control 执行一次控制
func (c *VehicleControlComponent) Control() {
	vehicle := c.provider.RacerContext().Vehicle
	if !c.targetSet || vehicle == nil {
		return
	}
	c.checkIfReachedTarget()
	// 到达事件可能已经更新了目标
	delta := c.movementTarget.Sub(vehicle.FrontPosition())
	if c.ShouldReverse(delta) {
		c.turningAround = true
		c.calculateReverse(delta)
	} else {
		c.turningAround = false
		c.SetSpeedControls(c.SmoothThrottle(vehicle.ForwardSpeedMph()))
		c.CalculateSteering(delta)
	}
}

// SmoothThrottle 根据当前速度与期望速度计算油门，负值表示刹车
// 算法说明：
// rawFactor=(期望-当前)/期望，factor=|rawFactor|^deltaSpeedExponent；
// rawFactor>=切换阈值时与全油门曲线min(1, 期望/全油门阈值)^fullThrottleExponent取大，
// 否则为带符号的factor
func (c *VehicleControlComponent) SmoothThrottle(currentSpeedMph float64) float64 {
	desired := c.desiredSpeedMph
	if desired <= 0 {
		return lo.Ternary(currentSpeedMph > 0, -1.0, 0.0)
	}
	delta := desired - currentSpeedMph
	sign := sign(delta)
	rawFactor := delta / desired
	factor := math.Pow(sign*rawFactor, c.config.DeltaSpeedExponent)
	if rawFactor >= c.config.RawFactorSwitchoverThreshold {
		throttleFraction := math.Pow(math.Min(1, desired/c.config.FullThrottleSpeedThresholdMph), c.config.FullThrottleExponent)
		return math.Min(math.Max(throttleFraction, factor), 1)
	}
	return math.Min(factor, 1) * sign
}

// SteeringSmoothingValue 转向衰减系数：(clamp(距离/衰减距离, 0, 1))^衰减指数
func (c *VehicleControlComponent) SteeringSmoothingValue(distanceToTarget float64) float64 {
	if c.config.DampeningDistance <= 0 {
		return 1
	}
	multiplier := lo.Clamp(distanceToTarget/c.config.DampeningDistance, 0, 1)
	return math.Pow(multiplier, c.config.DampeningExponent)
}

// targetYawDelta 目标方向与车头朝向的偏航角差，(-180, 180]
func (c *VehicleControlComponent) targetYawDelta(delta mgl64.Vec3) float64 {
	vehicle := c.provider.RacerContext().Vehicle
	return geometry.NormalizeAxis(geometry.YawOf(delta) - vehicle.Yaw())
}

// CalculateSteering 计算并设置转向输入
// 返回：设置的转向值
func (c *VehicleControlComponent) CalculateSteering(delta mgl64.Vec3) float64 {
	yawDelta := c.targetYawDelta(delta)
	maxAngle := c.config.MaxSteeringAngle
	raw := lo.Clamp(yawDelta/maxAngle, -1, 1)
	steering := raw * c.SteeringSmoothingValue(delta.Len())
	c.provider.RacerContext().Vehicle.SetSteering(steering)
	return steering
}

// ShouldReverse 是否倒车掉头
// 算法说明：目标与车头方向夹角余弦小于阈值（正在掉头时使用更宽松的阈值），
// 且目标在转向圈半径（随速度增大）之内
func (c *VehicleControlComponent) ShouldReverse(delta mgl64.Vec3) bool {
	vehicle := c.provider.RacerContext().Vehicle
	threshold := lo.Ternary(c.turningAround, c.config.ContinueTurningAroundCosineThreshold, c.config.TurnAroundCosineThreshold)
	if vehicle.Forward().Dot(geometry.SafeNormal(delta)) >= threshold {
		return false
	}
	turningCircleRadius := c.config.TurningCircleRadius * vehicle.ForwardSpeedMph() / 10
	return delta.Len() < turningCircleRadius
}

// calculateReverse 倒车：固定倒车油门，转向打满到与目标相反的一侧
func (c *VehicleControlComponent) calculateReverse(delta mgl64.Vec3) {
	yawDelta := c.targetYawDelta(delta)
	steering := 0.0
	if math.Abs(yawDelta) > geometry.KindaSmallNumber {
		steering = lo.Ternary(yawDelta > 0, -1.0, 1.0)
	}
	c.SetSpeedControls(c.config.ReverseThrottleValue)
	c.provider.RacerContext().Vehicle.SetSteering(steering)
}

// SetSpeedControls 把带符号的油门值分配到油门、刹车与手刹
// 说明：负值在非掉头时就是刹车；掉头时车速仍高于阈值则手刹加全刹，降下来后才真正倒车
func (c *VehicleControlComponent) SetSpeedControls(throttle float64) {
	vehicle := c.provider.RacerContext().Vehicle
	switch {
	case throttle >= 0:
		vehicle.SetHandbrake(false)
		vehicle.SetThrottle(throttle)
		vehicle.SetBrake(0)
	case !c.turningAround:
		vehicle.SetThrottle(0)
		vehicle.SetBrake(-throttle)
	case vehicle.ForwardSpeedMph() > c.config.ReverseSpeedThresholdMph:
		vehicle.SetThrottle(0)
		vehicle.SetHandbrake(true)
		vehicle.SetBrake(1)
	default:
		vehicle.SetHandbrake(false)
		vehicle.SetThrottle(throttle)
		vehicle.SetBrake(0)
	}
}

func (c *VehicleControlComponent) hasReachedTarget() bool {
	vehicle := c.provider.RacerContext().Vehicle
	return geometry.Distance(vehicle.FrontPosition(), c.movementTarget) < c.config.TargetReachedRadius
}

// checkIfReachedTarget 到达判定，每个目标只触发一次
func (c *VehicleControlComponent) checkIfReachedTarget() {
	if c.targetReached || !c.hasReachedTarget() {
		return
	}
	c.targetReached = true
	c.OnTargetReached.Broadcast(TargetReached{Vehicle: c.provider.RacerContext().Vehicle, Target: c.movementTarget})
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
