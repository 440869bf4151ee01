package vehicle

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"github.com/tsinghua-fib-lab/racer-sim/utils/container"
	"github.com/tsinghua-fib-lab/racer-sim/utils/geometry"
)

const (
	DEFAULT_LENGTH             = 450.0  // 车长（厘米）
	DEFAULT_HEIGHT             = 140.0  // 车高（厘米）
	DEFAULT_WHEELBASE          = 270.0  // 轴距（厘米）
	DEFAULT_MAX_SPEED_MPH      = 120.0  // 最高车速
	DEFAULT_MAX_ACCELERATION   = 600.0  // 最大加速度（厘米/秒²）
	DEFAULT_MAX_DECELERATION   = 1200.0 // 最大制动减速度（厘米/秒²）
	DEFAULT_MAX_STEERING_ANGLE = 35.0   // 最大前轮转角（度）

	MAX_REVERSE_SPEED_MPH = 15.0

	rollingResistance  = 30.0   // 滚动阻力减速度（厘米/秒²）
	dragCoefficient    = 0.02   // 与速度成正比的空气阻力系数（1/秒）
	noABSBrakeFactor   = 0.8    // 无ABS时的制动效率
	noTCWheelspinLoss  = 0.15   // 无牵引力控制且全油门时的驱动损失
	maxLateralAccel    = 1200.0 // 轮胎侧向加速度上限（厘米/秒²）
	handbrakeDecelRate = 0.5    // 手刹制动占最大制动的比例
)

// attribute 车辆固有参数
type attribute struct {
	length, height, wheelbase float64
	maxSpeed, maxReverseSpeed float64 // 厘米/秒
	maxAcc, maxDec            float64
	maxSteeringAngle          float64 // 度
}

// Vehicle 运动学车辆
// 功能：自行车模型的简化车辆动力学，接收油门/刹车/转向输入，每步积分位置与偏航角
// 说明：只在更新阶段由VehicleManager调用step修改状态，决策阶段只读取状态与写入输入
type Vehicle struct {
	container.IncrementalItemBase

	id   int32
	attr attribute

	position mgl64.Vec3
	yaw      float64 // 度
	speed    float64 // 沿车头方向的有符号速度（厘米/秒）

	// 控制输入
	throttle  float64
	brake     float64
	steering  float64
	handbrake bool

	// 难度调校
	abs             bool
	tractionControl bool
	brakingBoost    float64
	wheelLoadRatio  float64
}

// New 根据配置创建车辆，未指定的参数使用默认值
func New(c config.Vehicle) *Vehicle {
	def := func(v, d float64) float64 { return lo.Ternary(v > 0, v, d) }
	v := &Vehicle{
		id: c.ID,
		attr: attribute{
			length:           def(c.Length, DEFAULT_LENGTH),
			height:           def(c.Height, DEFAULT_HEIGHT),
			wheelbase:        def(c.Wheelbase, DEFAULT_WHEELBASE),
			maxSpeed:         geometry.MphToCmPerSecond(def(c.MaxSpeedMph, DEFAULT_MAX_SPEED_MPH)),
			maxReverseSpeed:  geometry.MphToCmPerSecond(MAX_REVERSE_SPEED_MPH),
			maxAcc:           def(c.MaxAcceleration, DEFAULT_MAX_ACCELERATION),
			maxDec:           def(c.MaxDeceleration, DEFAULT_MAX_DECELERATION),
			maxSteeringAngle: def(c.MaxSteeringAngle, DEFAULT_MAX_STEERING_ANGLE),
		},
		position:        mgl64.Vec3(c.Position),
		yaw:             geometry.NormalizeAxis(c.Yaw),
		throttle:        c.Throttle,
		abs:             true,
		tractionControl: true,
		brakingBoost:    1,
	}
	return v
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle %d (pos=%.0f,%.0f yaw=%.1f v=%.1fmph)",
		v.id, v.position.X(), v.position.Y(), v.yaw, v.ForwardSpeedMph())
}

func (v *Vehicle) ID() int32 {
	return v.id
}

func (v *Vehicle) ForwardSpeedMph() float64 {
	return geometry.CmsToMph(v.speed)
}

func (v *Vehicle) Location() mgl64.Vec3 {
	return v.position
}

func (v *Vehicle) Yaw() float64 {
	return v.yaw
}

func (v *Vehicle) Forward() mgl64.Vec3 {
	return geometry.ForwardFromYaw(v.yaw)
}

func (v *Vehicle) FrontPosition() mgl64.Vec3 {
	return v.position.Add(v.Forward().Mul(v.attr.length / 2))
}

func (v *Vehicle) BackPosition() mgl64.Vec3 {
	return v.position.Sub(v.Forward().Mul(v.attr.length / 2))
}

func (v *Vehicle) TopPosition() mgl64.Vec3 {
	return v.position.Add(geometry.ZAxis.Mul(v.attr.height))
}

// Up 运动学模型不模拟侧翻，车身始终竖直
func (v *Vehicle) Up() mgl64.Vec3 {
	return mgl64.Vec3{0, 0, 1}
}

func (v *Vehicle) SetThrottle(x float64) {
	v.throttle = lo.Clamp(x, -1, 1)
}

func (v *Vehicle) SetBrake(x float64) {
	v.brake = lo.Clamp(x, 0, 1)
}

func (v *Vehicle) SetSteering(x float64) {
	v.steering = lo.Clamp(x, -1, 1)
}

func (v *Vehicle) SetHandbrake(on bool) {
	v.handbrake = on
}

func (v *Vehicle) ThrottleInput() float64 {
	return v.throttle
}

func (v *Vehicle) BrakeInput() float64 {
	return v.brake
}

func (v *Vehicle) SteeringInput() float64 {
	return v.steering
}

func (v *Vehicle) Handbrake() bool {
	return v.handbrake
}

func (v *Vehicle) SetABSEnabled(enabled bool) {
	v.abs = enabled
}

func (v *Vehicle) SetTractionControlEnabled(enabled bool) {
	v.tractionControl = enabled
}

func (v *Vehicle) SetBrakingBoostMultiplier(x float64) {
	v.brakingBoost = max(x, 0)
}

func (v *Vehicle) SetWheelLoadRatio(x float64) {
	v.wheelLoadRatio = lo.Clamp(x, 0, 1)
}

// Teleport 直接设置位置与朝向并清空速度（用于初始化与测试）
func (v *Vehicle) Teleport(pos mgl64.Vec3, yaw float64) {
	v.position = pos
	v.yaw = geometry.NormalizeAxis(yaw)
	v.speed = 0
}

// step 积分一步
// 算法说明：
// 1. 制动：刹车（含ABS与制动增强）与手刹使速度向0收敛，不会反向
// 2. 驱动：油门产生加速度，负油门为倒车；无牵引力控制时大油门有打滑损失
// 3. 阻力：滚动阻力与空气阻力
// 4. 转向：自行车模型 dYaw = v / L * tan(δ)，并受侧向加速度上限约束
// 5. 沿新朝向积分位置
func (v *Vehicle) step(dt float64) {
	// 制动
	dec := v.brake * v.attr.maxDec * v.brakingBoost * lo.Ternary(v.abs, 1.0, noABSBrakeFactor)
	if v.handbrake {
		dec += handbrakeDecelRate * v.attr.maxDec
	}
	dec += rollingResistance + dragCoefficient*math.Abs(v.speed)
	// 驱动
	acc := v.throttle * v.attr.maxAcc
	if !v.tractionControl && math.Abs(v.throttle) > 0.8 {
		acc *= 1 - noTCWheelspinLoss
	}
	speed := v.speed + acc*dt
	// 阻力与制动只减小速度大小
	if speed > 0 {
		speed = max(speed-dec*dt, 0)
	} else if speed < 0 {
		speed = min(speed+dec*dt, 0)
	}
	v.speed = lo.Clamp(speed, -v.attr.maxReverseSpeed, v.attr.maxSpeed)

	// 转向
	if v.speed != 0 {
		delta := mgl64.DegToRad(v.steering * v.attr.maxSteeringAngle)
		yawRate := v.speed / v.attr.wheelbase * math.Tan(delta)
		// 侧向加速度 a = v * ω，轮胎载荷转移越大抓地越差
		limit := maxLateralAccel * (1 - 0.3*v.wheelLoadRatio) / math.Abs(v.speed)
		yawRate = lo.Clamp(yawRate, -limit, limit)
		v.yaw = geometry.NormalizeAxis(v.yaw + mgl64.RadToDeg(yawRate*dt))
	}
	v.position = v.position.Add(v.Forward().Mul(v.speed * dt))
}
