package racer_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/racer-sim/entity/racer"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

func newControlFixture(speedMph float64) (*racer.VehicleControlComponent, *fakeVehicle, *[]racer.TargetReached) {
	v := newFakeVehicle(1, mgl64.Vec3{0, 0, 0}, 0, speedMph)
	p := newProvider(v, mgl64.Vec3{5000, 0, 0})
	c := racer.NewVehicleControlComponent(p, config.DefaultRacer().VehicleControl, testLog)
	c.SetActive(true)
	reached := &[]racer.TargetReached{}
	c.OnTargetReached.Add(func(e racer.TargetReached) { *reached = append(*reached, e) })
	return c, v, reached
}

func TestSmoothThrottleBlend(t *testing.T) {
	c, _, _ := newControlFixture(30)
	c.SetDesiredSpeedMph(40)
	// rawFactor=0.25>=0.1，与全油门曲线(40/50)^(1/3)取大
	got := c.SmoothThrottle(30)
	assert.Greater(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
	assert.InDelta(t, math.Pow(0.8, 1.0/3), got, 1e-9)
}

func TestSmoothThrottleTable(t *testing.T) {
	tests := []struct {
		name    string
		desired float64
		current float64
		want    float64
	}{
		{"at speed", 40, 40, 0},
		{"slightly under", 40, 38, math.Pow(0.05, 3)},
		{"over", 40, 60, -math.Pow(0.5, 3)},
		{"far over", 40, 200, -1},
		{"standing start", 80, 0, 1},
		{"stop requested", 0, 10, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newControlFixture(tt.current)
			c.SetDesiredSpeedMph(tt.desired)
			assert.InDelta(t, tt.want, c.SmoothThrottle(tt.current), 1e-9)
		})
	}
}

func TestSpeedControlsBrake(t *testing.T) {
	c, v, _ := newControlFixture(60)
	c.SetSpeedControls(-0.125)
	assert.Equal(t, 0.0, v.throttle)
	assert.Equal(t, 0.125, v.brake)
	assert.False(t, v.handbrake)

	c.SetSpeedControls(0.5)
	assert.Equal(t, 0.5, v.throttle)
	assert.Equal(t, 0.0, v.brake)
}

func TestSteeringSmoothingAtTarget(t *testing.T) {
	c, v, _ := newControlFixture(30)
	assert.Equal(t, 0.0, c.SteeringSmoothingValue(0))
	assert.InDelta(t, 0.25, c.SteeringSmoothingValue(25), 1e-12)
	assert.Equal(t, 1.0, c.SteeringSmoothingValue(500))

	v.steering = 0.7
	assert.Equal(t, 0.0, c.CalculateSteering(mgl64.Vec3{}))
	assert.Equal(t, 0.0, v.steering)
}

func TestSteeringUsesSteeringInput(t *testing.T) {
	c, v, _ := newControlFixture(30)
	// 目标在左前方45度
	assert.InDelta(t, 1.0, c.CalculateSteering(mgl64.Vec3{1000, 1000, 0}), 1e-9)
	assert.InDelta(t, 1.0, v.steering, 1e-9)
	assert.InDelta(t, -0.5, c.CalculateSteering(mgl64.Vec3{1000, -1000 * math.Tan(mgl64.DegToRad(22.5)), 0}), 1e-9)
	assert.Equal(t, 2, v.steerCalls)
	assert.Empty(t, v.brakeHistory)
}

func TestControlTargetReachedEdgeTriggered(t *testing.T) {
	c, v, reached := newControlFixture(30)
	c.SetMovementTarget(mgl64.Vec3{300, 0, 0})
	c.Control()
	c.Control()
	require.Len(t, *reached, 1)
	assert.Equal(t, int32(1), (*reached)[0].Vehicle.ID())

	// 同一目标不会重新触发
	c.SetMovementTarget(mgl64.Vec3{300, 0, 0})
	c.Control()
	assert.Len(t, *reached, 1)

	// 新目标清除标记
	c.SetMovementTarget(mgl64.Vec3{3000, 0, 0})
	c.Control()
	assert.Len(t, *reached, 1)
	v.pos = mgl64.Vec3{2700, 0, 0}
	c.Control()
	assert.Len(t, *reached, 2)
}

func TestControlWithoutTarget(t *testing.T) {
	c, v, reached := newControlFixture(30)
	c.Control()
	assert.Empty(t, *reached)
	assert.Equal(t, 0, v.steerCalls)
}

func TestControlTurnAround(t *testing.T) {
	c, v, _ := newControlFixture(20)
	// 目标在车后略偏左，转向圈半径1200*20/10=2400
	c.SetMovementTarget(mgl64.Vec3{-800, 100, 0})
	c.Control()
	assert.True(t, c.TurningAround())
	assert.True(t, v.handbrake)
	assert.Equal(t, 1.0, v.brake)
	assert.Equal(t, 0.0, v.throttle)
	assert.Equal(t, -1.0, v.steering)

	// 减速到阈值以下后真正倒车
	v.speedMph = 3
	c.SetMovementTarget(mgl64.Vec3{-100, -100, 0})
	c.Control()
	assert.True(t, c.TurningAround())
	assert.False(t, v.handbrake)
	assert.InDelta(t, -1.0/3, v.throttle, 1e-12)
	assert.Equal(t, 1.0, v.steering)
}

func TestControlNoTurnAroundWhenFar(t *testing.T) {
	c, v, _ := newControlFixture(20)
	c.SetDesiredSpeedMph(40)
	c.SetMovementTarget(mgl64.Vec3{-5000, 0, 0})
	c.Control()
	assert.False(t, c.TurningAround())
	assert.Greater(t, v.throttle, 0.0)
}

func TestControlOnTargetUpdated(t *testing.T) {
	c, _, _ := newControlFixture(30)
	c.OnTargetUpdated(racer.TargetUpdated{Target: mgl64.Vec3{1, 2, 3}, DesiredSpeedMph: 55})
	target, ok := c.MovementTarget()
	assert.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, target)
	assert.Equal(t, 55.0, c.DesiredSpeedMph())
}
