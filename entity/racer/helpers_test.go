package racer_test

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/racer-sim/clock"
	"github.com/tsinghua-fib-lab/racer-sim/entity"
	"github.com/tsinghua-fib-lab/racer-sim/entity/racer"
	"github.com/tsinghua-fib-lab/racer-sim/entity/track"
	"github.com/tsinghua-fib-lab/racer-sim/rewind"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"github.com/tsinghua-fib-lab/racer-sim/utils/geometry"
	"github.com/tsinghua-fib-lab/racer-sim/utils/randengine"
)

// fakeVehicle 位置与速度由测试直接设定的车辆
type fakeVehicle struct {
	id       int32
	pos      mgl64.Vec3
	yaw      float64
	speedMph float64
	up       mgl64.Vec3 // 零向量表示竖直

	throttle  float64
	brake     float64
	steering  float64
	handbrake bool

	abs          bool
	boost        float64
	tuneCalls    int
	steerCalls   int
	brakeHistory []float64
}

const fakeHalfLength = 200.0
const fakeHeight = 150.0

func newFakeVehicle(id int32, pos mgl64.Vec3, yaw, speedMph float64) *fakeVehicle {
	return &fakeVehicle{id: id, pos: pos, yaw: yaw, speedMph: speedMph}
}

func (v *fakeVehicle) ID() int32                { return v.id }
func (v *fakeVehicle) ForwardSpeedMph() float64 { return v.speedMph }
func (v *fakeVehicle) Location() mgl64.Vec3     { return v.pos }
func (v *fakeVehicle) Yaw() float64             { return v.yaw }
func (v *fakeVehicle) Forward() mgl64.Vec3      { return geometry.ForwardFromYaw(v.yaw) }
func (v *fakeVehicle) FrontPosition() mgl64.Vec3 {
	return v.pos.Add(v.Forward().Mul(fakeHalfLength))
}
func (v *fakeVehicle) BackPosition() mgl64.Vec3 {
	return v.pos.Sub(v.Forward().Mul(fakeHalfLength))
}
func (v *fakeVehicle) TopPosition() mgl64.Vec3 {
	return v.pos.Add(mgl64.Vec3{0, 0, fakeHeight})
}
func (v *fakeVehicle) Up() mgl64.Vec3 {
	if v.up == (mgl64.Vec3{}) {
		return mgl64.Vec3{0, 0, 1}
	}
	return v.up
}
func (v *fakeVehicle) SetThrottle(x float64) { v.throttle = x }
func (v *fakeVehicle) SetBrake(x float64) {
	v.brake = x
	v.brakeHistory = append(v.brakeHistory, x)
}
func (v *fakeVehicle) SetSteering(x float64) {
	v.steering = x
	v.steerCalls++
}
func (v *fakeVehicle) SetHandbrake(on bool)           { v.handbrake = on }
func (v *fakeVehicle) ThrottleInput() float64         { return v.throttle }
func (v *fakeVehicle) SetABSEnabled(on bool)          { v.abs = on; v.tuneCalls++ }
func (v *fakeVehicle) SetTractionControlEnabled(bool) {}
func (v *fakeVehicle) SetBrakingBoostMultiplier(x float64) {
	v.boost = x
}
func (v *fakeVehicle) SetWheelLoadRatio(float64) {}

// fakeVehicleManager 固定车辆集合
type fakeVehicleManager struct {
	vehicles []entity.IVehicle
}

func (m *fakeVehicleManager) Get(id int32) entity.IVehicle {
	v, err := m.GetOrError(id)
	if err != nil {
		panic(err)
	}
	return v
}

func (m *fakeVehicleManager) GetOrError(id int32) (entity.IVehicle, error) {
	if v, ok := lo.Find(m.vehicles, func(v entity.IVehicle) bool { return v.ID() == id }); ok {
		return v, nil
	}
	return nil, fmt.Errorf("no id %d in vehicle data", id)
}

func (m *fakeVehicleManager) Contains(id int32) bool {
	_, err := m.GetOrError(id)
	return err == nil
}

func (m *fakeVehicleManager) Vehicles() []entity.IVehicle { return m.vehicles }
func (m *fakeVehicleManager) Prepare()                    {}
func (m *fakeVehicleManager) Update(float64)              {}

func (m *fakeVehicleManager) remove(id int32) {
	m.vehicles = lo.Reject(m.vehicles, func(v entity.IVehicle, _ int) bool { return v.ID() == id })
}

// visibility 可切换的视线检测
type visibility struct {
	blocked bool
}

func (v *visibility) LineOfSight(from, to mgl64.Vec3) bool { return !v.blocked }

// world 测试用的任务上下文
type world struct {
	clock    *clock.Clock
	timers   *clock.TimerManager
	vehicles *fakeVehicleManager
	tracks   *track.TrackManager
	vis      *visibility
	rw       *rewind.Manager
	rand     *randengine.Engine
	config   *config.RuntimeConfig
}

// 沿X轴的直线赛道，长1000米
var straightTrack = config.Track{ID: 1, Points: []config.Vec3{{0, 0, 0}, {100000, 0, 0}}}

func newWorld(c config.Config, vehicles ...*fakeVehicle) *world {
	if len(c.Tracks) == 0 {
		c.Tracks = []config.Track{straightTrack}
	}
	clk := clock.New(c.Control.Step)
	w := &world{
		clock:    clk,
		timers:   clock.NewTimerManager(clk),
		vehicles: &fakeVehicleManager{},
		tracks:   track.NewManager(),
		vis:      &visibility{},
		rw:       rewind.NewManager(c.Rewind),
		rand:     randengine.New(1),
		config:   config.NewRuntimeConfig(c),
	}
	w.tracks.Init(c.Tracks)
	for _, v := range vehicles {
		w.vehicles.vehicles = append(w.vehicles.vehicles, v)
	}
	return w
}

func (w *world) Clock() *clock.Clock                    { return w.clock }
func (w *world) Timers() *clock.TimerManager            { return w.timers }
func (w *world) VehicleManager() entity.IVehicleManager { return w.vehicles }
func (w *world) TrackManager() entity.ITrackManager     { return w.tracks }
func (w *world) Visibility() entity.IVisibility         { return w.vis }
func (w *world) Rewind() *rewind.Manager                { return w.rw }
func (w *world) Rand() *randengine.Engine               { return w.rand }
func (w *world) RuntimeConfig() *config.RuntimeConfig   { return w.config }

// step 推进一步并执行到期的定时器
func (w *world) step() {
	w.clock.Advance()
	w.timers.Update()
}

// provider 直接持有RacerContext的IRacerContextProvider
type provider struct {
	rc racer.RacerContext
}

func (p *provider) RacerContext() *racer.RacerContext { return &p.rc }

// newProvider 在直线赛道上构造决策状态
func newProvider(ego *fakeVehicle, target mgl64.Vec3) *provider {
	t := track.New(straightTrack)
	p := &provider{rc: racer.RacerContext{
		Vehicle:                   ego,
		RaceTrack:                 t,
		MovementTarget:            target,
		DesiredSpeedMph:           40,
		RaceState:                 track.NewRaceState(t),
		TargetDistanceAlongSpline: target.X(),
		Settings: racer.DifficultySettings{
			MinSpeedMph: 20,
			MaxSpeedMph: 80,
		},
	}}
	return p
}
