package entity

import (
	"github.com/tsinghua-fib-lab/racer-sim/clock"
	"github.com/tsinghua-fib-lab/racer-sim/rewind"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"github.com/tsinghua-fib-lab/racer-sim/utils/randengine"
)

type ITaskContext interface {
	Clock() *clock.Clock
	Timers() *clock.TimerManager
	VehicleManager() IVehicleManager
	TrackManager() ITrackManager
	Visibility() IVisibility
	Rewind() *rewind.Manager
	Rand() *randengine.Engine
	RuntimeConfig() *config.RuntimeConfig
}
