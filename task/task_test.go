package task_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/racer-sim/entity/racer"
	"github.com/tsinghua-fib-lab/racer-sim/task"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

func TestOccluderVisibility(t *testing.T) {
	v := task.NewOccluderVisibility([]config.Occluder{{Center: config.Vec3{500, 0, 0}, Radius: 100}})
	assert.False(t, v.LineOfSight(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1000, 0, 0}))
	assert.True(t, v.LineOfSight(mgl64.Vec3{0, 200, 0}, mgl64.Vec3{1000, 200, 0}))
	// 遮挡物在线段延长线上
	assert.True(t, v.LineOfSight(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{300, 0, 0}))
	assert.True(t, task.NewOccluderVisibility(nil).LineOfSight(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}))
	assert.Panics(t, func() {
		task.NewOccluderVisibility([]config.Occluder{{Radius: 0}})
	})
}

func raceConfig() config.Config {
	c := config.Default()
	c.Control.StopWhenFinished = true
	c.Tracks = []config.Track{{ID: 1, Points: []config.Vec3{{0, 0, 0}, {20000, 0, 0}}}}
	c.Vehicles = []config.Vehicle{
		{ID: 1, AI: &config.VehicleAI{Difficulty: "normal"}},
		{ID: 2, Position: config.Vec3{0, 2000, 0}, Throttle: 0.2},
	}
	return c
}

func TestRunFinishesRace(t *testing.T) {
	c := raceConfig()
	require.NoError(t, c.Validate())
	ctx := task.NewContext(c)
	ctx.Run()

	assert.Less(t, ctx.Clock().InternalStep, c.Control.Step.Total-1)
	assert.True(t, ctx.RacerManager().AllFinished())
	standings := ctx.RacerManager().Standings()
	require.Len(t, standings, 1)
	assert.True(t, standings[0].Finished)
	assert.Greater(t, standings[0].FinishTime, 0.0)
	assert.Equal(t, racer.RacingStopped, ctx.RacerManager().Get(1).State())

	front := ctx.VehicleManager().Get(1).FrontPosition()
	assert.InDelta(t, 20000, front.X(), 1000)
	assert.InDelta(t, 0, front.Y(), 1)
	// 非AI车辆按恒定油门行驶
	assert.Greater(t, ctx.VehicleManager().Get(2).Location().X(), 0.0)
	assert.Equal(t, 2, ctx.Rewind().Len())
}

func TestRunStopsAtEndStep(t *testing.T) {
	c := raceConfig()
	c.Vehicles = c.Vehicles[1:]
	c.Control.Step.Total = 10
	ctx := task.NewContext(c)
	ctx.Run()
	assert.Equal(t, int32(9), ctx.Clock().InternalStep)
	assert.False(t, ctx.RacerManager().AllFinished())
}

func TestRunClosed(t *testing.T) {
	ctx := task.NewContext(raceConfig())
	ctx.Close()
	ctx.Run()
	assert.Equal(t, int32(0), ctx.Clock().InternalStep)
	assert.Equal(t, racer.Racing, ctx.RacerManager().Get(1).State())
}
