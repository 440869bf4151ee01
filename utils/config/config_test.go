package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
	"gopkg.in/yaml.v2"
)

const sample = `
control:
  step:
    start: 0
    total: 100
    interval: 0.1
tracks:
  - id: 1
    points: [[0, 0, 0], [10000, 0, 0]]
vehicles:
  - id: 1
    position: [0, 0, 0]
    ai:
      difficulty: hard
racer:
  unstuck:
    min_stuck_time: 4
`

func TestUnmarshalKeepsDefaults(t *testing.T) {
	c := config.Default()
	require.NoError(t, yaml.UnmarshalStrict([]byte(sample), &c))
	require.NoError(t, c.Validate())

	assert.Equal(t, 4.0, c.Racer.Unstuck.MinStuckTime)
	// 未出现在YAML中的字段保留默认值
	assert.Equal(t, 0.2, c.Racer.Unstuck.TickInterval)
	assert.Equal(t, int32(5), c.Racer.Unstuck.MaxOffsets)
	assert.Equal(t, 1000.0, c.Racer.Follower.LookaheadDistance)
	assert.Contains(t, c.Difficulty, "easy")
	assert.Equal(t, 0.1, c.Rewind.RecordingResolution)
}

func TestValidate(t *testing.T) {
	c := config.Default()
	require.NoError(t, yaml.UnmarshalStrict([]byte(sample), &c))

	bad := c
	bad.Vehicles = []config.Vehicle{{ID: 1, AI: &config.VehicleAI{Difficulty: "insane"}}}
	assert.Error(t, bad.Validate())

	bad = c
	bad.Tracks = []config.Track{{ID: 1, Points: []config.Vec3{{0, 0, 0}}}}
	assert.Error(t, bad.Validate())

	bad = c
	bad.Vehicles = []config.Vehicle{{ID: 2}, {ID: 2}}
	assert.Error(t, bad.Validate())

	bad = c
	bad.Racer.Unstuck.FlippedOverAngle = 0
	assert.Error(t, bad.Validate())
}

func TestUnknownFieldRejected(t *testing.T) {
	c := config.Default()
	assert.Error(t, yaml.UnmarshalStrict([]byte("control:\n  unknown: 1\n"), &c))
}
