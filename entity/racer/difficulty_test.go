package racer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/racer-sim/entity/racer"
	"github.com/tsinghua-fib-lab/racer-sim/utils/config"
)

func TestParseDifficulty(t *testing.T) {
	for _, d := range []racer.Difficulty{racer.Easy, racer.Normal, racer.Hard} {
		got, err := racer.ParseDifficulty(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	got, err := racer.ParseDifficulty(" HARD ")
	require.NoError(t, err)
	assert.Equal(t, racer.Hard, got)

	_, err = racer.ParseDifficulty("insane")
	assert.Error(t, err)
}

func TestCurve(t *testing.T) {
	c := racer.NewCurve([][2]float64{{1, 0.2}, {0, 1}, {0.5, 0.4}})
	assert.Equal(t, 1.0, c.Eval(-1))
	assert.Equal(t, 1.0, c.Eval(0))
	assert.InDelta(t, 0.7, c.Eval(0.25), 1e-12)
	assert.InDelta(t, 0.4, c.Eval(0.5), 1e-12)
	assert.InDelta(t, 0.3, c.Eval(0.75), 1e-12)
	assert.Equal(t, 0.2, c.Eval(2))
	assert.Equal(t, 0.0, racer.Curve{}.Eval(0.5))
}

func TestSpeedFactor(t *testing.T) {
	s := racer.DifficultySettings{}
	assert.InDelta(t, 0.75, s.SpeedFactor(0.25), 1e-12)
	s.SpeedVsCurvature = racer.NewCurve([][2]float64{{0, 0.9}, {1, 0.1}})
	assert.InDelta(t, 0.5, s.SpeedFactor(0.5), 1e-12)
}

func TestDifficultyProvider(t *testing.T) {
	p := racer.NewDifficultyProvider(config.DefaultDifficulty())
	easy := p.Settings(racer.Easy)
	hard := p.Settings(racer.Hard)
	assert.Less(t, easy.MaxSpeedMph, hard.MaxSpeedMph)
	assert.False(t, easy.SpeedVsCurvature.Empty())
	assert.True(t, hard.SpeedVsCurvature.Empty())
	assert.False(t, hard.TractionControlEnabled)

	// 未配置的档位退回normal
	partial := racer.NewDifficultyProvider(map[string]config.DifficultyTier{
		"normal": {MinSpeedMph: 10, MaxSpeedMph: 20},
	})
	assert.Equal(t, 20.0, partial.Settings(racer.Hard).MaxSpeedMph)

	assert.Panics(t, func() {
		racer.NewDifficultyProvider(map[string]config.DifficultyTier{"insane": {}})
	})
	assert.Panics(t, func() {
		racer.NewDifficultyProvider(map[string]config.DifficultyTier{}).Settings(racer.Easy)
	})
}
