package config

import (
	"fmt"

	"github.com/samber/lo"
)

// RuntimeConfig 运行时配置
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
func NewRuntimeConfig(config Config) *RuntimeConfig {
	return &RuntimeConfig{
		All: config,
		C:   config.Control,
	}
}

// DefaultRacer AI车手各组件的默认参数
func DefaultRacer() Racer {
	return Racer{
		Detector: Detector{
			TickInterval:            0.5,
			DistanceThresholdMeters: 50,
			SightHeightOffset:       100,
		},
		Unstuck: Unstuck{
			TickInterval:      0.2,
			MinStuckTime:      3.0,
			MinAverageSpeed:   100,
			UnstuckSeekOffset: 1000,
			MaxOffsets:        5,
			FlippedOverAngle:  60,
		},
		Follower: Follower{
			LookaheadDistance:        1000,
			CurvatureLookaheadFactor: 2,
		},
		VehicleControl: VehicleControl{
			TickInterval:                         0,
			TargetReachedRadius:                  250,
			MaxSteeringAngle:                     45,
			TurningCircleRadius:                  1200,
			DefaultDesiredSpeedMph:               40,
			DampeningDistance:                    50,
			DampeningExponent:                    2,
			FullThrottleSpeedThresholdMph:        50,
			FullThrottleExponent:                 1.0 / 3,
			DeltaSpeedExponent:                   3,
			RawFactorSwitchoverThreshold:         0.1,
			TurnAroundCosineThreshold:            0,
			ContinueTurningAroundCosineThreshold: 0.25,
			ReverseThrottleValue:                 -1.0 / 3,
			ReverseSpeedThresholdMph:             5,
		},
		Controller: Controller{
			MaxTrackDistanceMeters: 500,
			TuningDelay:            0.5,
			StopSteeringDeviation:  0.3,
			StopBrake:              1,
		},
		Barks: Barks{
			Cooldown: 10,
		},
	}
}

// DifficultyNames 合法的难度档位名称
var DifficultyNames = []string{"easy", "normal", "hard"}

// DefaultDifficulty 三个难度档位的默认调校
func DefaultDifficulty() map[string]DifficultyTier {
	return map[string]DifficultyTier{
		"easy": {
			MinSpeedMph:      20,
			MaxSpeedMph:      55,
			ABS:              true,
			TractionControl:  true,
			BrakingBoost:     1,
			WheelLoadRatio:   0.5,
			SpeedVsCurvature: [][2]float64{{0, 1}, {0.1, 0.7}, {0.5, 0.35}, {1, 0.2}},
		},
		"normal": {
			MinSpeedMph:     25,
			MaxSpeedMph:     70,
			ABS:             true,
			TractionControl: true,
			BrakingBoost:    1.5,
			WheelLoadRatio:  0.35,
		},
		"hard": {
			MinSpeedMph:     30,
			MaxSpeedMph:     90,
			ABS:             true,
			TractionControl: false,
			BrakingBoost:    2,
			WheelLoadRatio:  0.2,
		},
	}
}

// Default 带默认值的配置，YAML解析前先用它初始化，未出现的字段保留默认值
func Default() Config {
	return Config{
		Control: Control{
			Step: ControlStep{Start: 0, Total: 3000, Interval: 0.05},
		},
		Racer:      DefaultRacer(),
		Difficulty: DefaultDifficulty(),
		Rewind: Rewind{
			RecordingResolution: 0.1,
			MaxRecordingLength:  100,
		},
	}
}

// Validate 检查配置的合法性
func (c *Config) Validate() error {
	if c.Control.Step.Interval <= 0 {
		return fmt.Errorf("control.step.interval must be positive, got %v", c.Control.Step.Interval)
	}
	if c.Control.Step.Total <= 0 {
		return fmt.Errorf("control.step.total must be positive, got %v", c.Control.Step.Total)
	}
	if dup := lo.FindDuplicatesBy(c.Tracks, func(t Track) int32 { return t.ID }); len(dup) > 0 {
		return fmt.Errorf("duplicate track id %d", dup[0].ID)
	}
	for _, t := range c.Tracks {
		if len(t.Points) < 2 {
			return fmt.Errorf("track %d needs at least 2 points, got %d", t.ID, len(t.Points))
		}
	}
	if dup := lo.FindDuplicatesBy(c.Vehicles, func(v Vehicle) int32 { return v.ID }); len(dup) > 0 {
		return fmt.Errorf("duplicate vehicle id %d", dup[0].ID)
	}
	for name := range c.Difficulty {
		if !lo.Contains(DifficultyNames, name) {
			return fmt.Errorf("difficulty: unknown tier %q, must be one of %v", name, DifficultyNames)
		}
	}
	for _, v := range c.Vehicles {
		if v.AI == nil {
			continue
		}
		if _, ok := c.Difficulty[v.AI.Difficulty]; !ok {
			return fmt.Errorf("vehicle %d: unknown difficulty %q, must be one of %v",
				v.ID, v.AI.Difficulty, lo.Keys(c.Difficulty))
		}
	}
	u := c.Racer.Unstuck
	if u.TickInterval <= 0 || u.MinStuckTime < u.TickInterval {
		return fmt.Errorf("racer.unstuck: min_stuck_time %v must cover at least one tick_interval %v",
			u.MinStuckTime, u.TickInterval)
	}
	if u.FlippedOverAngle <= 0 || u.FlippedOverAngle > 180 {
		return fmt.Errorf("racer.unstuck.flipped_over_angle must be in (0, 180], got %v", u.FlippedOverAngle)
	}
	if c.Racer.Follower.LookaheadDistance <= 0 {
		return fmt.Errorf("racer.follower.lookahead_distance must be positive")
	}
	if c.Rewind.RecordingResolution <= 0 {
		return fmt.Errorf("rewind.recording_resolution must be positive")
	}
	return nil
}
