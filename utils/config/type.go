package config

// Vec3 世界坐标（厘米），YAML中写作[x, y, z]
type Vec3 [3]float64

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔（秒）
}

// Control 模拟器控制配置
type Control struct {
	Step ControlStep `yaml:"step"`
	Seed uint64      `yaml:"seed,omitempty"` // 随机数种子
	// 所有AI车手完赛后是否提前结束
	StopWhenFinished bool `yaml:"stop_when_finished,omitempty"`
}

// Track 赛道配置
// 说明：赛道由折线控制点描述，circuit为true时首尾相连形成环形赛道
type Track struct {
	ID      int32  `yaml:"id"`
	Points  []Vec3 `yaml:"points"`
	Circuit bool   `yaml:"circuit,omitempty"`
	Laps    int32  `yaml:"laps,omitempty"` // 环形赛道的圈数，非环形赛道忽略
}

// VehicleAI 车辆的AI驾驶配置，为空表示该车不由AI控制
type VehicleAI struct {
	Difficulty string `yaml:"difficulty"` // easy normal hard
}

// Vehicle 车辆配置
type Vehicle struct {
	ID       int32   `yaml:"id"`
	Position Vec3    `yaml:"position"`
	Yaw      float64 `yaml:"yaw,omitempty"` // 初始偏航角（度）

	Length           float64 `yaml:"length,omitempty"`             // 车长（厘米）
	Height           float64 `yaml:"height,omitempty"`             // 车高（厘米）
	Wheelbase        float64 `yaml:"wheelbase,omitempty"`          // 轴距（厘米）
	MaxSpeedMph      float64 `yaml:"max_speed_mph,omitempty"`      // 最高车速
	MaxAcceleration  float64 `yaml:"max_acceleration,omitempty"`   // 最大加速度（厘米/秒²）
	MaxDeceleration  float64 `yaml:"max_deceleration,omitempty"`   // 最大制动减速度（厘米/秒²）
	MaxSteeringAngle float64 `yaml:"max_steering_angle,omitempty"` // 最大前轮转角（度）

	Throttle float64    `yaml:"throttle,omitempty"` // 非AI车辆的恒定油门
	AI       *VehicleAI `yaml:"ai,omitempty"`
}

// Occluder 遮挡物（球体），阻挡视线检测
type Occluder struct {
	Center Vec3    `yaml:"center"`
	Radius float64 `yaml:"radius"`
}

// Detector 障碍物检测组件配置
type Detector struct {
	TickInterval            float64 `yaml:"tick_interval"`
	DistanceThresholdMeters float64 `yaml:"distance_threshold_meters"`
	SightHeightOffset       float64 `yaml:"sight_height_offset"` // 视线终点相对候选车顶的抬高（厘米）
}

// Unstuck 脱困组件配置
type Unstuck struct {
	TickInterval      float64 `yaml:"tick_interval"`
	MinStuckTime      float64 `yaml:"min_stuck_time"`      // 秒
	MinAverageSpeed   float64 `yaml:"min_average_speed"`   // 厘米/秒
	UnstuckSeekOffset float64 `yaml:"unstuck_seek_offset"` // 厘米
	MaxOffsets        int32   `yaml:"max_offsets"`
	FlippedOverAngle  float64 `yaml:"flipped_over_angle"` // 车身向上方向偏离竖直超过此角度（度）视为翻车
}

// Follower 赛道跟随组件配置
type Follower struct {
	LookaheadDistance        float64 `yaml:"lookahead_distance"` // 厘米
	CurvatureLookaheadFactor float64 `yaml:"curvature_lookahead_factor"`
}

// VehicleControl 车辆控制组件配置
type VehicleControl struct {
	TickInterval                         float64 `yaml:"tick_interval"` // 0表示每步
	TargetReachedRadius                  float64 `yaml:"target_reached_radius"`
	MaxSteeringAngle                     float64 `yaml:"max_steering_angle"`
	TurningCircleRadius                  float64 `yaml:"turning_circle_radius"`
	DefaultDesiredSpeedMph               float64 `yaml:"default_desired_speed_mph"`
	DampeningDistance                    float64 `yaml:"dampening_distance"`
	DampeningExponent                    float64 `yaml:"dampening_exponent"`
	FullThrottleSpeedThresholdMph        float64 `yaml:"full_throttle_speed_threshold_mph"`
	FullThrottleExponent                 float64 `yaml:"full_throttle_exponent"`
	DeltaSpeedExponent                   float64 `yaml:"delta_speed_exponent"`
	RawFactorSwitchoverThreshold         float64 `yaml:"raw_factor_switchover_threshold"`
	TurnAroundCosineThreshold            float64 `yaml:"turn_around_cosine_threshold"`
	ContinueTurningAroundCosineThreshold float64 `yaml:"continue_turning_around_cosine_threshold"`
	ReverseThrottleValue                 float64 `yaml:"reverse_throttle_value"`
	ReverseSpeedThresholdMph             float64 `yaml:"reverse_speed_threshold_mph"`
}

// Controller 车手控制器配置
type Controller struct {
	MaxTrackDistanceMeters float64 `yaml:"max_track_distance_meters"` // 可选赛道的最大距离
	TuningDelay            float64 `yaml:"tuning_delay"`              // 附身后延迟应用车辆调校的时间（秒）
	StopSteeringDeviation  float64 `yaml:"stop_steering_deviation"`   // 停赛时随机转向偏差上限
	StopBrake              float64 `yaml:"stop_brake"`
}

// Barks 语音提示配置
type Barks struct {
	Cooldown float64 `yaml:"cooldown"` // 同一提示的冷却时间（秒）
}

// Racer AI车手各组件配置
type Racer struct {
	Detector       Detector       `yaml:"detector"`
	Unstuck        Unstuck        `yaml:"unstuck"`
	Follower       Follower       `yaml:"follower"`
	VehicleControl VehicleControl `yaml:"vehicle_control"`
	Controller     Controller     `yaml:"controller"`
	Barks          Barks          `yaml:"barks"`
}

// DifficultyTier 难度档位调校参数
// 说明：speed_vs_curvature为曲率到速度系数的分段线性曲线，为空时使用1-曲率
type DifficultyTier struct {
	MinSpeedMph      float64      `yaml:"min_speed_mph"`
	MaxSpeedMph      float64      `yaml:"max_speed_mph"`
	ABS              bool         `yaml:"abs"`
	TractionControl  bool         `yaml:"traction_control"`
	BrakingBoost     float64      `yaml:"braking_boost"`
	WheelLoadRatio   float64      `yaml:"wheel_load_ratio"`
	SpeedVsCurvature [][2]float64 `yaml:"speed_vs_curvature,omitempty"`
}

// Rewind 时间回溯配置
type Rewind struct {
	RecordingResolution float64 `yaml:"recording_resolution"` // 快照间隔（秒）
	MaxRecordingLength  float64 `yaml:"max_recording_length"` // 最长记录时间（秒）
}

// Config YAML配置文件的根结构
type Config struct {
	Control    Control                   `yaml:"control"`
	Tracks     []Track                   `yaml:"tracks"`
	Vehicles   []Vehicle                 `yaml:"vehicles"`
	Occluders  []Occluder                `yaml:"occluders,omitempty"`
	Racer      Racer                     `yaml:"racer,omitempty"`
	Difficulty map[string]DifficultyTier `yaml:"difficulty,omitempty"` // 按档位整体覆盖
	Rewind     Rewind                    `yaml:"rewind,omitempty"`
}
