package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a YAML-friendly wrapper around time.Duration that accepts human
// readable strings such as "50ms" while still allowing integer nanoseconds.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalYAML encodes the duration using the canonical string representation.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML decodes a duration from either a string (e.g. "250ms") or an
// integer number of nanoseconds. Empty strings and null values decode to zero.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: expected scalar, got kind %d", value.Kind)
	}
	if value.Tag == "!!null" || value.Value == "" {
		*d = 0
		return nil
	}
	if value.Tag == "!!int" {
		var n int64
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("duration: decode integer: %w", err)
		}
		*d = Duration(time.Duration(n))
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config captures every tunable of the navigation engine.
type Config struct {
	Pathfinding PathfindingConfig `yaml:"pathfinding"`
	Pool        PoolConfig        `yaml:"pool"`
	Steering    SteeringConfig    `yaml:"steering"`
	Drop        DropConfig        `yaml:"drop"`
	Navigation  NavigationConfig  `yaml:"navigation"`
	Terrain     TerrainConfig     `yaml:"terrain"`
}

type PathfindingConfig struct {
	MaxSearchNodes int     `yaml:"max_search_nodes"`
	MaxDrop        int     `yaml:"max_drop"`
	SnapDown       int     `yaml:"snap_down"`
	SnapUp         int     `yaml:"snap_up"`
	ReachDistance  float64 `yaml:"reach_distance"`
}

type PoolConfig struct {
	ScanRadius   int     `yaml:"scan_radius"`
	ScanDepth    int     `yaml:"scan_depth"`
	MaxPoolCells int     `yaml:"max_pool_cells"`
	SizeWeight   float64 `yaml:"size_weight"`
}

type SteeringConfig struct {
	Lookahead        int     `yaml:"lookahead"`
	GraceTicks       int     `yaml:"grace_ticks"`
	DodgeDirections  int     `yaml:"dodge_directions"`
	BlockedThreshold float64 `yaml:"blocked_threshold"`
}

type DropConfig struct {
	SteerEveryTicks int      `yaml:"steer_every_ticks"`
	RotationSpeed   float64  `yaml:"rotation_speed"` // degrees per second
	MaxFrameDelta   Duration `yaml:"max_frame_delta"`
	CommandQueue    int      `yaml:"command_queue"`
}

type NavigationConfig struct {
	TickRate            Duration `yaml:"tick_rate"`
	ProximityRange      float64  `yaml:"proximity_range"`
	InteractRange       float64  `yaml:"interact_range"`
	FaceAimRange        float64  `yaml:"face_aim_range"`
	ApproachRange       float64  `yaml:"approach_range"`
	PathReach           float64  `yaml:"path_reach"`
	WaypointReach       float64  `yaml:"waypoint_reach"`
	WaypointSkip        float64  `yaml:"waypoint_skip"`
	AimTolerance        float64  `yaml:"aim_tolerance"`
	FineAimTolerance    float64  `yaml:"fine_aim_tolerance"`
	TurnRate            float64  `yaml:"turn_rate"`
	TurnRateBoostCap    float64  `yaml:"turn_rate_boost_cap"`
	FinalTurnRate       float64  `yaml:"final_turn_rate"`
	InteractTicks       int      `yaml:"interact_ticks"`
	InteractAttempts    int      `yaml:"interact_attempts"`
	MoveEpsilon         float64  `yaml:"move_epsilon"`
	JumpAfterTicks      int      `yaml:"jump_after_ticks"`
	RecalcAfterTicks    int      `yaml:"recalc_after_ticks"`
	AbandonAfterTicks   int      `yaml:"abandon_after_ticks"`
	PathCooldownTicks   int      `yaml:"path_cooldown_ticks"`
	RecalcCooldownTicks int      `yaml:"recalc_cooldown_ticks"`
	FlyTapTicks         int      `yaml:"fly_tap_ticks"`
	EyeHeight           float64  `yaml:"eye_height"`
	CommandQueue        int      `yaml:"command_queue"`
}

type TerrainConfig struct {
	Seed       int64   `yaml:"seed"`
	Alpha      float64 `yaml:"alpha"`
	Beta       float64 `yaml:"beta"`
	Octaves    int32   `yaml:"octaves"`
	Frequency  float64 `yaml:"frequency"`
	Amplitude  float64 `yaml:"amplitude"`
	BaseHeight int     `yaml:"base_height"`
	WaterLevel int     `yaml:"water_level"`
}

// Load reads configuration from a YAML file if provided. An empty path returns defaults.
// Fields missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

func Default() *Config {
	return &Config{
		Pathfinding: PathfindingConfig{
			MaxSearchNodes: 3000,
			MaxDrop:        3,
			SnapDown:       5,
			SnapUp:         3,
			ReachDistance:  1.5,
		},
		Pool: PoolConfig{
			ScanRadius:   10,
			ScanDepth:    400,
			MaxPoolCells: 200,
			SizeWeight:   1.5,
		},
		Steering: SteeringConfig{
			Lookahead:        200,
			GraceTicks:       8,
			DodgeDirections:  16,
			BlockedThreshold: 1000,
		},
		Drop: DropConfig{
			SteerEveryTicks: 4,
			RotationSpeed:   220,
			MaxFrameDelta:   Duration(100 * time.Millisecond),
			CommandQueue:    8,
		},
		Navigation: NavigationConfig{
			TickRate:            Duration(50 * time.Millisecond),
			ProximityRange:      5.0,
			InteractRange:       4.5,
			FaceAimRange:        5.0,
			ApproachRange:       2.5,
			PathReach:           1.5,
			WaypointReach:       1.2,
			WaypointSkip:        1.5,
			AimTolerance:        8,
			FineAimTolerance:    3,
			TurnRate:            0.10,
			TurnRateBoostCap:    0.05,
			FinalTurnRate:       0.25,
			InteractTicks:       15,
			InteractAttempts:    5,
			MoveEpsilon:         0.03,
			JumpAfterTicks:      8,
			RecalcAfterTicks:    30,
			AbandonAfterTicks:   80,
			PathCooldownTicks:   40,
			RecalcCooldownTicks: 60,
			FlyTapTicks:         3,
			EyeHeight:           1.62,
			CommandQueue:        16,
		},
		Terrain: TerrainConfig{
			Seed:       1337,
			Alpha:      2.0,
			Beta:       2.0,
			Octaves:    3,
			Frequency:  0.04,
			Amplitude:  6,
			BaseHeight: 8,
			WaterLevel: 6,
		},
	}
}

func (c *Config) Validate() error {
	p := c.Pathfinding
	if p.MaxSearchNodes <= 0 {
		return errors.New("pathfinding.max_search_nodes must be positive")
	}
	if p.MaxDrop < 1 {
		return errors.New("pathfinding.max_drop must be at least 1")
	}
	if p.SnapDown < 0 || p.SnapUp < 0 {
		return errors.New("pathfinding snap distances cannot be negative")
	}
	if p.ReachDistance < 0 {
		return errors.New("pathfinding.reach_distance cannot be negative")
	}
	if c.Pool.ScanRadius < 0 || c.Pool.ScanDepth <= 0 {
		return errors.New("pool scan radius/depth must be positive")
	}
	if c.Pool.MaxPoolCells <= 0 {
		return errors.New("pool.max_pool_cells must be positive")
	}
	s := c.Steering
	if s.Lookahead <= 0 {
		return errors.New("steering.lookahead must be positive")
	}
	if s.GraceTicks < 0 || s.GraceTicks >= s.Lookahead {
		return errors.New("steering.grace_ticks must be within [0, lookahead)")
	}
	if s.DodgeDirections < 2 || s.DodgeDirections%2 != 0 {
		return errors.New("steering.dodge_directions must be an even number >= 2")
	}
	if s.BlockedThreshold <= 0 {
		return errors.New("steering.blocked_threshold must be positive")
	}
	if c.Drop.SteerEveryTicks <= 0 {
		return errors.New("drop.steer_every_ticks must be positive")
	}
	if c.Drop.RotationSpeed <= 0 {
		return errors.New("drop.rotation_speed must be positive")
	}
	if c.Drop.CommandQueue <= 0 {
		return errors.New("drop.command_queue must be positive")
	}
	n := c.Navigation
	if n.TickRate <= 0 {
		return errors.New("navigation.tick_rate must be positive")
	}
	if n.InteractRange <= 0 || n.InteractRange > n.ProximityRange {
		return errors.New("navigation.interact_range must be within (0, proximity_range]")
	}
	if n.ApproachRange <= 0 || n.ApproachRange > n.ProximityRange {
		return errors.New("navigation.approach_range must be within (0, proximity_range]")
	}
	if n.FineAimTolerance <= 0 || n.FineAimTolerance > n.AimTolerance {
		return errors.New("navigation.fine_aim_tolerance must be within (0, aim_tolerance]")
	}
	if n.InteractTicks <= 0 || n.InteractAttempts <= 0 {
		return errors.New("navigation interaction window and attempts must be positive")
	}
	if !(n.JumpAfterTicks < n.RecalcAfterTicks && n.RecalcAfterTicks < n.AbandonAfterTicks) {
		return errors.New("navigation stuck thresholds must satisfy jump < recalc < abandon")
	}
	// the fly toggle is a double tap: press, release, press
	if n.FlyTapTicks < 3 {
		return errors.New("navigation.fly_tap_ticks must be at least 3")
	}
	if n.CommandQueue <= 0 {
		return errors.New("navigation.command_queue must be positive")
	}
	return nil
}
