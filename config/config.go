// Package config provides configuration loading and access for the trainer.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// NumActions is the size of the action space: 8 moves plus reproduce.
const NumActions = 9

// Config holds all configuration parameters.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Cell      CellConfig      `yaml:"cell"`
	Reward    RewardConfig    `yaml:"reward"`
	Neural    NeuralConfig    `yaml:"neural"`
	Training  TrainingConfig  `yaml:"training"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds nutrient grid parameters.
type WorldConfig struct {
	Width           int     `yaml:"width"`            // Grid is Width x Width sites
	InitialNutrient float64 `yaml:"initial_nutrient"` // Uniform concentration at reset
	DiffusionRate   float64 `yaml:"diffusion_rate"`   // Fraction of each neighbour difference moved per tick
}

// CellConfig holds cell economics.
type CellConfig struct {
	SenseRadius        int     `yaml:"sense_radius"`        // Observation window radius (1 = 3x3)
	MoveCost           float64 `yaml:"move_cost"`           // Basal cost paid by every action
	ReproduceCost      float64 `yaml:"reproduce_cost"`      // Total cost of a successful division
	ReproduceThreshold float64 `yaml:"reproduce_threshold"` // Site nutrient required to divide
	MetabolicCost      float64 `yaml:"metabolic_cost"`      // Per-tick cost of passive cells
	DeathThreshold     float64 `yaml:"death_threshold"`     // Below this the cell starves
}

// RewardConfig holds reward magnitudes.
type RewardConfig struct {
	Reproduce       float64 `yaml:"reproduce"`         // Division reward; death pays the negative
	Exit            float64 `yaml:"exit"`              // Bonus for leaving the domain
	SegmentOnReward bool    `yaml:"segment_on_reward"` // Reset discounted sum at non-zero rewards
}

// NeuralConfig holds policy network parameters.
type NeuralConfig struct {
	HiddenSize int `yaml:"hidden_size"`
}

// TrainingConfig holds policy-gradient hyperparameters.
type TrainingConfig struct {
	BatchSize          int     `yaml:"batch_size"`           // Episodes per parameter update
	LearningRate       float64 `yaml:"learning_rate"`
	Gamma              float64 `yaml:"gamma"`                // Reward discount
	DecayRate          float64 `yaml:"decay_rate"`           // RMSProp cache decay
	Epsilon            float64 `yaml:"epsilon"`              // RMSProp denominator floor
	RunningRewardDecay float64 `yaml:"running_reward_decay"` // EMA decay of episode reward
	MaxEpisodes        int     `yaml:"max_episodes"`
	Resume             bool    `yaml:"resume"`
	CheckpointInterval int     `yaml:"checkpoint_interval"` // Episodes between checkpoints (0 disables)
	CheckpointFile     string  `yaml:"checkpoint_file"`
	Seed               int64   `yaml:"seed"` // 0 = time-based
}

// TelemetryConfig holds logging and output parameters.
type TelemetryConfig struct {
	LogInterval      int `yaml:"log_interval"`       // Episodes per stats window
	PerfWindow       int `yaml:"perf_window"`        // Episodes averaged by the perf collector
	PlotInterval     int `yaml:"plot_interval"`      // Episodes between reward plot rewrites
	SnapshotInterval int `yaml:"snapshot_interval"`  // Episodes between environment snapshots
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	NumInputs  int // (2*SenseRadius+1)^2
	NumActions int
	Center     int // Width / 2
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.World.Width < 3 {
		errs = append(errs, fmt.Errorf("world.width must be >= 3, got %d", c.World.Width))
	}
	if c.World.InitialNutrient < 0 {
		errs = append(errs, fmt.Errorf("world.initial_nutrient must be >= 0, got %g", c.World.InitialNutrient))
	}
	if c.World.DiffusionRate < 0 {
		errs = append(errs, fmt.Errorf("world.diffusion_rate must be >= 0, got %g", c.World.DiffusionRate))
	}
	if c.Cell.SenseRadius < 1 {
		errs = append(errs, fmt.Errorf("cell.sense_radius must be >= 1, got %d", c.Cell.SenseRadius))
	}
	if c.Cell.MoveCost <= 0 {
		errs = append(errs, fmt.Errorf("cell.move_cost must be > 0, got %g", c.Cell.MoveCost))
	}
	if c.Cell.ReproduceCost < c.Cell.MoveCost {
		errs = append(errs, fmt.Errorf("cell.reproduce_cost (%g) must be >= cell.move_cost (%g)", c.Cell.ReproduceCost, c.Cell.MoveCost))
	}
	if c.Cell.DeathThreshold <= 0 {
		errs = append(errs, fmt.Errorf("cell.death_threshold must be > 0, got %g", c.Cell.DeathThreshold))
	}
	if c.Neural.HiddenSize < 1 {
		errs = append(errs, fmt.Errorf("neural.hidden_size must be >= 1, got %d", c.Neural.HiddenSize))
	}
	if c.Training.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("training.batch_size must be >= 1, got %d", c.Training.BatchSize))
	}
	if c.Training.Gamma < 0 || c.Training.Gamma > 1 {
		errs = append(errs, fmt.Errorf("training.gamma must be in [0,1], got %g", c.Training.Gamma))
	}
	if c.Training.DecayRate < 0 || c.Training.DecayRate >= 1 {
		errs = append(errs, fmt.Errorf("training.decay_rate must be in [0,1), got %g", c.Training.DecayRate))
	}
	if c.Training.Epsilon <= 0 {
		errs = append(errs, fmt.Errorf("training.epsilon must be > 0, got %g", c.Training.Epsilon))
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	side := 2*c.Cell.SenseRadius + 1
	c.Derived.NumInputs = side * side
	c.Derived.NumActions = NumActions
	c.Derived.Center = c.World.Width / 2
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
