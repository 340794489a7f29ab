// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Growth    GrowthConfig    `yaml:"growth"`
	Topology  TopologyConfig  `yaml:"topology"`
	Index     IndexConfig     `yaml:"index"`
	Workers   WorkersConfig   `yaml:"workers"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Server    ServerConfig    `yaml:"server"`
}

// GrowthConfig holds the force weights and growth parameters.
// rest_length = 0 derives the rest length from the seed mesh's mean edge
// length multiplied by rest_length_factor.
type GrowthConfig struct {
	RestLength        float64 `yaml:"rest_length"`         // 0 = derive from seed mesh
	RestLengthFactor  float64 `yaml:"rest_length_factor"`  // multiplier on mean seed edge length
	RadiusOfInfluence float64 `yaml:"radius_of_influence"` // repulsion cutoff distance
	SpringFactor      float64 `yaml:"spring_factor"`
	PlanarFactor      float64 `yaml:"planar_factor"`
	BulgeFactor       float64 `yaml:"bulge_factor"`
	RepulsionFactor   float64 `yaml:"repulsion_factor"`
	SplitThreshold    float64 `yaml:"split_threshold"`  // food level that triggers mitosis
	MaxDisplacement   float64 `yaml:"max_displacement"` // per-step displacement clamp, 0 = unclamped
	FoodMode          string  `yaml:"food_mode"`        // uniform | directional
	Randomize         bool    `yaml:"randomize"`        // sample weights at construction
}

// TopologyConfig selects the adjacency and normal strategies.
type TopologyConfig struct {
	Policy         string `yaml:"policy"`          // ordered | unordered
	NormalStrategy string `yaml:"normal_strategy"` // fan | planefit
}

// IndexConfig holds spatial index parameters.
type IndexConfig struct {
	GridCellFactor float64 `yaml:"grid_cell_factor"` // bucket size as multiple of rest length
}

// WorkersConfig holds the worker pool parameters.
type WorkersConfig struct {
	Count int `yaml:"count"` // 0 = GOMAXPROCS
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // steps per stats record
	PerfWindow  int `yaml:"perf_window"`  // steps averaged by the perf collector
}

// ServerConfig holds live-streaming parameters.
type ServerConfig struct {
	FrameEvery int `yaml:"frame_every"` // steps between streamed frames
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

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
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

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects option values the simulation cannot run with.
func (c *Config) validate() error {
	switch c.Topology.Policy {
	case "ordered", "unordered":
	default:
		return fmt.Errorf("config: unknown topology policy %q", c.Topology.Policy)
	}
	switch c.Topology.NormalStrategy {
	case "fan", "planefit":
	default:
		return fmt.Errorf("config: unknown normal strategy %q", c.Topology.NormalStrategy)
	}
	switch c.Growth.FoodMode {
	case "uniform", "directional":
	default:
		return fmt.Errorf("config: unknown food mode %q", c.Growth.FoodMode)
	}
	if c.Growth.SplitThreshold <= 0 {
		return fmt.Errorf("config: split_threshold must be positive, got %v", c.Growth.SplitThreshold)
	}
	if c.Index.GridCellFactor <= 0 {
		return fmt.Errorf("config: grid_cell_factor must be positive, got %v", c.Index.GridCellFactor)
	}
	if c.Server.FrameEvery < 1 {
		return fmt.Errorf("config: frame_every must be at least 1, got %v", c.Server.FrameEvery)
	}
	return nil
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
