// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/ecosim/genetics"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned for a configuration that cannot drive a simulation.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig        `yaml:"world"`
	Food         FoodConfig         `yaml:"food"`
	Genotype     GenotypeConfig     `yaml:"genotype"`
	Species      SpeciesConfig      `yaml:"species"`
	Entity       EntityConfig       `yaml:"entity"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Population   PopulationConfig   `yaml:"population"`
	Spatial      SpatialConfig      `yaml:"spatial"`
	Pacing       PacingConfig       `yaml:"pacing"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds world extent and seeding.
type WorldConfig struct {
	HalfExtent float64 `yaml:"half_extent"`
	Seed       uint64  `yaml:"seed"`
}

// FoodConfig holds food injection parameters.
type FoodConfig struct {
	PerTurn int `yaml:"per_turn"`
}

// GenotypeConfig holds genetic encoding parameters.
type GenotypeConfig struct {
	Length         int     `yaml:"length"`
	Specials       int     `yaml:"specials"`
	MutationChance float64 `yaml:"mutation_chance"`
	Crossover      string  `yaml:"crossover"`
	NoiseScale     float64 `yaml:"noise_scale"`
}

// SpeciesConfig holds species clustering parameters.
type SpeciesConfig struct {
	MaxDiversity float64 `yaml:"max_diversity"`
}

// KindConfig holds per-kind stat baselines and metabolism.
type KindConfig struct {
	Baseline genetics.Baseline `yaml:"baseline"`
	BaseCost float64           `yaml:"base_cost"`
}

// EntityConfig holds entity parameters shared across and split by kind.
type EntityConfig struct {
	InteractRange  float64    `yaml:"interact_range"`
	PreyHunger     float64    `yaml:"prey_hunger"`
	PredatorHunger float64    `yaml:"predator_hunger"`
	Food           KindConfig `yaml:"food"`
	Prey           KindConfig `yaml:"prey"`
	Predator       KindConfig `yaml:"predator"`
}

// ReproductionConfig holds mating thresholds.
type ReproductionConfig struct {
	MinAge      int     `yaml:"min_age"`
	MinEnergy   float64 `yaml:"min_energy"`
	Cooldown    int     `yaml:"cooldown"`
	SpawnOffset float64 `yaml:"spawn_offset"`
}

// PopulationConfig holds the initial population per kind.
type PopulationConfig struct {
	Food     int `yaml:"food"`
	Prey     int `yaml:"prey"`
	Predator int `yaml:"predator"`
}

// SpatialConfig holds neighbor index parameters.
type SpatialConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

// PacingConfig holds the external step scheduler parameters.
type PacingConfig struct {
	StepIntervalMs int `yaml:"step_interval_ms"`
	MaxSteps       int `yaml:"max_steps"`
}

// TelemetryConfig holds telemetry windowing parameters.
type TelemetryConfig struct {
	StatsWindow     int `yaml:"stats_window"`
	PerfWindow      int `yaml:"perf_window"`
	BookmarkHistory int `yaml:"bookmark_history"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MapSize      float64                // 2 * World.HalfExtent
	Crossover    genetics.CrossoverMode // parsed Genotype.Crossover
	StepInterval time.Duration          // Pacing.StepIntervalMs
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
	cfg, err := Defaults()
	if err != nil {
		return nil, err
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

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the embedded default configuration without derived values.
func Defaults() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// Finalize validates the config and recomputes derived values. Call it after
// changing fields programmatically.
func (c *Config) Finalize() error {
	if err := c.validate(); err != nil {
		return err
	}
	return c.computeDerived()
}

func (c *Config) validate() error {
	switch {
	case c.World.HalfExtent <= 0:
		return fmt.Errorf("%w: world.half_extent must be positive, got %v", ErrInvalid, c.World.HalfExtent)
	case c.Food.PerTurn < 0:
		return fmt.Errorf("%w: food.per_turn must be non-negative, got %d", ErrInvalid, c.Food.PerTurn)
	case c.Genotype.Length <= 0:
		return fmt.Errorf("%w: genotype.length must be positive, got %d", ErrInvalid, c.Genotype.Length)
	case c.Genotype.Specials < 0 || c.Genotype.Specials > genetics.MaxSpecials:
		return fmt.Errorf("%w: genotype.specials must be in [0, %d], got %d", ErrInvalid, genetics.MaxSpecials, c.Genotype.Specials)
	case c.Genotype.MutationChance < 0 || c.Genotype.MutationChance > 1:
		return fmt.Errorf("%w: genotype.mutation_chance must be in [0, 1], got %v", ErrInvalid, c.Genotype.MutationChance)
	case c.Genotype.NoiseScale < 0:
		return fmt.Errorf("%w: genotype.noise_scale must be non-negative, got %v", ErrInvalid, c.Genotype.NoiseScale)
	case c.Spatial.CellSize <= 0:
		return fmt.Errorf("%w: spatial.cell_size must be positive, got %v", ErrInvalid, c.Spatial.CellSize)
	case c.Population.Food < 0 || c.Population.Prey < 0 || c.Population.Predator < 0:
		return fmt.Errorf("%w: population counts must be non-negative", ErrInvalid)
	case c.Pacing.StepIntervalMs < 0 || c.Pacing.MaxSteps < 0:
		return fmt.Errorf("%w: pacing values must be non-negative", ErrInvalid)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	mode, err := genetics.ParseCrossoverMode(c.Genotype.Crossover)
	if err != nil {
		return fmt.Errorf("%w: genotype.crossover: %w", ErrInvalid, err)
	}
	c.Derived.Crossover = mode
	c.Derived.MapSize = 2 * c.World.HalfExtent
	c.Derived.StepInterval = time.Duration(c.Pacing.StepIntervalMs) * time.Millisecond
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
