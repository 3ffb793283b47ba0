package sim

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/genetics"
)

// ErrInvalidConfig is returned by New for a configuration it cannot run.
var ErrInvalidConfig = errors.New("invalid simulation config")

// KindParams holds the per-kind constants applied at spawn.
type KindParams struct {
	Baseline genetics.Baseline
	BaseCost float64
}

// Config is the immutable construction config of an EntityManager.
type Config struct {
	HalfExtent     float64 // food spawns within [-HalfExtent, HalfExtent] on X and Z
	FoodPerTurn    int
	GenotypeLength int
	Specials       int // 0..9
	MutationChance float64
	Crossover      genetics.CrossoverMode
	NoiseScale     float64
	MaxDiversity   float64

	InteractRange  float64
	PreyHunger     float64
	PredatorHunger float64
	Kinds          [components.NumKinds]KindParams

	MinAge      int
	MinEnergy   float64
	Cooldown    int
	SpawnOffset float64

	CellSize float64
	Seed     uint64
}

// FromConfig extracts the simulation config from a loaded application config.
func FromConfig(c *config.Config) Config {
	e := c.Entity
	return Config{
		HalfExtent:     c.World.HalfExtent,
		FoodPerTurn:    c.Food.PerTurn,
		GenotypeLength: c.Genotype.Length,
		Specials:       c.Genotype.Specials,
		MutationChance: c.Genotype.MutationChance,
		Crossover:      c.Derived.Crossover,
		NoiseScale:     c.Genotype.NoiseScale,
		MaxDiversity:   c.Species.MaxDiversity,
		InteractRange:  e.InteractRange,
		PreyHunger:     e.PreyHunger,
		PredatorHunger: e.PredatorHunger,
		Kinds: [components.NumKinds]KindParams{
			components.KindFood:     {Baseline: e.Food.Baseline, BaseCost: e.Food.BaseCost},
			components.KindPrey:     {Baseline: e.Prey.Baseline, BaseCost: e.Prey.BaseCost},
			components.KindPredator: {Baseline: e.Predator.Baseline, BaseCost: e.Predator.BaseCost},
		},
		MinAge:      c.Reproduction.MinAge,
		MinEnergy:   c.Reproduction.MinEnergy,
		Cooldown:    c.Reproduction.Cooldown,
		SpawnOffset: c.Reproduction.SpawnOffset,
		CellSize:    c.Spatial.CellSize,
		Seed:        c.World.Seed,
	}
}

// DefaultConfig returns the simulation config built from the embedded defaults.
func DefaultConfig() Config {
	c, err := config.Load("")
	if err != nil {
		panic(fmt.Sprintf("sim: embedded defaults: %v", err))
	}
	return FromConfig(c)
}

// MapSize returns the full edge length of the food spawn area.
func (c Config) MapSize() float64 { return 2 * c.HalfExtent }

func (c Config) validate() error {
	switch {
	case c.HalfExtent <= 0:
		return fmt.Errorf("%w: half extent %v", ErrInvalidConfig, c.HalfExtent)
	case c.FoodPerTurn < 0:
		return fmt.Errorf("%w: food per turn %d", ErrInvalidConfig, c.FoodPerTurn)
	case c.MaxDiversity < 0:
		return fmt.Errorf("%w: max diversity %v", ErrInvalidConfig, c.MaxDiversity)
	case c.CellSize <= 0:
		return fmt.Errorf("%w: cell size %v", ErrInvalidConfig, c.CellSize)
	case c.InteractRange < 0:
		return fmt.Errorf("%w: interact range %v", ErrInvalidConfig, c.InteractRange)
	case c.NoiseScale < 0:
		return fmt.Errorf("%w: noise scale %v", ErrInvalidConfig, c.NoiseScale)
	case c.MutationChance < 0 || c.MutationChance > 1:
		return fmt.Errorf("%w: %w: mutation chance %v", ErrInvalidConfig, genetics.ErrInvalidProbability, c.MutationChance)
	}
	if _, err := genetics.ParseCrossoverMode(string(c.Crossover)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	// Length and specials are checked by building the food genotype.
	if _, err := genetics.Empty(c.GenotypeLength, c.Specials); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
