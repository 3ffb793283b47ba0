package systems

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/genetics"
	"github.com/pthm-cable/ecosim/species"
)

// BreedingRules holds the reproduction thresholds and genetic operators.
type BreedingRules struct {
	MinAge         int     // strictly older than this
	MinEnergy      float64 // strictly more energy than this
	Cooldown       int     // steps that must pass since the last reproduction
	MutationChance float64
	Crossover      genetics.CrossoverMode
	SpawnOffset    float64 // offspring distance from the initiating parent
}

// Offspring describes a newborn waiting to be spawned after the update loop.
type Offspring struct {
	Kind       components.Kind
	Position   components.Position
	Genotype   genetics.Genotype
	Energy     float64
	Generation int
	SpeciesID  species.ID
	Parent     uint64 // initiating parent's organism id
}

// Reproduce mates a (the initiator) with b. Both parents give up half their
// energy; the pooled energy is split evenly over ceil(U * avg(maxOffspring))
// offspring, so the sum of offspring energy equals the pool. A count of zero
// yields no offspring.
func Reproduce(a, b Actor, rules BreedingRules, rng *rand.Rand) ([]Offspring, error) {
	ga, gb := a.Genome.Genotype, b.Genome.Genotype
	if err := ga.Compatible(gb); err != nil {
		return nil, fmt.Errorf("reproduce %d with %d: %w", a.Org.ID, b.Org.ID, err)
	}

	a.Energy.Value *= 0.5
	b.Energy.Value *= 0.5
	pooled := a.Energy.Value + b.Energy.Value
	a.Org.LastReproduction = a.Org.Age
	b.Org.LastReproduction = b.Org.Age

	avg := (a.Genome.Stats.MaxOffspring + b.Genome.Stats.MaxOffspring) / 2
	count := int(math.Ceil(rng.Float64() * avg))
	if count <= 0 {
		return nil, nil
	}

	share := pooled / float64(count)
	origin := a.Pos.Vec()
	out := make([]Offspring, 0, count)
	for range count {
		g, err := genetics.Recombine(ga, gb, rules.Crossover, rules.MutationChance, rng)
		if err != nil {
			return nil, fmt.Errorf("reproduce %d with %d: %w", a.Org.ID, b.Org.ID, err)
		}
		pos := r3.Add(origin, r3.Scale(rules.SpawnOffset, RandomHorizontal(rng)))
		out = append(out, Offspring{
			Kind:       a.Org.Kind,
			Position:   components.PositionOf(pos),
			Genotype:   g,
			Energy:     share,
			Generation: a.Org.Generation + 1,
			SpeciesID:  a.Org.SpeciesID,
			Parent:     a.Org.ID,
		})
	}
	return out, nil
}
