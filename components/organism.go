package components

import (
	"github.com/pthm-cable/ecosim/genetics"
	"github.com/pthm-cable/ecosim/species"
)

// Organism bundles identity, lineage and life-cycle state.
type Organism struct {
	ID               uint64
	Kind             Kind
	Generation       int
	Age              int        // steps survived
	LastReproduction int        // age at the last reproduction
	SpeciesID        species.ID // back-reference only; zero for food
	Dead             bool       // eaten; removed at the end of the step
}

// Energy tracks an entity's metabolic state.
// Value is nominally in (0, 1]; at or below zero the entity is removed.
type Energy struct {
	Value    float64
	BaseCost float64 // drain per step before genotype scaling
}

// Genome holds the genotype and the stats derived from it at construction.
type Genome struct {
	Genotype genetics.Genotype
	Stats    genetics.Stats
}
