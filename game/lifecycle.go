package game

import (
	"fmt"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/sim"
	"github.com/pthm-cable/ecosim/species"
)

// spawnInitialPopulation creates the starting food, prey and predators at
// random positions.
func (g *Game) spawnInitialPopulation() error {
	pop := g.cfg.Population
	counts := [components.NumKinds]int{
		components.KindFood:     pop.Food,
		components.KindPrey:     pop.Prey,
		components.KindPredator: pop.Predator,
	}
	for k, n := range counts {
		kind := components.Kind(k)
		for range n {
			bp := sim.Blueprint{
				Kind:     kind,
				Position: components.PositionOf(g.mgr.RandomPosition()),
				Energy:   1,
			}
			if _, err := g.mgr.Spawn(bp, g.founderSpecies(kind)); err != nil {
				return fmt.Errorf("initial %v: %w", kind, err)
			}
		}
	}
	return nil
}

// founderSpecies picks the species a founder joins: the oldest active one.
// Founders are random, so early joins may already have split the root.
func (g *Game) founderSpecies(kind components.Kind) species.ID {
	active := g.mgr.Species(kind)
	if len(active) == 0 {
		return 0
	}
	return active[0].ID
}
