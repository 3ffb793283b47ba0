package sim

import (
	"fmt"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Step advances the simulation by one step:
//
//  1. every entity alive at the start of the step perceives its neighbours
//     (on start-of-step positions), pays its metabolic cost and updates;
//  2. offspring conceived during the updates are spawned;
//  3. entities that were eaten or ran out of energy are removed;
//  4. FoodPerTurn food entities are injected at random positions;
//  5. the step counter advances and the population is appended to history.
//
// Entities spawned during the step first act in the next one. The snapshot
// is validated before anything is mutated, so a genotype or kind that breaks
// the manager's invariants fails the step with no state changed. Errors
// after that point mean a programming error; the manager should not be
// stepped again.
func (m *EntityManager) Step() error {
	start := time.Now()

	m.phase(telemetry.PhaseSnapshot)
	if err := m.snapshot(); err != nil {
		return fmt.Errorf("step %d: %w", m.step, err)
	}

	m.phase(telemetry.PhaseUpdate)
	if err := m.update(); err != nil {
		return fmt.Errorf("step %d: %w", m.step, err)
	}

	m.phase(telemetry.PhaseBirths)
	if err := m.spawnBirths(); err != nil {
		return fmt.Errorf("step %d: %w", m.step, err)
	}

	m.phase(telemetry.PhaseCleanup)
	m.removeDead()

	m.phase(telemetry.PhaseFood)
	for range m.cfg.FoodPerTurn {
		if _, err := m.NewFood(m.RandomPosition()); err != nil {
			return fmt.Errorf("step %d: food: %w", m.step, err)
		}
	}

	m.lastDuration = time.Since(start)
	m.step++
	m.history = append(m.history, m.population())
	return nil
}

// snapshot collects every live entity, indexes start-of-step positions and
// checks each actor against the configured genotype shape.
func (m *EntityManager) snapshot() error {
	m.actors = m.actors[:0]
	clear(m.index)
	for k, s := range m.stores {
		grid := m.grids[k]
		grid.Clear()
		s.each(func(a systems.Actor) {
			m.index[a.Entity] = len(m.actors)
			m.actors = append(m.actors, a)
			grid.Insert(a.Entity, a.Pos.Vec())
		})
	}
	for _, a := range m.actors {
		if int(a.Org.Kind) >= components.NumKinds {
			return fmt.Errorf("entity %d: %w: %v", a.Org.ID, systems.ErrUnknownKind, a.Org.Kind)
		}
		if err := a.Genome.Genotype.Compatible(m.food); err != nil {
			return fmt.Errorf("entity %d: %w", a.Org.ID, err)
		}
	}
	return nil
}

// update runs perception, drain and behavior for each snapshot actor.
// Actors eaten earlier in the step, or already out of energy, are skipped.
// The drain never skips an update: an actor drained to zero still acts and
// may eat its way back before removal.
func (m *EntityManager) update() error {
	m.births = m.births[:0]
	for _, a := range m.actors {
		if a.Org.Dead || a.Energy.Value <= 0 {
			continue
		}
		m.perceive(a)
		systems.Drain(a, m.cfg.GenotypeLength)
		res, err := systems.Update(&m.ctx, a, &m.neighbors)
		if err != nil {
			return err
		}
		m.births = append(m.births, res.Offspring...)
	}
	return nil
}

// perceive fills m.neighbors with what a sees among its interest kinds.
func (m *EntityManager) perceive(a systems.Actor) {
	m.neighbors.Reset()
	interests := a.Org.Kind.Interests()
	if len(interests) == 0 {
		return
	}
	origin := a.Pos.Vec()
	vision := a.Genome.Stats.Vision
	for _, k := range interests {
		m.found = m.grids[k].QueryRadiusInto(m.found[:0], origin, vision, a.Entity)
		for _, n := range m.found {
			other := m.actors[m.index[n.E]]
			if a.Perceives(other, n.DistSq) {
				m.neighbors[k] = append(m.neighbors[k], other)
			}
		}
	}
}

// spawnBirths creates the buffered offspring. Each joins the current species
// of its initiating parent, which an earlier birth may have split.
func (m *EntityManager) spawnBirths() error {
	for _, o := range m.births {
		sid := o.SpeciesID
		if e, ok := m.byID[o.Parent]; ok {
			sid = m.orgs.Get(e).SpeciesID
		}
		bp := Blueprint{
			Kind:       o.Kind,
			Position:   o.Position,
			Genotype:   o.Genotype,
			Energy:     o.Energy,
			Generation: o.Generation,
		}
		if _, err := m.Spawn(bp, sid); err != nil {
			return fmt.Errorf("offspring of %d: %w", o.Parent, err)
		}
	}
	m.births = m.births[:0]
	return nil
}

type deadInfo struct {
	entity ecs.Entity
	id     uint64
	kind   components.Kind
	eaten  bool
}

// removeDead deletes every entity that was eaten or has no energy left.
// Species keep the ids of removed members.
func (m *EntityManager) removeDead() {
	// First pass: collect (must complete before modifying)
	var toRemove []deadInfo
	for _, s := range m.stores {
		s.each(func(a systems.Actor) {
			if a.Org.Dead || a.Energy.Value <= 0 {
				toRemove = append(toRemove, deadInfo{entity: a.Entity, id: a.Org.ID, kind: a.Org.Kind, eaten: a.Org.Dead})
			}
		})
	}

	// Second pass: remove (query iteration complete)
	for _, dead := range toRemove {
		m.world.RemoveEntity(dead.entity)
		delete(m.byID, dead.id)
		m.counts[dead.kind]--
		m.events.Deaths[dead.kind]++
		if !dead.eaten {
			continue
		}
		switch dead.kind {
		case components.KindFood:
			m.events.Meals++
		case components.KindPrey:
			m.events.Kills++
		}
	}
	m.actors = m.actors[:0]
	clear(m.index)
}

func (m *EntityManager) population() telemetry.PopulationRecord {
	return telemetry.PopulationRecord{
		Step:     m.step,
		Food:     m.counts[components.KindFood],
		Prey:     m.counts[components.KindPrey],
		Predator: m.counts[components.KindPredator],
	}
}
