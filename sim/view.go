package sim

import (
	"cmp"
	"slices"
	"time"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/genetics"
	"github.com/pthm-cable/ecosim/species"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

// View is a read-only copy of one entity's state.
type View struct {
	ID               uint64
	Kind             components.Kind
	Position         components.Position
	Energy           float64
	Age              int
	Generation       int
	LastReproduction int
	SpeciesID        species.ID
	Genotype         genetics.Genotype
	Stats            genetics.Stats
}

func viewOf(a systems.Actor) View {
	return View{
		ID:               a.Org.ID,
		Kind:             a.Org.Kind,
		Position:         *a.Pos,
		Energy:           a.Energy.Value,
		Age:              a.Org.Age,
		Generation:       a.Org.Generation,
		LastReproduction: a.Org.LastReproduction,
		SpeciesID:        a.Org.SpeciesID,
		Genotype:         a.Genome.Genotype,
		Stats:            a.Genome.Stats,
	}
}

// CurrentStep returns the number of completed steps.
func (m *EntityManager) CurrentStep() int { return m.step }

// LastStepDuration returns the wall time of the last step's update, removal
// and food phases.
func (m *EntityManager) LastStepDuration() time.Duration { return m.lastDuration }

// Config returns the construction config.
func (m *EntityManager) Config() Config { return m.cfg }

// Count returns the number of live entities of kind k.
func (m *EntityManager) Count(k components.Kind) int {
	if int(k) >= components.NumKinds {
		return 0
	}
	return m.counts[k]
}

// Population returns the current live counts.
func (m *EntityManager) Population() telemetry.PopulationRecord { return m.population() }

// Entities returns views of the live entities of kind k ordered by id.
func (m *EntityManager) Entities(k components.Kind) []View {
	if int(k) >= components.NumKinds {
		return nil
	}
	out := make([]View, 0, m.counts[k])
	m.stores[k].each(func(a systems.Actor) {
		out = append(out, viewOf(a))
	})
	slices.SortFunc(out, func(a, b View) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Energies returns the energy of every live entity of kind k.
func (m *EntityManager) Energies(k components.Kind) []float64 {
	if int(k) >= components.NumKinds {
		return nil
	}
	out := make([]float64, 0, m.counts[k])
	m.stores[k].each(func(a systems.Actor) {
		out = append(out, a.Energy.Value)
	})
	return out
}

// Lookup returns the entity with the given organism id.
func (m *EntityManager) Lookup(id uint64) (View, bool) {
	e, ok := m.byID[id]
	if !ok || !m.world.Alive(e) {
		return View{}, false
	}
	return viewOf(systems.Actor{
		Entity: e,
		Org:    m.orgs.Get(e),
		Pos:    m.posMap.Get(e),
		Energy: m.energyMap.Get(e),
		Genome: m.genomeMap.Get(e),
	}), true
}

// Species returns the active species of kind k ordered by id, or nil for food.
func (m *EntityManager) Species(k components.Kind) []species.Snapshot {
	if reg := m.registry(k); reg != nil {
		return reg.Snapshot()
	}
	return nil
}

// SpeciesCount returns the number of active species of kind k.
func (m *EntityManager) SpeciesCount(k components.Kind) int {
	if reg := m.registry(k); reg != nil {
		return reg.Len()
	}
	return 0
}

// Lineage returns every species of kind k ever created, retired ones included.
func (m *EntityManager) Lineage(k components.Kind) []species.Snapshot {
	if reg := m.registry(k); reg != nil {
		return reg.Lineage()
	}
	return nil
}

func (m *EntityManager) registry(k components.Kind) *species.Registry {
	if int(k) >= components.NumKinds {
		return nil
	}
	return m.registries[k]
}

// History returns one population record per completed step, oldest first.
// The slice is shared; callers must not modify it.
func (m *EntityManager) History() []telemetry.PopulationRecord { return m.history }

// Events returns what happened since the previous call and resets the counters.
func (m *EntityManager) Events() telemetry.StepEvents {
	ev := m.events
	ev.Splits = slices.Clone(m.events.Splits)
	m.events.Reset()
	return ev
}
