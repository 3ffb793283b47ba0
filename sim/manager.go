// Package sim runs the ecosystem: it owns every entity and species and
// advances them one discrete step at a time.
//
// An EntityManager is single-threaded and not reentrant. Step must return
// before the next call and before state is read.
package sim

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/genetics"
	"github.com/pthm-cable/ecosim/species"
	"github.com/pthm-cable/ecosim/systems"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Blueprint describes an entity to spawn. A zero Genotype becomes an empty
// genotype for food and a random one for prey and predators. A zero
// Generation becomes 1.
type Blueprint struct {
	Kind             components.Kind
	Position         components.Position
	Genotype         genetics.Genotype
	Energy           float64
	Generation       int
	Age              int
	LastReproduction int
}

// EntityManager holds the whole simulation state.
type EntityManager struct {
	cfg   Config
	rng   *rand.Rand
	world *ecs.World

	stores [components.NumKinds]store

	// Individual component mappers for lookups
	orgs      *ecs.Map1[components.Organism]
	posMap    *ecs.Map1[components.Position]
	energyMap *ecs.Map1[components.Energy]
	genomeMap *ecs.Map1[components.Genome]

	byID   map[uint64]ecs.Entity
	nextID uint64
	counts [components.NumKinds]int

	speciesIDs species.IDs
	env        species.Env
	registries [components.NumKinds]*species.Registry // nil for food

	grids     [components.NumKinds]*systems.SpatialGrid
	food      genetics.Genotype // shared empty genotype
	ctx       systems.Context
	actors    []systems.Actor
	index     map[ecs.Entity]int
	neighbors systems.Neighbors
	found     []systems.Neighbor
	births    []systems.Offspring

	step         int
	lastDuration time.Duration
	history      []telemetry.PopulationRecord
	events       telemetry.StepEvents
	perf         *telemetry.PerfCollector
}

// New validates cfg and creates a manager with one empty root species per
// animal kind.
func New(cfg Config) (*EntityManager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	food, err := genetics.Empty(cfg.GenotypeLength, cfg.Specials)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	world := ecs.NewWorld()
	m := &EntityManager{
		cfg:   cfg,
		rng:   rng,
		world: world,
		stores: [components.NumKinds]store{
			components.KindFood:     newKindStore[components.FoodTag](world),
			components.KindPrey:     newKindStore[components.PreyTag](world),
			components.KindPredator: newKindStore[components.PredatorTag](world),
		},
		orgs:      ecs.NewMap1[components.Organism](world),
		posMap:    ecs.NewMap1[components.Position](world),
		energyMap: ecs.NewMap1[components.Energy](world),
		genomeMap: ecs.NewMap1[components.Genome](world),
		byID:      make(map[uint64]ecs.Entity),
		food:      food,
		index:     make(map[ecs.Entity]int),
		ctx: systems.Context{
			RNG: rng,
			Breeding: systems.BreedingRules{
				MinAge:         cfg.MinAge,
				MinEnergy:      cfg.MinEnergy,
				Cooldown:       cfg.Cooldown,
				MutationChance: cfg.MutationChance,
				Crossover:      cfg.Crossover,
				SpawnOffset:    cfg.SpawnOffset,
			},
			PreyHunger:     cfg.PreyHunger,
			PredatorHunger: cfg.PredatorHunger,
		},
	}
	m.env = species.Env{IDs: &m.speciesIDs, RNG: rng, MaxDiversity: cfg.MaxDiversity}
	for k := range components.NumKinds {
		kind := components.Kind(k)
		m.grids[k] = systems.NewSpatialGrid(cfg.CellSize)
		if kind.Animate() {
			m.registries[k] = species.NewRegistry(&m.env, kind.String())
		}
	}
	return m, nil
}

// SetPerfCollector attaches phase timing. The caller owns the step
// boundaries (StartStep, EndStep); Step only starts its phases.
func (m *EntityManager) SetPerfCollector(p *telemetry.PerfCollector) {
	m.perf = p
}

func (m *EntityManager) phase(ph telemetry.Phase) {
	if m.perf != nil {
		m.perf.StartPhase(ph)
	}
}

// Spawn creates an entity from bp. Prey and predators join speciesID, which
// may be zero only while the kind has exactly one species. Food takes no
// species. A species split caused by the new member is applied before Spawn
// returns.
func (m *EntityManager) Spawn(bp Blueprint, speciesID species.ID) (ecs.Entity, error) {
	if int(bp.Kind) >= components.NumKinds {
		return ecs.Entity{}, fmt.Errorf("spawn: %w: %v", systems.ErrUnknownKind, bp.Kind)
	}
	reg := m.registries[bp.Kind]
	if reg == nil && speciesID != 0 {
		return ecs.Entity{}, fmt.Errorf("spawn %v: %w: %d", bp.Kind, species.ErrUnknownSpecies, speciesID)
	}

	g, err := m.genotypeFor(bp)
	if err != nil {
		return ecs.Entity{}, fmt.Errorf("spawn %v: %w", bp.Kind, err)
	}

	if reg != nil {
		if speciesID, err = reg.Resolve(speciesID); err != nil {
			return ecs.Entity{}, fmt.Errorf("spawn %v: %w", bp.Kind, err)
		}
	}

	params := m.cfg.Kinds[bp.Kind]
	m.nextID++
	org := components.Organism{
		ID:               m.nextID,
		Kind:             bp.Kind,
		Generation:       max(bp.Generation, 1),
		Age:              bp.Age,
		LastReproduction: bp.LastReproduction,
		SpeciesID:        speciesID,
	}
	pos := bp.Position
	energy := components.Energy{Value: bp.Energy, BaseCost: params.BaseCost}
	genome := components.Genome{
		Genotype: g,
		Stats:    g.Phenotype(params.Baseline, genetics.Noise{Scale: m.cfg.NoiseScale, RNG: m.rng}),
	}
	motion := components.Motion{
		Heading:       systems.RandomHorizontal(m.rng),
		InteractRange: m.cfg.InteractRange,
	}
	e := m.stores[bp.Kind].create(&org, &pos, &energy, &genome, &motion)
	m.byID[org.ID] = e
	m.counts[bp.Kind]++
	m.events.Births[bp.Kind]++

	if reg == nil {
		return e, nil
	}
	split, err := reg.Add(speciesID, species.Member{EntityID: org.ID, Stats: genome.Stats})
	if err != nil {
		m.world.RemoveEntity(e)
		delete(m.byID, org.ID)
		m.counts[bp.Kind]--
		m.events.Births[bp.Kind]--
		return ecs.Entity{}, fmt.Errorf("spawn %v: %w", bp.Kind, err)
	}
	if split != nil {
		m.applySplit(bp.Kind, split)
	}
	return e, nil
}

func (m *EntityManager) genotypeFor(bp Blueprint) (genetics.Genotype, error) {
	if bp.Genotype.IsZero() {
		if bp.Kind.Animate() {
			return genetics.Random(m.cfg.GenotypeLength, m.cfg.Specials, m.rng)
		}
		return m.food, nil
	}
	if err := bp.Genotype.Compatible(m.food); err != nil {
		return genetics.Genotype{}, err
	}
	return bp.Genotype, nil
}

// applySplit restamps the members of each child species and records the split.
func (m *EntityManager) applySplit(kind components.Kind, split *species.Split) {
	ev := telemetry.SplitEvent{
		Step:   m.step,
		Kind:   kind,
		Parent: split.Parent.ID(),
		Name:   split.Parent.Name(),
	}
	for i, child := range split.Children {
		if i < len(ev.Children) {
			ev.Children[i] = child.ID()
			ev.Sizes[i] = child.Size()
		}
		for _, member := range child.Members() {
			e, ok := m.byID[member.EntityID]
			if !ok {
				continue // removed; membership is not cleaned up on death
			}
			m.orgs.Get(e).SpeciesID = child.ID()
		}
	}
	m.events.Splits = append(m.events.Splits, ev)
}

// NewFood spawns a food entity with full energy at pos.
func (m *EntityManager) NewFood(pos r3.Vec) (ecs.Entity, error) {
	return m.Spawn(Blueprint{Kind: components.KindFood, Position: components.PositionOf(pos), Energy: 1}, 0)
}

// NewPrey spawns a prey with a random genotype and full energy at pos.
func (m *EntityManager) NewPrey(pos r3.Vec) (ecs.Entity, error) {
	return m.Spawn(Blueprint{Kind: components.KindPrey, Position: components.PositionOf(pos), Energy: 1}, 0)
}

// NewPredator spawns a predator with a random genotype and full energy at pos.
func (m *EntityManager) NewPredator(pos r3.Vec) (ecs.Entity, error) {
	return m.Spawn(Blueprint{Kind: components.KindPredator, Position: components.PositionOf(pos), Energy: 1}, 0)
}

// RandomPosition returns a uniform ground-plane position within the map extent.
func (m *EntityManager) RandomPosition() r3.Vec {
	size := m.cfg.MapSize()
	return r3.Vec{
		X: (m.rng.Float64() - 0.5) * size,
		Z: (m.rng.Float64() - 0.5) * size,
	}
}

// RNG returns the manager's generator. Every random draw of the simulation
// goes through it.
func (m *EntityManager) RNG() *rand.Rand { return m.rng }
