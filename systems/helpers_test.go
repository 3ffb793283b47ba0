package systems

import (
	"math/rand/v2"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/genetics"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

var testRules = BreedingRules{
	MinAge:      6,
	MinEnergy:   0.6,
	Cooldown:    6,
	Crossover:   genetics.CrossoverUniform,
	SpawnOffset: 0.2,
}

// testWorld creates entities in an ark world. Create every entity before
// taking actors; new entities may move component storage.
type testWorld struct {
	world   *ecs.World
	mapper  *ecs.Map5[components.Organism, components.Position, components.Energy, components.Genome, components.Motion]
	orgs    *ecs.Map1[components.Organism]
	pos     *ecs.Map1[components.Position]
	energy  *ecs.Map1[components.Energy]
	genomes *ecs.Map1[components.Genome]
	motion  *ecs.Map1[components.Motion]
	nextID  uint64
}

func newTestWorld() *testWorld {
	w := ecs.NewWorld()
	return &testWorld{
		world:   w,
		mapper:  ecs.NewMap5[components.Organism, components.Position, components.Energy, components.Genome, components.Motion](w),
		orgs:    ecs.NewMap1[components.Organism](w),
		pos:     ecs.NewMap1[components.Position](w),
		energy:  ecs.NewMap1[components.Energy](w),
		genomes: ecs.NewMap1[components.Genome](w),
		motion:  ecs.NewMap1[components.Motion](w),
	}
}

type blueprint struct {
	kind     components.Kind
	pos      components.Position
	energy   float64
	genes    string
	specials int
	base     genetics.Baseline
	age      int
}

func (tw *testWorld) add(t *testing.T, s blueprint) ecs.Entity {
	t.Helper()
	g, err := genetics.Parse(s.genes, s.specials)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s.genes, err)
	}
	tw.nextID++
	org := components.Organism{ID: tw.nextID, Kind: s.kind, Generation: 1, Age: s.age, SpeciesID: 1}
	energy := components.Energy{Value: s.energy, BaseCost: 0.02}
	genome := components.Genome{Genotype: g, Stats: g.Phenotype(s.base, genetics.Noise{})}
	motion := components.Motion{Heading: RandomHorizontal(newRNG(tw.nextID)), InteractRange: 1}
	pos := s.pos
	return tw.mapper.NewEntity(&org, &pos, &energy, &genome, &motion)
}

func (tw *testWorld) actor(e ecs.Entity) Actor {
	return Actor{
		Entity: e,
		Org:    tw.orgs.Get(e),
		Pos:    tw.pos.Get(e),
		Energy: tw.energy.Get(e),
		Genome: tw.genomes.Get(e),
		Motion: tw.motion.Get(e),
		Start:  tw.pos.Get(e).Vec(),
	}
}
