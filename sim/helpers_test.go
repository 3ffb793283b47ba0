package sim

import (
	"testing"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/genetics"
)

// smallConfig is a noiseless 10x10 world with short genotypes.
func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.HalfExtent = 5
	cfg.FoodPerTurn = 0
	cfg.GenotypeLength = 10
	cfg.Specials = 0
	cfg.MutationChance = 0
	cfg.NoiseScale = 0
	cfg.Seed = 7
	return cfg
}

func newManager(t *testing.T, cfg Config) *EntityManager {
	t.Helper()
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func genes(t *testing.T, s string) genetics.Genotype {
	t.Helper()
	return genesWith(t, s, 0)
}

func genesWith(t *testing.T, s string, specials int) genetics.Genotype {
	t.Helper()
	g, err := genetics.Parse(s, specials)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return g
}

func spawn(t *testing.T, m *EntityManager, bp Blueprint) View {
	t.Helper()
	if _, err := m.Spawn(bp, 0); err != nil {
		t.Fatalf("Spawn(%v): %v", bp.Kind, err)
	}
	all := m.Entities(bp.Kind)
	return all[len(all)-1]
}

func at(x, z float64) components.Position {
	return components.Position{X: x, Z: z}
}
