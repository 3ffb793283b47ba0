package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/ecosim/genetics"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World.HalfExtent != 50 || cfg.Derived.MapSize != 100 {
		t.Errorf("extent = %v, map size = %v", cfg.World.HalfExtent, cfg.Derived.MapSize)
	}
	if cfg.Food.PerTurn != 10 || cfg.Genotype.Length != 25 || cfg.Genotype.Specials != 2 {
		t.Errorf("food %d, length %d, specials %d", cfg.Food.PerTurn, cfg.Genotype.Length, cfg.Genotype.Specials)
	}
	if cfg.Species.MaxDiversity != 60 || cfg.Genotype.MutationChance != 0.03 {
		t.Errorf("diversity %v, mutation %v", cfg.Species.MaxDiversity, cfg.Genotype.MutationChance)
	}
	if p := cfg.Population; p.Food != 60 || p.Prey != 50 || p.Predator != 30 {
		t.Errorf("population = %+v", p)
	}
	if b := cfg.Entity.Predator.Baseline; b.Speed != 0.6 || b.Vision != 5 || b.MaxOffspring != 1 {
		t.Errorf("predator baseline = %+v", b)
	}
	if b := cfg.Entity.Prey.Baseline; b.Speed != 0 || b.Vision != 3 || b.MaxOffspring != 5 {
		t.Errorf("prey baseline = %+v", b)
	}
	if cfg.Derived.Crossover != genetics.CrossoverUniform {
		t.Errorf("crossover = %q", cfg.Derived.Crossover)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := []byte("food:\n  per_turn: 3\ngenotype:\n  crossover: midpoint\npacing:\n  step_interval_ms: 250\n")
	if err := os.WriteFile(path, overlay, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Food.PerTurn != 3 {
		t.Errorf("per_turn = %d, want 3", cfg.Food.PerTurn)
	}
	if cfg.Genotype.Length != 25 {
		t.Errorf("length = %d, want default 25", cfg.Genotype.Length)
	}
	if cfg.Derived.Crossover != genetics.CrossoverMidpoint {
		t.Errorf("crossover = %q, want midpoint", cfg.Derived.Crossover)
	}
	if cfg.Derived.StepInterval != 250*time.Millisecond {
		t.Errorf("step interval = %v", cfg.Derived.StepInterval)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{"too many specials", "genotype:\n  specials: 12\n", true},
		{"unknown crossover", "genotype:\n  crossover: two-point\n", true},
		{"negative food", "food:\n  per_turn: -1\n", true},
		{"zero cell size", "spatial:\n  cell_size: 0\n", true},
		{"malformed yaml", "food: [\n", false},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "c"+string(rune('a'+i))+".yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load succeeded")
			}
			if got := errors.Is(err, ErrInvalid); got != tt.invalid {
				t.Errorf("errors.Is(%v, ErrInvalid) = %v, want %v", err, got, tt.invalid)
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Food.PerTurn = 7
	cfg.World.Seed = 99

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Food.PerTurn != 7 || back.World.Seed != 99 || back.Entity.Prey.BaseCost != 0.02 {
		t.Errorf("round trip = food %d, seed %d, prey cost %v", back.Food.PerTurn, back.World.Seed, back.Entity.Prey.BaseCost)
	}
}

func TestCfgAfterInit(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Cfg().Telemetry.StatsWindow != 100 {
		t.Errorf("stats window = %d", Cfg().Telemetry.StatsWindow)
	}
}
