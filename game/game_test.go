package game

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/telemetry"
)

func testConfig(t *testing.T, food, prey, pred int) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.World.HalfExtent = 10
	cfg.Population = config.PopulationConfig{Food: food, Prey: prey, Predator: pred}
	cfg.Food.PerTurn = 2
	cfg.Pacing.MaxSteps = 0
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return cfg
}

func newGame(t *testing.T, opts Options) *Game {
	t.Helper()
	g, err := NewGameWithOptions(opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions: %v", err)
	}
	t.Cleanup(func() { g.Unload() })
	return g
}

func TestNewGameSeedsPopulation(t *testing.T) {
	g := newGame(t, Options{Config: testConfig(t, 5, 4, 2), Seed: 3})

	m := g.Manager()
	if m.Count(components.KindFood) != 5 || g.PreyCount() != 4 || g.PredCount() != 2 {
		t.Errorf("population = %+v", m.Population())
	}
	if g.Tick() != 0 {
		t.Errorf("tick = %d, want 0", g.Tick())
	}
	for _, v := range m.Entities(components.KindPrey) {
		if v.SpeciesID == 0 {
			t.Errorf("prey %d has no species", v.ID)
		}
	}
}

func TestRunStopsAtMaxStepsAndWritesOutput(t *testing.T) {
	dir := t.TempDir()
	g, err := NewGameWithOptions(Options{
		Config:      testConfig(t, 5, 4, 2),
		Seed:        3,
		MaxSteps:    5,
		StatsWindow: 5,
		OutputDir:   dir,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if g.Tick() != 5 {
		t.Errorf("tick = %d, want 5", g.Tick())
	}
	if err := g.Unload(); err != nil {
		t.Fatalf("Unload: %v", err)
	}

	for _, name := range []string{"config.yaml", "telemetry.csv", "species.csv", "perf.csv", "bookmarks.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "history.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := bytes.Count(data, []byte("\n")); lines != 6 {
		t.Errorf("history.csv has %d lines, want header plus 5 rows", lines)
	}
}

func TestStatsCallbackPerWindow(t *testing.T) {
	var windows []telemetry.WindowStats
	g := newGame(t, Options{
		Config:        testConfig(t, 5, 4, 2),
		Seed:          3,
		MaxSteps:      6,
		StatsWindow:   2,
		StatsCallback: func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(windows) != 3 {
		t.Fatalf("windows = %d, want 3", len(windows))
	}
	for i, w := range windows {
		if w.WindowEndStep != 2*(i+1) {
			t.Errorf("window %d ends at %d", i, w.WindowEndStep)
		}
		if w.PreySpecies < 1 || w.PredSpecies < 1 {
			t.Errorf("window %d species = %d prey, %d pred", i, w.PreySpecies, w.PredSpecies)
		}
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	g := newGame(t, Options{Config: testConfig(t, 5, 4, 2), Seed: 3, MaxSteps: -1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := g.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if g.Tick() != 0 {
		t.Errorf("tick = %d after cancelled run", g.Tick())
	}
}

func TestRunStopsWhenAnimalsExtinct(t *testing.T) {
	g := newGame(t, Options{Config: testConfig(t, 5, 0, 0), Seed: 3, MaxSteps: 100})
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if g.Tick() != 0 {
		t.Errorf("tick = %d, want immediate stop", g.Tick())
	}
}

func TestRunPacesSteps(t *testing.T) {
	g := newGame(t, Options{
		Config:       testConfig(t, 5, 4, 2),
		Seed:         3,
		MaxSteps:     3,
		StepInterval: 2 * time.Millisecond,
	})
	start := time.Now()
	if err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("3 paced steps took %v, want at least 5ms", elapsed)
	}
}
