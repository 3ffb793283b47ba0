// Package game runs the ecosystem headless: it seeds the initial population,
// paces steps and feeds telemetry.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/sim"
	"github.com/pthm-cable/ecosim/telemetry"
)

// Options configures a Game.
type Options struct {
	Config       *config.Config // nil uses config.Cfg()
	Seed         uint64         // 0 keeps the config seed
	LogStats     bool           // log window stats, perf and bookmarks via slog
	StatsWindow  int            // steps per telemetry window; 0 uses config
	OutputDir    string         // CSV output directory; empty disables output
	MaxSteps     int            // 0 uses config; negative runs until stopped
	StepInterval time.Duration  // minimum wall time between steps; 0 uses config

	// StatsCallback, when set, receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Game wraps an EntityManager with pacing and telemetry.
type Game struct {
	cfg *config.Config
	mgr *sim.EntityManager

	maxSteps     int
	stepInterval time.Duration

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	statsCallback    func(telemetry.WindowStats)
	logStats         bool

	historyWritten int
}

// NewGameWithOptions builds the manager and seeds the initial population.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	simCfg := sim.FromConfig(cfg)
	if opts.Seed != 0 {
		simCfg.Seed = opts.Seed
	}
	mgr, err := sim.New(simCfg)
	if err != nil {
		return nil, err
	}

	window := cfg.Telemetry.StatsWindow
	if opts.StatsWindow > 0 {
		window = opts.StatsWindow
	}
	maxSteps := cfg.Pacing.MaxSteps
	if opts.MaxSteps != 0 {
		maxSteps = max(opts.MaxSteps, 0)
	}
	interval := cfg.Derived.StepInterval
	if opts.StepInterval > 0 {
		interval = opts.StepInterval
	}

	g := &Game{
		cfg:              cfg,
		mgr:              mgr,
		maxSteps:         maxSteps,
		stepInterval:     interval,
		collector:        telemetry.NewCollector(window),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory),
		statsCallback:    opts.StatsCallback,
		logStats:         opts.LogStats,
	}
	mgr.SetPerfCollector(g.perfCollector)

	if g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir); err != nil {
		return nil, err
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		g.outputManager.Close()
		return nil, err
	}

	if err := g.spawnInitialPopulation(); err != nil {
		g.outputManager.Close()
		return nil, err
	}
	return g, nil
}

// Manager returns the underlying simulation.
func (g *Game) Manager() *sim.EntityManager { return g.mgr }

// Tick returns the number of completed steps.
func (g *Game) Tick() int { return g.mgr.CurrentStep() }

// PreyCount returns the live prey count.
func (g *Game) PreyCount() int { return g.mgr.Count(components.KindPrey) }

// PredCount returns the live predator count.
func (g *Game) PredCount() int { return g.mgr.Count(components.KindPredator) }

// Extinct reports whether both animal kinds are gone.
func (g *Game) Extinct() bool { return g.PreyCount() == 0 && g.PredCount() == 0 }

// Update advances the simulation one step and runs telemetry.
func (g *Game) Update() error {
	g.perfCollector.StartStep()
	if err := g.mgr.Step(); err != nil {
		return err
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.recordEvents()
	g.flushTelemetry()
	g.perfCollector.EndStep()
	return nil
}

// Run steps until the step limit, extinction of both animal kinds, or ctx
// cancellation. Steps are at least the configured interval apart.
func (g *Game) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if g.stepInterval > 0 {
		ticker := time.NewTicker(g.stepInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		if g.maxSteps > 0 && g.Tick() >= g.maxSteps {
			slog.Info("max steps reached", "step", g.Tick())
			return nil
		}
		if g.Extinct() {
			slog.Info("all animals extinct", "step", g.Tick())
			return nil
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := g.Update(); err != nil {
			return fmt.Errorf("simulation: %w", err)
		}
	}
}

// Unload flushes remaining history and closes output files.
func (g *Game) Unload() error {
	if err := g.writeHistory(); err != nil {
		slog.Error("failed to write history", "error", err)
	}
	return g.outputManager.Close()
}
