package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/ecosim/config"
	"github.com/pthm-cable/ecosim/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in steps (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	maxSteps := flag.Int("max-steps", 0, "Stop after N steps (0 = use config, -1 = unlimited)")
	stepInterval := flag.Duration("step-interval", 0, "Minimum wall time between steps (0 = use config)")
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	g, err := game.NewGameWithOptions(game.Options{
		Seed:         rngSeed,
		LogStats:     *logStats,
		StatsWindow:  *statsWindow,
		OutputDir:    *outputDir,
		MaxSteps:     *maxSteps,
		StepInterval: *stepInterval,
	})
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		os.Exit(1)
	}

	slog.Info("starting simulation",
		"seed", rngSeed,
		"max_steps", *maxSteps,
		"step_interval", stepInterval.String(),
		"output_dir", *outputDir,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runErr := g.Run(ctx)
	if err := g.Unload(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	if runErr != nil && ctx.Err() == nil {
		slog.Error("simulation aborted", "step", g.Tick(), "error", runErr)
		os.Exit(1)
	}
	p := g.Manager().Population()
	slog.Info("simulation finished", "step", g.Tick(), "food", p.Food, "prey", p.Prey, "predator", p.Predator)
}
