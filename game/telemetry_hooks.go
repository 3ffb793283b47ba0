package game

import (
	"log/slog"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/telemetry"
)

// recordEvents drains the step's events into the collector and logs splits.
func (g *Game) recordEvents() {
	ev := g.mgr.Events()
	g.collector.Record(&ev)
	for _, s := range ev.Splits {
		slog.Info("species split",
			"step", s.Step,
			"kind", s.Kind.String(),
			"parent", s.Parent,
			"name", s.Name,
			"children", s.Children,
			"sizes", s.Sizes,
		)
	}
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	step := g.Tick()
	if !g.collector.ShouldFlush(step) {
		return
	}

	stats := g.collector.Flush(step,
		g.mgr.Population(),
		g.mgr.Energies(components.KindPrey),
		g.mgr.Energies(components.KindPredator),
		g.mgr.SpeciesCount(components.KindPrey),
		g.mgr.SpeciesCount(components.KindPredator),
	)
	perfStats := g.perfCollector.Stats()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndStep); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := g.writeHistory(); err != nil {
			slog.Error("failed to write history", "error", err)
		}
		if err := g.writeSpecies(step); err != nil {
			slog.Error("failed to write species", "error", err)
		}
	}

	// Check for bookmarks
	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}

// writeHistory appends the population records not yet written.
func (g *Game) writeHistory() error {
	h := g.mgr.History()
	if g.historyWritten >= len(h) {
		return nil
	}
	if err := g.outputManager.WriteHistory(h[g.historyWritten:]); err != nil {
		return err
	}
	g.historyWritten = len(h)
	return nil
}

// writeSpecies appends the active species of both animal kinds.
func (g *Game) writeSpecies(step int) error {
	var rows []telemetry.SpeciesRecord
	for _, k := range []components.Kind{components.KindPrey, components.KindPredator} {
		rows = append(rows, telemetry.SpeciesRecords(step, k, g.mgr.Species(k))...)
	}
	return g.outputManager.WriteSpecies(rows)
}
