package telemetry

import "github.com/pthm-cable/ecosim/components"

// Collector accumulates step events within windows and produces WindowStats.
type Collector struct {
	windowSteps int

	// Current window tracking
	windowStartStep int

	// Event counters for current window
	births [components.NumKinds]int
	deaths [components.NumKinds]int
	kills  int
	meals  int
	splits int
}

// NewCollector creates a collector that flushes every windowSteps steps.
func NewCollector(windowSteps int) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{windowSteps: windowSteps}
}

// Record adds one step's events to the current window.
func (c *Collector) Record(ev *StepEvents) {
	for k := range ev.Births {
		c.births[k] += ev.Births[k]
		c.deaths[k] += ev.Deaths[k]
	}
	c.kills += ev.Kills
	c.meals += ev.Meals
	c.splits += len(ev.Splits)
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(step int) bool {
	return step-c.windowStartStep >= c.windowSteps
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() int {
	return c.windowSteps
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller provides the population at window end, the prey and predator
// energy samples, and the active species count per animal kind.
func (c *Collector) Flush(
	step int,
	pop PopulationRecord,
	preyEnergies, predEnergies []float64,
	preySpecies, predSpecies int,
) WindowStats {
	var killRate float64
	if pop.Predator > 0 {
		killRate = float64(c.kills) / float64(pop.Predator)
	}

	prey := ComputeEnergyStats(preyEnergies)
	pred := ComputeEnergyStats(predEnergies)

	stats := WindowStats{
		WindowStartStep: c.windowStartStep,
		WindowEndStep:   step,

		FoodCount: pop.Food,
		PreyCount: pop.Prey,
		PredCount: pop.Predator,

		PreyBirths: c.births[components.KindPrey],
		PredBirths: c.births[components.KindPredator],
		PreyDeaths: c.deaths[components.KindPrey],
		PredDeaths: c.deaths[components.KindPredator],
		FoodEaten:  c.meals,

		Kills:    c.kills,
		KillRate: killRate,

		PreyEnergyMean: prey.Mean,
		PreyEnergyStd:  prey.Std,
		PreyEnergyP10:  prey.P10,
		PreyEnergyP50:  prey.P50,
		PreyEnergyP90:  prey.P90,

		PredEnergyMean: pred.Mean,
		PredEnergyStd:  pred.Std,
		PredEnergyP10:  pred.P10,
		PredEnergyP50:  pred.P50,
		PredEnergyP90:  pred.P90,

		PreySpecies: preySpecies,
		PredSpecies: predSpecies,
		Splits:      c.splits,
	}

	// Reset for next window
	c.windowStartStep = step
	c.births = [components.NumKinds]int{}
	c.deaths = [components.NumKinds]int{}
	c.kills = 0
	c.meals = 0
	c.splits = 0

	return stats
}
