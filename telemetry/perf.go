package telemetry

import (
	"fmt"
	"log/slog"
	"time"
)

// Phase identifies one timed part of a step.
type Phase uint8

// Phases in step order.
const (
	PhaseSnapshot Phase = iota
	PhaseUpdate
	PhaseBirths
	PhaseCleanup
	PhaseFood
	PhaseTelemetry
	numPhases
)

// noPhase marks a step before its first StartPhase.
const noPhase = numPhases

var phaseNames = [numPhases]string{"snapshot", "update", "births", "cleanup", "food", "telemetry"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// PhaseDurations holds one duration per phase.
type PhaseDurations [numPhases]time.Duration

// PerfSample holds timing data for a single step.
type PerfSample struct {
	StepDuration time.Duration
	Phases       PhaseDurations
}

// PerfCollector times steps and their phases over a rolling window of
// samples. It is driven by one goroutine.
type PerfCollector struct {
	samples []PerfSample
	next    int
	filled  int

	current    PerfSample
	stepStart  time.Time
	phaseStart time.Time
	phase      Phase

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over windowSize steps.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		samples: make([]PerfSample, windowSize),
		phase:   noPhase,
		now:     time.Now,
	}
}

// StartStep begins timing a new step.
func (p *PerfCollector) StartStep() {
	p.stepStart = p.now()
	p.current = PerfSample{}
	p.phase = noPhase
}

// StartPhase closes the running phase, if any, and starts timing phase.
// Re-entering a phase within a step accumulates.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := p.now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase < numPhases {
		p.current.Phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndStep closes the running phase and records the step's sample.
func (p *PerfCollector) EndStep() {
	now := p.now()
	p.closePhase(now)
	p.phase = noPhase
	p.current.StepDuration = now.Sub(p.stepStart)

	p.samples[p.next] = p.current
	p.next = (p.next + 1) % len(p.samples)
	p.filled = min(p.filled+1, len(p.samples))
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgStepDuration time.Duration
	MinStepDuration time.Duration
	MaxStepDuration time.Duration

	PhaseAvg PhaseDurations
	PhasePct [numPhases]float64 // share of the average step, in percent

	StepsPerSecond float64
}

// Stats aggregates the samples currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	var s PerfStats
	if p.filled == 0 {
		return s
	}

	var total time.Duration
	var phaseSum PhaseDurations
	for i, sample := range p.samples[:p.filled] {
		total += sample.StepDuration
		if i == 0 || sample.StepDuration < s.MinStepDuration {
			s.MinStepDuration = sample.StepDuration
		}
		s.MaxStepDuration = max(s.MaxStepDuration, sample.StepDuration)
		for ph, d := range sample.Phases {
			phaseSum[ph] += d
		}
	}

	n := time.Duration(p.filled)
	s.AvgStepDuration = total / n
	for ph, sum := range phaseSum {
		s.PhaseAvg[ph] = sum / n
		if s.AvgStepDuration > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgStepDuration) * 100
		}
	}
	if s.AvgStepDuration > 0 {
		s.StepsPerSecond = float64(time.Second) / float64(s.AvgStepDuration)
	}
	return s
}

// LogStats logs performance statistics. Phases under 0.1% are omitted.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_step_us", s.AvgStepDuration.Microseconds(),
		"min_step_us", s.MinStepDuration.Microseconds(),
		"max_step_us", s.MaxStepDuration.Microseconds(),
		"steps_per_sec", int(s.StepsPerSecond),
	}
	for ph, pct := range s.PhasePct {
		if pct > 0.1 {
			attrs = append(attrs, Phase(ph).String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 4+numPhases)
	attrs = append(attrs,
		slog.Int64("avg_step_us", s.AvgStepDuration.Microseconds()),
		slog.Int64("min_step_us", s.MinStepDuration.Microseconds()),
		slog.Int64("max_step_us", s.MaxStepDuration.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	)
	for ph, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(Phase(ph).String()+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd    int     `csv:"window_end"`
	AvgStepUS    int64   `csv:"avg_step_us"`
	MinStepUS    int64   `csv:"min_step_us"`
	MaxStepUS    int64   `csv:"max_step_us"`
	StepsPerSec  float64 `csv:"steps_per_sec"`
	SnapshotPct  float64 `csv:"snapshot_pct"`
	UpdatePct    float64 `csv:"update_pct"`
	BirthsPct    float64 `csv:"births_pct"`
	CleanupPct   float64 `csv:"cleanup_pct"`
	FoodPct      float64 `csv:"food_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgStepUS:    s.AvgStepDuration.Microseconds(),
		MinStepUS:    s.MinStepDuration.Microseconds(),
		MaxStepUS:    s.MaxStepDuration.Microseconds(),
		StepsPerSec:  s.StepsPerSecond,
		SnapshotPct:  s.PhasePct[PhaseSnapshot],
		UpdatePct:    s.PhasePct[PhaseUpdate],
		BirthsPct:    s.PhasePct[PhaseBirths],
		CleanupPct:   s.PhasePct[PhaseCleanup],
		FoodPct:      s.PhasePct[PhaseFood],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
