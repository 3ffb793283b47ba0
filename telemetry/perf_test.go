package telemetry

import (
	"math"
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTimedCollector(window int) (*PerfCollector, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	pc := NewPerfCollector(window)
	pc.now = clock.now
	return pc, clock
}

func TestPerfCollectorPhases(t *testing.T) {
	pc, clock := newTimedCollector(10)

	for i := 0; i < 4; i++ {
		pc.StartStep()
		clock.advance(50 * time.Microsecond) // untimed setup
		pc.StartPhase(PhaseSnapshot)
		clock.advance(100 * time.Microsecond)
		pc.StartPhase(PhaseUpdate)
		clock.advance(300 * time.Microsecond)
		pc.StartPhase(PhaseSnapshot)
		clock.advance(50 * time.Microsecond)
		pc.EndStep()
	}

	s := pc.Stats()
	if s.AvgStepDuration != 500*time.Microsecond {
		t.Errorf("avg step = %v, want 500µs", s.AvgStepDuration)
	}
	if s.PhaseAvg[PhaseSnapshot] != 150*time.Microsecond {
		t.Errorf("snapshot avg = %v, want 150µs (re-entry accumulates)", s.PhaseAvg[PhaseSnapshot])
	}
	if math.Abs(s.PhasePct[PhaseUpdate]-60) > 1e-9 {
		t.Errorf("update pct = %v, want 60", s.PhasePct[PhaseUpdate])
	}
	if s.PhaseAvg[PhaseFood] != 0 {
		t.Errorf("untouched phase timed: %v", s.PhaseAvg[PhaseFood])
	}
	if math.Abs(s.StepsPerSecond-2000) > 1e-6 {
		t.Errorf("steps/s = %v, want 2000", s.StepsPerSecond)
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc, clock := newTimedCollector(3)

	for i := 1; i <= 5; i++ {
		pc.StartStep()
		clock.advance(time.Duration(i) * time.Millisecond)
		pc.EndStep()
	}

	// Only steps 3, 4 and 5 remain.
	s := pc.Stats()
	if s.MinStepDuration != 3*time.Millisecond || s.MaxStepDuration != 5*time.Millisecond {
		t.Errorf("min/max = %v/%v, want 3ms/5ms", s.MinStepDuration, s.MaxStepDuration)
	}
	if s.AvgStepDuration != 4*time.Millisecond {
		t.Errorf("avg = %v, want 4ms", s.AvgStepDuration)
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	s := NewPerfCollector(0).Stats()
	if s.AvgStepDuration != 0 || s.StepsPerSecond != 0 {
		t.Errorf("empty stats = %+v", s)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{AvgStepDuration: 1500 * time.Microsecond}
	s.PhasePct[PhaseUpdate] = 80
	s.PhasePct[PhaseFood] = 5

	row := s.ToCSV(120)
	if row.WindowEnd != 120 || row.AvgStepUS != 1500 {
		t.Errorf("row = %+v", row)
	}
	if row.UpdatePct != 80 || row.FoodPct != 5 || row.CleanupPct != 0 {
		t.Errorf("phase percentages = %+v", row)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseCleanup.String() != "cleanup" || Phase(42).String() != "phase(42)" {
		t.Errorf("got %q, %q", PhaseCleanup, Phase(42))
	}
}
