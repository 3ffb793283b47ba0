// Package telemetry provides ecosystem health tracking: population history,
// windowed statistics, bookmarks and CSV output.
package telemetry

import (
	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/species"
)

// SplitEvent records a species bisecting into two children.
type SplitEvent struct {
	Step     int
	Kind     components.Kind
	Parent   species.ID
	Name     string // name of the retired parent
	Children [2]species.ID
	Sizes    [2]int
}

// StepEvents counts what happened during one step.
type StepEvents struct {
	Births [components.NumKinds]int
	Deaths [components.NumKinds]int
	Kills  int // prey removed after being eaten
	Meals  int // food removed after being eaten
	Splits []SplitEvent
}

// Reset clears the counters, keeping split capacity.
func (e *StepEvents) Reset() {
	e.Births = [components.NumKinds]int{}
	e.Deaths = [components.NumKinds]int{}
	e.Kills = 0
	e.Meals = 0
	e.Splits = e.Splits[:0]
}
