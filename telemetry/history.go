package telemetry

import "github.com/pthm-cable/ecosim/components"

// PopulationRecord holds the live counts per kind after one step.
type PopulationRecord struct {
	Step     int `csv:"step"`
	Food     int `csv:"food"`
	Prey     int `csv:"prey"`
	Predator int `csv:"predator"`
}

// Count returns the count for kind k.
func (r PopulationRecord) Count(k components.Kind) int {
	switch k {
	case components.KindFood:
		return r.Food
	case components.KindPrey:
		return r.Prey
	case components.KindPredator:
		return r.Predator
	}
	return 0
}

// Animals returns the number of prey and predators.
func (r PopulationRecord) Animals() int {
	return r.Prey + r.Predator
}
