package systems

import (
	"cmp"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ecosim/components"
)

// Actor bundles pointers to one entity's components for the duration of a
// step. The pointers stay valid only while no entity is created or removed.
type Actor struct {
	Entity ecs.Entity
	Org    *components.Organism
	Pos    *components.Position
	Energy *components.Energy
	Genome *components.Genome
	Motion *components.Motion
	Start  r3.Vec // position when the step began
}

// Neighbors holds an actor's perceived entities grouped by kind.
type Neighbors [components.NumKinds][]Actor

// Of returns the neighbors of kind k.
func (n *Neighbors) Of(k components.Kind) []Actor { return n[k] }

// Reset truncates every group, keeping capacity.
func (n *Neighbors) Reset() {
	for k := range n {
		n[k] = n[k][:0]
	}
}

// DistSq returns the squared distance between the actors' current positions.
func (a Actor) DistSq(b Actor) float64 {
	return r3.Norm2(r3.Sub(b.Pos.Vec(), a.Pos.Vec()))
}

// CanReproduce reports whether the actor is old enough, energetic enough
// and rested since its last reproduction. Carcasses never reproduce.
func (a Actor) CanReproduce(r BreedingRules) bool {
	o := a.Org
	return !o.Dead &&
		o.Age > r.MinAge &&
		a.Energy.Value > r.MinEnergy &&
		o.Age-o.LastReproduction > r.Cooldown
}

// Perceives reports whether a admits other into its neighbor set: other is
// alive, within vision and dominated by a on every special dimension.
// distSq is measured on start-of-step positions.
func (a Actor) Perceives(other Actor, distSq float64) bool {
	if other.Entity == a.Entity || other.Energy.Value <= 0 {
		return false
	}
	v := a.Genome.Stats.Vision
	if distSq > v*v {
		return false
	}
	return a.Genome.Stats.Dominates(other.Genome.Stats)
}

// SortByDistance orders list by ascending squared distance from origin,
// measured on start-of-step positions like perception. Ties keep their
// input order.
func SortByDistance(origin r3.Vec, list []Actor) {
	slices.SortStableFunc(list, func(x, y Actor) int {
		return cmp.Compare(r3.Norm2(r3.Sub(x.Start, origin)), r3.Norm2(r3.Sub(y.Start, origin)))
	})
}
