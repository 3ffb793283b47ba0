package systems

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/pthm-cable/ecosim/components"
)

// ErrUnknownKind is returned for an entity kind with no behavior.
var ErrUnknownKind = errors.New("unknown entity kind")

// Action names the branch an entity took during its update.
type Action uint8

const (
	ActionIdle Action = iota
	ActionWander
	ActionFlee
	ActionApproachMate
	ActionMate
	ActionForage
	ActionEat
)

var actionNames = [...]string{"idle", "wander", "flee", "approach_mate", "mate", "forage", "eat"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// Context carries the shared inputs of every update in a step.
type Context struct {
	RNG            *rand.Rand
	Breeding       BreedingRules
	PreyHunger     float64 // prey forage below this energy
	PredatorHunger float64 // predators hunt below this energy
}

// Result reports what an update did.
type Result struct {
	Action    Action
	Target    uint64 // organism id of the threat, mate or food, when any
	Offspring []Offspring
}

// Update ages the actor and runs its kind's state machine once. Neighbor
// groups are reordered in place by distance.
func Update(ctx *Context, a Actor, n *Neighbors) (Result, error) {
	a.Org.Age++
	switch a.Org.Kind {
	case components.KindFood:
		return Result{Action: ActionIdle}, nil
	case components.KindPrey:
		return updatePrey(ctx, a, n)
	case components.KindPredator:
		return updatePredator(ctx, a, n)
	}
	return Result{}, fmt.Errorf("update entity %d: %w: %v", a.Org.ID, ErrUnknownKind, a.Org.Kind)
}

// Prey: flee > mate > forage > wander.
func updatePrey(ctx *Context, a Actor, n *Neighbors) (Result, error) {
	if threats := n[components.KindPredator]; len(threats) > 0 {
		SortByDistance(a.Start, threats)
		Flee(a, threats[0], ctx.RNG)
		return Result{Action: ActionFlee, Target: threats[0].Org.ID}, nil
	}
	if r, ok, err := court(ctx, a, n[components.KindPrey]); ok || err != nil {
		return r, err
	}
	if food := n[components.KindFood]; a.Energy.Value < ctx.PreyHunger && len(food) > 0 {
		SortByDistance(a.Start, food)
		return feed(a, food[0], Eat), nil
	}
	Wander(a, ctx.RNG)
	return Result{Action: ActionWander}, nil
}

// Predator: mate > hunt > wander.
func updatePredator(ctx *Context, a Actor, n *Neighbors) (Result, error) {
	if r, ok, err := court(ctx, a, n[components.KindPredator]); ok || err != nil {
		return r, err
	}
	if prey := n[components.KindPrey]; a.Energy.Value < ctx.PredatorHunger && len(prey) > 0 {
		SortByDistance(a.Start, prey)
		return feed(a, prey[0], predatorEat), nil
	}
	Wander(a, ctx.RNG)
	return Result{Action: ActionWander}, nil
}

// court handles the mating branch. ok is false when the branch does not
// apply: the actor or its nearest same-kind neighbor cannot reproduce.
func court(ctx *Context, a Actor, mates []Actor) (Result, bool, error) {
	if len(mates) == 0 || !a.CanReproduce(ctx.Breeding) {
		return Result{}, false, nil
	}
	SortByDistance(a.Start, mates)
	mate := mates[0]
	if !mate.CanReproduce(ctx.Breeding) {
		return Result{}, false, nil
	}
	if !MoveToward(a, mate) {
		return Result{Action: ActionApproachMate, Target: mate.Org.ID}, true, nil
	}
	kids, err := Reproduce(a, mate, ctx.Breeding, ctx.RNG)
	if err != nil {
		return Result{}, true, err
	}
	return Result{Action: ActionMate, Target: mate.Org.ID, Offspring: kids}, true, nil
}

func feed(a, target Actor, eat func(eater, target Actor) float64) Result {
	if !MoveToward(a, target) {
		return Result{Action: ActionForage, Target: target.Org.ID}
	}
	eat(a, target)
	return Result{Action: ActionEat, Target: target.Org.ID}
}
