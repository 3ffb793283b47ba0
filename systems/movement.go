package systems

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"
)

// wanderBlend weights the new random direction against the current heading.
const wanderBlend = 0.7

// RandomHorizontal returns a uniformly distributed unit vector on the ground plane.
func RandomHorizontal(rng *rand.Rand) r3.Vec {
	theta := rng.Float64() * 2 * math.Pi
	return r3.Vec{X: math.Cos(theta), Z: math.Sin(theta)}
}

// unitOr normalizes v, falling back when v has zero length.
func unitOr(v, fallback r3.Vec) r3.Vec {
	if r3.Norm2(v) == 0 {
		return fallback
	}
	return r3.Unit(v)
}

// Wander bends the actor's heading toward a random horizontal direction and
// advances one step along it.
func Wander(a Actor, rng *rand.Rand) {
	dir := RandomHorizontal(rng)
	heading := r3.Add(a.Motion.Heading, r3.Scale(wanderBlend, dir))
	a.Motion.Heading = unitOr(heading, dir)
	a.Pos.Set(r3.Add(a.Pos.Vec(), r3.Scale(a.Genome.Stats.Speed, a.Motion.Heading)))
}

// MoveToward computes the displacement to target first. Within contact range
// it returns true and leaves the actor in place; otherwise the displacement is
// clamped to the actor's speed and applied.
func MoveToward(a, target Actor) bool {
	d := r3.Sub(target.Pos.Vec(), a.Pos.Vec())
	r := a.Motion.InteractRange
	if r3.Norm2(d) <= r*r {
		return true
	}
	speed := a.Genome.Stats.Speed
	if n := r3.Norm(d); n > speed {
		d = r3.Scale(speed/n, d)
	}
	a.Pos.Set(r3.Add(a.Pos.Vec(), d))
	return false
}

// Flee moves the actor directly away from threat at full speed. A threat at
// the same position is fled in a random horizontal direction.
func Flee(a, threat Actor, rng *rand.Rand) {
	away := r3.Sub(a.Pos.Vec(), threat.Pos.Vec())
	if r3.Norm2(away) == 0 {
		away = RandomHorizontal(rng)
	} else {
		away = r3.Unit(away)
	}
	a.Pos.Set(r3.Add(a.Pos.Vec(), r3.Scale(a.Genome.Stats.Speed, away)))
}
