package components

import "gonum.org/v1/gonum/spatial/r3"

// Position represents an entity's world position. Entities live on the
// ground plane: X and Z vary, Y stays near zero.
type Position struct {
	X, Y, Z float64
}

// Vec returns the position as a vector.
func (p Position) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Set moves the position to v.
func (p *Position) Set(v r3.Vec) {
	p.X, p.Y, p.Z = v.X, v.Y, v.Z
}

// PositionOf converts a vector into a Position.
func PositionOf(v r3.Vec) Position {
	return Position{X: v.X, Y: v.Y, Z: v.Z}
}

// Motion holds an entity's movement state.
type Motion struct {
	Heading       r3.Vec  // smoothed wander direction, unit length on the ground plane
	InteractRange float64 // contact distance for eating and mating
}
