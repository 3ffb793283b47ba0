// Package components defines ECS components for the simulation.
package components

import "fmt"

// Kind is the closed set of entity variants.
type Kind uint8

const (
	KindFood Kind = iota
	KindPrey
	KindPredator

	// NumKinds is the number of entity kinds.
	NumKinds = 3
)

var kindNames = [NumKinds]string{"food", "prey", "predator"}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown entity kind %q", s)
}

// Animate reports whether the kind has behavior and species (prey, predator).
func (k Kind) Animate() bool {
	return k == KindPrey || k == KindPredator
}

// interests lists the kinds each kind perceives.
var interests = [NumKinds][]Kind{
	KindFood:     nil,
	KindPrey:     {KindFood, KindPrey, KindPredator},
	KindPredator: {KindPrey, KindPredator},
}

// Interests returns the kinds an entity of kind k perceives and interacts with.
func (k Kind) Interests() []Kind {
	return interests[k]
}

// FoodTag tags food entities for efficient querying.
type FoodTag struct{}

// PreyTag tags prey entities for efficient querying.
type PreyTag struct{}

// PredatorTag tags predator entities for efficient querying.
type PredatorTag struct{}
