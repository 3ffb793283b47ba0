package sim

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
	"github.com/pthm-cable/ecosim/systems"
)

// store creates and iterates the entities of one kind.
type store interface {
	create(org *components.Organism, pos *components.Position, energy *components.Energy, genome *components.Genome, motion *components.Motion) ecs.Entity
	each(fn func(systems.Actor))
}

// kindStore is a store keyed by the tag component T.
type kindStore[T any] struct {
	mapper *ecs.Map6[components.Organism, components.Position, components.Energy, components.Genome, components.Motion, T]
	filter *ecs.Filter6[components.Organism, components.Position, components.Energy, components.Genome, components.Motion, T]
}

func newKindStore[T any](w *ecs.World) *kindStore[T] {
	return &kindStore[T]{
		mapper: ecs.NewMap6[components.Organism, components.Position, components.Energy, components.Genome, components.Motion, T](w),
		filter: ecs.NewFilter6[components.Organism, components.Position, components.Energy, components.Genome, components.Motion, T](w),
	}
}

func (s *kindStore[T]) create(org *components.Organism, pos *components.Position, energy *components.Energy, genome *components.Genome, motion *components.Motion) ecs.Entity {
	var tag T
	return s.mapper.NewEntity(org, pos, energy, genome, motion, &tag)
}

// each visits every entity of the kind. fn must not create or remove entities.
func (s *kindStore[T]) each(fn func(systems.Actor)) {
	query := s.filter.Query()
	for query.Next() {
		org, pos, energy, genome, motion, _ := query.Get()
		fn(systems.Actor{
			Entity: query.Entity(),
			Org:    org,
			Pos:    pos,
			Energy: energy,
			Genome: genome,
			Motion: motion,
			Start:  pos.Vec(),
		})
	}
}
