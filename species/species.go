// Package species clusters prey or predator entities into lineage-tracked
// species bounded by a phenotype diversity threshold.
package species

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/ecosim/genetics"
)

// ID identifies a species. Zero means "no species".
type ID uint32

// Errors returned by species operations.
var (
	ErrAlreadyMember    = errors.New("entity already belongs to the species")
	ErrUnknownSpecies   = errors.New("unknown species")
	ErrAmbiguousSpecies = errors.New("species id required when several species exist")
)

// IDs hands out species ids. One source is shared by every registry so ids
// are unique across kinds.
type IDs struct {
	last ID
}

// Next returns a fresh id.
func (s *IDs) Next() ID {
	s.last++
	return s.last
}

// Env carries what species need to split: id allocation, the clustering
// generator and the diversity threshold.
type Env struct {
	IDs          *IDs
	RNG          *rand.Rand
	MaxDiversity float64
}

// Member is a species member: the entity identifier plus a copy of its
// (immutable) phenotype stats.
type Member struct {
	EntityID uint64
	Stats    genetics.Stats
}

// Species is a cluster of same-kind entities.
type Species struct {
	env      *Env
	id       ID
	name     string
	parent   ID
	members  []Member
	index    map[uint64]struct{}
	centroid []float64
	color    Color
}

// New creates a species over members with a fresh id. parent is zero for a root.
func New(env *Env, name string, members []Member, parent ID) *Species {
	id := env.IDs.Next()
	s := &Species{
		env:     env,
		id:      id,
		name:    name,
		parent:  parent,
		members: make([]Member, 0, len(members)),
		index:   make(map[uint64]struct{}, len(members)),
		color:   colorFor(id),
	}
	for _, m := range members {
		s.members = append(s.members, m)
		s.index[m.EntityID] = struct{}{}
	}
	s.centroid = centroidOf(s.members)
	return s
}

// ID returns the species id.
func (s *Species) ID() ID { return s.id }

// Name returns the lineage-encoded name.
func (s *Species) Name() string { return s.name }

// Parent returns the id of the species this one split from, or zero.
func (s *Species) Parent() ID { return s.parent }

// Size returns the number of members.
func (s *Species) Size() int { return len(s.members) }

// Has reports whether the entity is a member.
func (s *Species) Has(entityID uint64) bool {
	_, ok := s.index[entityID]
	return ok
}

// Members returns a copy of the member list.
func (s *Species) Members() []Member {
	out := make([]Member, len(s.members))
	copy(out, s.members)
	return out
}

// Centroid returns a copy of the mean phenotype vector (nil when empty).
func (s *Species) Centroid() []float64 {
	if s.centroid == nil {
		return nil
	}
	return append([]float64(nil), s.centroid...)
}

// Add inserts m. When m is farther than the diversity threshold from any
// current member the species bisects and the two children are returned; the
// receiver is then retired and the caller must replace it with the children.
// A nil result means no split.
func (s *Species) Add(m Member) ([]*Species, error) {
	if s.Has(m.EntityID) {
		return nil, fmt.Errorf("%w: entity %d in species %d", ErrAlreadyMember, m.EntityID, s.id)
	}

	split := false
	for _, other := range s.members {
		d, err := Distance(m.Stats, other.Stats)
		if err != nil {
			return nil, err
		}
		if d > s.env.MaxDiversity {
			split = true
			break
		}
	}

	s.insert(m)
	if !split {
		return nil, nil
	}
	return s.bisect(), nil
}

func (s *Species) insert(m Member) {
	s.members = append(s.members, m)
	s.index[m.EntityID] = struct{}{}

	v := m.Stats.Vector()
	if s.centroid == nil {
		s.centroid = v
		return
	}
	// Running mean: c += (v - c) / n
	diff := floats.SubTo(make([]float64, len(v)), v, s.centroid)
	floats.AddScaled(s.centroid, 1/float64(len(s.members)), diff)
}

// bisect partitions all members into two child species.
func (s *Species) bisect() []*Species {
	points := make([][]float64, len(s.members))
	for i, m := range s.members {
		points[i] = m.Stats.Vector()
	}
	labels := KMeans2(points, s.env.RNG)

	var left, right []Member
	for i, m := range s.members {
		if labels[i] == 0 {
			left = append(left, m)
		} else {
			right = append(right, m)
		}
	}
	return []*Species{
		New(s.env, s.name+".1", left, s.id),
		New(s.env, s.name+".2", right, s.id),
	}
}

// Distance is the phenotype distance used for the diversity bound: squared
// differences of speed, vision, efficiency, max offspring and every special,
// plus the signed (not squared) cost difference a.Cost - b.Cost.
func Distance(a, b genetics.Stats) (float64, error) {
	if len(a.Specials) != len(b.Specials) {
		return 0, fmt.Errorf("species distance: %w: %d != %d",
			genetics.ErrSpecialsMismatch, len(a.Specials), len(b.Specials))
	}
	x := math.Pow(a.Speed-b.Speed, 2)
	x += math.Pow(a.Vision-b.Vision, 2)
	x += math.Pow(a.Efficiency-b.Efficiency, 2)
	x += math.Pow(a.MaxOffspring-b.MaxOffspring, 2)
	x += a.Cost - b.Cost
	for i := range a.Specials {
		x += math.Pow(a.Specials[i]-b.Specials[i], 2)
	}
	return x, nil
}

// centroidOf returns the elementwise mean of the members' phenotype vectors.
func centroidOf(members []Member) []float64 {
	if len(members) == 0 {
		return nil
	}
	c := members[0].Stats.Vector()
	for _, m := range members[1:] {
		floats.Add(c, m.Stats.Vector())
	}
	floats.Scale(1/float64(len(members)), c)
	return c
}
