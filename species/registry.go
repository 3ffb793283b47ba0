package species

import (
	"fmt"
	"sort"
)

// Split records one species bisecting into two children.
type Split struct {
	Parent   *Species
	Children []*Species
}

// Snapshot is a read-only view of a species for presentation and telemetry.
type Snapshot struct {
	ID       ID
	Name     string
	Parent   ID
	Members  []uint64
	Centroid []float64
	Color    Color
	Retired  bool
}

// Registry holds the active species of one entity kind plus every species
// retired by a split.
type Registry struct {
	env     *Env
	root    ID
	active  map[ID]*Species
	retired map[ID]*Species
}

// NewRegistry creates a registry with a single empty root species named name.
func NewRegistry(env *Env, name string) *Registry {
	root := New(env, name, nil, 0)
	return &Registry{
		env:     env,
		root:    root.ID(),
		active:  map[ID]*Species{root.ID(): root},
		retired: make(map[ID]*Species),
	}
}

// Root returns the id of the initial species.
func (r *Registry) Root() ID { return r.root }

// Len returns the number of active species.
func (r *Registry) Len() int { return len(r.active) }

// Get returns an active species.
func (r *Registry) Get(id ID) (*Species, bool) {
	s, ok := r.active[id]
	return s, ok
}

// Resolve picks the species a new entity joins. A zero id is accepted only
// while exactly one species is active.
func (r *Registry) Resolve(id ID) (ID, error) {
	if id == 0 {
		if len(r.active) != 1 {
			return 0, fmt.Errorf("%w: %d active", ErrAmbiguousSpecies, len(r.active))
		}
		for only := range r.active {
			return only, nil
		}
	}
	if _, ok := r.active[id]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSpecies, id)
	}
	return id, nil
}

// Add inserts m into species id. When the species splits its children
// replace it in the active set and the split is returned.
func (r *Registry) Add(id ID, m Member) (*Split, error) {
	sp, ok := r.active[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSpecies, id)
	}
	children, err := sp.Add(m)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}
	delete(r.active, id)
	r.retired[id] = sp
	for _, c := range children {
		r.active[c.ID()] = c
	}
	return &Split{Parent: sp, Children: children}, nil
}

// Snapshot returns the active species ordered by id.
func (r *Registry) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, len(r.active))
	for _, s := range r.active {
		out = append(out, s.snapshot(false))
	}
	sortByID(out)
	return out
}

// Lineage returns every species ever created, active or retired, ordered by id.
func (r *Registry) Lineage() []Snapshot {
	out := make([]Snapshot, 0, len(r.active)+len(r.retired))
	for _, s := range r.active {
		out = append(out, s.snapshot(false))
	}
	for _, s := range r.retired {
		out = append(out, s.snapshot(true))
	}
	sortByID(out)
	return out
}

func (s *Species) snapshot(retired bool) Snapshot {
	ids := make([]uint64, len(s.members))
	for i, m := range s.members {
		ids[i] = m.EntityID
	}
	return Snapshot{
		ID:       s.id,
		Name:     s.name,
		Parent:   s.parent,
		Members:  ids,
		Centroid: s.Centroid(),
		Color:    s.color,
		Retired:  retired,
	}
}

func sortByID(s []Snapshot) {
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
}
