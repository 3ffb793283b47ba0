// Package systems provides the per-step behavior of simulation entities.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Neighbor holds a nearby entity with precomputed spatial data.
type Neighbor struct {
	E      ecs.Entity
	Delta  r3.Vec  // from the query origin to the neighbor's indexed position
	DistSq float64 // squared distance (avoid sqrt in hot path)
}

type cellKey struct {
	x, z int32
}

type gridEntry struct {
	e   ecs.Entity
	pos r3.Vec
}

// SpatialGrid buckets entities by ground-plane cell. The plane is unbounded,
// so cells are hashed rather than laid out in a flat array. Positions are
// copied at Insert time; queries see the indexed positions, not later moves.
type SpatialGrid struct {
	cellSize float64
	cells    map[cellKey][]gridEntry
	count    int
}

// NewSpatialGrid creates an empty grid with the given cell edge length.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	return &SpatialGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey][]gridEntry),
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	clear(g.cells)
	g.count = 0
}

// Len returns the number of indexed entities.
func (g *SpatialGrid) Len() int { return g.count }

// Insert adds an entity at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, pos r3.Vec) {
	k := g.key(pos.X, pos.Z)
	g.cells[k] = append(g.cells[k], gridEntry{e: e, pos: pos})
	g.count++
}

// QueryRadiusInto appends every entity within radius of origin, other than
// exclude, to dst and returns the extended slice. Cells are visited in a fixed
// order so results are reproducible. Reuse dst across calls to avoid
// allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, origin r3.Vec, radius float64, exclude ecs.Entity) []Neighbor {
	if radius < 0 || g.count == 0 {
		return dst
	}
	radiusSq := radius * radius
	n := int32(math.Ceil(radius / g.cellSize))
	center := g.key(origin.X, origin.Z)
	for dx := -n; dx <= n; dx++ {
		for dz := -n; dz <= n; dz++ {
			if bucket, ok := g.cells[cellKey{x: center.x + dx, z: center.z + dz}]; ok {
				dst = appendWithin(dst, bucket, origin, radiusSq, exclude)
			}
		}
	}
	return dst
}

func appendWithin(dst []Neighbor, bucket []gridEntry, origin r3.Vec, radiusSq float64, exclude ecs.Entity) []Neighbor {
	for _, entry := range bucket {
		if entry.e == exclude {
			continue
		}
		d := r3.Sub(entry.pos, origin)
		if distSq := r3.Norm2(d); distSq <= radiusSq {
			dst = append(dst, Neighbor{E: entry.e, Delta: d, DistSq: distSq})
		}
	}
	return dst
}

func (g *SpatialGrid) key(x, z float64) cellKey {
	return cellKey{
		x: int32(math.Floor(x / g.cellSize)),
		z: int32(math.Floor(z / g.cellSize)),
	}
}
