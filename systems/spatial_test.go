package systems

import (
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ecosim/components"
)

func TestSpatialGridQueryRadius(t *testing.T) {
	tw := newTestWorld()
	points := []r3.Vec{
		{X: 0, Z: 0},
		{X: 0.5, Z: 0.5},
		{X: -2.9, Z: 0},  // across a negative cell border
		{X: 4.9, Z: 0},   // in a distant cell, outside radius
		{X: 0, Z: -2.99}, // just inside
	}
	ents := make([]ecs.Entity, len(points))
	for i, p := range points {
		ents[i] = tw.add(t, blueprint{kind: components.KindFood, pos: components.PositionOf(p), genes: ".."})
	}

	grid := NewSpatialGrid(1)
	for i, e := range ents {
		grid.Insert(e, points[i])
	}
	if grid.Len() != len(points) {
		t.Fatalf("Len = %d, want %d", grid.Len(), len(points))
	}

	got := grid.QueryRadiusInto(nil, points[0], 3, ents[0])
	want := map[ecs.Entity]bool{ents[1]: true, ents[2]: true, ents[4]: true}
	if len(got) != len(want) {
		t.Fatalf("got %d neighbors, want %d", len(got), len(want))
	}
	for _, n := range got {
		if !want[n.E] {
			t.Errorf("unexpected neighbor %v", n.E)
		}
		if math.Abs(n.DistSq-r3.Norm2(n.Delta)) > 1e-12 {
			t.Errorf("DistSq %v does not match delta %v", n.DistSq, n.Delta)
		}
	}
}

func TestSpatialGridUsesIndexedPositions(t *testing.T) {
	tw := newTestWorld()
	a := tw.add(t, blueprint{kind: components.KindFood, genes: ".."})
	b := tw.add(t, blueprint{kind: components.KindFood, pos: components.Position{X: 1}, genes: ".."})

	grid := NewSpatialGrid(2)
	grid.Insert(a, r3.Vec{})
	grid.Insert(b, r3.Vec{X: 1})

	// Moving the entity after indexing does not affect the query.
	tw.pos.Get(b).X = 50

	got := grid.QueryRadiusInto(nil, r3.Vec{}, 1.5, a)
	if len(got) != 1 || got[0].E != b {
		t.Fatalf("got %v, want only b", got)
	}
	if got[0].Delta.X != 1 {
		t.Errorf("Delta.X = %v, want 1", got[0].Delta.X)
	}
}

func TestSpatialGridClear(t *testing.T) {
	tw := newTestWorld()
	e := tw.add(t, blueprint{kind: components.KindFood, genes: ".."})
	grid := NewSpatialGrid(1)
	grid.Insert(e, r3.Vec{})
	grid.Clear()
	if grid.Len() != 0 {
		t.Errorf("Len after Clear = %d", grid.Len())
	}
	if got := grid.QueryRadiusInto(nil, r3.Vec{}, 10, ecs.Entity{}); len(got) != 0 {
		t.Errorf("query after Clear returned %d", len(got))
	}
}
