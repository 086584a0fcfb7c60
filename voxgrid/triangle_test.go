package voxgrid

import (
	"testing"

	"github.com/soypat/geometry/ms3"
)

func TestFillTriangleSoupBadLength(t *testing.T) {
	m := Meta{Res: 1, NumX: 4, NumY: 4, NumZ: 4, Type: U32}
	g, err := New(m)
	if err != nil {
		t.Fatal(err)
	}
	err = g.FillTriangleSoup([]ms3.Vec{{}, {}}, 1, RoundOutside)
	if err != ErrBadTriangleSoup {
		t.Fatalf("got %v, want ErrBadTriangleSoup", err)
	}
}

// TestFillTriangleSoupSelectsNearbyCells checks that a single triangle lying
// in the z=2 plane, inset from the grid boundary, selects a cell whose center
// lies half a cell below the triangle's interior and leaves a cell far
// outside its footprint unselected.
func TestFillTriangleSoupSelectsNearbyCells(t *testing.T) {
	m := Meta{Res: 1, NumX: 10, NumY: 10, NumZ: 10, Type: U32}
	g, err := New(m)
	if err != nil {
		t.Fatal(err)
	}
	tris := []ms3.Vec{
		{X: 2, Y: 2, Z: 2},
		{X: 8, Y: 2, Z: 2},
		{X: 2, Y: 8, Z: 2},
	}
	if err := g.FillTriangleSoup(tris, 1, RoundOutside); err != nil {
		t.Fatal(err)
	}
	if g.Count() == 0 {
		t.Fatal("expected at least one cell to be selected")
	}
	// cell (3,3,1) has center (3.5,3.5,1.5), well within half a diagonal of
	// the triangle's plane and footprint.
	if g.GetU32(3, 3, 1) == 0 {
		t.Fatal("expected cell near the triangle's surface to be selected")
	}
	// cell far outside the footprint and plane should not be selected.
	if g.GetU32(9, 9, 9) != 0 {
		t.Fatal("expected distant cell to be unselected")
	}
}

func TestTriangleDistanceAtVertex(t *testing.T) {
	a := ms3.Vec{X: 0, Y: 0, Z: 0}
	b := ms3.Vec{X: 1, Y: 0, Z: 0}
	c := ms3.Vec{X: 0, Y: 1, Z: 0}
	fn := triangleDistance(a, b, c)
	if d := fn(a); d > 1e-5 {
		t.Fatalf("distance at vertex a = %v, want ~0", d)
	}
}

func TestCrossProduct(t *testing.T) {
	x := ms3.Vec{X: 1}
	y := ms3.Vec{Y: 1}
	got := cross(x, y)
	want := ms3.Vec{Z: 1}
	if got != want {
		t.Fatalf("cross(x,y) = %v, want %v", got, want)
	}
}
