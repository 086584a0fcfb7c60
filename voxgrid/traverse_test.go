package voxgrid

import (
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/vsdf"
)

// TestFillShapeBoxCount reproduces the literal scenario from the
// specification: a 4x4x4 cell box centered in a 10x10x10 grid of unit cells
// selects exactly 64 cells under RoundNearest.
func TestFillShapeBoxCount(t *testing.T) {
	m := Meta{Res: 1, NumX: 10, NumY: 10, NumZ: 10, Type: U32}
	g, err := New(m)
	if err != nil {
		t.Fatal(err)
	}
	box, err := vsdf.NewBox(ms3.Vec{X: 5, Y: 5, Z: 5}, ms3.Vec{X: 2}, ms3.Vec{Y: 2}, ms3.Vec{Z: 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := g.FillShape(box, 1, RoundNearest); err != nil {
		t.Fatal(err)
	}
	if got := g.Count(); got != 64 {
		t.Fatalf("Count() = %d, want 64", got)
	}
}

func TestRoundModeSubsetLaw(t *testing.T) {
	m := Meta{Res: 1, NumX: 10, NumY: 10, NumZ: 10, Type: U32}
	box, err := vsdf.NewBox(ms3.Vec{X: 5, Y: 5, Z: 5}, ms3.Vec{X: 2}, ms3.Vec{Y: 2}, ms3.Vec{Z: 2})
	if err != nil {
		t.Fatal(err)
	}
	inside, err := New(m)
	if err != nil {
		t.Fatal(err)
	}
	nearest, err := New(m)
	if err != nil {
		t.Fatal(err)
	}
	outside, err := New(m)
	if err != nil {
		t.Fatal(err)
	}
	if err := inside.FillShape(box, 1, RoundInside); err != nil {
		t.Fatal(err)
	}
	if err := nearest.FillShape(box, 1, RoundNearest); err != nil {
		t.Fatal(err)
	}
	if err := outside.FillShape(box, 1, RoundOutside); err != nil {
		t.Fatal(err)
	}
	for iz := 0; iz < m.NumZ; iz++ {
		for iy := 0; iy < m.NumY; iy++ {
			for ix := 0; ix < m.NumX; ix++ {
				in := inside.GetU32(ix, iy, iz) != 0
				near := nearest.GetU32(ix, iy, iz) != 0
				out := outside.GetU32(ix, iy, iz) != 0
				if in && !near {
					t.Fatalf("cell (%d,%d,%d) inside but not nearest", ix, iy, iz)
				}
				if near && !out {
					t.Fatalf("cell (%d,%d,%d) nearest but not outside", ix, iy, iz)
				}
			}
		}
	}
}

func TestUnknownRoundMode(t *testing.T) {
	_, err := RoundMode(99).offset(1)
	if err != ErrUnknownRoundMode {
		t.Fatalf("got %v, want ErrUnknownRoundMode", err)
	}
}

func TestAnyAndEveryPointInsideIs(t *testing.T) {
	m := Meta{Res: 1, NumX: 10, NumY: 10, NumZ: 10, Type: U32}
	box, err := vsdf.NewBox(ms3.Vec{X: 5, Y: 5, Z: 5}, ms3.Vec{X: 2}, ms3.Vec{Y: 2}, ms3.Vec{Z: 2})
	if err != nil {
		t.Fatal(err)
	}
	fn := box.SDF()
	if !AnyPointInsideIs(m, fn, 0, func(ix, iy, iz int) bool { return ix == 4 && iy == 4 && iz == 4 }) {
		t.Fatal("expected center cell to be selected")
	}
	if AnyPointInsideIs(m, fn, 0, func(ix, iy, iz int) bool { return ix == 0 && iy == 0 && iz == 0 }) {
		t.Fatal("corner cell should not be selected")
	}
	if !EveryPointInsideIs(m, fn, 0, func(ix, iy, iz int) bool { return ix >= 2 && ix < 8 }) {
		t.Fatal("every selected cell should fall within the box's conservative x-range")
	}
}
