package voxgrid

import (
	"testing"

	"github.com/soypat/geometry/ms3"
)

func testMeta() Meta {
	return Meta{Res: 1, NumX: 10, NumY: 10, NumZ: 10, Type: U32}
}

func TestCenterOfRoundTrip(t *testing.T) {
	m := testMeta()
	for iz := 0; iz < m.NumZ; iz++ {
		for iy := 0; iy < m.NumY; iy++ {
			for ix := 0; ix < m.NumX; ix++ {
				c := m.CenterOf(ix, iy, iz)
				want := ms3.Vec{X: float32(ix) + 0.5, Y: float32(iy) + 0.5, Z: float32(iz) + 0.5}
				if c != want {
					t.Fatalf("CenterOf(%d,%d,%d) = %v, want %v", ix, iy, iz, c, want)
				}
			}
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	g, err := New(testMeta())
	if err != nil {
		t.Fatal(err)
	}
	g.SetU32(1, 2, 3, 7)
	clone := g.Clone()
	if clone.GetU32(1, 2, 3) != 7 {
		t.Fatal("clone did not copy contents")
	}
	g.SetU32(1, 2, 3, 99)
	if clone.GetU32(1, 2, 3) != 7 {
		t.Fatal("mutation of original leaked into clone")
	}
	clone.SetU32(0, 0, 0, 5)
	if g.GetU32(0, 0, 0) != 0 {
		t.Fatal("mutation of clone leaked into original")
	}
}

func TestUnsupportedHostType(t *testing.T) {
	_, err := New(Meta{Res: 1, NumX: 1, NumY: 1, NumZ: 1, Type: Vec3F})
	if err != ErrUnsupportedHostType {
		t.Fatalf("got %v, want ErrUnsupportedHostType", err)
	}
}

func TestBadDimensions(t *testing.T) {
	_, err := New(Meta{Res: 0, NumX: 1, NumY: 1, NumZ: 1, Type: U32})
	if err != ErrBadDimensions {
		t.Fatalf("got %v, want ErrBadDimensions", err)
	}
}
