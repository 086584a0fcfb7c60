package voxgrid

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/vsdf"
)

// RoundMode is the policy for deciding which grid cells a continuous shape
// occupies.
type RoundMode uint8

const (
	// RoundNearest selects cells by center membership (SDF(center) <= 0).
	RoundNearest RoundMode = iota
	// RoundInside selects only cells fully contained in the shape.
	RoundInside
	// RoundOutside selects every cell whose volume touches the shape.
	RoundOutside
)

func (m RoundMode) String() string {
	switch m {
	case RoundNearest:
		return "nearest"
	case RoundInside:
		return "inside"
	case RoundOutside:
		return "outside"
	default:
		return "RoundMode(?)"
	}
}

// ErrUnknownRoundMode is returned when a RoundMode is not one of the three
// documented policies.
var ErrUnknownRoundMode = errors.New("voxgrid: unknown round mode")

// Offset returns the SDF-value threshold corresponding to mode at the given
// grid resolution: a cell is selected when SDF(center) <= offset. It is
// also reused by package distfield to widen or shrink an axis bound by the
// same half-diagonal margin.
func (m RoundMode) Offset(halfDiag float32) (float32, error) {
	return m.offset(halfDiag)
}

func (m RoundMode) offset(halfDiag float32) (float32, error) {
	switch m {
	case RoundOutside:
		return halfDiag, nil
	case RoundInside:
		return -halfDiag, nil
	case RoundNearest:
		return 0, nil
	default:
		return 0, ErrUnknownRoundMode
	}
}

// evalFn is a pure point->distance function, matching vsdf.SDFFunc without
// importing the vsdf package's Shape interface requirement into callers
// that only have a bare function.
type evalFn = func(p ms3.Vec) float32

// blockSize is the cube side, in cells, used to block-cull the host
// traversal. 8 balances SDF evaluation cost against false-positive block
// admission (see SPEC_FULL.md 4.4).
const blockSize = 8

// Traverse visits every cell (ix,iy,iz) for which fn(center) <= offset,
// pruning whole 8x8x8 blocks of cells with a single SDF evaluation at the
// block center. Blocks are visited in an unspecified but deterministic
// order for a given grid; within a block, visit order is z-major, then y,
// then x. If visit returns true the traversal stops immediately.
func Traverse(m Meta, fn evalFn, offset float32, visit func(ix, iy, iz int) bool) {
	traverseRegion(m, 0, m.NumX, 0, m.NumY, 0, m.NumZ, fn, offset, visit)
}

// traverseRegion is Traverse restricted to the half-open cell-index box
// [rx0,rx1)x[ry0,ry1)x[rz0,rz1); bounds are clamped to m's own extent (an
// already out-of-range or empty box simply visits nothing). Block culling
// still operates on the grid's native 8x8x8 alignment, intersected with the
// requested region, so a region smaller than a block still benefits from
// skipping blocks that fall outside the SDF's offset band.
func traverseRegion(m Meta, rx0, rx1, ry0, ry1, rz0, rz1 int, fn evalFn, offset float32, visit func(ix, iy, iz int) bool) {
	if rx0 < 0 {
		rx0 = 0
	}
	if ry0 < 0 {
		ry0 = 0
	}
	if rz0 < 0 {
		rz0 = 0
	}
	if rx1 > m.NumX {
		rx1 = m.NumX
	}
	if ry1 > m.NumY {
		ry1 = m.NumY
	}
	if rz1 > m.NumZ {
		rz1 = m.NumZ
	}
	if rx0 >= rx1 || ry0 >= ry1 || rz0 >= rz1 {
		return
	}

	blockHalfDiag := m.Res * float32(blockSize) * math32.Sqrt(3) / 2
	bx0, bx1 := rx0/blockSize, (rx1-1)/blockSize+1
	by0, by1 := ry0/blockSize, (ry1-1)/blockSize+1
	bz0, bz1 := rz0/blockSize, (rz1-1)/blockSize+1

	for bz := bz0; bz < bz1; bz++ {
		for by := by0; by < by1; by++ {
			for bx := bx0; bx < bx1; bx++ {
				x0, x1 := blockRange(bx, m.NumX)
				y0, y1 := blockRange(by, m.NumY)
				z0, z1 := blockRange(bz, m.NumZ)
				center := blockCenter(m, x0, x1, y0, y1, z0, z1)
				if fn(center) > offset+blockHalfDiag {
					continue // whole block conservatively excluded
				}
				x0, x1 = intersectRange(x0, x1, rx0, rx1)
				y0, y1 = intersectRange(y0, y1, ry0, ry1)
				z0, z1 = intersectRange(z0, z1, rz0, rz1)
				for iz := z0; iz < z1; iz++ {
					for iy := y0; iy < y1; iy++ {
						for ix := x0; ix < x1; ix++ {
							if fn(m.CenterOf(ix, iy, iz)) <= offset {
								if visit(ix, iy, iz) {
									return
								}
							}
						}
					}
				}
			}
		}
	}
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func intersectRange(a0, a1, b0, b1 int) (int, int) {
	if b0 > a0 {
		a0 = b0
	}
	if b1 < a1 {
		a1 = b1
	}
	if a0 > a1 {
		a0 = a1
	}
	return a0, a1
}

func blockRange(b, n int) (lo, hi int) {
	lo = b * blockSize
	hi = lo + blockSize
	if hi > n {
		hi = n
	}
	return lo, hi
}

func blockCenter(m Meta, x0, x1, y0, y1, z0, z1 int) ms3.Vec {
	mx := (x0 + x1 - 1) / 2
	my := (y0 + y1 - 1) / 2
	mz := (z0 + z1 - 1) / 2
	return m.CenterOf(mx, my, mz)
}

// EveryPointInsideIs reports whether pred holds for every selected cell
// (SDF(center) <= offset). It short-circuits on the first counterexample.
func EveryPointInsideIs(m Meta, fn evalFn, offset float32, pred func(ix, iy, iz int) bool) bool {
	ok := true
	Traverse(m, fn, offset, func(ix, iy, iz int) bool {
		if !pred(ix, iy, iz) {
			ok = false
			return true // stop early
		}
		return false
	})
	return ok
}

// AnyPointInsideIs reports whether pred holds for at least one selected
// cell. It short-circuits on the first match.
func AnyPointInsideIs(m Meta, fn evalFn, offset float32, pred func(ix, iy, iz int) bool) bool {
	found := false
	Traverse(m, fn, offset, func(ix, iy, iz int) bool {
		if pred(ix, iy, iz) {
			found = true
			return true
		}
		return false
	})
	return found
}

// FillShape rasterizes shape into g, assigning v (as a U32) to every
// selected cell under the given round mode.
func (g *HostGrid) FillShape(shape vsdf.Shape, v uint32, mode RoundMode) error {
	off, err := mode.offset(g.meta.HalfDiagonal())
	if err != nil {
		return err
	}
	fn := shape.SDF()
	Traverse(g.meta, fn, off, func(ix, iy, iz int) bool {
		g.SetU32(ix, iy, iz, v)
		return false
	})
	return nil
}

// FillShapeF32 is FillShape for F32 grids.
func (g *HostGrid) FillShapeF32(shape vsdf.Shape, v float32, mode RoundMode) error {
	off, err := mode.offset(g.meta.HalfDiagonal())
	if err != nil {
		return err
	}
	fn := shape.SDF()
	Traverse(g.meta, fn, off, func(ix, iy, iz int) bool {
		g.SetF32(ix, iy, iz, v)
		return false
	})
	return nil
}
