package voxgrid

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// ErrBadTriangleSoup is returned when a triangle soup's length is not a
// multiple of 3 (3 vertices per triangle).
var ErrBadTriangleSoup = errors.New("voxgrid: triangle soup length must be a multiple of 3")

// FillTriangleSoup rasterizes a flat triangle soup (groups of 3 vertices)
// into g, assigning v to every selected cell under the given round mode.
// Each triangle is rasterized independently by computing its own
// world-space bounding box (expanded by the round mode's offset margin)
// and restricting traversal's block-cull machinery to the cell-index range
// that box covers; the result is the union of all triangles' selected
// cells. This ingestion path exercises the same traversal primitive as
// FillShape (see SPEC_FULL.md 4.8) rather than a separate mesh-specific
// algorithm, while avoiding scanning cells far from the triangle for soups
// with many small triangles over a large grid.
func (g *HostGrid) FillTriangleSoup(tris []ms3.Vec, v uint32, mode RoundMode) error {
	if len(tris)%3 != 0 {
		return ErrBadTriangleSoup
	}
	off, err := mode.offset(g.meta.HalfDiagonal())
	if err != nil {
		return err
	}
	margin := off
	if margin < 0 {
		margin = -margin
	}
	for t := 0; t < len(tris); t += 3 {
		a, b, c := tris[t], tris[t+1], tris[t+2]
		fn := triangleDistance(a, b, c)
		lo, hi := triangleBounds(a, b, c, margin)
		x0, x1, y0, y1, z0, z1 := g.meta.IndexBounds(lo, hi)
		traverseRegion(g.meta, x0, x1, y0, y1, z0, z1, fn, off, func(ix, iy, iz int) bool {
			g.SetU32(ix, iy, iz, v)
			return false
		})
	}
	return nil
}

// triangleBounds returns the axis-aligned box enclosing triangle abc,
// expanded by margin on every side. Any point whose distance to the
// triangle is <= margin must lie within this box, since its nearest point
// on the triangle lies in the tight vertex bounding box.
func triangleBounds(a, b, c ms3.Vec, margin float32) (lo, hi ms3.Vec) {
	lo = ms3.Vec{X: minf3(a.X, b.X, c.X), Y: minf3(a.Y, b.Y, c.Y), Z: minf3(a.Z, b.Z, c.Z)}
	hi = ms3.Vec{X: maxf3(a.X, b.X, c.X), Y: maxf3(a.Y, b.Y, c.Y), Z: maxf3(a.Z, b.Z, c.Z)}
	m := ms3.Vec{X: margin, Y: margin, Z: margin}
	return ms3.Sub(lo, m), ms3.Add(hi, m)
}

// triangleDistance returns the unsigned Euclidean distance from a point to
// triangle abc. It is not a true signed distance (always >= 0), which is
// sufficient for FillTriangleSoup: triangles are 2D surfaces with no well
// defined "inside". RoundOutside selects cells whose center is within half
// a cell diagonal of the surface; RoundNearest (offset 0) selects only cells
// whose center lies exactly on a triangle; RoundInside never selects any
// cell for a zero-thickness surface.
func triangleDistance(a, b, c ms3.Vec) evalFn {
	ab := ms3.Sub(b, a)
	ac := ms3.Sub(c, a)
	normal := cross(ab, ac)
	normalLen := ms3.Norm(normal)
	return func(p ms3.Vec) float32 {
		ap := ms3.Sub(p, a)
		if normalLen > 1e-12 {
			n := ms3.Scale(1/normalLen, normal)
			planar := ms3.Sub(ap, ms3.Scale(ms3.Dot(ap, n), n))
			if pointInTriangle2(planar, ab, ac) {
				return math32.Abs(ms3.Dot(ap, n))
			}
		}
		// Outside the triangle's footprint (or degenerate triangle): fall
		// back to the minimum distance to its three edges.
		d0 := distToSegment(p, a, b)
		d1 := distToSegment(p, b, c)
		d2 := distToSegment(p, c, a)
		return minf3(d0, d1, d2)
	}
}

// pointInTriangle2 reports whether planar point q (given relative to
// vertex a, i.e. q=p-a projected into the triangle's plane) lies within the
// triangle spanned by edges ab, ac, using barycentric coordinates.
func pointInTriangle2(q, ab, ac ms3.Vec) bool {
	d00 := ms3.Dot(ab, ab)
	d01 := ms3.Dot(ab, ac)
	d11 := ms3.Dot(ac, ac)
	d20 := ms3.Dot(q, ab)
	d21 := ms3.Dot(q, ac)
	denom := d00*d11 - d01*d01
	if math32.Abs(denom) < 1e-12 {
		return false
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	u := 1 - v - w
	return u >= 0 && v >= 0 && w >= 0
}

func distToSegment(p, a, b ms3.Vec) float32 {
	pa := ms3.Sub(p, a)
	ba := ms3.Sub(b, a)
	denom := ms3.Dot(ba, ba)
	var h float32
	if denom > 0 {
		h = clamp01(ms3.Dot(pa, ba) / denom)
	}
	return ms3.Norm(ms3.Sub(pa, ms3.Scale(h, ba)))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	} else if v > 1 {
		return 1
	}
	return v
}

func minf3(a, b, c float32) float32 {
	return math32.Min(a, math32.Min(b, c))
}

func maxf3(a, b, c float32) float32 {
	return math32.Max(a, math32.Max(b, c))
}

// cross returns the cross product a x b. soypat/geometry's ms3 package is
// not vendored in this pack, so this avoids depending on an unverified
// helper that may not exist in every version of that module.
func cross(a, b ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}
