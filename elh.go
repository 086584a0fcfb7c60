package vsdf

import "github.com/soypat/geometry/ms3"

// ELH is an extruded long-hole (stadium) shape: a 2D stadium between P and Q
// of radius R, extruded by H along the unit direction N, which must be
// perpendicular to Q-P.
type ELH struct {
	P ms3.Vec
	Q ms3.Vec
	N ms3.Vec
	R float32
	H float32
}

// NewELH creates an extruded long-hole. n must be unit length and
// perpendicular to q-p; r and h must be non-negative.
func NewELH(p, q, n ms3.Vec, r, h float32) (ELH, error) {
	if !isUnit(n) {
		return ELH{}, errNonUnitDirection
	} else if !isPerpendicular(ms3.Sub(q, p), n) {
		return ELH{}, errNotPerpendicular
	} else if r < 0 {
		return ELH{}, errNegativeRadius
	} else if h < 0 {
		return ELH{}, errNegativeHeight
	}
	return ELH{P: p, Q: q, N: n, R: r, H: h}, nil
}

// sdSegment3 returns the distance from point to the segment ab. Used here on
// points known to lie in the same plane as the segment (ELH's axial plane).
func sdSegment3(point, a, b ms3.Vec) float32 {
	pa := ms3.Sub(point, a)
	ba := ms3.Sub(b, a)
	denom := ms3.Dot(ba, ba)
	var h float32
	if denom > 0 {
		h = clampf(ms3.Dot(pa, ba)/denom, 0, 1)
	}
	return ms3.Norm(ms3.Sub(pa, ms3.Scale(h, ba)))
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	} else if v > hi {
		return hi
	}
	return v
}

// SDF implements Shape.
func (e ELH) SDF() SDFFunc {
	return func(x ms3.Vec) float32 {
		a, rVec := axialSplit(x, e.P, e.N)
		dAxial := maxf(a-e.H, -a)
		// Q-P lies in the plane perpendicular to N, same plane as rVec
		// (rooted at P), so the 3D segment distance equals the planar one.
		dRadial := sdSegment3(rVec, ms3.Vec{}, ms3.Sub(e.Q, e.P)) - e.R
		return combineAxialRadial(dAxial, dRadial)
	}
}

// Bounds implements Shape.
func (e ELH) Bounds() ms3.Box {
	top := ms3.Add(e.P, ms3.Scale(e.H, e.N))
	topQ := ms3.Add(e.Q, ms3.Scale(e.H, e.N))
	pts := [4]ms3.Vec{e.P, e.Q, top, topQ}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = ms3.Vec{X: minf(lo.X, p.X), Y: minf(lo.Y, p.Y), Z: minf(lo.Z, p.Z)}
		hi = ms3.Vec{X: maxf(hi.X, p.X), Y: maxf(hi.Y, p.Y), Z: maxf(hi.Z, p.Z)}
	}
	lo = ms3.AddScalar(-e.R, lo)
	hi = ms3.AddScalar(e.R, hi)
	return ms3.Box{Min: lo, Max: hi}
}
