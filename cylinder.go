package vsdf

import "github.com/soypat/geometry/ms3"

// Cylinder is a capped cylinder running from P to P+H*N with radius R.
type Cylinder struct {
	P ms3.Vec
	N ms3.Vec
	R float32
	H float32
}

// NewCylinder creates a capped cylinder of radius r and height h starting at
// p and extending along the unit direction n. r and h must be non-negative
// and n must be unit length.
func NewCylinder(p, n ms3.Vec, r, h float32) (Cylinder, error) {
	if !isUnit(n) {
		return Cylinder{}, errNonUnitDirection
	} else if r < 0 {
		return Cylinder{}, errNegativeRadius
	} else if h < 0 {
		return Cylinder{}, errNegativeHeight
	}
	return Cylinder{P: p, N: n, R: r, H: h}, nil
}

// SDF implements Shape.
func (c Cylinder) SDF() SDFFunc {
	return func(x ms3.Vec) float32 {
		a, rVec := axialSplit(x, c.P, c.N)
		dAxial := maxf(a-c.H, -a) // |a-h/2|-h/2 rewritten without branching: equals max(a-h, -a)
		dRadial := ms3.Norm(rVec) - c.R
		return combineAxialRadial(dAxial, dRadial)
	}
}

// Bounds implements Shape. It returns the axis-aligned box of the
// conservative bounding sphere swept along the cylinder's axis, since the
// cylinder's axis direction n is arbitrary.
func (c Cylinder) Bounds() ms3.Box {
	a := c.P
	b := ms3.Add(c.P, ms3.Scale(c.H, c.N))
	lo := ms3.Vec{X: minf(a.X, b.X), Y: minf(a.Y, b.Y), Z: minf(a.Z, b.Z)}
	hi := ms3.Vec{X: maxf(a.X, b.X), Y: maxf(a.Y, b.Y), Z: maxf(a.Z, b.Z)}
	// Widen laterally by R in every direction to cover the full swept radius
	// regardless of axis tilt.
	lo = ms3.AddScalar(-c.R, lo)
	hi = ms3.AddScalar(c.R, hi)
	return ms3.Box{Min: lo, Max: hi}
}
