package vsdf

import "github.com/soypat/geometry/ms3"

// Box is an oriented box centered at C with three mutually perpendicular
// half-axis vectors H0, H1, H2. Each half-axis's length is the box's
// half-extent along that direction.
type Box struct {
	C          ms3.Vec
	H0, H1, H2 ms3.Vec
}

// NewBox creates an oriented box. The three half-axes must be pairwise
// perpendicular and non-degenerate (non-zero length).
func NewBox(c, h0, h1, h2 ms3.Vec) (Box, error) {
	if ms3.Norm(h0) <= epstol || ms3.Norm(h1) <= epstol || ms3.Norm(h2) <= epstol {
		return Box{}, errDegenerateHalfVec
	}
	if !isPerpendicular(h0, h1) || !isPerpendicular(h0, h2) || !isPerpendicular(h1, h2) {
		return Box{}, errNotPerpendicular
	}
	return Box{C: c, H0: h0, H1: h1, H2: h2}, nil
}

// SDF implements Shape.
func (b Box) SDF() SDFFunc {
	l0, l1, l2 := ms3.Norm(b.H0), ms3.Norm(b.H1), ms3.Norm(b.H2)
	e0 := ms3.Scale(1/l0, b.H0)
	e1 := ms3.Scale(1/l1, b.H1)
	e2 := ms3.Scale(1/l2, b.H2)
	halves := ms3.Vec{X: l0, Y: l1, Z: l2}
	return func(x ms3.Vec) float32 {
		local := ms3.Sub(x, b.C)
		p := ms3.Vec{X: ms3.Dot(local, e0), Y: ms3.Dot(local, e1), Z: ms3.Dot(local, e2)}
		q := ms3.Sub(ms3.AbsElem(p), halves)
		outside := ms3.Norm(ms3.MaxElem(q, ms3.Vec{}))
		inside := minf(maxf(q.X, maxf(q.Y, q.Z)), 0)
		return outside + inside
	}
}

// Bounds implements Shape.
func (b Box) Bounds() ms3.Box {
	corner := ms3.Add(ms3.AbsElem(b.H0), ms3.Add(ms3.AbsElem(b.H1), ms3.AbsElem(b.H2)))
	return ms3.NewCenteredBox(b.C, ms3.Scale(2, corner))
}
