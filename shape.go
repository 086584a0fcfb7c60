package vsdf

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// epstol bounds the error tolerated when checking unit length or
// orthogonality of caller-supplied vectors.
const epstol = 1e-5

// SDFFunc evaluates a shape's signed distance at a point. Implementations
// must be pure: same input, same output, no hidden state.
type SDFFunc func(p ms3.Vec) float32

// Shape is implemented by every primitive in this package. There is no
// fourth variant hiding behind the interface: Cylinder, ELH and Box are the
// only shapes this engine rasterizes into a grid.
type Shape interface {
	// SDF returns the shape's signed distance function.
	SDF() SDFFunc
	// Bounds returns an axis-aligned box containing the entire negative
	// (inside) region of the shape's SDF.
	Bounds() ms3.Box
}

var (
	errNonUnitDirection  = errors.New("vsdf: direction vector is not unit length")
	errNegativeRadius    = errors.New("vsdf: negative radius")
	errNegativeHeight    = errors.New("vsdf: negative height")
	errNotPerpendicular  = errors.New("vsdf: axis vectors are not perpendicular")
	errDegenerateHalfVec = errors.New("vsdf: box half-axis has zero length")
)

func isUnit(v ms3.Vec) bool {
	return math32.Abs(ms3.Norm(v)-1) <= epstol
}

func isPerpendicular(a, b ms3.Vec) bool {
	return math32.Abs(ms3.Dot(a, b)) <= epstol
}

// axialSplit decomposes x-p into an axial scalar (projection onto unit n)
// and the remaining radial vector, shared by Cylinder and ELH.
func axialSplit(x, p, n ms3.Vec) (axial float32, radial ms3.Vec) {
	d := ms3.Sub(x, p)
	axial = ms3.Dot(d, n)
	radial = ms3.Sub(d, ms3.Scale(axial, n))
	return axial, radial
}

// combineAxialRadial implements the cylinder/ELH "capped tube" composition:
// inside when both dAxial<0 and dRadial<0 (intersection), with a proper
// rounded SDF across the edge.
func combineAxialRadial(dAxial, dRadial float32) float32 {
	inside := minf(maxf(dAxial, dRadial), 0)
	ao := maxf(dAxial, 0)
	ro := maxf(dRadial, 0)
	return inside + math32.Sqrt(ao*ao+ro*ro)
}

func minf(a, b float32) float32 { return math32.Min(a, b) }
func maxf(a, b float32) float32 { return math32.Max(a, b) }
