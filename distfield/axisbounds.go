package distfield

import (
	"context"
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/vsdf/kernel"
	"github.com/soypat/vsdf/voxgrid"
)

// ErrEmptyInterval is returned by BoundOfAxis when shrinking the raw
// min/max bound by RoundInside's half-diagonal margin would invert it
// (min > max).
var ErrEmptyInterval = errors.New("distfield: empty interval after RoundInside shrink")

// errNonUnitAxis is returned when dir is not unit length.
var errNonUnitAxis = errors.New("distfield: dir is not a unit vector")

const axisEpsilon = 1e-5

func minReduceName(dirTag string) string { return "boundaxis_min_" + dirTag }
func maxReduceName(dirTag string) string { return "boundaxis_max_" + dirTag }
func projName(dirTag string) string      { return "boundaxis_proj_" + dirTag }

// dirTag produces a stable, distinct kernel-name suffix per direction so
// BoundOfAxis can be called with different directions against the same
// Dispatcher without name collisions.
func dirTag(dir ms3.Vec) string {
	return fmt.Sprintf("%.6f_%.6f_%.6f", dir.X, dir.Y, dir.Z)
}

// ensureAxisKernels registers, for this specific dir and occupancy cell
// type, a map kernel that projects each cell onto dir (or emits
// kernel.SentinelInvalid for zero-valued cells) and two reduce kernels that
// fold the projection to a min and max while ignoring the sentinel.
func ensureAxisKernels(dsp *kernel.Dispatcher, dir ms3.Vec, occType voxgrid.CellType) (proj, minName, maxName string, err error) {
	tag := dirTag(dir) + "_" + occType.String()
	proj, minName, maxName = projName(tag), minReduceName(tag), maxReduceName(tag)

	zero := "0.0"
	if occType == voxgrid.U32 {
		zero = "0u"
	}
	body := fmt.Sprintf(`
if (vi == %s) {
    vo = f32(%d);
} else {
    vo = p.x * (%f) + p.y * (%f) + p.z * (%f);
}
`, zero, kernel.SentinelInvalid, dir.X, dir.Y, dir.Z)
	if err = registerOnce(func() error {
		return dsp.RegisterMapFn(proj, occType, voxgrid.F32, body)
	}); err != nil {
		return "", "", "", err
	}

	sentinel := fmt.Sprintf("f32(%d)", kernel.SentinelInvalid)

	if err = registerOnce(func() error {
		return dsp.RegisterReduceFn(minName, voxgrid.F32, posInfWGSL, fmt.Sprintf(`
let av = select(a, %s, a == %s);
let bv = select(b, %s, b == %s);
vo = min(av, bv);
`, posInfWGSL, sentinel, posInfWGSL, sentinel))
	}); err != nil {
		return "", "", "", err
	}

	if err = registerOnce(func() error {
		return dsp.RegisterReduceFn(maxName, voxgrid.F32, negInfWGSL, fmt.Sprintf(`
let av = select(a, %s, a == %s);
let bv = select(b, %s, b == %s);
vo = max(av, bv);
`, negInfWGSL, sentinel, negInfWGSL, sentinel))
	}); err != nil {
		return "", "", "", err
	}
	return proj, minName, maxName, nil
}

// posInfWGSL and negInfWGSL stand in for +/-infinity as WGSL float
// literals. A literal division by zero is avoided since its constant-eval
// behavior is unspecified in WGSL; these magnitudes exceed any realistic
// world-space coordinate produced by a voxel grid.
const (
	posInfWGSL = "3.4e38"
	negInfWGSL = "-3.4e38"
)

// BoundOfAxis reduces, over every cell of grid whose value is non-zero, the
// minimum and maximum of dot(dir, CenterOf(cell)), then widens (RoundOutside),
// shrinks (RoundInside) or leaves unchanged (RoundNearest) the result by
// grid.Meta().HalfDiagonal(). dir must be a unit vector; any direction is
// accepted, not just the three coordinate axes.
func BoundOfAxis(ctx context.Context, dsp *kernel.Dispatcher, dir ms3.Vec, grid *kernel.DeviceGrid, boundary voxgrid.RoundMode) (min, max float32, err error) {
	if math32.Abs(ms3.Norm(dir)-1) > axisEpsilon {
		return 0, 0, errNonUnitAxis
	}
	meta := grid.Meta()
	proj, minName, maxName, err := ensureAxisKernels(dsp, dir, meta.Type)
	if err != nil {
		return 0, 0, err
	}

	projected, err := dsp.NewDeviceGrid(withType(meta, voxgrid.F32), "boundaxis-proj")
	if err != nil {
		return 0, 0, err
	}
	defer projected.Release()

	if err := dsp.Map(ctx, proj, grid, projected); err != nil {
		return 0, 0, err
	}

	rawMin, err := dsp.ReduceF32(ctx, minName, projected)
	if err != nil {
		return 0, 0, err
	}
	rawMax, err := dsp.ReduceF32(ctx, maxName, projected)
	if err != nil {
		return 0, 0, err
	}

	halfDiag := meta.HalfDiagonal()
	offset, oerr := boundary.Offset(halfDiag)
	if oerr != nil {
		return 0, 0, oerr
	}
	// offset is 0 for nearest, +halfDiag for outside, -halfDiag for inside,
	// matching voxgrid.RoundMode.offset's convention; here it widens
	// (outside) or shrinks (inside) the bound symmetrically.
	lo := rawMin - offset
	hi := rawMax + offset
	if boundary == voxgrid.RoundInside && lo > hi {
		return 0, 0, ErrEmptyInterval
	}
	return lo, hi, nil
}
