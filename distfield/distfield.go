// Package distfield implements the jump-flood distance-field kernel and the
// axis-bound reduction built on top of a device grid's occupancy.
package distfield

import (
	"context"
	"errors"

	"github.com/soypat/vsdf/kernel"
	"github.com/soypat/vsdf/voxgrid"
)

const (
	seedInitName  = "distfield_seed_init"
	jumpStepName  = "distfield_jump_step"
	extractWName  = "distfield_extract_w"
)

// registerOnce registers name's kernel body unless it is already present on
// dsp, since a Dispatcher's registry is one-shot per name but DistField may
// legitimately run more than once against the same Dispatcher.
func registerOnce(register func() error) error {
	if err := register(); err != nil && !errors.Is(err, kernel.ErrAlreadyRegistered) {
		return err
	}
	return nil
}

// ensureKernels registers the three map kernels DistField composes, if they
// are not already present on dsp.
func ensureKernels(dsp *kernel.Dispatcher) error {
	if err := registerOnce(func() error {
		return dsp.RegisterMapFn(seedInitName, voxgrid.U32, voxgrid.Vec4F, `
if (vi > 0u) {
    vo = vec4<f32>(p, 0.0);
} else {
    vo = vec4<f32>(0.0, 0.0, 0.0, -1.0);
}
`)
	}); err != nil {
		return err
	}

	if err := registerOnce(func() error {
		return dsp.RegisterMapFn(jumpStepName, voxgrid.Vec4F, voxgrid.Vec4F, `
var best: vec4<f32> = vi;
if (best.w != 0.0) {
    let s = i32(dims.aux);
    let ix = i % dims.numX;
    let iy = (i / dims.numX) % dims.numY;
    let iz = i / (dims.numX * dims.numY);
    for (var oz = -1; oz <= 1; oz = oz + 1) {
        for (var oy = -1; oy <= 1; oy = oy + 1) {
            for (var ox = -1; ox <= 1; ox = ox + 1) {
                if (ox == 0 && oy == 0 && oz == 0) {
                    continue;
                }
                let nx = i32(ix) + ox * s;
                let ny = i32(iy) + oy * s;
                let nz = i32(iz) + oz * s;
                if (nx < 0 || ny < 0 || nz < 0 || nx >= i32(dims.numX) || ny >= i32(dims.numY) || nz >= i32(dims.numZ)) {
                    continue;
                }
                let nIdx = u32(nx) + u32(ny) * dims.numX + u32(nz) * dims.numX * dims.numY;
                let cand = inBuf[nIdx];
                if (cand.w < 0.0) {
                    continue;
                }
                let d = distance(p, cand.xyz);
                if (best.w < 0.0 || d < best.w) {
                    best = vec4<f32>(cand.xyz, d);
                }
            }
        }
    }
}
vo = best;
`)
	}); err != nil {
		return err
	}

	return registerOnce(func() error {
		return dsp.RegisterMapFn(extractWName, voxgrid.Vec4F, voxgrid.F32, `vo = vi.w;`)
	})
}

// numJumpPasses returns ceil(log2(max(numX,numY,numZ))), the number of
// halving jump-flood passes required to cover the largest axis.
func numJumpPasses(m voxgrid.Meta) int {
	maxDim := m.NumX
	if m.NumY > maxDim {
		maxDim = m.NumY
	}
	if m.NumZ > maxDim {
		maxDim = m.NumZ
	}
	if maxDim <= 1 {
		return 0
	}
	passes := 0
	for (1 << passes) < maxDim {
		passes++
	}
	return passes
}

// DistField computes, for every cell of dist, the Euclidean distance to the
// nearest cell of seed whose value is greater than zero, using jump
// flooding. seed, dist and the internal scratch grid must share geometry.
func DistField(ctx context.Context, dsp *kernel.Dispatcher, seed, dist *kernel.DeviceGrid) error {
	if err := ensureKernels(dsp); err != nil {
		return err
	}
	meta := seed.Meta()
	if !meta.CompatibleWith(dist.Meta()) {
		return kernel.ErrIncompatibleGrids
	}

	dfA, err := dsp.NewDeviceGrid(withType(meta, voxgrid.Vec4F), "distfield-a")
	if err != nil {
		return err
	}
	defer dfA.Release()
	dfB, err := dsp.NewDeviceGrid(withType(meta, voxgrid.Vec4F), "distfield-b")
	if err != nil {
		return err
	}
	defer dfB.Release()

	if err := dsp.Map(ctx, seedInitName, seed, dfA); err != nil {
		return err
	}

	cur, next := dfA, dfB
	passes := numJumpPasses(meta)
	for k := 0; k < passes; k++ {
		step := uint32(1) << uint(passes-k-1)
		if err := dsp.MapAux(ctx, jumpStepName, cur, next, step); err != nil {
			return err
		}
		cur, next = next, cur
	}

	return dsp.Map(ctx, extractWName, cur, dist)
}

func withType(m voxgrid.Meta, t voxgrid.CellType) voxgrid.Meta {
	m.Type = t
	return m
}
