package distfield

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/vsdf/voxgrid"
)

// cpuVec4 mirrors the Vec4F scratch grid the jump_step WGSL kernel operates
// on: xyz is the adopted seed's world position, w is the distance to it (or
// -1 for "no seed known yet", matching distfield.go's seed_init kernel).
type cpuVec4 struct {
	pos ms3.Vec
	w   float32
}

// cpuSeedInit is a pure-Go reproduction of the seed_init map kernel.
func cpuSeedInit(meta voxgrid.Meta, seed *voxgrid.HostGrid) []cpuVec4 {
	out := make([]cpuVec4, meta.NumCells())
	for iz := 0; iz < meta.NumZ; iz++ {
		for iy := 0; iy < meta.NumY; iy++ {
			for ix := 0; ix < meta.NumX; ix++ {
				idx := meta.Index(ix, iy, iz)
				if seed.GetU32(ix, iy, iz) > 0 {
					out[idx] = cpuVec4{pos: meta.CenterOf(ix, iy, iz), w: 0}
				} else {
					out[idx] = cpuVec4{w: -1}
				}
			}
		}
	}
	return out
}

// cpuJumpStep is a pure-Go reproduction of the jump_step map kernel: each
// cell inspects all 26 neighbors at the given step (every combination of
// {-1,0,1}^3 but (0,0,0)), adopting the nearest valid seed found. This is
// the same offset set jump_step's WGSL body must use for the algorithm to
// terminate within numJumpPasses(meta) rounds.
func cpuJumpStep(meta voxgrid.Meta, cur []cpuVec4, step int) []cpuVec4 {
	next := make([]cpuVec4, len(cur))
	for iz := 0; iz < meta.NumZ; iz++ {
		for iy := 0; iy < meta.NumY; iy++ {
			for ix := 0; ix < meta.NumX; ix++ {
				idx := meta.Index(ix, iy, iz)
				best := cur[idx]
				if best.w == 0 {
					next[idx] = best
					continue
				}
				p := meta.CenterOf(ix, iy, iz)
				for oz := -1; oz <= 1; oz++ {
					for oy := -1; oy <= 1; oy++ {
						for ox := -1; ox <= 1; ox++ {
							if ox == 0 && oy == 0 && oz == 0 {
								continue
							}
							nx, ny, nz := ix+ox*step, iy+oy*step, iz+oz*step
							if nx < 0 || ny < 0 || nz < 0 || nx >= meta.NumX || ny >= meta.NumY || nz >= meta.NumZ {
								continue
							}
							cand := cur[meta.Index(nx, ny, nz)]
							if cand.w < 0 {
								continue
							}
							d := ms3.Norm(ms3.Sub(p, cand.pos))
							if best.w < 0 || d < best.w {
								best = cpuVec4{pos: cand.pos, w: d}
							}
						}
					}
				}
				next[idx] = best
			}
		}
	}
	return next
}

// cpuDistField runs the full pure-Go jump-flood reference: the same pass
// count and step schedule DistField uses on the GPU.
func cpuDistField(meta voxgrid.Meta, seed *voxgrid.HostGrid) []float32 {
	cur := cpuSeedInit(meta, seed)
	passes := numJumpPasses(meta)
	for k := 0; k < passes; k++ {
		step := 1 << uint(passes-k-1)
		cur = cpuJumpStep(meta, cur, step)
	}
	out := make([]float32, len(cur))
	for i, v := range cur {
		out[i] = v.w
	}
	return out
}

// TestCPUJumpFloodSingleSeedCorner is a GPU-free property test reproducing
// the same single-seed-corner scenario as TestDistFieldSingleSeedCorner. It
// runs entirely in Go against cpuDistField, so it exercises the jump-flood
// algorithm's correctness independent of GPU backend availability — in
// particular it fails if cpuJumpStep's neighbor offset set (the one the
// jump_step WGSL body mirrors) is too sparse (e.g. 6 axis-aligned neighbors
// only) to resolve cells that differ from the nearest seed along all three
// axes within numJumpPasses rounds. The WGSL kernel itself is not run here.
func TestCPUJumpFloodSingleSeedCorner(t *testing.T) {
	meta := voxgrid.Meta{Res: 1, NumX: 8, NumY: 8, NumZ: 8, Type: voxgrid.U32}
	seed, err := voxgrid.New(meta)
	if err != nil {
		t.Fatal(err)
	}
	seed.SetU32(0, 0, 0, 1)

	got := cpuDistField(meta, seed)

	cases := []struct {
		ix, iy, iz int
		want       float32
	}{
		{0, 0, 0, 0},
		{4, 0, 0, 4},
		{4, 4, 0, math32.Sqrt(4*4 + 4*4)},
		{4, 4, 4, math32.Sqrt(3 * 4 * 4)},
		{7, 7, 7, math32.Sqrt(3 * 7 * 7)},
	}
	for _, c := range cases {
		idx := meta.Index(c.ix, c.iy, c.iz)
		if got[idx] < 0 {
			t.Fatalf("cell (%d,%d,%d) never resolved a seed (w=%v)", c.ix, c.iy, c.iz, got[idx])
		}
		if math32.Abs(got[idx]-c.want) > 1e-3 {
			t.Fatalf("cell (%d,%d,%d) = %v, want %v", c.ix, c.iy, c.iz, got[idx], c.want)
		}
	}
}

// TestCPUJumpFloodTwoSeeds checks that cells (3,3,3) and (6,6,6) each adopt
// whichever of two seeds is actually nearest, not just whichever a single-bend path happens
// to reach first.
func TestCPUJumpFloodTwoSeeds(t *testing.T) {
	meta := voxgrid.Meta{Res: 1, NumX: 8, NumY: 8, NumZ: 8, Type: voxgrid.U32}
	seed, err := voxgrid.New(meta)
	if err != nil {
		t.Fatal(err)
	}
	seed.SetU32(0, 0, 0, 1)
	seed.SetU32(7, 7, 7, 1)

	got := cpuDistField(meta, seed)

	// (3,3,3) is distance sqrt(27) from (0,0,0) and sqrt(48) from (7,7,7):
	// the nearer seed is the origin.
	mid := meta.Index(3, 3, 3)
	wantMid := math32.Sqrt(3 * 3 * 3)
	if math32.Abs(got[mid]-wantMid) > 1e-3 {
		t.Fatalf("cell (3,3,3) = %v, want %v (nearest seed is (0,0,0))", got[mid], wantMid)
	}

	near7 := meta.Index(6, 6, 6)
	want7 := math32.Sqrt(3 * 1 * 1)
	if math32.Abs(got[near7]-want7) > 1e-3 {
		t.Fatalf("cell (6,6,6) = %v, want %v (nearest seed is (7,7,7))", got[near7], want7)
	}
}
