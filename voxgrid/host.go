package voxgrid

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// HostGrid is a dense, CPU-resident voxel grid of U32 or F32 cells.
type HostGrid struct {
	meta Meta
	u32  []uint32
	f32  []float32
}

// New allocates a zero-initialized host grid with the given metadata. Host
// grids only support the U32 and F32 cell types.
func New(meta Meta) (*HostGrid, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if meta.Type != U32 && meta.Type != F32 {
		return nil, ErrUnsupportedHostType
	}
	g := &HostGrid{meta: meta}
	n := meta.NumCells()
	if meta.Type == U32 {
		g.u32 = make([]uint32, n)
	} else {
		g.f32 = make([]float32, n)
	}
	return g, nil
}

// Meta returns the grid's metadata.
func (g *HostGrid) Meta() Meta { return g.meta }

// Clone returns a deep copy of g: identical metadata and contents, sharing
// no backing storage with g.
func (g *HostGrid) Clone() *HostGrid {
	clone := &HostGrid{meta: g.meta}
	if g.u32 != nil {
		clone.u32 = append([]uint32(nil), g.u32...)
	}
	if g.f32 != nil {
		clone.f32 = append([]float32(nil), g.f32...)
	}
	return clone
}

// GetU32 returns the raw U32 cell value at (ix,iy,iz). The grid must be of
// type U32.
func (g *HostGrid) GetU32(ix, iy, iz int) uint32 {
	return g.u32[g.meta.Index(ix, iy, iz)]
}

// SetU32 assigns the U32 cell value at (ix,iy,iz). The grid must be of type U32.
func (g *HostGrid) SetU32(ix, iy, iz int, v uint32) {
	g.u32[g.meta.Index(ix, iy, iz)] = v
}

// GetF32 returns the raw F32 cell value at (ix,iy,iz). The grid must be of
// type F32.
func (g *HostGrid) GetF32(ix, iy, iz int) float32 {
	return g.f32[g.meta.Index(ix, iy, iz)]
}

// SetF32 assigns the F32 cell value at (ix,iy,iz). The grid must be of type F32.
func (g *HostGrid) SetF32(ix, iy, iz int, v float32) {
	g.f32[g.meta.Index(ix, iy, iz)] = v
}

// Bytes little-endian encodes the grid's backing storage into a fresh byte
// slice, for transfer to a device grid of matching byte length (see package
// kernel). The returned slice does not alias g's storage; use SetBytes to
// load a device readback back into the grid.
func (g *HostGrid) Bytes() []byte {
	if g.meta.Type == U32 {
		return u32Bytes(g.u32)
	}
	return f32Bytes(g.f32)
}

// SetBytes little-endian decodes b into the grid's backing storage. b must
// be exactly g.Meta().ByteSize() bytes, matching a device grid readback of
// the same geometry (see kernel.Dispatcher.Copy).
func (g *HostGrid) SetBytes(b []byte) {
	if g.meta.Type == U32 {
		decodeU32(g.u32, b)
	} else {
		decodeF32(g.f32, b)
	}
}

// Fill assigns v to every cell of a U32 grid.
func (g *HostGrid) Fill(v uint32) {
	for i := range g.u32 {
		g.u32[i] = v
	}
}

// FillF32 assigns v to every cell of an F32 grid.
func (g *HostGrid) FillF32(v float32) {
	for i := range g.f32 {
		g.f32[i] = v
	}
}

// Count returns the number of non-zero cells.
func (g *HostGrid) Count() int {
	n := 0
	if g.meta.Type == U32 {
		for _, v := range g.u32 {
			if v != 0 {
				n++
			}
		}
	} else {
		for _, v := range g.f32 {
			if v != 0 {
				n++
			}
		}
	}
	return n
}

// CountEq returns the number of cells equal to v (U32 grids only).
func (g *HostGrid) CountEq(v uint32) int {
	n := 0
	for _, x := range g.u32 {
		if x == v {
			n++
		}
	}
	return n
}

// CountLessThan returns the number of cells strictly less than v (F32 grids only).
func (g *HostGrid) CountLessThan(v float32) int {
	n := 0
	for _, x := range g.f32 {
		if x < v {
			n++
		}
	}
	return n
}

// Max returns the maximum cell value.
func (g *HostGrid) Max() float32 {
	if g.meta.Type == U32 {
		var m uint32
		for _, v := range g.u32 {
			if v > m {
				m = v
			}
		}
		return float32(m)
	}
	m := float32(math32.Inf(-1))
	for _, v := range g.f32 {
		if v > m {
			m = v
		}
	}
	return m
}

// Volume returns Count()*Res^3, the world-space volume occupied by non-zero cells.
func (g *HostGrid) Volume() float32 {
	res := g.meta.Res
	return float32(g.Count()) * res * res * res
}

// CenterOf returns the world-space center of cell (ix,iy,iz).
func (g *HostGrid) CenterOf(ix, iy, iz int) ms3.Vec {
	return g.meta.CenterOf(ix, iy, iz)
}
