// Package voxgrid implements the host-resident voxel grid: dense 3D arrays
// of U32 or F32 cells addressed by grid metadata shared with the device
// grid in package kernel, plus the block-hierarchical traversal used to
// rasterize shapes and triangle soups into a grid.
package voxgrid

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// CellType identifies the element type stored in a grid cell.
type CellType uint8

const (
	U32 CellType = iota
	F32
	Vec3F
	Vec4F
)

// Size returns the byte size of one element of this type. Vec3F is padded to
// four float32 lanes (16 bytes) to match GPU storage-buffer alignment rules.
func (t CellType) Size() int {
	switch t {
	case U32, F32:
		return 4
	case Vec3F:
		return 16
	case Vec4F:
		return 16
	default:
		return 0
	}
}

func (t CellType) String() string {
	switch t {
	case U32:
		return "U32"
	case F32:
		return "F32"
	case Vec3F:
		return "Vec3F"
	case Vec4F:
		return "Vec4F"
	default:
		return "CellType(?)"
	}
}

var (
	// ErrUnknownCellType is returned when a Meta names a CellType outside {U32,F32,Vec3F,Vec4F}.
	ErrUnknownCellType = errors.New("voxgrid: unknown cell type")
	// ErrBadDimensions is returned when a grid dimension or resolution is not positive.
	ErrBadDimensions = errors.New("voxgrid: resolution and cell counts must be positive")
	// ErrIncompatibleGrids is returned when two grids combined in one operation do not share geometry.
	ErrIncompatibleGrids = errors.New("voxgrid: grids do not share resolution, dimensions or offset")
	// ErrUnsupportedHostType is returned when a host grid is constructed with a GPU-only cell type.
	ErrUnsupportedHostType = errors.New("voxgrid: host grids only support U32 and F32 cells")
)

// Meta describes the geometry shared by a host grid and its device
// counterpart: cell size, cell counts per axis and world-space origin.
// Two grids can only be combined in a kernel if their Res, cell counts and
// Ofs match exactly; Type may differ (see CompatibleWith).
type Meta struct {
	Res               float32
	NumX, NumY, NumZ  int
	Ofs               ms3.Vec
	Type              CellType
}

// Validate checks the structural invariants of m: positive resolution and
// cell counts, and a known cell type.
func (m Meta) Validate() error {
	if m.Res <= 0 || m.NumX <= 0 || m.NumY <= 0 || m.NumZ <= 0 {
		return ErrBadDimensions
	}
	switch m.Type {
	case U32, F32, Vec3F, Vec4F:
	default:
		return ErrUnknownCellType
	}
	return nil
}

// NumCells returns the total number of cells described by m.
func (m Meta) NumCells() int {
	return m.NumX * m.NumY * m.NumZ
}

// ByteSize returns the total buffer size in bytes required to store m's
// cells.
func (m Meta) ByteSize() int {
	return m.NumCells() * m.Type.Size()
}

// CompatibleWith reports whether two grid geometries can be combined in a
// single kernel invocation: identical resolution, dimensions and offset.
// Cell type is intentionally excluded, since map2 kernels legitimately
// combine grids of different element types.
func (m Meta) CompatibleWith(other Meta) bool {
	return m.Res == other.Res &&
		m.NumX == other.NumX && m.NumY == other.NumY && m.NumZ == other.NumZ &&
		m.Ofs == other.Ofs
}

// Index returns the linear index of cell (ix,iy,iz): ix + iy*NumX + iz*NumX*NumY.
func (m Meta) Index(ix, iy, iz int) int {
	return ix + iy*m.NumX + iz*m.NumX*m.NumY
}

// Decompose is the inverse of Index.
func (m Meta) Decompose(i int) (ix, iy, iz int) {
	ix = i % m.NumX
	i /= m.NumX
	iy = i % m.NumY
	iz = i / m.NumY
	return ix, iy, iz
}

// CenterOf returns the world-space center of cell (ix,iy,iz).
func (m Meta) CenterOf(ix, iy, iz int) ms3.Vec {
	return ms3.Add(m.Ofs, ms3.Scale(m.Res, ms3.Vec{X: float32(ix) + 0.5, Y: float32(iy) + 0.5, Z: float32(iz) + 0.5}))
}

// HalfDiagonal returns the distance from a cell's center to any of its
// corners: Res*sqrt(3)/2.
func (m Meta) HalfDiagonal() float32 {
	return m.Res * math32.Sqrt(3) / 2
}

// IndexBounds returns the half-open cell-index ranges [x0,x1)x[y0,y1)x[z0,z1)
// covering every cell whose world-space extent overlaps the axis-aligned box
// [lo,hi], clamped to the grid's own extent. An empty overlap yields a range
// with lo == hi on the affected axis.
func (m Meta) IndexBounds(lo, hi ms3.Vec) (x0, x1, y0, y1, z0, z1 int) {
	x0, x1 = axisIndexRange(lo.X, hi.X, m.Ofs.X, m.Res, m.NumX)
	y0, y1 = axisIndexRange(lo.Y, hi.Y, m.Ofs.Y, m.Res, m.NumY)
	z0, z1 = axisIndexRange(lo.Z, hi.Z, m.Ofs.Z, m.Res, m.NumZ)
	return x0, x1, y0, y1, z0, z1
}

// axisIndexRange returns the half-open cell-index range along one axis
// whose cells (each spanning [ofs+res*i, ofs+res*(i+1))) overlap [lo,hi],
// clamped to [0,num).
func axisIndexRange(lo, hi, ofs, res float32, num int) (int, int) {
	i0 := int(math32.Floor((lo - ofs) / res))
	i1 := int(math32.Floor((hi-ofs)/res)) + 1
	if i0 < 0 {
		i0 = 0
	}
	if i1 > num {
		i1 = num
	}
	if i1 < 0 {
		i1 = 0
	}
	if i0 > i1 {
		i0 = i1
	}
	return i0, i1
}
