package kernel

import (
	"github.com/gogpu/wgpu"
	"github.com/soypat/vsdf/voxgrid"
)

// DeviceGrid is a GPU-resident voxel grid: grid metadata paired with one
// storage buffer of matching byte length. It is mutated only by a
// Dispatcher; per-cell values are only observable by copying to a HostGrid
// (see Copy).
type DeviceGrid struct {
	meta     voxgrid.Meta
	buf      *wgpu.Buffer
	released bool
}

// newDeviceGrid allocates a zero-initialized storage buffer sized for meta
// on dev, usable as both a kernel input/output and a copy source/target.
func newDeviceGrid(dev *wgpu.Device, meta voxgrid.Meta, label string) (*DeviceGrid, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	buf, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(meta.ByteSize()),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	return &DeviceGrid{meta: meta, buf: buf}, nil
}

// Meta returns the grid's metadata.
func (g *DeviceGrid) Meta() voxgrid.Meta { return g.meta }

// Release destroys the backing GPU buffer. Any later operation against g
// fails with ErrReleased.
func (g *DeviceGrid) Release() {
	if g.released {
		return
	}
	g.buf.Release()
	g.released = true
}

func (g *DeviceGrid) checkLive() error {
	if g == nil || g.released {
		return ErrReleased
	}
	return nil
}
