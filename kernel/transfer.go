package kernel

import (
	"github.com/gogpu/wgpu"
	"github.com/soypat/vsdf/voxgrid"
)

// Copy moves contents between any combination of host and device grids.
// src and dst must have equal byte length. Accepted types are
// *voxgrid.HostGrid and *DeviceGrid.
func (d *Dispatcher) Copy(dst, src any) error {
	srcLen, err := d.copyByteLen(src)
	if err != nil {
		return err
	}
	dstLen, err := d.copyByteLen(dst)
	if err == ErrUnsupportedSrc {
		return ErrUnsupportedDst
	} else if err != nil {
		return err
	}
	if srcLen != dstLen {
		return ErrSizeMismatch
	}

	switch s := src.(type) {
	case *voxgrid.HostGrid:
		switch dt := dst.(type) {
		case *voxgrid.HostGrid:
			dt.SetBytes(s.Bytes())
			return nil
		case *DeviceGrid:
			if err := dt.checkLive(); err != nil {
				return err
			}
			d.queue.WriteBuffer(dt.buf, 0, s.Bytes())
			return nil
		default:
			return ErrUnsupportedDst
		}
	case *DeviceGrid:
		if err := s.checkLive(); err != nil {
			return err
		}
		switch dt := dst.(type) {
		case *voxgrid.HostGrid:
			buf := make([]byte, dstLen)
			if err := d.readback(s.buf, 0, buf); err != nil {
				return err
			}
			dt.SetBytes(buf)
			return nil
		case *DeviceGrid:
			if err := dt.checkLive(); err != nil {
				return err
			}
			return d.copyDeviceToDevice(s, dt)
		default:
			return ErrUnsupportedDst
		}
	default:
		return ErrUnsupportedSrc
	}
}

// copyByteLen reports the byte length of a *voxgrid.HostGrid or *DeviceGrid,
// used to validate Copy's src/dst pair before touching either one.
func (d *Dispatcher) copyByteLen(g any) (int, error) {
	switch gt := g.(type) {
	case *voxgrid.HostGrid:
		return gt.Meta().ByteSize(), nil
	case *DeviceGrid:
		if err := gt.checkLive(); err != nil {
			return 0, err
		}
		return gt.meta.ByteSize(), nil
	default:
		return 0, ErrUnsupportedSrc
	}
}

// copyDeviceToDevice issues a queue-side buffer copy via a command encoder.
func (d *Dispatcher) copyDeviceToDevice(src, dst *DeviceGrid) error {
	encoder, err := d.dev.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	encoder.CopyBufferToBuffer(src.buf, 0, dst.buf, 0, uint64(src.meta.ByteSize()))
	cmd, err := encoder.Finish()
	if err != nil {
		return err
	}
	return d.queue.Submit(cmd)
}

// readback copies len(out) bytes starting at offset from a device buffer into
// out, via a staging buffer mapped for CPU read.
func (d *Dispatcher) readback(src *wgpu.Buffer, offset uint64, out []byte) error {
	staging, err := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback-staging",
		Size:  uint64(len(out)),
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return err
	}
	defer staging.Release()

	encoder, err := d.dev.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	encoder.CopyBufferToBuffer(src, offset, staging, 0, uint64(len(out)))
	cmd, err := encoder.Finish()
	if err != nil {
		return err
	}
	if err := d.queue.Submit(cmd); err != nil {
		return err
	}
	return d.queue.ReadBuffer(staging, 0, out)
}
