package kernel

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/wgpu"
	"github.com/soypat/vsdf/voxgrid"
)

// gridUniforms returns the WriteBuffer payloads for the two uniform structs
// every map and map2 kernel binds: (numX,numY,numZ,aux) and (ofs.x,ofs.y,ofs.z,res).
func gridUniforms(m voxgrid.Meta, aux uint32) (dims, world []byte) {
	dims = make([]byte, 16)
	binary.LittleEndian.PutUint32(dims[0:], uint32(m.NumX))
	binary.LittleEndian.PutUint32(dims[4:], uint32(m.NumY))
	binary.LittleEndian.PutUint32(dims[8:], uint32(m.NumZ))
	binary.LittleEndian.PutUint32(dims[12:], aux)

	world = make([]byte, 16)
	binary.LittleEndian.PutUint32(world[0:], float32bits(m.Ofs.X))
	binary.LittleEndian.PutUint32(world[4:], float32bits(m.Ofs.Y))
	binary.LittleEndian.PutUint32(world[8:], float32bits(m.Ofs.Z))
	binary.LittleEndian.PutUint32(world[12:], float32bits(m.Res))
	return dims, world
}

func (d *Dispatcher) makeUniform(data []byte, label string) (*wgpu.Buffer, error) {
	buf, err := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	d.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// Map runs the kernel registered under name over in, writing to out. in and
// out must share geometry; if they are the same grid the dispatcher
// transparently routes through a temporary shadow grid so the snippet's
// "in and out are distinct" contract always holds.
func (d *Dispatcher) Map(ctx context.Context, name string, in, out *DeviceGrid) error {
	return d.mapAux(ctx, name, in, out, 0)
}

// MapAux is Map with the jump-flood step size (or any other kernel-specific
// auxiliary value) bound into the grid uniform's aux field.
func (d *Dispatcher) MapAux(ctx context.Context, name string, in, out *DeviceGrid, aux uint32) error {
	return d.mapAux(ctx, name, in, out, aux)
}

func (d *Dispatcher) mapAux(ctx context.Context, name string, in, out *DeviceGrid, aux uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := in.checkLive(); err != nil {
		return err
	}
	if err := out.checkLive(); err != nil {
		return err
	}
	p, ok := d.maps[name]
	if !ok {
		return fmt.Errorf("kernel: map %q: %w", name, ErrNotRegistered)
	}
	if !in.meta.CompatibleWith(out.meta) {
		return ErrIncompatibleGrids
	}
	target := out
	var shadow *DeviceGrid
	if in == out {
		d.log.Warn("in-place map dispatch, allocating shadow grid", "name", name)
		var err error
		shadow, err = newDeviceGrid(d.dev, out.meta, name+"-shadow")
		if err != nil {
			return err
		}
		target = shadow
	}

	n := uint32(in.meta.NumCells())
	dims, world := gridUniforms(in.meta, aux)
	dimsBuf, err := d.makeUniform(dims, name+"-dims")
	if err != nil {
		return err
	}
	defer dimsBuf.Release()
	worldBuf, err := d.makeUniform(world, name+"-world")
	if err != nil {
		return err
	}
	defer worldBuf.Release()

	bg, err := d.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  name + "-bg",
		Layout: p.bgLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: in.buf, Size: uint64(in.meta.ByteSize())},
			{Binding: 1, Buffer: target.buf, Size: uint64(target.meta.ByteSize())},
			{Binding: 2, Buffer: dimsBuf, Size: uint64(len(dims))},
			{Binding: 3, Buffer: worldBuf, Size: uint64(len(world))},
		},
	})
	if err != nil {
		return err
	}
	defer bg.Release()

	if err := d.runCompute(p.pipeline, bg, ceilDivU32(n, d.wg)); err != nil {
		return err
	}
	if shadow != nil {
		defer shadow.Release()
		return d.copyDeviceToDevice(shadow, out)
	}
	return nil
}

// Map2 runs the two-input kernel registered under name, writing to out.
// All three grids must share geometry.
func (d *Dispatcher) Map2(ctx context.Context, name string, in1, in2, out *DeviceGrid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, g := range [...]*DeviceGrid{in1, in2, out} {
		if err := g.checkLive(); err != nil {
			return err
		}
	}
	p, ok := d.map2s[name]
	if !ok {
		return fmt.Errorf("kernel: map2 %q: %w", name, ErrNotRegistered)
	}
	if !in1.meta.CompatibleWith(in2.meta) || !in1.meta.CompatibleWith(out.meta) {
		return ErrIncompatibleGrids
	}
	target := out
	var shadow *DeviceGrid
	if out == in1 || out == in2 {
		d.log.Warn("in-place map2 dispatch, allocating shadow grid", "name", name)
		var err error
		shadow, err = newDeviceGrid(d.dev, out.meta, name+"-shadow")
		if err != nil {
			return err
		}
		target = shadow
	}

	n := uint32(in1.meta.NumCells())
	dims, world := gridUniforms(in1.meta, 0)
	dimsBuf, err := d.makeUniform(dims, name+"-dims")
	if err != nil {
		return err
	}
	defer dimsBuf.Release()
	worldBuf, err := d.makeUniform(world, name+"-world")
	if err != nil {
		return err
	}
	defer worldBuf.Release()

	bg, err := d.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  name + "-bg",
		Layout: p.bgLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: in1.buf, Size: uint64(in1.meta.ByteSize())},
			{Binding: 1, Buffer: in2.buf, Size: uint64(in2.meta.ByteSize())},
			{Binding: 2, Buffer: target.buf, Size: uint64(target.meta.ByteSize())},
			{Binding: 3, Buffer: dimsBuf, Size: uint64(len(dims))},
			{Binding: 4, Buffer: worldBuf, Size: uint64(len(world))},
		},
	})
	if err != nil {
		return err
	}
	defer bg.Release()

	if err := d.runCompute(p.pipeline, bg, ceilDivU32(n, d.wg)); err != nil {
		return err
	}
	if shadow != nil {
		defer shadow.Release()
		return d.copyDeviceToDevice(shadow, out)
	}
	return nil
}

// ReduceF32 folds the F32 kernel registered under name over in until one
// element remains, returning it.
func (d *Dispatcher) ReduceF32(ctx context.Context, name string, in *DeviceGrid) (float32, error) {
	raw, err := d.reduce(ctx, name, in)
	if err != nil {
		return 0, err
	}
	return float32frombits(binary.LittleEndian.Uint32(raw)), nil
}

// ReduceU32 folds the U32 kernel registered under name over in until one
// element remains, returning it.
func (d *Dispatcher) ReduceU32(ctx context.Context, name string, in *DeviceGrid) (uint32, error) {
	raw, err := d.reduce(ctx, name, in)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}

func (d *Dispatcher) reduce(ctx context.Context, name string, in *DeviceGrid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := in.checkLive(); err != nil {
		return nil, err
	}
	p, ok := d.reduces[name]
	if !ok {
		return nil, fmt.Errorf("kernel: reduce %q: %w", name, ErrNotRegistered)
	}
	elemSize := p.valType.Size()
	count := uint32(in.meta.NumCells())
	src := in.buf
	var toRelease []*wgpu.Buffer
	defer func() {
		for _, b := range toRelease {
			b.Release()
		}
	}()

	for count > 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		numGroups := ceilDivU32(count, d.wg)
		dst, err := d.dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: name + "-reduce-round",
			Size:  uint64(numGroups) * uint64(elemSize),
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, err
		}
		toRelease = append(toRelease, dst)

		countBytes := make([]byte, 4)
		binary.LittleEndian.PutUint32(countBytes, count)
		countBuf, err := d.makeUniform(countBytes, name+"-count")
		if err != nil {
			return nil, err
		}
		defer countBuf.Release()

		bg, err := d.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  name + "-reduce-bg",
			Layout: p.bgLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: src, Size: uint64(count) * uint64(elemSize)},
				{Binding: 1, Buffer: dst, Size: uint64(numGroups) * uint64(elemSize)},
				{Binding: 2, Buffer: countBuf, Size: 4},
			},
		})
		if err != nil {
			return nil, err
		}
		if err := d.runCompute(p.pipeline, bg, numGroups); err != nil {
			bg.Release()
			return nil, err
		}
		bg.Release()

		src = dst
		count = numGroups
	}

	out := make([]byte, elemSize)
	if err := d.readback(src, 0, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Dispatcher) runCompute(pipeline *wgpu.ComputePipeline, bg *wgpu.BindGroup, numGroups uint32) error {
	encoder, err := d.dev.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	pass, err := encoder.BeginComputePass(nil)
	if err != nil {
		return err
	}
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(numGroups, 1, 1)
	if err := pass.End(); err != nil {
		return err
	}
	cmd, err := encoder.Finish()
	if err != nil {
		return err
	}
	return d.queue.Submit(cmd)
}

func float32bits(f float32) uint32      { return math.Float32bits(f) }
func float32frombits(u uint32) float32  { return math.Float32frombits(u) }
