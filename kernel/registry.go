package kernel

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/soypat/vsdf/voxgrid"
)

// wgslType returns the WGSL storage-buffer element type for a cell type.
// Vec3F shares vec4<f32> with Vec4F to match the 16-byte padded layout
// voxgrid.CellType.Size reports for both.
func wgslType(t voxgrid.CellType) (string, error) {
	switch t {
	case voxgrid.U32:
		return "u32", nil
	case voxgrid.F32:
		return "f32", nil
	case voxgrid.Vec3F, voxgrid.Vec4F:
		return "vec4<f32>", nil
	default:
		return "", voxgrid.ErrUnknownCellType
	}
}

// gridUniformsWGSL is the pair of uniform structs bound to every map and
// map2 kernel (reduce kernels bind only an element count), matching SPEC_FULL.md 4.5: (numX,numY,numZ,aux) and (ofs.x,ofs.y,ofs.z,res).
const gridUniformsWGSL = `
struct GridDims {
    numX: u32,
    numY: u32,
    numZ: u32,
    aux: u32,
};
struct GridWorld {
    ofsX: f32,
    ofsY: f32,
    ofsZ: f32,
    res: f32,
};
fn cellCenter(dims: GridDims, world: GridWorld, i: u32) -> vec3<f32> {
    let ix = i % dims.numX;
    let iy = (i / dims.numX) % dims.numY;
    let iz = i / (dims.numX * dims.numY);
    return vec3<f32>(
        world.ofsX + (f32(ix) + 0.5) * world.res,
        world.ofsY + (f32(iy) + 0.5) * world.res,
        world.ofsZ + (f32(iz) + 0.5) * world.res,
    );
}
`

type mapPipeline struct {
	pipeline *wgpu.ComputePipeline
	layout   *wgpu.PipelineLayout
	bgLayout *wgpu.BindGroupLayout
	shader   *wgpu.ShaderModule
	inType   voxgrid.CellType
	outType  voxgrid.CellType
}

func (p *mapPipeline) release() {
	p.pipeline.Release()
	p.layout.Release()
	p.bgLayout.Release()
	p.shader.Release()
}

type map2Pipeline struct {
	pipeline *wgpu.ComputePipeline
	layout   *wgpu.PipelineLayout
	bgLayout *wgpu.BindGroupLayout
	shader   *wgpu.ShaderModule
	inType1  voxgrid.CellType
	inType2  voxgrid.CellType
	outType  voxgrid.CellType
}

func (p *map2Pipeline) release() {
	p.pipeline.Release()
	p.layout.Release()
	p.bgLayout.Release()
	p.shader.Release()
}

type reducePipeline struct {
	pipeline *wgpu.ComputePipeline
	layout   *wgpu.PipelineLayout
	bgLayout *wgpu.BindGroupLayout
	shader   *wgpu.ShaderModule
	valType  voxgrid.CellType
}

func (p *reducePipeline) release() {
	p.pipeline.Release()
	p.layout.Release()
	p.bgLayout.Release()
	p.shader.Release()
}

// RegisterMapFn compiles and caches a one-input, one-output per-cell kernel
// under name. body is a WGSL statement block that assigns to `vo` using the
// bound cell value `vi` and its world-space center `p`; it must not read or
// write `out` directly. Re-registering an existing name is an error.
func (d *Dispatcher) RegisterMapFn(name string, inType, outType voxgrid.CellType, body string) error {
	if _, exists := d.maps[name]; exists {
		return ErrAlreadyRegistered
	}
	inWgsl, err := wgslType(inType)
	if err != nil {
		return err
	}
	outWgsl, err := wgslType(outType)
	if err != nil {
		return err
	}
	src := gridUniformsWGSL + fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> inBuf: array<%s>;
@group(0) @binding(1) var<storage, read_write> outBuf: array<%s>;
@group(0) @binding(2) var<uniform> dims: GridDims;
@group(0) @binding(3) var<uniform> world: GridWorld;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    let n = dims.numX * dims.numY * dims.numZ;
    if (i >= n) { return; }
    let p = cellCenter(dims, world, i);
    let vi = inBuf[i];
    var vo: %s;
    %s
    outBuf[i] = vo;
}
`, inWgsl, outWgsl, d.wg, outWgsl, body)

	shader, bgLayout, layout, pipeline, err := d.compile(name, src, []gputypes.BufferBindingType{
		gputypes.BufferBindingTypeReadOnlyStorage,
		gputypes.BufferBindingTypeStorage,
	})
	if err != nil {
		return err
	}
	d.maps[name] = &mapPipeline{pipeline: pipeline, layout: layout, bgLayout: bgLayout, shader: shader, inType: inType, outType: outType}
	d.log.Debug("kernel registered", "kind", "map", "name", name)
	return nil
}

// RegisterMap2Fn compiles and caches a two-input, one-output per-cell
// kernel under name. body assigns to `vo` using `vi1`, `vi2` and `p`.
func (d *Dispatcher) RegisterMap2Fn(name string, inType1, inType2, outType voxgrid.CellType, body string) error {
	if _, exists := d.map2s[name]; exists {
		return ErrAlreadyRegistered
	}
	in1, err := wgslType(inType1)
	if err != nil {
		return err
	}
	in2, err := wgslType(inType2)
	if err != nil {
		return err
	}
	out, err := wgslType(outType)
	if err != nil {
		return err
	}
	src := gridUniformsWGSL + fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> inBuf1: array<%s>;
@group(0) @binding(1) var<storage, read> inBuf2: array<%s>;
@group(0) @binding(2) var<storage, read_write> outBuf: array<%s>;
@group(0) @binding(3) var<uniform> dims: GridDims;
@group(0) @binding(4) var<uniform> world: GridWorld;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
    let i = gid.x;
    let n = dims.numX * dims.numY * dims.numZ;
    if (i >= n) { return; }
    let p = cellCenter(dims, world, i);
    let vi1 = inBuf1[i];
    let vi2 = inBuf2[i];
    var vo: %s;
    %s
    outBuf[i] = vo;
}
`, in1, in2, out, d.wg, out, body)

	shader, bgLayout, layout, pipeline, err := d.compile(name, src, []gputypes.BufferBindingType{
		gputypes.BufferBindingTypeReadOnlyStorage,
		gputypes.BufferBindingTypeReadOnlyStorage,
		gputypes.BufferBindingTypeStorage,
	})
	if err != nil {
		return err
	}
	d.map2s[name] = &map2Pipeline{pipeline: pipeline, layout: layout, bgLayout: bgLayout, shader: shader, inType1: inType1, inType2: inType2, outType: outType}
	d.log.Debug("kernel registered", "kind", "map2", "name", name)
	return nil
}

// RegisterReduceFn compiles and caches a tree-wise reduction kernel under
// name. body folds two accumulators `a` and `b` of valType into `vo`; it
// must be pure, associative and commutative, with initExpr (a WGSL literal
// or expression of valType) as its identity element.
func (d *Dispatcher) RegisterReduceFn(name string, valType voxgrid.CellType, initExpr, body string) error {
	if _, exists := d.reduces[name]; exists {
		return ErrAlreadyRegistered
	}
	wgslVal, err := wgslType(valType)
	if err != nil {
		return err
	}
	src := fmt.Sprintf(`
@group(0) @binding(0) var<storage, read> inBuf: array<%s>;
@group(0) @binding(1) var<storage, read_write> outBuf: array<%s>;
@group(0) @binding(2) var<uniform> count: u32;

var<workgroup> scratch: array<%s, %d>;

@compute @workgroup_size(%d)
fn main(@builtin(global_invocation_id) gid: vec3<u32>, @builtin(local_invocation_id) lid: vec3<u32>, @builtin(workgroup_id) wgid: vec3<u32>) {
    let i = gid.x;
    let li = lid.x;
    if (i < count) {
        scratch[li] = inBuf[i];
    } else {
        scratch[li] = %s;
    }
    workgroupBarrier();
    var stride = %du;
    loop {
        if (stride == 0u) { break; }
        if (li < stride) {
            let a = scratch[li];
            let b = scratch[li + stride];
            var vo: %s;
            %s
            scratch[li] = vo;
        }
        workgroupBarrier();
        stride = stride / 2u;
    }
    if (li == 0u) {
        outBuf[wgid.x] = scratch[0];
    }
}
`, wgslVal, wgslVal, wgslVal, d.wg, d.wg, initExpr, d.wg/2, wgslVal, body)

	shader, bgLayout, layout, pipeline, err := d.compileUniform(name, src, []gputypes.BufferBindingType{
		gputypes.BufferBindingTypeReadOnlyStorage,
		gputypes.BufferBindingTypeStorage,
	})
	if err != nil {
		return err
	}
	d.reduces[name] = &reducePipeline{pipeline: pipeline, layout: layout, bgLayout: bgLayout, shader: shader, valType: valType}
	d.log.Debug("kernel registered", "kind", "reduce", "name", name)
	return nil
}

// compile builds a pipeline whose layout is two grid-uniform bindings
// following the given storage buffer bindings, matching the map/map2 body
// templates above.
func (d *Dispatcher) compile(name, src string, storageBindings []gputypes.BufferBindingType) (*wgpu.ShaderModule, *wgpu.BindGroupLayout, *wgpu.PipelineLayout, *wgpu.ComputePipeline, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(storageBindings)+2)
	for i, bt := range storageBindings {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: bt},
		})
	}
	base := uint32(len(storageBindings))
	entries = append(entries,
		wgpu.BindGroupLayoutEntry{Binding: base, Visibility: wgpu.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
		wgpu.BindGroupLayoutEntry{Binding: base + 1, Visibility: wgpu.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
	)
	return d.compileEntries(name, src, entries)
}

// compileUniform is like compile but the kernel only takes a single
// trailing uniform binding (used by the reduce template's element count).
func (d *Dispatcher) compileUniform(name, src string, storageBindings []gputypes.BufferBindingType) (*wgpu.ShaderModule, *wgpu.BindGroupLayout, *wgpu.PipelineLayout, *wgpu.ComputePipeline, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(storageBindings)+1)
	for i, bt := range storageBindings {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: bt},
		})
	}
	entries = append(entries, wgpu.BindGroupLayoutEntry{
		Binding: uint32(len(storageBindings)), Visibility: wgpu.ShaderStageCompute,
		Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	})
	return d.compileEntries(name, src, entries)
}

func (d *Dispatcher) compileEntries(name, src string, entries []wgpu.BindGroupLayoutEntry) (*wgpu.ShaderModule, *wgpu.BindGroupLayout, *wgpu.PipelineLayout, *wgpu.ComputePipeline, error) {
	if d.maps == nil {
		// Release clears the pipeline tables; registering afterwards is a lifetime error.
		return nil, nil, nil, nil, ErrReleased
	}
	shader, err := d.dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{Label: name, WGSL: src})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("kernel %q: compile shader: %w", name, err)
	}
	bgLayout, err := d.dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{Label: name + "-bgl", Entries: entries})
	if err != nil {
		shader.Release()
		return nil, nil, nil, nil, fmt.Errorf("kernel %q: bind group layout: %w", name, err)
	}
	layout, err := d.dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{Label: name + "-pl", BindGroupLayouts: []*wgpu.BindGroupLayout{bgLayout}})
	if err != nil {
		bgLayout.Release()
		shader.Release()
		return nil, nil, nil, nil, fmt.Errorf("kernel %q: pipeline layout: %w", name, err)
	}
	pipeline, err := d.dev.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:      name,
		Layout:     layout,
		Module:     shader,
		EntryPoint: "main",
	})
	if err != nil {
		layout.Release()
		bgLayout.Release()
		shader.Release()
		return nil, nil, nil, nil, fmt.Errorf("kernel %q: compute pipeline: %w", name, err)
	}
	return shader, bgLayout, layout, pipeline, nil
}
