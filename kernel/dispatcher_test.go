package kernel_test

import (
	"context"
	"testing"

	"github.com/gogpu/wgpu"
	_ "github.com/gogpu/wgpu/hal/allbackends"

	"github.com/soypat/vsdf/kernel"
	"github.com/soypat/vsdf/voxgrid"
)

// requireGPU skips the test unless a real GPU backend is registered. Importing
// hal/allbackends (rather than just hal/noop) registers every real backend
// available on the host platform (Vulkan, Metal, DX12, GLES) in addition to
// the no-op fallback, so this test exercises genuine HAL-backed compute
// wherever a GPU is present and only falls back to skipping on truly
// headless hosts, where RequestDevice resolves to a mock adapter with no HAL
// integration and buffer/pipeline creation cannot run.
func requireGPU(t *testing.T) (*wgpu.Device, *wgpu.Queue) {
	t.Helper()
	inst, err := wgpu.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	adapter, err := inst.RequestAdapter(nil)
	if err != nil {
		t.Fatalf("RequestAdapter: %v", err)
	}
	dev, err := adapter.RequestDevice(nil)
	if err != nil {
		t.Fatalf("RequestDevice: %v", err)
	}
	if dev.Queue() == nil {
		t.Skip("no GPU backend registered; skipping device-dependent test")
	}
	return dev, dev.Queue()
}

// TestNegateKernel reproduces the specification's sixth scenario: a
// registered "negate" map kernel run once out-of-place and once in-place.
func TestNegateKernel(t *testing.T) {
	dev, queue := requireGPU(t)
	dsp := kernel.NewDispatcher(dev, queue)
	defer dsp.Release()

	if err := dsp.RegisterMapFn("negate", voxgrid.F32, voxgrid.F32, "vo = -vi;"); err != nil {
		t.Fatal(err)
	}

	meta := voxgrid.Meta{Res: 1, NumX: 2, NumY: 1, NumZ: 1, Type: voxgrid.F32}
	host, err := voxgrid.New(meta)
	if err != nil {
		t.Fatal(err)
	}
	host.SetF32(0, 0, 0, 2.0)

	in, err := dsp.NewDeviceGrid(meta, "in")
	if err != nil {
		t.Fatal(err)
	}
	defer in.Release()
	out, err := dsp.NewDeviceGrid(meta, "out")
	if err != nil {
		t.Fatal(err)
	}
	defer out.Release()

	ctx := context.Background()
	if err := dsp.Copy(in, host); err != nil {
		t.Fatal(err)
	}
	if err := dsp.Map(ctx, "negate", in, out); err != nil {
		t.Fatal(err)
	}

	result, err := voxgrid.New(meta)
	if err != nil {
		t.Fatal(err)
	}
	if err := dsp.Copy(result, out); err != nil {
		t.Fatal(err)
	}
	if got := result.GetF32(0, 0, 0); got != -2.0 {
		t.Fatalf("out-of-place: cell 0 = %v, want -2", got)
	}
	if got := result.GetF32(1, 0, 0); got != 0.0 {
		t.Fatalf("out-of-place: cell 1 = %v, want 0", got)
	}

	// In-place: in == out, exercising the shadow-grid aliasing path.
	if err := dsp.Map(ctx, "negate", in, in); err != nil {
		t.Fatal(err)
	}
	if err := dsp.Copy(result, in); err != nil {
		t.Fatal(err)
	}
	if got := result.GetF32(0, 0, 0); got != -2.0 {
		t.Fatalf("in-place: cell 0 = %v, want -2", got)
	}
}

func TestRegisterMapFnDuplicateName(t *testing.T) {
	dev, queue := requireGPU(t)
	dsp := kernel.NewDispatcher(dev, queue)
	defer dsp.Release()

	if err := dsp.RegisterMapFn("dup", voxgrid.F32, voxgrid.F32, "vo = vi;"); err != nil {
		t.Fatal(err)
	}
	err := dsp.RegisterMapFn("dup", voxgrid.F32, voxgrid.F32, "vo = vi;")
	if err != kernel.ErrAlreadyRegistered {
		t.Fatalf("got %v, want ErrAlreadyRegistered", err)
	}
}

func TestMapUnregisteredName(t *testing.T) {
	dev, queue := requireGPU(t)
	dsp := kernel.NewDispatcher(dev, queue)
	defer dsp.Release()

	meta := voxgrid.Meta{Res: 1, NumX: 1, NumY: 1, NumZ: 1, Type: voxgrid.F32}
	g, err := dsp.NewDeviceGrid(meta, "g")
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()
	if err := dsp.Map(context.Background(), "nope", g, g); err == nil {
		t.Fatal("expected an error for an unregistered kernel name")
	}
}

func TestCopySizeMismatch(t *testing.T) {
	dev, queue := requireGPU(t)
	dsp := kernel.NewDispatcher(dev, queue)
	defer dsp.Release()

	a, err := voxgrid.New(voxgrid.Meta{Res: 1, NumX: 2, NumY: 1, NumZ: 1, Type: voxgrid.F32})
	if err != nil {
		t.Fatal(err)
	}
	b, err := voxgrid.New(voxgrid.Meta{Res: 1, NumX: 3, NumY: 1, NumZ: 1, Type: voxgrid.F32})
	if err != nil {
		t.Fatal(err)
	}
	if err := dsp.Copy(b, a); err != kernel.ErrSizeMismatch {
		t.Fatalf("got %v, want ErrSizeMismatch", err)
	}
}
