package kernel

import (
	"log/slog"

	"github.com/gogpu/wgpu"
	"github.com/soypat/vsdf/voxgrid"
)

// defaultWorkgroupSize is the invocation count per workgroup used by every
// compiled pipeline unless overridden with WithWorkgroupSize.
const defaultWorkgroupSize = 128

// SentinelInvalid marks a cell as having no contribution to a reduction
// (e.g. an empty occupancy cell in BoundOfAxis). Reduce snippets that must
// ignore it map it to +/-infinity so it never wins a min/max fold.
const SentinelInvalid = 65536

// Dispatcher owns a GPU device and queue, a fixed workgroup size, and the
// compiled pipeline tables for registered map, map2 and reduce kernels.
type Dispatcher struct {
	dev   *wgpu.Device
	queue *wgpu.Queue
	wg    uint32
	log   *slog.Logger

	maps    map[string]*mapPipeline
	map2s   map[string]*map2Pipeline
	reduces map[string]*reducePipeline
}

// Option configures a Dispatcher at construction.
type Option func(*Dispatcher)

// WithWorkgroupSize overrides the default workgroup size (128) used to
// compile every subsequently registered kernel.
func WithWorkgroupSize(n uint32) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.wg = n
		}
	}
}

// WithLogger overrides the package-level logger for this Dispatcher only.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDispatcher creates a Dispatcher bound to dev/queue. Devices and queues
// come from github.com/gogpu/wgpu; the caller retains ownership and must
// keep them alive for the Dispatcher's lifetime.
func NewDispatcher(dev *wgpu.Device, queue *wgpu.Queue, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		dev:     dev,
		queue:   queue,
		wg:      defaultWorkgroupSize,
		log:     Logger(),
		maps:    make(map[string]*mapPipeline),
		map2s:   make(map[string]*map2Pipeline),
		reduces: make(map[string]*reducePipeline),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDeviceGrid allocates a zero-initialized device grid of meta's geometry
// on the dispatcher's device.
func (d *Dispatcher) NewDeviceGrid(meta voxgrid.Meta, label string) (*DeviceGrid, error) {
	return newDeviceGrid(d.dev, meta, label)
}

// Release tears down every compiled pipeline. The underlying device and
// queue are not released; the caller owns them.
func (d *Dispatcher) Release() {
	for _, p := range d.maps {
		p.release()
	}
	for _, p := range d.map2s {
		p.release()
	}
	for _, p := range d.reduces {
		p.release()
	}
	d.maps = nil
	d.map2s = nil
	d.reduces = nil
}

func ceilDivU32(a, b uint32) uint32 { return (a + b - 1) / b }
