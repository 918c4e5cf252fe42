//go:build opencl

package compute

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"

	"github.com/san-kum/fibersim/internal/membrane"
)

const membraneKernelSource = `__kernel void membrane_step(
    const int side,
    const float damping,
    const float accel,
    __global const float* prev_h,
    __global const float* prev_v,
    __global float* next_h,
    __global float* next_v)
{
    int idx = get_global_id(0);
    int n = side * side;
    if (idx >= n) {
        return;
    }
    int offsets[4] = {-side, -1, 1, side};
    float sum = 0.0f;
    float count = 0.0f;
    for (int k = 0; k < 4; k++) {
        int j = idx + offsets[k];
        if (j >= 0 && j < n) {
            sum += prev_h[j];
            count += 1.0f;
        }
    }
    float h = prev_h[idx];
    float mid = count > 0.0f ? sum / count : h;
    float v = prev_v[idx] / damping + (mid - h) / 2.0f;
    next_h[idx] = (h + v) - accel;
    next_v[idx] = v;
}`

// OpenCLBackend runs the update rule on the first GPU (or CPU) device found.
// Device buffers are sized for one side at a time and reallocated when the
// grid is resized.
type OpenCLBackend struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel

	prevH, prevV *cl.MemObject
	nextH, nextV *cl.MemObject

	side       int
	deviceName string

	hostH, hostV []float32
}

func NewOpenCLBackend() (*OpenCLBackend, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available")
	}

	device := firstDevice(platforms, cl.DeviceTypeGPU)
	if device == nil {
		device = firstDevice(platforms, cl.DeviceTypeCPU)
	}
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	b := &OpenCLBackend{deviceName: device.Name()}
	if b.context, err = cl.CreateContext([]*cl.Device{device}); err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	if b.queue, err = b.context.CreateCommandQueue(device, 0); err != nil {
		b.Cleanup()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	if b.program, err = b.context.CreateProgramWithSource([]string{membraneKernelSource}); err != nil {
		b.Cleanup()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := b.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		b.Cleanup()
		if buildErr, ok := err.(cl.BuildError); ok {
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	if b.kernel, err = b.program.CreateKernel("membrane_step"); err != nil {
		b.Cleanup()
		return nil, fmt.Errorf("creating OpenCL kernel: %w", err)
	}
	return b, nil
}

func firstDevice(platforms []*cl.Platform, kind cl.DeviceType) *cl.Device {
	for _, p := range platforms {
		devices, err := p.GetDevices(kind)
		if err != nil && err != cl.ErrDeviceNotFound {
			continue
		}
		if len(devices) > 0 {
			return devices[0]
		}
	}
	return nil
}

func (b *OpenCLBackend) Name() string       { return NameOpenCL }
func (b *OpenCLBackend) Available() bool    { return b.kernel != nil }
func (b *OpenCLBackend) DeviceName() string { return b.deviceName }

// Step uploads prev, runs the kernel, and reads the result into next.
func (b *OpenCLBackend) Step(prev, next *membrane.Grid, p membrane.Params) error {
	if err := membrane.CheckGenerations(prev, next, p); err != nil {
		return err
	}
	if err := b.ensureBuffers(prev.Side); err != nil {
		return err
	}

	for i, n := range prev.Nodes {
		b.hostH[i] = n.Height
		b.hostV[i] = n.Velocity
	}
	if _, err := b.queue.EnqueueWriteBufferFloat32(b.prevH, false, 0, b.hostH, nil); err != nil {
		return fmt.Errorf("writing heights: %w", err)
	}
	if _, err := b.queue.EnqueueWriteBufferFloat32(b.prevV, false, 0, b.hostV, nil); err != nil {
		return fmt.Errorf("writing velocities: %w", err)
	}

	if err := b.kernel.SetArgs(int32(b.side), p.Damping, p.Acceleration, b.prevH, b.prevV, b.nextH, b.nextV); err != nil {
		return fmt.Errorf("setting kernel arguments: %w", err)
	}
	if _, err := b.queue.EnqueueNDRangeKernel(b.kernel, nil, []int{len(prev.Nodes)}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}

	if _, err := b.queue.EnqueueReadBufferFloat32(b.nextH, true, 0, b.hostH, nil); err != nil {
		return fmt.Errorf("reading heights: %w", err)
	}
	if _, err := b.queue.EnqueueReadBufferFloat32(b.nextV, true, 0, b.hostV, nil); err != nil {
		return fmt.Errorf("reading velocities: %w", err)
	}
	for i := range next.Nodes {
		next.Nodes[i] = membrane.Node{Height: b.hostH[i], Velocity: b.hostV[i]}
	}
	return nil
}

func (b *OpenCLBackend) ensureBuffers(side int) error {
	if side == b.side && b.prevH != nil {
		return nil
	}
	b.releaseBuffers()

	n := side * side
	byteSize := n * int(unsafe.Sizeof(float32(0)))
	var err error
	if b.prevH, err = b.context.CreateEmptyBuffer(cl.MemReadOnly, byteSize); err != nil {
		return fmt.Errorf("allocating height buffer: %w", err)
	}
	if b.prevV, err = b.context.CreateEmptyBuffer(cl.MemReadOnly, byteSize); err != nil {
		b.releaseBuffers()
		return fmt.Errorf("allocating velocity buffer: %w", err)
	}
	if b.nextH, err = b.context.CreateEmptyBuffer(cl.MemWriteOnly, byteSize); err != nil {
		b.releaseBuffers()
		return fmt.Errorf("allocating next height buffer: %w", err)
	}
	if b.nextV, err = b.context.CreateEmptyBuffer(cl.MemWriteOnly, byteSize); err != nil {
		b.releaseBuffers()
		return fmt.Errorf("allocating next velocity buffer: %w", err)
	}
	b.side = side
	b.hostH = make([]float32, n)
	b.hostV = make([]float32, n)
	return nil
}

func (b *OpenCLBackend) releaseBuffers() {
	for _, buf := range []**cl.MemObject{&b.prevH, &b.prevV, &b.nextH, &b.nextV} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	b.side = 0
}

func (b *OpenCLBackend) Cleanup() {
	b.releaseBuffers()
	if b.kernel != nil {
		b.kernel.Release()
		b.kernel = nil
	}
	if b.program != nil {
		b.program.Release()
		b.program = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.context != nil {
		b.context.Release()
		b.context = nil
	}
}
