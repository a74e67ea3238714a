//go:build opencl

package shallow

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
)

const shallowKernelSource = `#pragma OPENCL EXTENSION cl_khr_fp64 : enable

__kernel void velocity_step(
    const int nx,
    const int ny,
    __global const double* coef,
    __global const double* eta,
    __global const double* u,
    __global const double* v,
    __global double* u_next,
    __global double* v_next)
{
    int idx = get_global_id(0);
    if (idx >= nx * ny) {
        return;
    }
    int i = idx / ny;
    int j = idx % ny;
    if (i <= 0 || i >= nx - 1 || j <= 0 || j >= ny - 1) {
        return;
    }
    u_next[idx] = u[idx] - coef[0] * (eta[idx + ny] - eta[idx]);
    v_next[idx] = v[idx] - coef[1] * (eta[idx + 1] - eta[idx]);
}

__kernel void elevation_step(
    const int nx,
    const int ny,
    __global const double* coef,
    __global const double* eta,
    __global const double* u_next,
    __global const double* v_next,
    __global double* eta_next)
{
    int idx = get_global_id(0);
    if (idx >= nx * ny) {
        return;
    }
    int i = idx / ny;
    int j = idx % ny;
    if (i <= 0 || i >= nx - 1 || j <= 0 || j >= ny - 1) {
        return;
    }
    eta_next[idx] = eta[idx]
        - coef[2] * (u_next[idx] - u_next[idx - ny])
        - coef[3] * (v_next[idx] - v_next[idx - 1]);
}`

// OpenCLStepper runs the integrator kernels on an OpenCL device. State stays
// on the device between steps and is read back after each commit.
type OpenCLStepper struct {
	context        *cl.Context
	queue          *cl.CommandQueue
	program        *cl.Program
	velocityKernel *cl.Kernel
	heightKernel   *cl.Kernel
	coefBuf        *cl.MemObject
	etaBuf         *cl.MemObject
	uBuf           *cl.MemObject
	vBuf           *cl.MemObject
	etaNextBuf     *cl.MemObject
	uNextBuf       *cl.MemObject
	vNextBuf       *cl.MemObject

	grid       *Grid
	dt         float64
	deviceName string

	synced  *WaveField
	version uint64
}

// NewOpenCLStepper compiles the kernels for the first GPU (or CPU) device that
// supports double precision.
func NewOpenCLStepper(grid *Grid, in *Integrator) (*OpenCLStepper, error) {
	device, err := pickDevice()
	if err != nil {
		return nil, err
	}
	s := &OpenCLStepper{grid: grid, dt: in.Dt, deviceName: device.Name()}
	if err := s.build(device); err != nil {
		s.Close()
		return nil, err
	}
	dx, dy := grid.Spacing()
	coef := []float64{
		in.Gravity * in.Dt / dx,
		in.Gravity * in.Dt / dy,
		in.Depth * in.Dt / dx,
		in.Depth * in.Dt / dy,
	}
	if err := s.write(s.coefBuf, coef); err != nil {
		s.Close()
		return nil, fmt.Errorf("writing coefficients: %w", err)
	}
	return s, nil
}

func pickDevice() (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		msg := "querying OpenCL platforms"
		if strings.Contains(err.Error(), "-1001") {
			msg += ": no ICD loader reported any platforms; install OpenCL drivers and verify with `clinfo`"
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available")
	}
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			for _, d := range devices {
				if strings.Contains(d.Extensions(), "cl_khr_fp64") {
					return d, nil
				}
			}
		}
	}
	return nil, errors.New("no OpenCL device with cl_khr_fp64 found")
}

func (s *OpenCLStepper) build(device *cl.Device) error {
	var err error
	if s.context, err = cl.CreateContext([]*cl.Device{device}); err != nil {
		return fmt.Errorf("creating OpenCL context: %w", err)
	}
	if s.queue, err = s.context.CreateCommandQueue(device, 0); err != nil {
		return fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	if s.program, err = s.context.CreateProgramWithSource([]string{shallowKernelSource}); err != nil {
		return fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := s.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		if buildErr, ok := err.(cl.BuildError); ok {
			return fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return fmt.Errorf("building OpenCL program: %w", err)
	}
	if s.velocityKernel, err = s.program.CreateKernel("velocity_step"); err != nil {
		return fmt.Errorf("creating velocity kernel: %w", err)
	}
	if s.heightKernel, err = s.program.CreateKernel("elevation_step"); err != nil {
		return fmt.Errorf("creating elevation kernel: %w", err)
	}
	if s.coefBuf, err = s.context.CreateEmptyBuffer(cl.MemReadOnly, 4*8); err != nil {
		return fmt.Errorf("allocating coefficient buffer: %w", err)
	}
	byteSize := s.grid.Cells() * int(unsafe.Sizeof(float64(0)))
	for _, dst := range []**cl.MemObject{&s.etaBuf, &s.uBuf, &s.vBuf, &s.etaNextBuf, &s.uNextBuf, &s.vNextBuf} {
		if *dst, err = s.context.CreateEmptyBuffer(cl.MemReadWrite, byteSize); err != nil {
			return fmt.Errorf("allocating field buffer: %w", err)
		}
	}
	nx, ny := s.grid.Size()
	if err := s.velocityKernel.SetArgs(int32(nx), int32(ny), s.coefBuf); err != nil {
		return fmt.Errorf("setting velocity kernel arguments: %w", err)
	}
	if err := s.heightKernel.SetArgs(int32(nx), int32(ny), s.coefBuf); err != nil {
		return fmt.Errorf("setting elevation kernel arguments: %w", err)
	}
	return nil
}

func (s *OpenCLStepper) write(buf *cl.MemObject, host []float64) error {
	if len(host) == 0 {
		return nil
	}
	_, err := s.queue.EnqueueWriteBuffer(buf, true, 0, len(host)*8, unsafe.Pointer(&host[0]), nil)
	return err
}

func (s *OpenCLStepper) read(buf *cl.MemObject, host []float64) error {
	if len(host) == 0 {
		return nil
	}
	_, err := s.queue.EnqueueReadBuffer(buf, true, 0, len(host)*8, unsafe.Pointer(&host[0]), nil)
	return err
}

// upload copies all six host buffers, including the untouched edges of the
// next buffers.
func (s *OpenCLStepper) upload(f *WaveField) error {
	pairs := []struct {
		buf  *cl.MemObject
		host []float64
	}{
		{s.etaBuf, f.eta}, {s.uBuf, f.u}, {s.vBuf, f.v},
		{s.etaNextBuf, f.etaNext}, {s.uNextBuf, f.uNext}, {s.vNextBuf, f.vNext},
	}
	for _, p := range pairs {
		if err := s.write(p.buf, p.host); err != nil {
			return fmt.Errorf("uploading field: %w", err)
		}
	}
	s.synced = f
	s.version = f.version
	return nil
}

func (s *OpenCLStepper) bind() error {
	for idx, buf := range []*cl.MemObject{s.etaBuf, s.uBuf, s.vBuf, s.uNextBuf, s.vNextBuf} {
		if err := s.velocityKernel.SetArgBuffer(3+idx, buf); err != nil {
			return err
		}
	}
	for idx, buf := range []*cl.MemObject{s.etaBuf, s.uNextBuf, s.vNextBuf, s.etaNextBuf} {
		if err := s.heightKernel.SetArgBuffer(3+idx, buf); err != nil {
			return err
		}
	}
	return nil
}

// Step runs both stages on the device, rotates the device buffers and reads
// the committed state back into f.
func (s *OpenCLStepper) Step(f *WaveField) error {
	if !sameShape(f.grid, s.grid) {
		return ErrShapeMismatch
	}
	if s.synced != f || s.version != f.version {
		if err := s.upload(f); err != nil {
			return err
		}
	}
	if err := s.bind(); err != nil {
		return fmt.Errorf("binding buffers: %w", err)
	}
	global := []int{s.grid.Cells()}
	if _, err := s.queue.EnqueueNDRangeKernel(s.velocityKernel, nil, global, nil, nil); err != nil {
		return fmt.Errorf("enqueueing velocity kernel: %w", err)
	}
	if _, err := s.queue.EnqueueNDRangeKernel(s.heightKernel, nil, global, nil, nil); err != nil {
		return fmt.Errorf("enqueueing elevation kernel: %w", err)
	}
	if err := s.read(s.etaNextBuf, f.etaNext); err != nil {
		return fmt.Errorf("reading elevation: %w", err)
	}
	if err := s.read(s.uNextBuf, f.uNext); err != nil {
		return fmt.Errorf("reading u: %w", err)
	}
	if err := s.read(s.vNextBuf, f.vNext); err != nil {
		return fmt.Errorf("reading v: %w", err)
	}
	s.etaBuf, s.etaNextBuf = s.etaNextBuf, s.etaBuf
	s.uBuf, s.uNextBuf = s.uNextBuf, s.uBuf
	s.vBuf, s.vNextBuf = s.vNextBuf, s.vBuf
	f.commit(s.dt)
	return nil
}

// Close releases every OpenCL object.
func (s *OpenCLStepper) Close() {
	for _, buf := range []**cl.MemObject{&s.coefBuf, &s.etaBuf, &s.uBuf, &s.vBuf, &s.etaNextBuf, &s.uNextBuf, &s.vNextBuf} {
		if *buf != nil {
			(*buf).Release()
			*buf = nil
		}
	}
	if s.velocityKernel != nil {
		s.velocityKernel.Release()
		s.velocityKernel = nil
	}
	if s.heightKernel != nil {
		s.heightKernel.Release()
		s.heightKernel = nil
	}
	if s.program != nil {
		s.program.Release()
		s.program = nil
	}
	if s.queue != nil {
		s.queue.Release()
		s.queue = nil
	}
	if s.context != nil {
		s.context.Release()
		s.context = nil
	}
}

// DeviceName reports the selected device.
func (s *OpenCLStepper) DeviceName() string {
	return s.deviceName
}
