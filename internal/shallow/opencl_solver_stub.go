//go:build !opencl

package shallow

import "errors"

// OpenCLStepper is unavailable in this build.
type OpenCLStepper struct{}

// NewOpenCLStepper always fails unless built with -tags opencl.
func NewOpenCLStepper(*Grid, *Integrator) (*OpenCLStepper, error) {
	return nil, errors.New("OpenCL support is not enabled; rebuild with -tags opencl")
}

func (s *OpenCLStepper) Step(*WaveField) error {
	return errors.New("OpenCL stepper unavailable")
}

func (s *OpenCLStepper) Close() {}

func (s *OpenCLStepper) DeviceName() string { return "" }
