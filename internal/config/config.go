package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Initial condition kinds.
const (
	InitialBump   = "bump"
	InitialRidge  = "ridge"
	InitialPacket = "packet"
	InitialFlat   = "flat"
)

// Stepper backends.
const (
	BackendCPU    = "cpu"
	BackendOpenCL = "opencl"
)

// InitialCondition selects and parameterises the starting surface. Positions
// and widths are optional: nil falls back to a value derived from the domain
// extent, while an explicit 0 is kept.
type InitialCondition struct {
	Kind       string   `json:"kind"`
	Amplitude  float64  `json:"amplitude"`
	CenterX    *float64 `json:"center_x,omitempty"`
	CenterY    *float64 `json:"center_y,omitempty"`
	Sigma      *float64 `json:"sigma,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Wavelength *float64 `json:"wavelength,omitempty"`
}

// Float returns a pointer to v, for filling the optional InitialCondition
// fields in code.
func Float(v float64) *float64 { return &v }

// Config holds the run parameters. Lengths are meters, times seconds.
type Config struct {
	Lx       float64 `json:"lx"`
	Ly       float64 `json:"ly"`
	Dx       float64 `json:"dx"`
	Dy       float64 `json:"dy"`
	Depth    float64 `json:"depth"`
	Gravity  float64 `json:"gravity"`
	Dt       float64 `json:"dt"`
	Duration float64 `json:"duration"`
	// Steps overrides Duration when positive.
	Steps int `json:"steps,omitempty"`

	Initial InitialCondition `json:"initial"`

	Workers int    `json:"workers"`
	Backend string `json:"backend"`
}

// Default returns the reference tsunami setup: a 1 km square basin 10 m deep
// on a 10 m grid, stepped at 0.1 s for 200 s from a unit Gaussian bump.
func Default() Config {
	return Config{
		Lx:       1000,
		Ly:       1000,
		Dx:       10,
		Dy:       10,
		Depth:    10,
		Gravity:  9.81,
		Dt:       0.1,
		Duration: 200,
		Initial: InitialCondition{
			Kind:      InitialBump,
			Amplitude: 1,
		},
		Workers: 1,
		Backend: BackendCPU,
	}
}

// Load reads a JSON file on top of Default. Fields missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the physical constants and run length. Grid geometry is
// validated by shallow.NewGrid; the CFL bound is deliberately not enforced.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"dt", c.Dt}, {"depth", c.Depth}, {"gravity", c.Gravity},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return fmt.Errorf("%s must be a positive finite number, got %g", p.name, p.v)
		}
	}
	if c.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", c.Steps)
	}
	if c.Duration < 0 || math.IsNaN(c.Duration) {
		return fmt.Errorf("duration must not be negative, got %g", c.Duration)
	}
	switch c.Initial.Kind {
	case InitialBump, InitialRidge, InitialPacket, InitialFlat:
	default:
		return fmt.Errorf("unknown initial condition %q", c.Initial.Kind)
	}
	if err := c.Initial.validate(); err != nil {
		return err
	}
	switch c.Backend {
	case BackendCPU, BackendOpenCL:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

func (ic InitialCondition) validate() error {
	if math.IsNaN(ic.Amplitude) || math.IsInf(ic.Amplitude, 0) {
		return fmt.Errorf("initial amplitude must be finite, got %g", ic.Amplitude)
	}
	finite := []struct {
		name string
		v    *float64
	}{
		{"center_x", ic.CenterX}, {"center_y", ic.CenterY},
	}
	for _, p := range finite {
		if p.v != nil && (math.IsNaN(*p.v) || math.IsInf(*p.v, 0)) {
			return fmt.Errorf("initial %s must be finite, got %g", p.name, *p.v)
		}
	}
	positive := []struct {
		name string
		v    *float64
	}{
		{"sigma", ic.Sigma}, {"width", ic.Width}, {"wavelength", ic.Wavelength},
	}
	for _, p := range positive {
		if p.v != nil && (!(*p.v > 0) || math.IsInf(*p.v, 0)) {
			return fmt.Errorf("initial %s must be a positive finite number, got %g", p.name, *p.v)
		}
	}
	return nil
}

// StepCount returns Steps when set, otherwise floor(Duration/Dt).
func (c Config) StepCount() int {
	if c.Steps > 0 {
		return c.Steps
	}
	if c.Dt <= 0 {
		return 0
	}
	return int(math.Floor(c.Duration / c.Dt))
}
