package shallow

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MaxAbs returns max(|v|). A NaN anywhere yields NaN.
func MaxAbs(values []float64) float64 {
	return floats.Norm(values, math.Inf(1))
}

// Stats summarises a committed state.
type Stats struct {
	Step     int
	Time     float64
	MaxEta   float64
	MaxSpeed float64 // largest |u| or |v|
	Volume   float64
	Energy   float64
	Finite   bool
}

// Measure computes Stats for f using the physical constants of in.
//
// Volume is sum(eta)*dx*dy. Energy is the discrete linear wave energy
// 0.5*sum(g*eta^2 + D*(u^2+v^2))*dx*dy with unit density.
func Measure(f *WaveField, in *Integrator) Stats {
	dx, dy := f.grid.Spacing()
	area := dx * dy
	potential := in.Gravity * floats.Dot(f.eta, f.eta)
	kinetic := in.Depth * (floats.Dot(f.u, f.u) + floats.Dot(f.v, f.v))
	return Stats{
		Step:     f.step,
		Time:     f.time,
		MaxEta:   MaxAbs(f.eta),
		MaxSpeed: math.Max(MaxAbs(f.u), MaxAbs(f.v)),
		Volume:   floats.Sum(f.eta) * area,
		Energy:   0.5 * (potential + kinetic) * area,
		Finite:   f.IsFinite(),
	}
}
