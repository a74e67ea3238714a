package config

import (
	"fmt"

	"tsunami/internal/shallow"
)

// Grid builds the simulation grid from the domain fields.
func (c Config) Grid() (*shallow.Grid, error) {
	return shallow.NewGrid(c.Lx, c.Ly, c.Dx, c.Dy)
}

// Integrator builds the CPU integrator for grid.
func (c Config) Integrator(grid *shallow.Grid) *shallow.Integrator {
	return shallow.NewIntegrator(grid, c.Gravity, c.Depth, c.Dt, c.Workers)
}

// Stability reports an error when Dt exceeds the bound the two-stage scheme
// obeys on grid. The plain CFL limit min(dx,dy)/sqrt(gD) is not enough in
// 2-D, so the check uses shallow.MaxStableDt2D.
func (c Config) Stability(grid *shallow.Grid) error {
	limit := shallow.MaxStableDt2D(grid, c.Gravity, c.Depth)
	if c.Dt <= limit {
		return nil
	}
	return fmt.Errorf("dt=%g exceeds the 2-D stability limit %.4g (CFL limit %.4g, Courant %.2f)",
		c.Dt, limit, shallow.MaxStableDt(grid, c.Gravity, c.Depth),
		shallow.CourantNumber(grid, c.Gravity, c.Depth, c.Dt))
}

// InitialSurface resolves the configured initial condition. Unset (nil)
// positions default to the domain centre (the ridge to Lx/10), unset widths
// to a fraction of Lx.
func (c Config) InitialSurface() shallow.InitialCondition {
	ic := c.Initial
	cx := orDefault(ic.CenterX, c.Lx/2)
	cy := orDefault(ic.CenterY, c.Ly/2)
	switch ic.Kind {
	case InitialRidge:
		return shallow.GaussianRidge(orDefault(ic.CenterX, c.Lx/10), orDefault(ic.Width, c.Lx/10), ic.Amplitude)
	case InitialPacket:
		return shallow.GaussianPacket(cx, cy, orDefault(ic.Wavelength, c.Lx/5), ic.Amplitude)
	case InitialFlat:
		return shallow.Flat()
	default:
		return shallow.GaussianBump(cx, cy, orDefault(ic.Sigma, c.Lx/20), ic.Amplitude)
	}
}

func orDefault(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
