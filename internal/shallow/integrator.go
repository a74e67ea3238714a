package shallow

import "math"

// Stepper advances a field by one committed time step.
type Stepper interface {
	Step(f *WaveField) error
}

// Integrator applies the linearized shallow-water update on the interior of
// the grid. Gravity, Depth and Dt are fixed for a run.
type Integrator struct {
	Gravity float64 // m/s^2
	Depth   float64 // still-water depth, m
	Dt      float64 // s

	// Workers splits the interior rows across goroutines when greater than 1.
	Workers int

	grid        *Grid
	masks       []workerMask
	maskWorkers int
	maskRows    int
}

// NewIntegrator returns an integrator bound to grid; Step rejects fields of
// any other shape. A zero-value Integrator with the constants set accepts any
// field.
func NewIntegrator(grid *Grid, gravity, depth, dt float64, workers int) *Integrator {
	in := &Integrator{
		Gravity: gravity,
		Depth:   depth,
		Dt:      dt,
		Workers: workers,
		grid:    grid,
	}
	return in
}

func (in *Integrator) workerCount() int {
	if in.Workers < 1 {
		return 1
	}
	return in.Workers
}

// Step computes the new velocities from the elevation gradient, then the new
// elevation from the divergence of those velocities, and commits both.
//
// Only interior points are written. Edge cells keep whatever value they were
// initialised with, which acts as a frozen boundary.
//
// Step never reports instability; a dt above MaxStableDt makes the state grow
// without bound and the caller is expected to check IsFinite.
func (in *Integrator) Step(f *WaveField) error {
	if in.grid != nil && f.grid != in.grid && !sameShape(f.grid, in.grid) {
		return ErrShapeMismatch
	}
	if workers := in.workerCount(); workers == 1 {
		in.velocityRows(f, 1, f.grid.nx-1)
		in.elevationRows(f, 1, f.grid.nx-1)
	} else {
		if in.maskWorkers != workers || in.maskRows != f.grid.nx {
			in.masks = assignRowMasks(workers, interiorRows(f.grid.nx))
			in.maskWorkers, in.maskRows = workers, f.grid.nx
		}
		runMasks(in.masks, func(i int) { in.velocityRows(f, i, i+1) })
		runMasks(in.masks, func(i int) { in.elevationRows(f, i, i+1) })
	}
	f.commit(in.Dt)
	return nil
}

func sameShape(a, b *Grid) bool {
	return a.nx == b.nx && a.ny == b.ny && a.dx == b.dx && a.dy == b.dy
}

// velocityRows runs stage 1 for rows i0..i1-1.
func (in *Integrator) velocityRows(f *WaveField, i0, i1 int) {
	ny := f.grid.ny
	cx := in.Gravity * in.Dt / f.grid.dx
	cy := in.Gravity * in.Dt / f.grid.dy
	eta, u, v := f.eta, f.u, f.v
	uNext, vNext := f.uNext, f.vNext
	for i := i0; i < i1; i++ {
		row := i * ny
		below := (i + 1) * ny
		for j := 1; j < ny-1; j++ {
			k := row + j
			uNext[k] = u[k] - cx*(eta[below+j]-eta[k])
			vNext[k] = v[k] - cy*(eta[k+1]-eta[k])
		}
	}
}

// elevationRows runs stage 2 for rows i0..i1-1. It reads uNext from row i-1,
// so all of stage 1 must be complete first.
func (in *Integrator) elevationRows(f *WaveField, i0, i1 int) {
	ny := f.grid.ny
	cx := in.Depth * in.Dt / f.grid.dx
	cy := in.Depth * in.Dt / f.grid.dy
	eta, etaNext := f.eta, f.etaNext
	uNext, vNext := f.uNext, f.vNext
	for i := i0; i < i1; i++ {
		row := i * ny
		above := (i - 1) * ny
		for j := 1; j < ny-1; j++ {
			k := row + j
			etaNext[k] = eta[k] -
				cx*(uNext[k]-uNext[above+j]) -
				cy*(vNext[k]-vNext[k-1])
		}
	}
}

// WaveSpeed returns the long-wave phase speed sqrt(g*D).
func WaveSpeed(gravity, depth float64) float64 {
	return math.Sqrt(gravity * depth)
}

// MaxStableDt returns the CFL bound min(dx, dy) / sqrt(g*D).
func MaxStableDt(grid *Grid, gravity, depth float64) float64 {
	c := WaveSpeed(gravity, depth)
	if c == 0 {
		return math.Inf(1)
	}
	return math.Min(grid.dx, grid.dy) / c
}

// MaxStableDt2D returns the bound this two-stage scheme actually obeys on a
// 2-D grid, 1 / (sqrt(g*D) * sqrt(1/dx^2 + 1/dy^2)). It is smaller than
// MaxStableDt by up to a factor sqrt(2), so a dt between the two still
// diverges.
func MaxStableDt2D(grid *Grid, gravity, depth float64) float64 {
	c := WaveSpeed(gravity, depth)
	if c == 0 {
		return math.Inf(1)
	}
	return 1 / (c * math.Hypot(1/grid.dx, 1/grid.dy))
}

// CourantNumber returns dt relative to MaxStableDt. Values above 1 are
// unstable, but values below 1 are not sufficient on a 2-D grid; compare dt
// with MaxStableDt2D for that.
func CourantNumber(grid *Grid, gravity, depth, dt float64) float64 {
	return dt / MaxStableDt(grid, gravity, depth)
}
