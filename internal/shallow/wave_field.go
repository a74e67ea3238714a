package shallow

import "math"

// InitialCondition returns the surface elevation at (x, y) before the first step.
type InitialCondition func(x, y float64) float64

// WaveField stores the elevation and velocity buffers along with the "next"
// buffers the integrator writes into before committing.
type WaveField struct {
	grid *Grid

	eta, u, v             []float64
	etaNext, uNext, vNext []float64

	step int
	time float64

	// version changes whenever the host buffers are replaced wholesale, so
	// device-side solvers know to re-upload.
	version uint64
}

// NewWaveField allocates a field on grid and applies eta0.
func NewWaveField(grid *Grid, eta0 InitialCondition) *WaveField {
	n := grid.Cells()
	f := &WaveField{
		grid:    grid,
		eta:     make([]float64, n),
		u:       make([]float64, n),
		v:       make([]float64, n),
		etaNext: make([]float64, n),
		uNext:   make([]float64, n),
		vNext:   make([]float64, n),
	}
	f.Initialize(eta0)
	return f
}

// Initialize sets eta from eta0 at every point, zeroes both velocity components
// and resets the step counter. A nil eta0 yields a flat surface.
func (f *WaveField) Initialize(eta0 InitialCondition) {
	nx, ny := f.grid.Size()
	for i := 0; i < nx; i++ {
		x := f.grid.x[i]
		for j := 0; j < ny; j++ {
			val := 0.0
			if eta0 != nil {
				val = eta0(x, f.grid.y[j])
			}
			f.eta[i*ny+j] = val
		}
	}
	clear(f.u)
	clear(f.v)
	// Boundary cells are never written by the integrator, so the next buffers
	// must start with the same edges as the current ones.
	copy(f.etaNext, f.eta)
	clear(f.uNext)
	clear(f.vNext)
	f.step = 0
	f.time = 0
	f.version++
}

// Grid returns the grid the field was allocated on.
func (f *WaveField) Grid() *Grid { return f.grid }

// Step returns the number of committed steps since Initialize.
func (f *WaveField) Step() int { return f.step }

// Time returns the simulated time in seconds since Initialize.
func (f *WaveField) Time() float64 { return f.time }

// Eta returns the elevation at (i, j).
func (f *WaveField) Eta(i, j int) float64 { return f.eta[f.grid.Index(i, j)] }

// Velocity returns (u, v) at (i, j).
func (f *WaveField) Velocity(i, j int) (float64, float64) {
	idx := f.grid.Index(i, j)
	return f.u[idx], f.v[idx]
}

// commit swaps the next buffers in. Both stages must have written every
// interior cell before this is called.
func (f *WaveField) commit(dt float64) {
	f.eta, f.etaNext = f.etaNext, f.eta
	f.u, f.uNext = f.uNext, f.u
	f.v, f.vNext = f.vNext, f.v
	f.step++
	f.time += dt
}

// IsFinite reports whether every value in eta, u and v is finite.
func (f *WaveField) IsFinite() bool {
	return allFinite(f.eta) && allFinite(f.u) && allFinite(f.v)
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Snapshot is a read-only copy of a committed state.
type Snapshot struct {
	Grid *Grid
	Step int
	Time float64
	Eta  []float64
	U    []float64
	V    []float64
}

// Snapshot copies the committed state. It must not be called while a step is
// in progress; Loop only calls it between steps.
func (f *WaveField) Snapshot() Snapshot {
	return Snapshot{
		Grid: f.grid,
		Step: f.step,
		Time: f.time,
		Eta:  append([]float64(nil), f.eta...),
		U:    append([]float64(nil), f.u...),
		V:    append([]float64(nil), f.v...),
	}
}

// At returns the elevation at (i, j).
func (s Snapshot) At(i, j int) float64 { return s.Eta[s.Grid.Index(i, j)] }

// Nearest returns the elevation at the grid point closest to (x, y). Points
// outside the domain are clamped to the edge.
func (s Snapshot) Nearest(x, y float64) float64 {
	nx, ny := s.Grid.Size()
	dx, dy := s.Grid.Spacing()
	i := clampIndex(int(math.Round(x/dx)), 0, nx-1)
	j := clampIndex(int(math.Round(y/dy)), 0, ny-1)
	return s.At(i, j)
}

// MaxAbs returns max(|eta|) over the snapshot.
func (s Snapshot) MaxAbs() float64 { return MaxAbs(s.Eta) }
