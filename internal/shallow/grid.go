package shallow

import "math"

// Grid is a uniform rectangular domain. It is immutable after NewGrid.
type Grid struct {
	lx, ly float64
	dx, dy float64
	nx, ny int
	x, y   []float64
}

// NewGrid builds the grid for a domain of lx by ly meters sampled every dx, dy
// meters. nx = floor(lx/dx) and ny = floor(ly/dy) must both be at least 3 so
// that one interior row and column exist.
func NewGrid(lx, ly, dx, dy float64) (*Grid, error) {
	invalid := func(reason string) error {
		return &InvalidDomainError{Lx: lx, Ly: ly, Dx: dx, Dy: dy, Reason: reason}
	}
	for _, v := range []float64{lx, ly, dx, dy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, invalid("parameters must be finite")
		}
	}
	if dx <= 0 || dy <= 0 {
		return nil, invalid("spacing must be positive")
	}
	nx := int(math.Floor(lx / dx))
	ny := int(math.Floor(ly / dy))
	if nx < 3 || ny < 3 {
		return nil, invalid("need at least 3 points per axis")
	}
	g := &Grid{lx: lx, ly: ly, dx: dx, dy: dy, nx: nx, ny: ny}
	g.x = axis(nx, dx)
	g.y = axis(ny, dy)
	return g, nil
}

func axis(n int, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * step
	}
	return out
}

// Size returns (nx, ny).
func (g *Grid) Size() (int, int) { return g.nx, g.ny }

// Cells returns nx*ny.
func (g *Grid) Cells() int { return g.nx * g.ny }

// Spacing returns (dx, dy).
func (g *Grid) Spacing() (float64, float64) { return g.dx, g.dy }

// Extent returns the configured domain length and width.
func (g *Grid) Extent() (float64, float64) { return g.lx, g.ly }

// X returns a copy of the x coordinate vector.
func (g *Grid) X() []float64 { return append([]float64(nil), g.x...) }

// Y returns a copy of the y coordinate vector.
func (g *Grid) Y() []float64 { return append([]float64(nil), g.y...) }

// XAt returns x_i.
func (g *Grid) XAt(i int) float64 { return g.x[i] }

// YAt returns y_j.
func (g *Grid) YAt(j int) float64 { return g.y[j] }

// Index maps (i, j) to the flat x-major offset used by every field buffer.
func (g *Grid) Index(i, j int) int { return i*g.ny + j }

// IsBoundary reports whether (i, j) lies on the outer edge.
func (g *Grid) IsBoundary(i, j int) bool {
	return i == 0 || j == 0 || i == g.nx-1 || j == g.ny-1
}

// clampIndex constrains v to lie within the inclusive [min, max] range.
func clampIndex(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
