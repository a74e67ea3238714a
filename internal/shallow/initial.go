package shallow

import "math"

// Flat is a still surface.
func Flat() InitialCondition {
	return func(float64, float64) float64 { return 0 }
}

// GaussianBump is a radially symmetric hump of height amplitude and standard
// deviation sigma centred on (cx, cy).
func GaussianBump(cx, cy, sigma, amplitude float64) InitialCondition {
	twoSigma2 := 2 * sigma * sigma
	return func(x, y float64) float64 {
		rx, ry := x-cx, y-cy
		return amplitude * math.Exp(-(rx*rx+ry*ry)/twoSigma2)
	}
}

// CenteredBump is the default source: a unit bump in the middle of the grid
// extent with sigma = Lx/20.
func CenteredBump(grid *Grid, amplitude float64) InitialCondition {
	lx, ly := grid.Extent()
	return GaussianBump(lx/2, ly/2, lx/20, amplitude)
}

// GaussianRidge is a line source parallel to the y axis at x0.
func GaussianRidge(x0, width, amplitude float64) InitialCondition {
	return func(x, _ float64) float64 {
		r := (x - x0) / width
		return amplitude * math.Exp(-r*r)
	}
}

// GaussianPacket is a cosine carrier of the given wavelength under a Gaussian
// envelope of sigma = wavelength/4, centred on (cx, cy).
func GaussianPacket(cx, cy, wavelength, amplitude float64) InitialCondition {
	k := 2 * math.Pi / wavelength
	sigma := wavelength / 4
	envelope := GaussianBump(cx, cy, sigma, amplitude)
	return func(x, y float64) float64 {
		return envelope(x, y) * math.Cos(k*(x-cx))
	}
}
