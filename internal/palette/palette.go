// Package palette maps surface elevation to colours for the renderers.
package palette

import (
	"image/color"
	"math"

	"github.com/charmbracelet/harmonica"

	"tsunami/internal/shallow"
)

type stop struct {
	at float64
	c  color.RGBA
}

// Troughs are blue, the rest level is near black, crests run through
// green and yellow to red.
var ramp = []stop{
	{0.00, color.RGBA{R: 16, G: 25, B: 120, A: 255}},
	{0.25, color.RGBA{R: 0, G: 150, B: 255, A: 255}},
	{0.50, color.RGBA{R: 8, G: 12, B: 20, A: 255}},
	{0.75, color.RGBA{R: 20, G: 255, B: 161, A: 255}},
	{0.90, color.RGBA{R: 255, G: 230, B: 92, A: 255}},
	{1.00, color.RGBA{R: 255, G: 80, B: 60, A: 255}},
}

// Invalid marks non-finite cells.
var Invalid = color.RGBA{R: 255, G: 0, B: 255, A: 255}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: 255,
	}
}

// Color maps elevation v to the ramp, with -scale and +scale at the ends.
func Color(v, scale float64) color.RGBA {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid
	}
	if scale <= 0 {
		scale = 1
	}
	t := clamp01(0.5 + 0.5*v/scale)
	for k := 1; k < len(ramp); k++ {
		if t <= ramp[k].at {
			lo, hi := ramp[k-1], ramp[k]
			return lerp(lo.c, hi.c, (t-lo.at)/(hi.at-lo.at))
		}
	}
	return ramp[len(ramp)-1].c
}

// Paint writes the snapshot into dst as RGBA bytes laid out nx pixels wide
// and ny rows tall, pixel (i, j) holding cell (i, j). dst must hold at least
// nx*ny*4 bytes.
func Paint(dst []byte, s shallow.Snapshot, scale float64) {
	nx, ny := s.Grid.Size()
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			c := Color(s.At(i, j), scale)
			base := (j*nx + i) * 4
			dst[base] = c.R
			dst[base+1] = c.G
			dst[base+2] = c.B
			dst[base+3] = 255
		}
	}
}

// minScale keeps a flat surface from dividing by zero.
const minScale = 1e-6

// Scale tracks the colour range with a critically damped spring so the
// display does not flicker as the peak elevation changes.
type Scale struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

// NewScale returns a Scale updated fps times per second, starting at initial.
func NewScale(fps int, initial float64) *Scale {
	return &Scale{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		pos:    math.Max(initial, minScale),
	}
}

// Update moves the range toward target and returns the new range. Non-finite
// targets leave it unchanged.
func (s *Scale) Update(target float64) float64 {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return s.pos
	}
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, math.Max(target, minScale))
	if s.pos < minScale {
		s.pos = minScale
	}
	return s.pos
}

// Value returns the current range.
func (s *Scale) Value() float64 { return s.pos }
