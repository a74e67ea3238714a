package palette

import (
	"math"
	"testing"

	"tsunami/internal/shallow"
)

func TestColorEnds(t *testing.T) {
	if got := Color(-2, 2); got != ramp[0].c {
		t.Errorf("Color(-scale) = %v, want %v", got, ramp[0].c)
	}
	if got := Color(0, 2); got != ramp[2].c {
		t.Errorf("Color(0) = %v, want %v", got, ramp[2].c)
	}
	if got := Color(5, 2); got != ramp[len(ramp)-1].c {
		t.Errorf("Color(above scale) = %v, want %v", got, ramp[len(ramp)-1].c)
	}
	if got := Color(math.NaN(), 1); got != Invalid {
		t.Errorf("Color(NaN) = %v, want Invalid", got)
	}
}

func TestPaintLayout(t *testing.T) {
	g, err := shallow.NewGrid(40, 30, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	f := shallow.NewWaveField(g, func(x, y float64) float64 {
		if x == 10 && y == 20 {
			return 1
		}
		return 0
	})
	nx, ny := g.Size()
	dst := make([]byte, nx*ny*4)
	Paint(dst, f.Snapshot(), 1)
	for k := 3; k < len(dst); k += 4 {
		if dst[k] != 255 {
			t.Fatalf("alpha at byte %d = %d", k, dst[k])
		}
	}
	top := ramp[len(ramp)-1].c
	base := (2*nx + 1) * 4
	if dst[base] != top.R || dst[base+1] != top.G || dst[base+2] != top.B {
		t.Fatalf("pixel (1,2) = %v, want %v", dst[base:base+3], top)
	}
}

func TestScaleConverges(t *testing.T) {
	s := NewScale(60, 1)
	for i := 0; i < 600; i++ {
		s.Update(4)
	}
	if math.Abs(s.Value()-4) > 1e-3 {
		t.Fatalf("scale = %g after 10s, want ~4", s.Value())
	}
	before := s.Value()
	if got := s.Update(math.Inf(1)); got != before {
		t.Fatalf("Update(Inf) moved scale to %g", got)
	}
	for i := 0; i < 600; i++ {
		s.Update(0)
	}
	if s.Value() < minScale {
		t.Fatalf("scale fell below floor: %g", s.Value())
	}
}
