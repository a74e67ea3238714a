package shallow

import (
	"errors"
	"math"
	"testing"
)

func mustGrid(t testing.TB, lx, ly, dx, dy float64) *Grid {
	t.Helper()
	g, err := NewGrid(lx, ly, dx, dy)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func TestStepSingleInteriorPoint(t *testing.T) {
	g := mustGrid(t, 3, 3, 1, 1)
	f := NewWaveField(g, func(x, y float64) float64 {
		if x == 1 && y == 1 {
			return 1
		}
		return 0
	})
	in := NewIntegrator(g, 1, 1, 1, 1)
	if err := in.Step(f); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if got := f.Eta(1, 1); got != -1 {
		t.Errorf("eta[1,1] = %g, want -1", got)
	}
	u, v := f.Velocity(1, 1)
	if u != 1 || v != 1 {
		t.Errorf("u,v[1,1] = %g,%g, want 1,1", u, v)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !g.IsBoundary(i, j) {
				continue
			}
			u, v := f.Velocity(i, j)
			if f.Eta(i, j) != 0 || u != 0 || v != 0 {
				t.Errorf("boundary (%d,%d) changed: eta=%g u=%g v=%g", i, j, f.Eta(i, j), u, v)
			}
		}
	}
	if f.Step() != 1 || f.Time() != 1 {
		t.Errorf("step,time = %d,%g, want 1,1", f.Step(), f.Time())
	}
}

func TestStepKeepsBoundaryFrozen(t *testing.T) {
	g := mustGrid(t, 200, 150, 10, 10)
	// Wide off-centre bump so the edges start non-zero.
	f := NewWaveField(g, GaussianBump(40, 30, 60, 2))
	initial := f.Snapshot()
	in := NewIntegrator(g, 9.81, 10, 0.5, 1)
	nx, ny := g.Size()
	for step := 0; step < 40; step++ {
		if err := in.Step(f); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				if !g.IsBoundary(i, j) {
					continue
				}
				if f.Eta(i, j) != initial.At(i, j) {
					t.Fatalf("step %d: eta(%d,%d) = %g, want %g", step, i, j, f.Eta(i, j), initial.At(i, j))
				}
				if u, v := f.Velocity(i, j); u != 0 || v != 0 {
					t.Fatalf("step %d: velocity(%d,%d) = %g,%g, want 0", step, i, j, u, v)
				}
			}
		}
	}
}

func TestStepStableUnderCFL(t *testing.T) {
	const amplitude = 1.0
	g := mustGrid(t, 200, 200, 10, 10)
	f := NewWaveField(g, CenteredBump(g, amplitude))
	dt := 0.5
	if dt >= MaxStableDt(g, 9.81, 10) {
		t.Fatalf("dt %g is not below the CFL bound %g", dt, MaxStableDt(g, 9.81, 10))
	}
	in := NewIntegrator(g, 9.81, 10, dt, 1)
	for i := 0; i < 50; i++ {
		if err := in.Step(f); err != nil {
			t.Fatal(err)
		}
	}
	if got := f.Snapshot().MaxAbs(); !(got <= 2*amplitude) {
		t.Fatalf("max|eta| = %g after 50 steps, want <= %g", got, 2*amplitude)
	}
	if !f.IsFinite() {
		t.Fatal("state is not finite")
	}
}

func TestStepBlowsUpWhenCFLViolated(t *testing.T) {
	const amplitude = 1.0
	g := mustGrid(t, 200, 200, 10, 10)
	f := NewWaveField(g, CenteredBump(g, amplitude))
	in := NewIntegrator(g, 9.81, 10, 5, 1)
	for i := 0; i < 50; i++ {
		if err := in.Step(f); err != nil {
			t.Fatal(err)
		}
	}
	got := f.Snapshot().MaxAbs()
	if !(got > 10*amplitude) && f.IsFinite() {
		t.Fatalf("max|eta| = %g after 50 steps at dt=5, want > %g or non-finite", got, 10*amplitude)
	}
}

func TestStepZeroStateStaysZero(t *testing.T) {
	g := mustGrid(t, 100, 80, 10, 10)
	f := NewWaveField(g, Flat())
	in := NewIntegrator(g, 9.81, 10, 0.5, 3)
	for i := 0; i < 25; i++ {
		if err := in.Step(f); err != nil {
			t.Fatal(err)
		}
	}
	s := f.Snapshot()
	for k := range s.Eta {
		if s.Eta[k] != 0 || s.U[k] != 0 || s.V[k] != 0 {
			t.Fatalf("cell %d became non-zero: eta=%g u=%g v=%g", k, s.Eta[k], s.U[k], s.V[k])
		}
	}
}

func TestStepDeterministic(t *testing.T) {
	run := func() Snapshot {
		g := mustGrid(t, 300, 200, 10, 10)
		f := NewWaveField(g, GaussianPacket(150, 100, 80, 1.5))
		in := NewIntegrator(g, 9.81, 10, 0.4, 1)
		for i := 0; i < 60; i++ {
			if err := in.Step(f); err != nil {
				t.Fatal(err)
			}
		}
		return f.Snapshot()
	}
	a, b := run(), run()
	for k := range a.Eta {
		if a.Eta[k] != b.Eta[k] || a.U[k] != b.U[k] || a.V[k] != b.V[k] {
			t.Fatalf("runs diverged at cell %d", k)
		}
	}
}

func TestStepParallelMatchesSerial(t *testing.T) {
	g := mustGrid(t, 400, 300, 10, 10)
	serial := NewWaveField(g, CenteredBump(g, 1))
	parallel := NewWaveField(g, CenteredBump(g, 1))
	one := NewIntegrator(g, 9.81, 10, 0.5, 1)
	many := NewIntegrator(g, 9.81, 10, 0.5, 7)
	for i := 0; i < 30; i++ {
		if err := one.Step(serial); err != nil {
			t.Fatal(err)
		}
		if err := many.Step(parallel); err != nil {
			t.Fatal(err)
		}
	}
	a, b := serial.Snapshot(), parallel.Snapshot()
	for k := range a.Eta {
		if a.Eta[k] != b.Eta[k] || a.U[k] != b.U[k] || a.V[k] != b.V[k] {
			t.Fatalf("serial and parallel differ at cell %d: %g vs %g", k, a.Eta[k], b.Eta[k])
		}
	}
}

func TestStepShapeInvariant(t *testing.T) {
	g := mustGrid(t, 120, 90, 10, 10)
	f := NewWaveField(g, CenteredBump(g, 1))
	in := NewIntegrator(g, 9.81, 10, 0.5, 2)
	for i := 0; i < 10; i++ {
		if err := in.Step(f); err != nil {
			t.Fatal(err)
		}
		s := f.Snapshot()
		if len(s.Eta) != g.Cells() || len(s.U) != g.Cells() || len(s.V) != g.Cells() {
			t.Fatalf("step %d: buffer lengths %d/%d/%d, want %d", i, len(s.Eta), len(s.U), len(s.V), g.Cells())
		}
	}
}

func TestStepRejectsForeignField(t *testing.T) {
	a := mustGrid(t, 50, 50, 10, 10)
	b := mustGrid(t, 60, 50, 10, 10)
	in := NewIntegrator(a, 9.81, 10, 0.5, 1)
	f := NewWaveField(b, Flat())
	if err := in.Step(f); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
	if f.Step() != 0 {
		t.Fatalf("rejected step was committed")
	}
}

func TestMaxStableDt(t *testing.T) {
	g := mustGrid(t, 200, 200, 10, 20)
	got := MaxStableDt(g, 9.81, 10)
	want := 10 / math.Sqrt(98.1)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("MaxStableDt = %g, want %g", got, want)
	}
	if c := CourantNumber(g, 9.81, 10, want/2); math.Abs(c-0.5) > 1e-12 {
		t.Fatalf("CourantNumber = %g, want 0.5", c)
	}
}

func TestMaxStableDt2D(t *testing.T) {
	g := mustGrid(t, 200, 200, 10, 10)
	got := MaxStableDt2D(g, 9.81, 10)
	want := 10 / (math.Sqrt(98.1) * math.Sqrt2)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("MaxStableDt2D = %g, want %g", got, want)
	}
	if got >= MaxStableDt(g, 9.81, 10) {
		t.Fatalf("2-D bound %g not below the 1-D bound %g", got, MaxStableDt(g, 9.81, 10))
	}
	if b := MaxStableDt2D(g, 9.81, 0); !math.IsInf(b, 1) {
		t.Fatalf("MaxStableDt2D with no depth = %g, want +Inf", b)
	}
}

// Between the 2-D bound (about 0.714 s here) and MaxStableDt (about 1.01 s)
// the scheme still diverges.
func TestStepStabilityFollowsTwoDimensionalBound(t *testing.T) {
	const amplitude = 1.0
	g := mustGrid(t, 200, 200, 10, 10)
	run := func(dt float64) *WaveField {
		f := NewWaveField(g, CenteredBump(g, amplitude))
		in := NewIntegrator(g, 9.81, 10, dt, 1)
		for i := 0; i < 50; i++ {
			if err := in.Step(f); err != nil {
				t.Fatal(err)
			}
		}
		return f
	}

	stable := run(0.7)
	if 0.7 >= MaxStableDt2D(g, 9.81, 10) {
		t.Fatalf("dt 0.7 is not below the 2-D bound %g", MaxStableDt2D(g, 9.81, 10))
	}
	if got := stable.Snapshot().MaxAbs(); !(got <= 2*amplitude) {
		t.Fatalf("dt=0.7: max|eta| = %g, want <= %g", got, 2*amplitude)
	}

	if 0.8 >= MaxStableDt(g, 9.81, 10) {
		t.Fatalf("dt 0.8 is not below MaxStableDt %g", MaxStableDt(g, 9.81, 10))
	}
	unstable := run(0.8)
	if got := unstable.Snapshot().MaxAbs(); !(got > 10*amplitude) && unstable.IsFinite() {
		t.Fatalf("dt=0.8: max|eta| = %g, want > %g or non-finite", got, 10*amplitude)
	}
}
