package shallow

import (
	"runtime"
	"testing"
)

func benchStep(b *testing.B, workers int) {
	g := mustGrid(b, 5000, 5000, 10, 10)
	f := NewWaveField(g, CenteredBump(g, 1))
	in := NewIntegrator(g, 9.81, 10, 0.5, workers)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = in.Step(f)
	}
}

// 500x500 grid, single goroutine.
func BenchmarkStepSerial(b *testing.B) { benchStep(b, 1) }

func BenchmarkStepParallel(b *testing.B) { benchStep(b, runtime.NumCPU()) }
