// Package report prints a terminal summary of a headless run.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"tsunami/internal/shallow"
)

const historyCapacity = 240

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

// Gauge is a named point whose elevation is sampled every recorded step.
type Gauge struct {
	Name string
	X, Y float64
}

// Recorder collects max|eta| and gauge histories from snapshots. Once the
// history is full it halves itself and records every other step, so long
// runs keep a bounded, evenly spaced series.
type Recorder struct {
	gauges []Gauge

	stride   int
	maxEta   []float64
	gaugeEta [][]float64
	peak     float64
	diverged int
}

// NewRecorder returns a recorder sampling the given gauges.
func NewRecorder(gauges ...Gauge) *Recorder {
	return &Recorder{
		gauges:   gauges,
		stride:   1,
		gaugeEta: make([][]float64, len(gauges)),
		diverged: -1,
	}
}

// Record matches the shallow.Loop OnStep signature.
func (r *Recorder) Record(s shallow.Snapshot) error {
	m := s.MaxAbs()
	if math.IsNaN(m) || math.IsInf(m, 0) {
		if r.diverged < 0 {
			r.diverged = s.Step
		}
		return nil
	}
	if m > r.peak {
		r.peak = m
	}
	if s.Step%r.stride != 0 {
		return nil
	}
	r.maxEta = append(r.maxEta, m)
	for k, g := range r.gauges {
		r.gaugeEta[k] = append(r.gaugeEta[k], s.Nearest(g.X, g.Y))
	}
	if len(r.maxEta) >= historyCapacity {
		r.maxEta = halve(r.maxEta)
		for k := range r.gaugeEta {
			r.gaugeEta[k] = halve(r.gaugeEta[k])
		}
		r.stride *= 2
	}
	return nil
}

func halve(v []float64) []float64 {
	out := v[:0]
	for i := 0; i < len(v); i += 2 {
		out = append(out, v[i])
	}
	return out
}

// Peak returns the largest finite max|eta| seen.
func (r *Recorder) Peak() float64 { return r.peak }

// Diverged returns the first step with a non-finite elevation, or -1.
func (r *Recorder) Diverged() int { return r.diverged }

// Render formats the final stats, the run wall time and the recorded
// histories.
func (r *Recorder) Render(final shallow.Stats, elapsed time.Duration) string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("TSUNAMI RUN") + "\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Steps", fmt.Sprintf("%d", final.Step))
	row("Sim time", fmt.Sprintf("%.2fs", final.Time))
	row("Wall time", elapsed.Round(time.Millisecond).String())
	row("Max |eta|", fmt.Sprintf("%.4g", final.MaxEta))
	row("Peak |eta|", fmt.Sprintf("%.4g", r.peak))
	row("Max speed", fmt.Sprintf("%.4g", final.MaxSpeed))
	row("Volume", fmt.Sprintf("%.4g", final.Volume))
	row("Energy", fmt.Sprintf("%.4g", final.Energy))
	if !final.Finite || r.diverged >= 0 {
		at := "unknown step"
		if r.diverged >= 0 {
			at = fmt.Sprintf("step %d", r.diverged)
		}
		s.WriteString(warnStyle.Render("Non-finite state at "+at+"; reduce dt") + "\n")
	}

	if len(r.maxEta) > 1 {
		chart := asciigraph.Plot(r.maxEta, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("max |eta|"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	for k, g := range r.gauges {
		if len(r.gaugeEta[k]) < 2 {
			continue
		}
		caption := fmt.Sprintf("gauge %s (%.0f, %.0f)", g.Name, g.X, g.Y)
		chart := asciigraph.Plot(r.gaugeEta[k], asciigraph.Height(6), asciigraph.Width(60), asciigraph.Caption(caption))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	return s.String()
}
