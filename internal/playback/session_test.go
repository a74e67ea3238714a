package playback

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tsunami/internal/shallow"
)

func newLoop(t *testing.T, stepper func(*shallow.Integrator) shallow.Stepper) *shallow.Loop {
	t.Helper()
	g, err := shallow.NewGrid(100, 100, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	in := shallow.NewIntegrator(g, 9.81, 10, 0.5, 1)
	loop := &shallow.Loop{Stepper: in, Field: shallow.NewWaveField(g, shallow.CenteredBump(g, 1))}
	if stepper != nil {
		loop.Stepper = stepper(in)
	}
	return loop
}

// pump calls Update like a frame loop until done reports true.
func pump(t *testing.T, s *Session, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !done() {
		if n := s.Update(); n > s.StepsPerFrame() {
			t.Fatalf("Update consumed %d snapshots, budget %d", n, s.StepsPerFrame())
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out in state %v at step %d", s.State(), s.Latest().Step)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSessionRunsToCompletion(t *testing.T) {
	const steps = 25
	s := NewSession(context.Background(), newLoop(t, nil), steps, nil, 3)
	if s.State() != Idle {
		t.Fatalf("state = %v, want idle", s.State())
	}
	if !s.Start() {
		t.Fatal("Start refused a fresh session")
	}
	if s.Start() {
		t.Fatal("Start accepted a second run")
	}

	prev := 0
	pump(t, s, func() bool {
		step := s.Latest().Step
		if step-prev > 3 {
			t.Fatalf("advanced %d steps in one frame", step-prev)
		}
		prev = step
		return s.State() == Finished
	})
	if got := s.Latest().Step; got != steps {
		t.Fatalf("latest step = %d, want %d", got, steps)
	}
	if s.Err() != nil {
		t.Fatalf("Err = %v", s.Err())
	}
	if s.Start() {
		t.Fatal("Start accepted a finished session without reset")
	}
}

func TestSessionPauseHoldsLatest(t *testing.T) {
	s := NewSession(context.Background(), newLoop(t, nil), 40, nil, 2)
	s.Start()
	pump(t, s, func() bool { return s.Latest().Step > 0 })

	s.TogglePause()
	if s.State() != Paused {
		t.Fatalf("state = %v, want paused", s.State())
	}
	held := s.Latest().Step
	for i := 0; i < 20; i++ {
		if n := s.Update(); n != 0 {
			t.Fatalf("paused Update consumed %d", n)
		}
		time.Sleep(time.Millisecond)
	}
	if s.Latest().Step != held {
		t.Fatalf("latest moved from %d to %d while paused", held, s.Latest().Step)
	}

	s.TogglePause()
	pump(t, s, func() bool { return s.State() == Finished })
	if s.Latest().Step != 40 {
		t.Fatalf("latest step = %d, want 40", s.Latest().Step)
	}
}

type tagged struct {
	run  string
	step int
}

func TestSessionResetStartsNewRunID(t *testing.T) {
	const steps = 12
	loop := newLoop(t, nil)

	var seen []tagged
	sinks := NewSinks("run-0")
	sinks.Add(func(snap shallow.Snapshot) error {
		seen = append(seen, tagged{sinks.RunID(), snap.Step})
		return nil
	}, nil)
	loop.OnStep = sinks.Publish
	if err := sinks.Publish(loop.Field.Snapshot()); err != nil {
		t.Fatal(err)
	}

	s := NewSession(context.Background(), loop, steps, shallow.CenteredBump(loop.Field.Grid(), 1), 1)
	resets := 0
	s.OnReset = func(snap shallow.Snapshot) error {
		resets++
		return sinks.Retag(fmt.Sprintf("run-%d", resets), snap)
	}

	s.Start()
	pump(t, s, func() bool { return s.Latest().Step >= 5 })
	s.Reset()
	if resets != 1 {
		t.Fatalf("OnReset ran %d times, want 1", resets)
	}
	if s.State() != Idle || s.Latest().Step != 0 || loop.Field.Step() != 0 {
		t.Fatalf("after reset: state %v, latest %d, field %d", s.State(), s.Latest().Step, loop.Field.Step())
	}

	s.Start()
	pump(t, s, func() bool { return s.State() == Finished })

	count := map[tagged]int{}
	for _, tg := range seen {
		count[tg]++
		if count[tg] > 1 {
			t.Fatalf("step %d published twice under %s", tg.step, tg.run)
		}
	}
	for step := 0; step <= steps; step++ {
		if count[tagged{"run-1", step}] != 1 {
			t.Errorf("run-1 missing step %d", step)
		}
	}
	if count[tagged{"run-0", 0}] != 1 || count[tagged{"run-0", 5}] != 1 {
		t.Errorf("first run frames lost: %v", seen)
	}
}

func TestSessionResetHookError(t *testing.T) {
	boom := errors.New("sink closed")
	s := NewSession(context.Background(), newLoop(t, nil), 5, nil, 1)
	s.OnReset = func(shallow.Snapshot) error { return boom }
	s.Reset()
	if !errors.Is(s.Err(), boom) {
		t.Fatalf("Err = %v, want %v", s.Err(), boom)
	}
}

type failAt struct {
	next shallow.Stepper
	at   int
}

var errStepFailed = errors.New("device lost")

func (f failAt) Step(w *shallow.WaveField) error {
	if w.Step() >= f.at {
		return errStepFailed
	}
	return f.next.Step(w)
}

func TestSessionStepperErrorStops(t *testing.T) {
	loop := newLoop(t, func(in *shallow.Integrator) shallow.Stepper { return failAt{next: in, at: 3} })
	s := NewSession(context.Background(), loop, 10, nil, 4)
	s.Start()
	pump(t, s, func() bool { return s.State() == Stopped })
	if !errors.Is(s.Err(), errStepFailed) {
		t.Fatalf("Err = %v, want %v", s.Err(), errStepFailed)
	}
	if s.Latest().Step != 3 {
		t.Fatalf("latest step = %d, want 3", s.Latest().Step)
	}
}

func TestSessionStopIsIdempotent(t *testing.T) {
	loop := newLoop(t, nil)
	s := NewSession(context.Background(), loop, 1000, nil, 1)
	s.Stop()
	s.Start()
	s.Stop()
	s.Stop()
	if s.State() != Idle {
		t.Fatalf("state = %v, want idle after stop", s.State())
	}
	// The loop goroutine has exited, so the field is ours again.
	if err := loop.Stepper.Step(loop.Field); err != nil {
		t.Fatal(err)
	}
}

func TestStepsPerFrameClamp(t *testing.T) {
	s := NewSession(context.Background(), newLoop(t, nil), 1, nil, 0)
	if s.StepsPerFrame() != 1 {
		t.Fatalf("StepsPerFrame = %d, want 1", s.StepsPerFrame())
	}
	s.AdjustStepsPerFrame(-5)
	if s.StepsPerFrame() != 1 {
		t.Fatalf("after -5: %d, want 1", s.StepsPerFrame())
	}
	s.AdjustStepsPerFrame(2)
	if s.StepsPerFrame() != 3 {
		t.Fatalf("after +2: %d, want 3", s.StepsPerFrame())
	}
	s.SetStepsPerFrame(1000)
	s.AdjustStepsPerFrame(1)
	if s.StepsPerFrame() != MaxStepsPerFrame {
		t.Fatalf("StepsPerFrame = %d, want %d", s.StepsPerFrame(), MaxStepsPerFrame)
	}
}
