// Package playback runs a simulation loop in the background and hands its
// snapshots to a frame-driven consumer such as a window.
package playback

import (
	"context"
	"errors"
	"log"

	"tsunami/internal/shallow"
)

// MaxStepsPerFrame caps how many snapshots one Update may consume.
const MaxStepsPerFrame = 64

// State is the lifecycle position of a Session.
type State int

const (
	Idle State = iota
	Running
	Paused
	Finished
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Session owns the run lifecycle: start, pause, reset and draining
// snapshots at a bounded rate. It is not safe for concurrent use; one
// goroutine (the frame loop) drives it while the loop steps on another.
type Session struct {
	loop    *shallow.Loop
	steps   int
	initial shallow.InitialCondition

	// OnReset runs after the field has been re-initialised, with the fresh
	// step-0 snapshot. An error is logged and kept as Err.
	OnReset func(shallow.Snapshot) error

	stepsPerFrame int
	latest        shallow.Snapshot

	ctx    context.Context
	cancel context.CancelFunc
	snaps  <-chan shallow.Snapshot
	errc   <-chan error
	paused bool
	done   bool
	err    error
}

// NewSession prepares loop for steps steps. initial is reapplied on Reset.
func NewSession(ctx context.Context, loop *shallow.Loop, steps int, initial shallow.InitialCondition, stepsPerFrame int) *Session {
	s := &Session{
		loop:    loop,
		steps:   steps,
		initial: initial,
		ctx:     ctx,
		latest:  loop.Field.Snapshot(),
	}
	s.SetStepsPerFrame(stepsPerFrame)
	return s
}

// Start launches the remaining steps. It reports false if a run is already
// active or the previous one has ended and needs a Reset.
func (s *Session) Start() bool {
	if s.snaps != nil || s.done {
		return false
	}
	runCtx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.snaps, s.errc = s.loop.Stream(runCtx, s.steps-s.loop.Field.Step(), s.stepsPerFrame)
	log.Printf("Run started (%d steps)", s.steps)
	return true
}

// Stop cancels an active run and waits for the loop goroutine, so the field
// is safe to touch afterwards.
func (s *Session) Stop() {
	if s.snaps == nil {
		return
	}
	s.cancel()
	for range s.snaps {
	}
	<-s.errc
	s.snaps, s.errc = nil, nil
}

// Reset stops any run, re-initialises the field and calls OnReset.
func (s *Session) Reset() {
	s.Stop()
	s.loop.Field.Initialize(s.initial)
	s.latest = s.loop.Field.Snapshot()
	s.done, s.paused, s.err = false, false, nil
	log.Printf("Run reset")
	if s.OnReset != nil {
		if err := s.OnReset(s.latest); err != nil {
			s.err = err
			log.Printf("Reset hook: %v", err)
		}
	}
}

// TogglePause stops or resumes consuming snapshots. The loop itself blocks
// once the channel buffer is full.
func (s *Session) TogglePause() { s.paused = !s.paused }

// SetStepsPerFrame clamps n to [1, MaxStepsPerFrame].
func (s *Session) SetStepsPerFrame(n int) {
	switch {
	case n < 1:
		n = 1
	case n > MaxStepsPerFrame:
		n = MaxStepsPerFrame
	}
	s.stepsPerFrame = n
}

// AdjustStepsPerFrame changes the per-frame budget by delta.
func (s *Session) AdjustStepsPerFrame(delta int) { s.SetStepsPerFrame(s.stepsPerFrame + delta) }

// StepsPerFrame returns the current per-frame budget.
func (s *Session) StepsPerFrame() int { return s.stepsPerFrame }

// Update consumes up to StepsPerFrame ready snapshots without blocking and
// returns how many it took.
func (s *Session) Update() int {
	if s.snaps == nil || s.paused {
		return 0
	}
	for n := 0; n < s.stepsPerFrame; n++ {
		select {
		case snap, ok := <-s.snaps:
			if !ok {
				s.finish(<-s.errc)
				return n
			}
			s.latest = snap
		default:
			return n
		}
	}
	return s.stepsPerFrame
}

func (s *Session) finish(err error) {
	s.snaps, s.errc = nil, nil
	s.done = true
	switch {
	case err == nil:
		log.Printf("Run finished at step %d (t=%.1fs)", s.latest.Step, s.latest.Time)
	case errors.Is(err, context.Canceled):
	default:
		s.err = err
		log.Printf("Run stopped: %v", err)
	}
}

// Latest returns the most recently consumed snapshot.
func (s *Session) Latest() shallow.Snapshot { return s.latest }

// Steps returns the run length.
func (s *Session) Steps() int { return s.steps }

// Err returns the error that ended the run, if any.
func (s *Session) Err() error { return s.err }

// State reports where the session is in its lifecycle.
func (s *Session) State() State {
	switch {
	case s.done && s.err != nil:
		return Stopped
	case s.done:
		return Finished
	case s.snaps != nil && s.paused:
		return Paused
	case s.snaps != nil:
		return Running
	default:
		return Idle
	}
}
