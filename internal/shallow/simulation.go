package shallow

import (
	"context"
	"fmt"
)

// Loop drives a Stepper over a WaveField it owns for the duration of a run.
type Loop struct {
	Stepper Stepper
	Field   *WaveField

	// OnStep, when set, receives a copy of the state after every committed
	// step. Returning an error stops the run.
	OnStep func(Snapshot) error

	// StopOnNonFinite ends the run with ErrNonFinite as soon as a committed
	// state contains NaN or Inf.
	StopOnNonFinite bool
}

// Run performs exactly steps sequential steps unless ctx is cancelled, OnStep
// fails or (with StopOnNonFinite) the state diverges. Cancellation is only
// observed between steps, so the field always holds a committed state.
// It returns the number of steps completed.
func (l *Loop) Run(ctx context.Context, steps int) (int, error) {
	for n := 0; n < steps; n++ {
		select {
		case <-ctx.Done():
			return n, l.fail(ctx.Err())
		default:
		}
		if err := l.Stepper.Step(l.Field); err != nil {
			return n, l.fail(err)
		}
		if l.StopOnNonFinite && !l.Field.IsFinite() {
			return n + 1, l.fail(ErrNonFinite)
		}
		if l.OnStep != nil {
			if err := l.OnStep(l.Field.Snapshot()); err != nil {
				return n + 1, l.fail(fmt.Errorf("on-step callback: %w", err))
			}
		}
	}
	return steps, nil
}

func (l *Loop) fail(err error) error {
	return &SimulationError{Step: l.Field.Step(), Time: l.Field.Time(), Err: err}
}

// Stream runs the loop on a new goroutine and delivers each snapshot on the
// returned channel, which is closed when the run ends. The error channel
// receives exactly one value (nil on success) after the snapshot channel is
// closed. OnStep, if set, still runs before each send. A slow consumer
// blocks the stepping goroutine.
func (l *Loop) Stream(ctx context.Context, steps, buffer int) (<-chan Snapshot, <-chan error) {
	out := make(chan Snapshot, buffer)
	errc := make(chan error, 1)
	runner := *l
	next := l.OnStep
	runner.OnStep = func(s Snapshot) error {
		if next != nil {
			if err := next(s); err != nil {
				return err
			}
		}
		select {
		case out <- s:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	go func() {
		_, err := runner.Run(ctx, steps)
		close(out)
		errc <- err
	}()
	return out, errc
}
