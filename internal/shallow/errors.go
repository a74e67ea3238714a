package shallow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDomain indicates grid parameters that cannot hold an interior point.
	ErrInvalidDomain = errors.New("shallow: invalid domain")

	// ErrNonFinite indicates the state diverged to NaN or Inf.
	ErrNonFinite = errors.New("shallow: non-finite state (numerical instability)")

	// ErrShapeMismatch indicates a field that does not belong to the stepper's grid.
	ErrShapeMismatch = errors.New("shallow: field shape does not match grid")
)

// InvalidDomainError describes why a grid could not be constructed.
type InvalidDomainError struct {
	Lx, Ly float64
	Dx, Dy float64
	Reason string
}

func (e *InvalidDomainError) Error() string {
	return fmt.Sprintf("shallow: invalid domain (Lx=%g Ly=%g dx=%g dy=%g): %s", e.Lx, e.Ly, e.Dx, e.Dy, e.Reason)
}

// Is lets errors.Is match ErrInvalidDomain.
func (e *InvalidDomainError) Is(target error) bool {
	return target == ErrInvalidDomain
}

// SimulationError reports the step at which a run stopped early.
type SimulationError struct {
	Step int
	Time float64
	Err  error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4fs): %v", e.Step, e.Time, e.Err)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}
