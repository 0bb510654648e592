package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for configuration and run control. Physics faults inside a
// tick are never reported through these; the stepper recovers locally and
// raises warning flags instead.
var (
	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("kitesim: parameter out of valid bounds")

	// ErrInvalidGeometry indicates kite geometry that cannot produce panels
	// or control points.
	ErrInvalidGeometry = errors.New("kitesim: invalid kite geometry")

	// ErrUnknownPreset indicates a preset name that is not registered.
	ErrUnknownPreset = errors.New("kitesim: unknown preset")

	// ErrUnknownPilot indicates a pilot name that is not registered.
	ErrUnknownPilot = errors.New("kitesim: unknown pilot")

	// ErrSimulationCanceled indicates the run was interrupted by its context.
	ErrSimulationCanceled = errors.New("kitesim: simulation canceled by context")
)

// SimulationError wraps an error with run context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
