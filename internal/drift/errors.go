package drift

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfDataset indicates the simulation time left the time span covered by the dataset.
	ErrEndOfDataset = errors.New("drift: time outside dataset coverage")

	// ErrMissingVariable indicates a required variable or attribute was not found in the input.
	ErrMissingVariable = errors.New("drift: missing variable")

	// ErrUnknownField indicates a scalar field was sampled that no frame carries.
	ErrUnknownField = errors.New("drift: unknown field")

	// ErrOutsideDomain indicates a geographic position outside the grid.
	ErrOutsideDomain = errors.New("drift: position outside domain")

	// ErrInvalidConfig indicates a configuration value out of its valid range.
	ErrInvalidConfig = errors.New("drift: invalid configuration")

	// ErrDimensionMismatch indicates arrays whose shapes disagree with the grid.
	ErrDimensionMismatch = errors.New("drift: dimension mismatch between field and grid")
)

// StepError wraps an error with simulation context.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.0fs): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
