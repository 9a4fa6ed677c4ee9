package calibrate

import (
	"errors"
	"fmt"
)

// ErrNotConverged indicates the search hit its iteration or time bound.
var ErrNotConverged = errors.New("calibrate: search did not converge")

// ConvergenceError reports the best radius reached before the search gave up.
type ConvergenceError struct {
	Iterations int
	Epsilon    float64
	Density    float64
	Cause      error
}

func (e *ConvergenceError) Error() string {
	msg := fmt.Sprintf("%s after %d rounds (epsilon=%g density=%.4f)", ErrNotConverged, e.Iterations, e.Epsilon, e.Density)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConvergenceError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrNotConverged}
	}
	return []error{ErrNotConverged, e.Cause}
}
