package dynamo

import "errors"

// Domain errors shared by the pipeline stages.
var (
	// ErrEmptySeries indicates an input with no samples.
	ErrEmptySeries = errors.New("dynamo: empty series")

	// ErrSeriesTooShort indicates too few samples for the requested parameters.
	ErrSeriesTooShort = errors.New("dynamo: series too short for requested parameters")

	// ErrTimeAxisMismatch indicates values supplied without a matching time axis.
	ErrTimeAxisMismatch = errors.New("dynamo: time axis does not match values")

	// ErrNonMonotonicTime indicates a time axis that is neither strictly increasing nor decreasing.
	ErrNonMonotonicTime = errors.New("dynamo: time axis is not strictly monotonic")

	// ErrInvalidState indicates a sample or vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid value (NaN or Inf detected)")

	// ErrInvalidParameter indicates a parameter value outside its valid range.
	ErrInvalidParameter = errors.New("dynamo: parameter out of valid bounds")

	// ErrNotSquare indicates a recurrence matrix with mismatched dimensions.
	ErrNotSquare = errors.New("dynamo: recurrence matrix is not square")

	// ErrNotSymmetric indicates a recurrence matrix with R[i][j] != R[j][i].
	ErrNotSymmetric = errors.New("dynamo: recurrence matrix is not symmetric")

	// ErrTooManyWorkers indicates a worker count above the available parallel capacity.
	ErrTooManyWorkers = errors.New("dynamo: worker count exceeds available CPUs")

	// ErrEigenFailed indicates the eigendecomposition did not converge.
	ErrEigenFailed = errors.New("dynamo: eigendecomposition failed")
)

// ParamError wraps ErrInvalidParameter with the offending parameter.
type ParamError struct {
	Name   string
	Value  any
	Reason string
}

func (e *ParamError) Error() string {
	if e.Reason == "" {
		return ErrInvalidParameter.Error() + ": " + e.Name
	}
	return ErrInvalidParameter.Error() + ": " + e.Name + " " + e.Reason
}

func (e *ParamError) Unwrap() error {
	return ErrInvalidParameter
}

// InvalidParam builds a ParamError.
func InvalidParam(name string, value any, reason string) error {
	return &ParamError{Name: name, Value: value, Reason: reason}
}
