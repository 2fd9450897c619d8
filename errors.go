package taskgraph

import "errors"

// FailureError wraps the error returned (or panic value recovered) from a
// task's run function. [Future.Get] returns this for a [Failed] task; the
// original cause is reachable via [errors.Unwrap]/[errors.As].
type FailureError struct {
	Cause error
}

// Error implements the error interface.
func (e *FailureError) Error() string {
	if e.Cause == nil {
		return "taskgraph: task failed"
	}
	return "taskgraph: task failed: " + e.Cause.Error()
}

// Unwrap returns the underlying cause for use with [errors.Is]/[errors.As].
func (e *FailureError) Unwrap() error {
	return e.Cause
}

// CanceledError is returned by [Future.Get] when the underlying task's
// terminal state is [Canceled]. It never wraps a [FailureError]: a
// canceled task, by definition, never ran to completion or failure.
type CanceledError struct{}

// Error implements the error interface.
func (e *CanceledError) Error() string {
	return "taskgraph: task was canceled"
}

// IsFailure reports whether err is (or wraps) a [*FailureError].
func IsFailure(err error) bool {
	var fe *FailureError
	return errors.As(err, &fe)
}

// IsCanceled reports whether err is (or wraps) a [*CanceledError].
func IsCanceled(err error) bool {
	var ce *CanceledError
	return errors.As(err, &ce)
}
