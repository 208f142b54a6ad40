package utils

import (
	"errors"
	"fmt"
)

// Sentinel conditions surfaced by the advisor pipeline. The API layer maps
// these onto client-facing responses; everything else is an internal error.
var (
	// ErrNotReady signals that the pipeline has not completed its one-time fit.
	ErrNotReady = errors.New("service not ready")
	// ErrStoreNotFound signals an unknown store identifier.
	ErrStoreNotFound = errors.New("store not found")
	// ErrNotFitted signals use of the encoder or cohort index before fitting.
	// Reaching a caller with this error is an internal invariant violation.
	ErrNotFitted = errors.New("not fitted")
)

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// IsNotReady reports whether err stems from the readiness gate.
func IsNotReady(err error) bool { return errors.Is(err, ErrNotReady) }

// IsStoreNotFound reports whether err stems from a missing store profile.
func IsStoreNotFound(err error) bool { return errors.Is(err, ErrStoreNotFound) }
