package models

import "errors"

var (
	// ErrSessionClosed means the session already reached a terminal state;
	// a second logout of any kind must observe it and fail.
	ErrSessionClosed = errors.New("session already closed")

	// ErrInvalidTransition means the requested state change is not allowed
	// from the record's current state.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ValidationError reports malformed or out-of-policy input. It is always
// recoverable and surfaced to the caller verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validation(msg string) error { return &ValidationError{Message: msg} }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
