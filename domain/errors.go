package domain

import "fmt"

// ValidationError indicates missing or invalid required input.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError from a format string.
func NewValidationError(format string, args ...any) ValidationError {
	return ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates that a referenced entity id does not exist.
type NotFoundError struct {
	Message string
}

func (e NotFoundError) Error() string { return e.Message }

// NewNotFoundError builds a NotFoundError from a format string.
func NewNotFoundError(format string, args ...any) NotFoundError {
	return NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a backing store failure. The original cause is
// preserved for errors.Is/As chains.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e PersistenceError) Unwrap() error { return e.Err }
