package order

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed wire input. It is fatal: no partial
// order state is ever returned alongside one, and it is raised before any
// database access.
type ValidationError struct {
	// Array names the offending parallel array or field.
	Array string

	// Got and Want are the observed and expected element counts for
	// length mismatches. Both are 0 for field conversion failures.
	Got  int
	Want int

	// Index is the element position for field conversion failures.
	Index int

	// Err is the underlying conversion error, if any.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("array %s: element %d: %v", e.Array, e.Index, e.Err)
	}
	return fmt.Sprintf("array %s has %d elements, want %d", e.Array, e.Got, e.Want)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func newCountError(array string, got, want int) *ValidationError {
	return &ValidationError{Array: array, Got: got, Want: want}
}

func newFieldError(array string, index int, err error) *ValidationError {
	return &ValidationError{Array: array, Index: index, Err: err}
}
