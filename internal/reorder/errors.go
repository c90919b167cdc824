package reorder

import (
	"errors"
	"fmt"
)

// PermissionError rejects a whole submission before anything persists.
// It carries a client-facing message separately from the internal
// diagnostic, which never leaves the server logs.
type PermissionError struct {
	// Code is the wire error code reported to legacy clients.
	Code int

	// UserMessage is safe to show to the ordering party.
	UserMessage string

	// Diagnostic is internal-only context for operators.
	Diagnostic string
}

// CodeOrdersForbidden is the wire code for every submission-level
// rejection: posting disabled or weekly cap exceeded.
const CodeOrdersForbidden = 5

// Error implements the error interface.
func (e *PermissionError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("code %d: %s (%s)", e.Code, e.UserMessage, e.Diagnostic)
	}
	return fmt.Sprintf("code %d: %s", e.Code, e.UserMessage)
}

// IsPermissionError reports whether err is (or wraps) a PermissionError.
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// InconsistencyError reports corrupt catalog state: more than one live
// offer matched a primary id that is assumed unique. It is a hard error,
// never a per-line outcome; silently tolerating it would persist orders
// against an ambiguous catalog.
type InconsistencyError struct {
	CatalogLineID uint64
	Matches       int
}

// Error implements the error interface.
func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("catalog line %d matched %d offers by primary id", e.CatalogLineID, e.Matches)
}

// IsInconsistencyError reports whether err is (or wraps) an
// InconsistencyError.
func IsInconsistencyError(err error) bool {
	var ie *InconsistencyError
	return errors.As(err, &ie)
}
