package engine

import (
	"errors"
	"fmt"
)

// InternalError represents an internal-consistency error detected during a
// pass.
//
// Internal errors indicate a defect upstream of materialization (usually an
// interpreter producing a malformed schema), not a user mistake:
//   - Invalid schema: duplicate names or missing nested schema
//   - Conflicting state: a registry entry would be overwritten with a
//     different value
//   - Invalid program: the call graph cannot be ordered
//
// InternalError aborts the pass and is never recorded as a diagnostic.
type InternalError struct {
	// Code identifies the error category.
	Code InternalErrorCode

	// Message is a human-readable description.
	Message string

	// CallID identifies the call being materialized, if any.
	CallID string

	// Err is the underlying cause.
	Err error
}

// InternalErrorCode categorizes internal errors.
type InternalErrorCode string

const (
	// ErrCodeInvalidSchema indicates the materializer received a malformed schema.
	ErrCodeInvalidSchema InternalErrorCode = "INVALID_SCHEMA"

	// ErrCodeConflictingState indicates a registry overwrite with a different value.
	ErrCodeConflictingState InternalErrorCode = "CONFLICTING_STATE"

	// ErrCodeInvalidProgram indicates a receiver that cannot be resolved.
	ErrCodeInvalidProgram InternalErrorCode = "INVALID_PROGRAM"
)

// Error implements the error interface.
func (e *InternalError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.CallID != "" {
		msg = fmt.Sprintf("%s (call=%s)", msg, e.CallID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *InternalError) Unwrap() error {
	return e.Err
}

// IsInvalidSchemaError returns true if the error is an invalid schema error.
// Uses errors.As to handle wrapped errors.
func IsInvalidSchemaError(err error) bool {
	return hasCode(err, ErrCodeInvalidSchema)
}

// IsConflictError returns true if the error is a conflicting state error.
// Uses errors.As to handle wrapped errors.
func IsConflictError(err error) bool {
	return hasCode(err, ErrCodeConflictingState)
}

func hasCode(err error, code InternalErrorCode) bool {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.Code == code
	}
	return false
}

func newConflictError(kind, id string) *InternalError {
	return &InternalError{
		Code:    ErrCodeConflictingState,
		Message: fmt.Sprintf("%s %s already registered with different properties", kind, id),
	}
}
