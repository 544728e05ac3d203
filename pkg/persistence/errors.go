// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrRecordNotFound indicates no record exists for the given identifier.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidRecord indicates a record without an identifier was given.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrUnsupportedProvider indicates a database URL scheme no implementation handles.
	ErrUnsupportedProvider = errors.New("unsupported persistence provider")
)

// RecordError wraps record-related errors with additional context.
type RecordError struct {
	Op       string // Operation being performed (e.g., "RecordByID", "SaveRecord")
	RecordID string
	Err      error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s operation failed for record %s: %v", e.Op, e.RecordID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func (e *RecordError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRecordError creates a new record error with context.
func NewRecordError(op, recordID string, err error) *RecordError {
	return &RecordError{
		Op:       op,
		RecordID: recordID,
		Err:      err,
	}
}

// IsRecordNotFound checks if an error indicates a record was not found.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
