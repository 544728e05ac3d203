// Package services holds the operations the HTTP layer exposes, independent of transport.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/dukex/stepflow/pkg/registry"
)

// Error codes carried to API responses.
const (
	CodeValidation          = "validation_error"
	CodeUnknownWorkflowType = "unknown_workflow_type"
	CodeInvalidInput        = "invalid_input"
)

// Validation errors (422 Unprocessable Entity). Nothing reaches the engine when one is returned.
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrEmptyWorkflowType = errors.New("workflow_type cannot be empty")
	ErrEmptyUserID       = errors.New("user_id cannot be empty")
	ErrUserIDReserved    = errors.New("user_id cannot contain any of " + ReservedIDChars)
	ErrMissingInputData  = errors.New("input_data is required")
	ErrEmptyWorkflowID   = errors.New("workflow id cannot be empty")
	ErrEmptySignalName   = errors.New("signal name cannot be empty")
	ErrEmptyRecordID     = errors.New("record id cannot be empty")
)

// ReservedIDChars cannot appear in a user id, since the id becomes part of the execution id
// used as a URL path segment.
const ReservedIDChars = "/?#%"

// ErrRecordNotFound is returned when no stored record has the requested id.
var ErrRecordNotFound = persistence.ErrRecordNotFound

// ErrRecordsUnavailable is returned when the API runs without a persistence sink.
var ErrRecordsUnavailable = errors.New("record storage is not configured")

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should be reported as HTTP 422.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrEmptyWorkflowType) ||
		errors.Is(err, ErrEmptyUserID) ||
		errors.Is(err, ErrMissingInputData) ||
		errors.Is(err, ErrEmptyWorkflowID) ||
		errors.Is(err, ErrEmptySignalName) ||
		errors.Is(err, ErrEmptyRecordID) ||
		errors.Is(err, registry.ErrUnknownWorkflowType) ||
		errors.Is(err, registry.ErrInvalidInput)
}

// CodeOf returns the API error code of a validation error.
func CodeOf(err error) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Code != "" {
		return serviceErr.Code
	}

	switch {
	case errors.Is(err, registry.ErrUnknownWorkflowType):
		return CodeUnknownWorkflowType
	case errors.Is(err, registry.ErrInvalidInput):
		return CodeInvalidInput
	default:
		return CodeValidation
	}
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
