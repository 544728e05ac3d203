package engine

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/temporal"
)

// Kind classifies engine failures so callers can tell them apart.
type Kind string

const (
	KindNotFound    Kind = "NOT_FOUND"
	KindUnavailable Kind = "UNAVAILABLE"
	KindTimeout     Kind = "TIMEOUT"
	KindConflict    Kind = "CONFLICT"
	KindFailed      Kind = "EXECUTION_FAILED"
	KindInternal    Kind = "INTERNAL"
)

// Error wraps an engine failure with the operation and execution it concerns.
type Error struct {
	Op         string
	WorkflowID string
	Kind       Kind
	Err        error
}

func (e *Error) Error() string {
	if e.WorkflowID != "" {
		return fmt.Sprintf("%s workflow %s: %v", e.Op, e.WorkflowID, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op, workflowID string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Op: op, WorkflowID: workflowID, Kind: classify(err), Err: err}
}

// KindOf returns the Kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}

	return classify(err)
}

func classify(err error) Kind {
	var (
		notFound       *serviceerror.NotFound
		alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		unavailable    *serviceerror.Unavailable
		deadline       *serviceerror.DeadlineExceeded
		canceled       *serviceerror.Canceled
		workflowErr    *temporal.WorkflowExecutionError
	)

	switch {
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &alreadyStarted):
		return KindConflict
	case errors.As(err, &unavailable):
		return KindUnavailable
	case errors.As(err, &deadline), errors.As(err, &canceled),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTimeout
	case errors.As(err, &workflowErr):
		return KindFailed
	default:
		return KindInternal
	}
}
