// Package engine is the boundary to the durable-execution engine. The API only
// talks to executions through Client; the Temporal adapter implements it.
package engine

import (
	"context"
	"time"
)

// Status is the engine-reported lifecycle state of an execution.
type Status string

const (
	StatusUnspecified    Status = "UNSPECIFIED"
	StatusRunning        Status = "RUNNING"
	StatusCompleted      Status = "COMPLETED"
	StatusFailed         Status = "FAILED"
	StatusCanceled       Status = "CANCELED"
	StatusTerminated     Status = "TERMINATED"
	StatusContinuedAsNew Status = "CONTINUED_AS_NEW"
	StatusTimedOut       Status = "TIMED_OUT"
)

// StartOptions tells the engine what to run and where.
type StartOptions struct {
	ID           string
	WorkflowType string
	TaskQueue    string

	// RejectDuplicate refuses to reuse ID once an execution with it has closed.
	// A start for an ID that is still running returns that execution.
	RejectDuplicate bool
}

// Execution identifies one run of a workflow.
type Execution struct {
	WorkflowID string
	RunID      string
}

// Description is a point-in-time view of an execution.
type Description struct {
	Execution

	WorkflowType string
	TaskQueue    string
	Status       Status
	StartTime    time.Time
	CloseTime    *time.Time
}

// Client is safe for concurrent use by multiple in-flight requests.
type Client interface {
	StartWorkflow(ctx context.Context, options StartOptions, args ...any) (Execution, error)
	DescribeWorkflow(ctx context.Context, workflowID string) (Description, error)
	SignalWorkflow(ctx context.Context, workflowID, signalName string, payload any) error
	// WorkflowResult blocks until the execution closes or ctx is done, then decodes
	// its result into valuePtr.
	WorkflowResult(ctx context.Context, workflowID string, valuePtr any) error
	CheckHealth(ctx context.Context) error
	Close()
}

// Provider hands out the shared Client, connecting on first use.
type Provider interface {
	Client(ctx context.Context) (Client, error)
}
