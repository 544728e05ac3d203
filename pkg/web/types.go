// Package web provides the HTTP handlers and the request and response types of the workflow API.
package web

import (
	"time"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/registry"
	"github.com/dukex/stepflow/pkg/services"
	"github.com/moogar0880/problems"
)

// Request headers the API reads.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderCorrelationID  = "X-Correlation-ID"
)

const (
	StatusStarted   = "STARTED"
	StatusCompleted = "COMPLETED"
)

// ErrorResponse is an RFC 7807 problem carrying the API error envelope.
type ErrorResponse struct {
	*problems.DefaultProblem

	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// StartWorkflowRequest represents the request body for starting an execution.
type StartWorkflowRequest struct {
	WorkflowType string         `json:"workflow_type" validate:"required"`
	InputData    map[string]any `json:"input_data"    validate:"required"`
	UserID       string         `json:"user_id"       validate:"required,excludesall=/?#%"`
}

type StartWorkflowResponse struct {
	WorkflowID string    `json:"workflow_id"`
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

type WorkflowStatusResponse struct {
	WorkflowID   string     `json:"workflow_id"`
	RunID        string     `json:"run_id"`
	WorkflowType string     `json:"workflow_type"`
	Status       string     `json:"status"`
	Message      string     `json:"message"`
	CreatedAt    time.Time  `json:"created_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

type SignalWorkflowResponse struct {
	Message string `json:"message"`
}

type WorkflowResultResponse struct {
	WorkflowID string                 `json:"workflow_id"`
	Result     *models.WorkflowResult `json:"result"`
	Status     string                 `json:"status"`
}

type WorkflowTypesResponse struct {
	Types []registry.Definition `json:"types"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

type DetailedHealthResponse struct {
	Status       string                               `json:"status"`
	Timestamp    time.Time                            `json:"timestamp"`
	Dependencies map[string]services.DependencyStatus `json:"dependencies"`
}
