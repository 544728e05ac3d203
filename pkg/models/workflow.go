// Package models defines the data contracts shared by the API, the workflows and their activities.
package models

const (
	// WorkflowTypeSimple is the registered name of the validate -> process -> store workflow.
	WorkflowTypeSimple = "simple"

	// DefaultTaskQueue is the task queue workers poll when none is configured.
	DefaultTaskQueue = "workflow-task-queue"

	// DefaultSignalName is used when a signal request does not name its signal.
	DefaultSignalName = "workflow_signal"

	// QueryCurrentStep returns the Step an execution is currently in.
	QueryCurrentStep = "current_step"
)

// WorkflowInput is the argument every workflow execution is started with.
// It is created by the API at start time and never changed afterwards.
type WorkflowInput struct {
	RequestID     string         `json:"request_id"`
	UserID        string         `json:"user_id"`
	Parameters    map[string]any `json:"parameters"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// ResultData is what a caller gets back from a successful execution.
type ResultData struct {
	Validation ValidationResult `json:"validation"`
	Processing ProcessingResult `json:"processing"`
	Storage    StorageResult    `json:"storage"`
	WorkflowID string           `json:"workflow_id"`
	UserID     string           `json:"user_id"`
}

// WorkflowResult is the terminal value of an execution. Exactly one of ResultData
// and ErrorMessage is set, depending on Success.
type WorkflowResult struct {
	Success       bool        `json:"success"`
	ResultData    *ResultData `json:"result_data,omitempty"`
	ErrorMessage  string      `json:"error_message,omitempty"`
	ExecutionTime *float64    `json:"execution_time,omitempty"`
}

// NewSuccessResult builds a successful WorkflowResult.
func NewSuccessResult(data ResultData, executionTime float64) WorkflowResult {
	return WorkflowResult{
		Success:       true,
		ResultData:    &data,
		ExecutionTime: &executionTime,
	}
}

// NewFailureResult builds a failed WorkflowResult carrying only the error message.
func NewFailureResult(message string, executionTime float64) WorkflowResult {
	return WorkflowResult{
		Success:       false,
		ErrorMessage:  message,
		ExecutionTime: &executionTime,
	}
}

// Step is a state of the validate -> process -> store state machine.
type Step string

const (
	StepCreated          Step = "CREATED"
	StepValidating       Step = "VALIDATING"
	StepProcessing       Step = "PROCESSING"
	StepStoring          Step = "STORING"
	StepCompleted        Step = "COMPLETED"
	StepFailedValidation Step = "FAILED_VALIDATION"
	StepFailedInfra      Step = "FAILED_INFRA"
)

// Terminal reports whether no further transition can happen from s.
func (s Step) Terminal() bool {
	switch s {
	case StepCompleted, StepFailedValidation, StepFailedInfra:
		return true
	default:
		return false
	}
}
