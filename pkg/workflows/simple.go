// Package workflows holds the orchestration code run by the worker. Code in this
// package is replayed by the engine and must stay deterministic: all clock reads
// and I/O go through activities.
package workflows

import (
	"time"

	"github.com/dukex/stepflow/pkg/models"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// StepOptions are the per-activity policies attached by the workflow.
type StepOptions struct {
	ValidateTimeout time.Duration
	ProcessTimeout  time.Duration
	StoreTimeout    time.Duration

	// MaxAttempts caps activity retries. Zero leaves retries to the engine default.
	MaxAttempts int32
}

// DefaultStepOptions returns the validate/process/store timeouts of 2, 5 and 3 minutes.
func DefaultStepOptions() StepOptions {
	return StepOptions{
		ValidateTimeout: 2 * time.Minute,
		ProcessTimeout:  5 * time.Minute,
		StoreTimeout:    3 * time.Minute,
	}
}

// Simple runs validate_input, process_data and store_data in order and stops at
// the first failure.
type Simple struct {
	Options StepOptions
}

func NewSimple(options StepOptions) *Simple {
	return &Simple{Options: options}
}

func (s *Simple) Run(ctx workflow.Context, input models.WorkflowInput) (models.WorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	startedAt := workflow.Now(ctx)
	step := models.StepCreated

	err := workflow.SetQueryHandler(ctx, models.QueryCurrentStep, func() (models.Step, error) {
		return step, nil
	})
	if err != nil {
		return models.WorkflowResult{}, err
	}

	elapsed := func() float64 {
		return workflow.Now(ctx).Sub(startedAt).Seconds()
	}

	fail := func(terminal models.Step, message string) (models.WorkflowResult, error) {
		step = terminal
		logger.Error("Simple workflow failed", "request_id", input.RequestID, "step", terminal, "error", message)

		return models.NewFailureResult(message, elapsed()), nil
	}

	logger.Info("Starting simple workflow", "request_id", input.RequestID, "user_id", input.UserID)

	step = models.StepValidating

	var validation models.ValidationResult

	err = workflow.ExecuteActivity(s.activityContext(ctx, s.Options.ValidateTimeout), models.ActivityValidateInput, input.Parameters).
		Get(ctx, &validation)
	if err != nil {
		return fail(models.StepFailedInfra, err.Error())
	}

	if !validation.Valid {
		return fail(models.StepFailedValidation, "Input validation failed: "+validation.Message)
	}

	step = models.StepProcessing

	var processing models.ProcessingResult

	err = workflow.ExecuteActivity(s.activityContext(ctx, s.Options.ProcessTimeout), models.ActivityProcessData, input.Parameters).
		Get(ctx, &processing)
	if err != nil {
		return fail(models.StepFailedInfra, err.Error())
	}

	step = models.StepStoring

	var storage models.StorageResult

	err = workflow.ExecuteActivity(s.activityContext(ctx, s.Options.StoreTimeout), models.ActivityStoreData, processing).
		Get(ctx, &storage)
	if err != nil {
		return fail(models.StepFailedInfra, err.Error())
	}

	step = models.StepCompleted
	logger.Info("Simple workflow completed successfully", "request_id", input.RequestID)

	return models.NewSuccessResult(models.ResultData{
		Validation: validation,
		Processing: processing,
		Storage:    storage,
		WorkflowID: input.RequestID,
		UserID:     input.UserID,
	}, elapsed()), nil
}

func (s *Simple) activityContext(ctx workflow.Context, timeout time.Duration) workflow.Context {
	options := workflow.ActivityOptions{StartToCloseTimeout: timeout}

	if s.Options.MaxAttempts > 0 {
		options.RetryPolicy = &temporal.RetryPolicy{MaximumAttempts: s.Options.MaxAttempts}
	}

	return workflow.WithActivityOptions(ctx, options)
}
