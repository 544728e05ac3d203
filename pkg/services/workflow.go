package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/stepflow/pkg/engine"
	"github.com/dukex/stepflow/pkg/eventbus"
	"github.com/dukex/stepflow/pkg/events"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/otelhelper"
	"github.com/dukex/stepflow/pkg/registry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultResultTimeout bounds how long Result waits for an execution to close.
const DefaultResultTimeout = 30 * time.Second

// idempotencyNamespace scopes the name-based UUIDs derived from Idempotency-Key values.
var idempotencyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://stepflow/idempotency-key"))

type Workflow struct {
	engine        engine.Provider
	registry      *registry.Registry
	publisher     eventbus.EventPublisher
	tracer        trace.Tracer
	logger        *slog.Logger
	resultTimeout time.Duration
	newID         func() string
	now           func() time.Time
}

type Option func(*Workflow)

// WithEventPublisher publishes lifecycle events after successful starts and signals.
func WithEventPublisher(publisher eventbus.EventPublisher) Option {
	return func(w *Workflow) { w.publisher = publisher }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(w *Workflow) { w.tracer = tracer }
}

func WithResultTimeout(timeout time.Duration) Option {
	return func(w *Workflow) {
		if timeout > 0 {
			w.resultTimeout = timeout
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(w *Workflow) { w.newID = newID }
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(provider engine.Provider, reg *registry.Registry, logger *slog.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		engine:        provider,
		registry:      reg,
		tracer:        otelhelper.NoopTracer(),
		logger:        logger.With("module", "workflow_service"),
		resultTimeout: DefaultResultTimeout,
		newID:         uuid.NewString,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// StartRequest contains what is needed to start an execution.
type StartRequest struct {
	WorkflowType  string
	UserID        string
	InputData     map[string]any
	CorrelationID string

	// IdempotencyKey makes the execution id deterministic: repeated starts with the
	// same key, type and user address the same execution.
	IdempotencyKey string
}

// StartedWorkflow describes an execution the engine accepted.
type StartedWorkflow struct {
	WorkflowID   string
	RunID        string
	WorkflowType string
	TaskQueue    string
	CreatedAt    time.Time
}

// Start validates the request, then asks the engine to run the registered workflow type.
func (w *Workflow) Start(ctx context.Context, req StartRequest) (*StartedWorkflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.start",
		attribute.String(otelhelper.WorkflowTypeKey, req.WorkflowType),
		attribute.String(otelhelper.UserIDKey, req.UserID),
	)
	defer span.End()

	if err := validateStart(req); err != nil {
		return nil, err
	}

	definition, err := w.registry.Lookup(req.WorkflowType)
	if err != nil {
		return nil, NewValidationError("start", CodeUnknownWorkflowType, err.Error(), err)
	}

	err = w.registry.ValidateInput(req.WorkflowType, req.InputData)
	if err != nil {
		if errors.Is(err, registry.ErrInvalidInput) {
			return nil, NewValidationError("start", CodeInvalidInput, err.Error(), err)
		}

		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to validate input: %w", err)
	}

	workflowID := w.executionID(req)
	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, workflowID))

	client, err := w.engine.Client(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	input := models.WorkflowInput{
		RequestID:     workflowID,
		UserID:        req.UserID,
		Parameters:    req.InputData,
		CorrelationID: req.CorrelationID,
	}

	execution, err := client.StartWorkflow(ctx, engine.StartOptions{
		ID:              workflowID,
		WorkflowType:    definition.Type,
		TaskQueue:       definition.TaskQueue,
		RejectDuplicate: req.IdempotencyKey != "",
	}, input)
	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.WorkflowIDKey, workflowID))
		w.logger.ErrorContext(ctx, "Failed to start workflow", "workflow_id", workflowID, "error", err)

		return nil, err
	}

	started := &StartedWorkflow{
		WorkflowID:   execution.WorkflowID,
		RunID:        execution.RunID,
		WorkflowType: definition.Type,
		TaskQueue:    definition.TaskQueue,
		CreatedAt:    w.now().UTC(),
	}

	w.logger.InfoContext(ctx, "Started workflow",
		"workflow_id", started.WorkflowID,
		"run_id", started.RunID,
		"workflow_type", started.WorkflowType,
		"correlation_id", req.CorrelationID,
	)

	if w.publisher != nil {
		event := events.WorkflowStarted{
			BaseEvent:     events.NewBaseEvent(w.newID(), events.WorkflowStartedEvent, started.WorkflowID),
			RunID:         started.RunID,
			WorkflowType:  started.WorkflowType,
			UserID:        req.UserID,
			TaskQueue:     started.TaskQueue,
			CorrelationID: req.CorrelationID,
		}
		w.publish(ctx, started.WorkflowID, event)
	}

	return started, nil
}

// Status returns the engine's current view of an execution.
func (w *Workflow) Status(ctx context.Context, workflowID string) (*engine.Description, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.status",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	if strings.TrimSpace(workflowID) == "" {
		return nil, NewValidationError("status", CodeValidation, ErrEmptyWorkflowID.Error(), ErrEmptyWorkflowID)
	}

	client, err := w.engine.Client(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	description, err := client.DescribeWorkflow(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return &description, nil
}

// Signal delivers payload to a running execution. Delivery only means the engine
// accepted the signal, not that the workflow acted on it.
func (w *Workflow) Signal(ctx context.Context, workflowID, signalName string, payload map[string]any) error {
	if signalName == "" {
		signalName = models.DefaultSignalName
	}

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.signal",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.SignalNameKey, signalName),
	)
	defer span.End()

	if strings.TrimSpace(workflowID) == "" {
		return NewValidationError("signal", CodeValidation, ErrEmptyWorkflowID.Error(), ErrEmptyWorkflowID)
	}

	if strings.TrimSpace(signalName) == "" {
		return NewValidationError("signal", CodeValidation, ErrEmptySignalName.Error(), ErrEmptySignalName)
	}

	client, err := w.engine.Client(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	if err := client.SignalWorkflow(ctx, workflowID, signalName, payload); err != nil {
		otelhelper.SetError(span, err)
		w.logger.ErrorContext(ctx, "Failed to signal workflow", "workflow_id", workflowID, "signal", signalName, "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Signaled workflow", "workflow_id", workflowID, "signal", signalName)

	if w.publisher != nil {
		event := events.WorkflowSignaled{
			BaseEvent:  events.NewBaseEvent(w.newID(), events.WorkflowSignaledEvent, workflowID),
			SignalName: signalName,
			Payload:    payload,
		}
		w.publish(ctx, workflowID, event)
	}

	return nil
}

// Result waits for the execution to close, at most the configured result timeout.
func (w *Workflow) Result(ctx context.Context, workflowID string) (*models.WorkflowResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "services.workflow.result",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	if strings.TrimSpace(workflowID) == "" {
		return nil, NewValidationError("result", CodeValidation, ErrEmptyWorkflowID.Error(), ErrEmptyWorkflowID)
	}

	client, err := w.engine.Client(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, w.resultTimeout)
	defer cancel()

	var result models.WorkflowResult
	if err := client.WorkflowResult(ctx, workflowID, &result); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return &result, nil
}

// Types lists the workflow types Start accepts.
func (w *Workflow) Types() []registry.Definition {
	return w.registry.Definitions()
}

func (w *Workflow) executionID(req StartRequest) string {
	suffix := w.newID()
	if req.IdempotencyKey != "" {
		suffix = uuid.NewSHA1(idempotencyNamespace, []byte(req.IdempotencyKey)).String()
	}

	return fmt.Sprintf("%s_%s_%s", req.WorkflowType, req.UserID, suffix)
}

// publish logs failures instead of returning them.
func (w *Workflow) publish(ctx context.Context, key string, event eventbus.Event) {
	if err := w.publisher.Publish(ctx, key, event); err != nil {
		w.logger.WarnContext(ctx, "Failed to publish lifecycle event",
			"event_type", event.GetType(),
			"workflow_id", key,
			"error", err,
		)
	}
}

func validateStart(req StartRequest) error {
	switch {
	case strings.TrimSpace(req.WorkflowType) == "":
		return NewValidationError("start", CodeValidation, ErrEmptyWorkflowType.Error(), ErrEmptyWorkflowType)
	case strings.TrimSpace(req.UserID) == "":
		return NewValidationError("start", CodeValidation, ErrEmptyUserID.Error(), ErrEmptyUserID)
	case strings.ContainsAny(req.UserID, ReservedIDChars):
		return NewValidationError("start", CodeValidation, ErrUserIDReserved.Error(), ErrUserIDReserved)
	case req.InputData == nil:
		return NewValidationError("start", CodeValidation, ErrMissingInputData.Error(), ErrMissingInputData)
	default:
		return nil
	}
}
