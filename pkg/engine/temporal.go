package engine

import (
	"context"
	"log/slog"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
)

// DefaultAddress is the engine frontend used when none is configured.
const DefaultAddress = "localhost:7233"

// TemporalConfig holds what is needed to reach a Temporal frontend.
type TemporalConfig struct {
	Address   string
	Namespace string
	Identity  string
}

// DialTemporal connects to Temporal, routing SDK logs through logger.
func DialTemporal(ctx context.Context, config TemporalConfig, logger *slog.Logger) (client.Client, error) {
	address := config.Address
	if address == "" {
		address = DefaultAddress
	}

	return client.DialContext(ctx, client.Options{
		HostPort:  address,
		Namespace: config.Namespace,
		Identity:  config.Identity,
		Logger:    tlog.NewStructuredLogger(logger.With("module", "temporal")),
	})
}

// TemporalDialer returns a Dialer producing Temporal-backed clients.
func TemporalDialer(config TemporalConfig, logger *slog.Logger) Dialer {
	return func(ctx context.Context) (Client, error) {
		c, err := DialTemporal(ctx, config, logger)
		if err != nil {
			return nil, err
		}

		logger.InfoContext(ctx, "Connected to Temporal server", "address", config.Address, "namespace", config.Namespace)

		return NewTemporalClient(c), nil
	}
}

// TemporalClient adapts a Temporal SDK client to Client.
type TemporalClient struct {
	client client.Client
}

func NewTemporalClient(c client.Client) *TemporalClient {
	return &TemporalClient{client: c}
}

func (t *TemporalClient) StartWorkflow(ctx context.Context, options StartOptions, args ...any) (Execution, error) {
	startOptions := client.StartWorkflowOptions{
		ID:        options.ID,
		TaskQueue: options.TaskQueue,
	}

	if options.RejectDuplicate {
		startOptions.WorkflowIDReusePolicy = enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE
	}

	run, err := t.client.ExecuteWorkflow(ctx, startOptions, options.WorkflowType, args...)
	if err != nil {
		return Execution{}, wrap("start", options.ID, err)
	}

	return Execution{WorkflowID: run.GetID(), RunID: run.GetRunID()}, nil
}

func (t *TemporalClient) DescribeWorkflow(ctx context.Context, workflowID string) (Description, error) {
	response, err := t.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		return Description{}, wrap("describe", workflowID, err)
	}

	info := response.GetWorkflowExecutionInfo()

	description := Description{
		Execution: Execution{
			WorkflowID: info.GetExecution().GetWorkflowId(),
			RunID:      info.GetExecution().GetRunId(),
		},
		WorkflowType: info.GetType().GetName(),
		TaskQueue:    info.GetTaskQueue(),
		Status:       statusFromTemporal(info.GetStatus()),
	}

	if info.GetStartTime() != nil {
		description.StartTime = info.GetStartTime().AsTime()
	}

	if info.GetCloseTime() != nil {
		closeTime := info.GetCloseTime().AsTime()
		description.CloseTime = &closeTime
	}

	return description, nil
}

func (t *TemporalClient) SignalWorkflow(ctx context.Context, workflowID, signalName string, payload any) error {
	return wrap("signal", workflowID, t.client.SignalWorkflow(ctx, workflowID, "", signalName, payload))
}

func (t *TemporalClient) WorkflowResult(ctx context.Context, workflowID string, valuePtr any) error {
	return wrap("result", workflowID, t.client.GetWorkflow(ctx, workflowID, "").Get(ctx, valuePtr))
}

func (t *TemporalClient) CheckHealth(ctx context.Context) error {
	_, err := t.client.CheckHealth(ctx, &client.CheckHealthRequest{})

	return wrap("health", "", err)
}

func (t *TemporalClient) Close() {
	t.client.Close()
}

func statusFromTemporal(status enumspb.WorkflowExecutionStatus) Status {
	switch status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		return StatusRunning
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return StatusCompleted
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED:
		return StatusFailed
	case enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED:
		return StatusCanceled
	case enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return StatusTerminated
	case enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return StatusContinuedAsNew
	case enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return StatusTimedOut
	default:
		return StatusUnspecified
	}
}
