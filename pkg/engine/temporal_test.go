package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dukex/stepflow/pkg/engine"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	commonpb "go.temporal.io/api/common/v1"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	workflowpb "go.temporal.io/api/workflow/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	temporalmocks "go.temporal.io/sdk/mocks"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestTemporalClient_StartWorkflow(t *testing.T) {
	t.Parallel()

	sdkClient := &temporalmocks.Client{}
	run := &temporalmocks.WorkflowRun{}
	run.On("GetID").Return("simple_u1_abc")
	run.On("GetRunID").Return("run-1")

	input := models.WorkflowInput{RequestID: "simple_u1_abc", UserID: "u1", Parameters: map[string]any{}}

	sdkClient.On("ExecuteWorkflow", mock.Anything, mock.MatchedBy(func(options client.StartWorkflowOptions) bool {
		return options.ID == "simple_u1_abc" &&
			options.TaskQueue == models.DefaultTaskQueue &&
			options.WorkflowIDReusePolicy == enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE
	}), models.WorkflowTypeSimple, input).Return(run, nil).Once()

	execution, err := engine.NewTemporalClient(sdkClient).StartWorkflow(t.Context(), engine.StartOptions{
		ID:              "simple_u1_abc",
		WorkflowType:    models.WorkflowTypeSimple,
		TaskQueue:       models.DefaultTaskQueue,
		RejectDuplicate: true,
	}, input)

	require.NoError(t, err)
	assert.Equal(t, engine.Execution{WorkflowID: "simple_u1_abc", RunID: "run-1"}, execution)
	sdkClient.AssertExpectations(t)
}

func TestTemporalClient_StartWorkflowAlreadyStarted(t *testing.T) {
	t.Parallel()

	sdkClient := &temporalmocks.Client{}
	sdkClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, models.WorkflowTypeSimple, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "run-0")).Once()

	_, err := engine.NewTemporalClient(sdkClient).StartWorkflow(t.Context(), engine.StartOptions{
		ID:              "simple_u1_abc",
		WorkflowType:    models.WorkflowTypeSimple,
		RejectDuplicate: true,
	}, models.WorkflowInput{})

	assert.Equal(t, engine.KindConflict, engine.KindOf(err))
}

func TestTemporalClient_DescribeWorkflow(t *testing.T) {
	t.Parallel()

	startTime := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	closeTime := startTime.Add(3 * time.Second)

	sdkClient := &temporalmocks.Client{}
	sdkClient.On("DescribeWorkflowExecution", mock.Anything, "simple_u1_abc", "").
		Return(&workflowservice.DescribeWorkflowExecutionResponse{
			WorkflowExecutionInfo: &workflowpb.WorkflowExecutionInfo{
				Execution: &commonpb.WorkflowExecution{WorkflowId: "simple_u1_abc", RunId: "run-1"},
				Type:      &commonpb.WorkflowType{Name: models.WorkflowTypeSimple},
				TaskQueue: models.DefaultTaskQueue,
				Status:    enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED,
				StartTime: timestamppb.New(startTime),
				CloseTime: timestamppb.New(closeTime),
			},
		}, nil).Once()
	sdkClient.On("DescribeWorkflowExecution", mock.Anything, "missing", "").
		Return(nil, serviceerror.NewNotFound("workflow not found")).Once()

	temporalClient := engine.NewTemporalClient(sdkClient)

	description, err := temporalClient.DescribeWorkflow(t.Context(), "simple_u1_abc")
	require.NoError(t, err)

	assert.Equal(t, "run-1", description.RunID)
	assert.Equal(t, models.WorkflowTypeSimple, description.WorkflowType)
	assert.Equal(t, models.DefaultTaskQueue, description.TaskQueue)
	assert.Equal(t, engine.StatusCompleted, description.Status)
	assert.True(t, startTime.Equal(description.StartTime))
	require.NotNil(t, description.CloseTime)
	assert.True(t, closeTime.Equal(*description.CloseTime))

	_, err = temporalClient.DescribeWorkflow(t.Context(), "missing")
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
}

func TestTemporalClient_SignalResultAndHealth(t *testing.T) {
	t.Parallel()

	sdkClient := &temporalmocks.Client{}
	run := &temporalmocks.WorkflowRun{}

	payload := map[string]any{"approved": true}
	sdkClient.On("SignalWorkflow", mock.Anything, "wf-1", "", "approve", payload).Return(nil).Once()
	sdkClient.On("SignalWorkflow", mock.Anything, "wf-2", "", "approve", payload).
		Return(serviceerror.NewUnavailable("frontend unavailable")).Once()
	sdkClient.On("GetWorkflow", mock.Anything, "wf-1", "").Return(run).Once()
	run.On("Get", mock.Anything, mock.Anything).Return(nil).Once()
	sdkClient.On("CheckHealth", mock.Anything, mock.Anything).Return(&client.CheckHealthResponse{}, nil).Once()
	sdkClient.On("Close").Return().Once()

	temporalClient := engine.NewTemporalClient(sdkClient)

	require.NoError(t, temporalClient.SignalWorkflow(t.Context(), "wf-1", "approve", payload))

	err := temporalClient.SignalWorkflow(t.Context(), "wf-2", "approve", payload)
	assert.Equal(t, engine.KindUnavailable, engine.KindOf(err))

	var result models.WorkflowResult
	require.NoError(t, temporalClient.WorkflowResult(t.Context(), "wf-1", &result))
	require.NoError(t, temporalClient.CheckHealth(t.Context()))

	temporalClient.Close()

	sdkClient.AssertExpectations(t)
	run.AssertExpectations(t)
}

func TestTemporalClient_CheckHealthFailure(t *testing.T) {
	t.Parallel()

	sdkClient := &temporalmocks.Client{}
	sdkClient.On("CheckHealth", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: connection refused")).Once()

	err := engine.NewTemporalClient(sdkClient).CheckHealth(t.Context())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
