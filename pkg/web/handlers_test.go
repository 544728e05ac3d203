package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukex/stepflow/pkg/engine"
	"github.com/dukex/stepflow/pkg/mocks"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence/memory"
	"github.com/dukex/stepflow/pkg/registry"
	"github.com/dukex/stepflow/pkg/services"
	"github.com/dukex/stepflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app      *fiber.App
	provider *mocks.MockEngineProvider
	client   *mocks.MockEngineClient
	store    *memory.Persistence
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	client := &mocks.MockEngineClient{}
	provider := &mocks.MockEngineProvider{}
	provider.On("Client", mock.Anything).Return(client, nil).Maybe()

	store := memory.NewPersistence()
	reg := registry.Default(slog.Default(), models.DefaultTaskQueue)

	workflowService := services.NewWorkflow(provider, reg, slog.Default(),
		services.WithIDGenerator(func() string { return "fixed-id" }),
		services.WithResultTimeout(50*time.Millisecond),
	)
	recordService := services.NewRecord(store, nil)

	handlers := web.NewAPIHandlers(workflowService, recordService, validator.New(validator.WithRequiredStructEnabled()), slog.Default())

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/types", handlers.GetWorkflowTypes)
	w.Post("/start", handlers.StartWorkflow)
	w.Get("/:id/status", handlers.GetWorkflowStatus)
	w.Post("/:id/signal", handlers.SignalWorkflow)
	w.Get("/:id/result", handlers.GetWorkflowResult)

	app.Get("/records/:id", handlers.GetRecord)

	t.Cleanup(func() { client.AssertExpectations(t) })

	return &testEnv{app: app, provider: provider, client: client, store: store}
}

func doRequest(t *testing.T, app *fiber.App, method, target string, body any, headers map[string]string) (int, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBody
}

func decodeError(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(body, &envelope))

	return envelope
}

func TestAPIHandlers_StartWorkflow(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	env.client.On("StartWorkflow", mock.Anything, mock.MatchedBy(func(options engine.StartOptions) bool {
		return options.ID == "simple_user-1_fixed-id" && options.TaskQueue == models.DefaultTaskQueue && !options.RejectDuplicate
	}), mock.MatchedBy(func(args []any) bool {
		input, ok := args[0].(models.WorkflowInput)

		return ok && input.CorrelationID == "corr-1"
	})).Return(engine.Execution{WorkflowID: "simple_user-1_fixed-id", RunID: "run-1"}, nil).Once()

	status, body := doRequest(t, env.app, http.MethodPost, "/workflows/start", web.StartWorkflowRequest{
		WorkflowType: "simple",
		UserID:       "user-1",
		InputData:    map[string]any{models.RequiredField: "hello"},
	}, map[string]string{web.HeaderCorrelationID: "corr-1"})

	require.Equal(t, http.StatusOK, status, string(body))

	var response web.StartWorkflowResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, "simple_user-1_fixed-id", response.WorkflowID)
	assert.Equal(t, "run-1", response.RunID)
	assert.Equal(t, web.StatusStarted, response.Status)
	assert.False(t, response.CreatedAt.IsZero())
}

func TestAPIHandlers_StartWorkflowValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		body         any
		expectedCode string
	}{
		{
			name:         "empty workflow type",
			body:         map[string]any{"workflow_type": "", "user_id": "u1", "input_data": map[string]any{}},
			expectedCode: services.CodeValidation,
		},
		{
			name:         "missing user",
			body:         map[string]any{"workflow_type": "simple", "input_data": map[string]any{}},
			expectedCode: services.CodeValidation,
		},
		{
			name:         "user not addressable in a path",
			body:         map[string]any{"workflow_type": "simple", "user_id": "team/alice#1", "input_data": map[string]any{}},
			expectedCode: services.CodeValidation,
		},
		{
			name:         "missing input data",
			body:         map[string]any{"workflow_type": "simple", "user_id": "u1"},
			expectedCode: services.CodeValidation,
		},
		{
			name:         "blank workflow type",
			body:         map[string]any{"workflow_type": "   ", "user_id": "u1", "input_data": map[string]any{}},
			expectedCode: services.CodeValidation,
		},
		{
			name:         "unknown workflow type",
			body:         map[string]any{"workflow_type": "complex", "user_id": "u1", "input_data": map[string]any{}},
			expectedCode: services.CodeUnknownWorkflowType,
		},
		{
			name:         "input fails schema",
			body:         map[string]any{"workflow_type": "simple", "user_id": "u1", "input_data": map[string]any{"required_field": true}},
			expectedCode: services.CodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := setupTestApp(t)

			status, body := doRequest(t, env.app, http.MethodPost, "/workflows/start", tt.body, nil)

			assert.Equal(t, http.StatusUnprocessableEntity, status, string(body))

			envelope := decodeError(t, body)
			assert.Equal(t, tt.expectedCode, envelope["error"])
			assert.NotEmpty(t, envelope["message"])
			assert.Equal(t, "/workflows/start", envelope["instance"])

			env.provider.AssertNotCalled(t, "Client", mock.Anything)
			env.client.AssertNotCalled(t, "StartWorkflow", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAPIHandlers_StartWorkflowInvalidJSON(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/workflows/start", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_StartWorkflowEngineErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind           engine.Kind
		expectedStatus int
		expectedCode   string
	}{
		{engine.KindUnavailable, http.StatusServiceUnavailable, "unavailable"},
		{engine.KindConflict, http.StatusConflict, "conflict"},
		{engine.KindTimeout, http.StatusGatewayTimeout, "timeout"},
		{engine.KindInternal, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()

			env := setupTestApp(t)
			env.client.On("StartWorkflow", mock.Anything, mock.Anything, mock.Anything).
				Return(engine.Execution{}, &engine.Error{Op: "start", Kind: tt.kind, Err: errors.New("engine said no")}).Once()

			status, body := doRequest(t, env.app, http.MethodPost, "/workflows/start", web.StartWorkflowRequest{
				WorkflowType: "simple",
				UserID:       "u1",
				InputData:    map[string]any{},
			}, map[string]string{web.HeaderIdempotencyKey: "key-1"})

			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedCode, decodeError(t, body)["error"])
		})
	}
}

func TestAPIHandlers_GetWorkflowStatus(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	startedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	env.client.On("DescribeWorkflow", mock.Anything, "simple_u1_abc").Return(engine.Description{
		Execution:    engine.Execution{WorkflowID: "simple_u1_abc", RunID: "run-1"},
		WorkflowType: "simple",
		Status:       engine.StatusRunning,
		StartTime:    startedAt,
	}, nil).Once()

	status, body := doRequest(t, env.app, http.MethodGet, "/workflows/simple_u1_abc/status", nil, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var response web.WorkflowStatusResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, "simple_u1_abc", response.WorkflowID)
	assert.Equal(t, "RUNNING", response.Status)
	assert.Equal(t, "Workflow is running", response.Message)
	assert.True(t, startedAt.Equal(response.CreatedAt))
	assert.Nil(t, response.ClosedAt)
}

func TestAPIHandlers_GetWorkflowStatusUnknownID(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.client.On("DescribeWorkflow", mock.Anything, "does-not-exist").
		Return(engine.Description{}, &engine.Error{Op: "describe", Kind: engine.KindNotFound, Err: errors.New("workflow not found")}).Once()

	status, body := doRequest(t, env.app, http.MethodGet, "/workflows/does-not-exist/status", nil, nil)

	assert.Equal(t, http.StatusNotFound, status)

	envelope := decodeError(t, body)
	assert.Equal(t, "not_found", envelope["error"])
	assert.InDelta(t, float64(http.StatusNotFound), envelope["status"], 0)
}

func TestAPIHandlers_SignalWorkflow(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	env.client.On("SignalWorkflow", mock.Anything, "wf-1", "approve", map[string]any{"approved": true}).Return(nil).Once()
	env.client.On("SignalWorkflow", mock.Anything, "wf-1", models.DefaultSignalName, map[string]any{}).Return(nil).Once()
	env.client.On("SignalWorkflow", mock.Anything, "wf-closed", models.DefaultSignalName, mock.Anything).
		Return(&engine.Error{Op: "signal", Kind: engine.KindNotFound, Err: errors.New("workflow execution already completed")}).Once()

	status, body := doRequest(t, env.app, http.MethodPost, "/workflows/wf-1/signal?name=approve", map[string]any{"approved": true}, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var response web.SignalWorkflowResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, "Signal approve sent to workflow wf-1", response.Message)

	status, _ = doRequest(t, env.app, http.MethodPost, "/workflows/wf-1/signal", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, env.app, http.MethodPost, "/workflows/wf-closed/signal", map[string]any{}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_GetWorkflowResult(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	env.client.On("WorkflowResult", mock.Anything, "wf-1", mock.Anything).Return(func(valuePtr any) {
		*valuePtr.(*models.WorkflowResult) = models.NewSuccessResult(models.ResultData{
			Processing: models.ProcessingResult{Processed: true, Data: models.ProcessedData{ProcessedValue: "HELLO"}},
			WorkflowID: "wf-1",
			UserID:     "u1",
		}, 1.25)
	}, nil).Once()

	status, body := doRequest(t, env.app, http.MethodGet, "/workflows/wf-1/result", nil, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var response web.WorkflowResultResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, web.StatusCompleted, response.Status)
	require.NotNil(t, response.Result)
	assert.True(t, response.Result.Success)
	assert.Equal(t, "HELLO", response.Result.ResultData.Processing.Data.ProcessedValue)
}

func TestAPIHandlers_GetWorkflowResultStillRunning(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	env.client.On("WorkflowResult", mock.Anything, "wf-running", mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, &engine.Error{Op: "result", Kind: engine.KindTimeout, Err: context.DeadlineExceeded}).Once()

	status, body := doRequest(t, env.app, http.MethodGet, "/workflows/wf-running/result", nil, nil)

	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Equal(t, "timeout", decodeError(t, body)["error"])
}

func TestAPIHandlers_GetWorkflowTypes(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	status, body := doRequest(t, env.app, http.MethodGet, "/workflows/types", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var response web.WorkflowTypesResponse
	require.NoError(t, json.Unmarshal(body, &response))
	require.Len(t, response.Types, 1)
	assert.Equal(t, "simple", response.Types[0].Type)
	assert.NotNil(t, response.Types[0].InputSchema)
}

func TestAPIHandlers_GetRecord(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	require.NoError(t, env.store.SaveRecord(t.Context(), &models.StorageRecord{
		ID:       "storage_1",
		Data:     models.ProcessedData{ProcessedValue: "HELLO"},
		StoredAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}))

	status, body := doRequest(t, env.app, http.MethodGet, "/records/storage_1", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var record models.StorageRecord
	require.NoError(t, json.Unmarshal(body, &record))
	assert.Equal(t, "HELLO", record.Data.ProcessedValue)

	status, _ = doRequest(t, env.app, http.MethodGet, "/records/storage_missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
