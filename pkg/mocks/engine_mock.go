package mocks

import (
	"context"

	"github.com/dukex/stepflow/pkg/engine"
	"github.com/stretchr/testify/mock"
)

// MockEngineClient is a mock implementation of engine.Client interface.
type MockEngineClient struct {
	mock.Mock
}

func (m *MockEngineClient) StartWorkflow(ctx context.Context, options engine.StartOptions, args ...any) (engine.Execution, error) {
	callArgs := m.Called(ctx, options, args)

	return callArgs.Get(0).(engine.Execution), callArgs.Error(1)
}

func (m *MockEngineClient) DescribeWorkflow(ctx context.Context, workflowID string) (engine.Description, error) {
	args := m.Called(ctx, workflowID)

	return args.Get(0).(engine.Description), args.Error(1)
}

func (m *MockEngineClient) SignalWorkflow(ctx context.Context, workflowID, signalName string, payload any) error {
	args := m.Called(ctx, workflowID, signalName, payload)

	return args.Error(0)
}

// WorkflowResult copies the first return value into valuePtr when it is not nil.
func (m *MockEngineClient) WorkflowResult(ctx context.Context, workflowID string, valuePtr any) error {
	args := m.Called(ctx, workflowID, valuePtr)

	if fill, ok := args.Get(0).(func(valuePtr any)); ok {
		fill(valuePtr)
	}

	return args.Error(1)
}

func (m *MockEngineClient) CheckHealth(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEngineClient) Close() {
	m.Called()
}

// MockEngineProvider is a mock implementation of engine.Provider interface.
type MockEngineProvider struct {
	mock.Mock
}

func (m *MockEngineProvider) Client(ctx context.Context) (engine.Client, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(engine.Client), args.Error(1)
}
