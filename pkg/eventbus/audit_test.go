package eventbus_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/stepflow/pkg/eventbus"
	"github.com/dukex/stepflow/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	ch chan string
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.ch <- string(bytes.Clone(p))

	return len(p), nil
}

func TestLifecycleAudit_HandlersTolerateForeignEvents(t *testing.T) {
	t.Parallel()

	audit := eventbus.NewLifecycleAudit(slog.New(slog.DiscardHandler))

	started := &events.WorkflowStarted{
		BaseEvent: events.NewBaseEvent("evt-1", events.WorkflowStartedEvent, "simple_u1_abc"),
		RunID:     "run-1",
	}

	assert.NoError(t, audit.HandleWorkflowStarted(t.Context(), started))
	assert.NoError(t, audit.HandleWorkflowStarted(t.Context(), "not an event"))
	assert.NoError(t, audit.HandleWorkflowSignaled(t.Context(), &events.WorkflowSignaled{SignalName: "approve"}))
	assert.NoError(t, audit.HandleWorkflowSignaled(t.Context(), 42))
}

func TestLifecycleAudit_LogsPublishedEvents(t *testing.T) {
	t.Parallel()

	out := &syncBuffer{ch: make(chan string, 16)}
	bus := newTestBus(t)

	require.NoError(t, eventbus.NewLifecycleAudit(slog.New(slog.NewTextHandler(out, nil))).Register(bus))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	started := events.WorkflowStarted{
		BaseEvent: events.NewBaseEvent(bus.GenerateID(), events.WorkflowStartedEvent, "simple_u1_abc"),
		RunID:     "run-1",
	}
	require.NoError(t, bus.Publish(ctx, started.WorkflowID, started))

	select {
	case line := <-out.ch:
		assert.Contains(t, line, "Workflow started")
		assert.Contains(t, line, "workflow_id=simple_u1_abc")
		assert.Contains(t, line, "run_id=run-1")
	case <-time.After(5 * time.Second):
		t.Fatal("started event was not audited")
	}
}
