package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/stepflow/pkg/cmd"
	"github.com/dukex/stepflow/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineWriter chan string

func (w lineWriter) Write(p []byte) (int, error) {
	w <- string(bytes.Clone(p))

	return len(p), nil
}

func TestAuditLifecycle_LogsEventsPublishedInProcess(t *testing.T) {
	t.Parallel()

	lines := make(lineWriter, 16)
	logger := slog.New(slog.NewTextHandler(lines, nil))

	bus, err := cmd.NewEventBus("gochannel", nil, serviceName, false, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, auditLifecycle(ctx, bus, logger))

	signaled := events.WorkflowSignaled{
		BaseEvent:  events.NewBaseEvent(bus.GenerateID(), events.WorkflowSignaledEvent, "simple_u1_abc"),
		SignalName: "approve",
	}
	require.NoError(t, bus.Publish(ctx, signaled.WorkflowID, signaled))

	select {
	case line := <-lines:
		assert.Contains(t, line, "Workflow signaled")
		assert.Contains(t, line, "signal=approve")
	case <-time.After(5 * time.Second):
		t.Fatal("signaled event was not audited by the API process")
	}
}
