package eventbus

import (
	"context"
	"log/slog"

	"github.com/dukex/stepflow/pkg/events"
)

// LifecycleAudit logs every workflow lifecycle event it receives.
type LifecycleAudit struct {
	logger *slog.Logger
}

func NewLifecycleAudit(logger *slog.Logger) *LifecycleAudit {
	return &LifecycleAudit{logger: logger.With("module", "lifecycle_audit")}
}

// Register binds the audit handlers on sub. Subscribe must still be called to start delivery.
func (a *LifecycleAudit) Register(sub EventSubscriber) error {
	err := sub.Handle(events.WorkflowStartedEvent, a.HandleWorkflowStarted)
	if err != nil {
		return err
	}

	return sub.Handle(events.WorkflowSignaledEvent, a.HandleWorkflowSignaled)
}

func (a *LifecycleAudit) HandleWorkflowStarted(ctx context.Context, event any) error {
	started, ok := event.(*events.WorkflowStarted)
	if !ok {
		a.logger.ErrorContext(ctx, "Invalid event type for WorkflowStarted")

		return nil
	}

	a.logger.InfoContext(ctx, "Workflow started",
		"workflow_id", started.WorkflowID,
		"run_id", started.RunID,
		"workflow_type", started.WorkflowType,
		"user_id", started.UserID,
		"correlation_id", started.CorrelationID,
		"event_id", started.ID,
	)

	return nil
}

func (a *LifecycleAudit) HandleWorkflowSignaled(ctx context.Context, event any) error {
	signaled, ok := event.(*events.WorkflowSignaled)
	if !ok {
		a.logger.ErrorContext(ctx, "Invalid event type for WorkflowSignaled")

		return nil
	}

	a.logger.InfoContext(ctx, "Workflow signaled",
		"workflow_id", signaled.WorkflowID,
		"signal", signaled.SignalName,
		"event_id", signaled.ID,
	)

	return nil
}
