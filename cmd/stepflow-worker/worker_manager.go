package main

import (
	"context"
	"log/slog"

	"github.com/dukex/stepflow/pkg/activities"
	"github.com/dukex/stepflow/pkg/eventbus"
	"github.com/dukex/stepflow/pkg/workflows"
)

// EngineWorker is the part of a Temporal worker the manager drives.
type EngineWorker interface {
	workflows.Registrar
	Run(interruptCh <-chan interface{}) error
}

type WorkerManager struct {
	id          string
	logger      *slog.Logger
	worker      EngineWorker
	activities  *activities.Activities
	stepOptions workflows.StepOptions
	eventBus    eventbus.EventBus
}

// NewWorkerManager wires a worker. eventBus may be nil, which disables the lifecycle audit log.
func NewWorkerManager(
	id string,
	worker EngineWorker,
	acts *activities.Activities,
	stepOptions workflows.StepOptions,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "stepflow-worker", "worker_id", id),
		worker:      worker,
		activities:  acts,
		stepOptions: stepOptions,
		eventBus:    eventBus,
	}
}

// Start registers workflows and activities, then polls until ctx is done.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	workflows.Register(w.worker, w.activities, w.stepOptions)

	if w.eventBus != nil {
		if err := w.subscribe(ctx); err != nil {
			return err
		}
	}

	interrupt := make(chan interface{})

	go func() {
		<-ctx.Done()
		w.logger.Info("Shutting down worker...")
		close(interrupt)
	}()

	err := w.worker.Run(interrupt)
	if err != nil {
		w.logger.ErrorContext(ctx, "Worker stopped with error", "error", err)

		return err
	}

	w.logger.Info("Worker stopped")

	return nil
}

func (w *WorkerManager) subscribe(ctx context.Context) error {
	err := eventbus.NewLifecycleAudit(w.logger).Register(w.eventBus)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	return nil
}
