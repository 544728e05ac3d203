// Package main provides the Stepflow worker, which runs workflow and activity tasks.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/stepflow/pkg/activities"
	"github.com/dukex/stepflow/pkg/cmd"
	"github.com/dukex/stepflow/pkg/engine"
	"github.com/dukex/stepflow/pkg/log"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/workflows"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.temporal.io/sdk/worker"
)

const (
	serviceName                    = "stepflow-worker"
	defaultMaxConcurrentActivities = 10
)

func main() {
	defaults := workflows.DefaultStepOptions()

	command := &cli.Command{
		Name:                  serviceName,
		EnableShellCompletion: true,
		Usage:                 "Run workflow and activity tasks from the task queue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:    "temporal-address",
				Usage:   "Temporal frontend host:port",
				Value:   engine.DefaultAddress,
				Sources: cli.EnvVars("TEMPORAL_ADDRESS"),
			},
			&cli.StringFlag{
				Name:    "temporal-namespace",
				Usage:   "Temporal namespace",
				Value:   "default",
				Sources: cli.EnvVars("TEMPORAL_NAMESPACE"),
			},
			&cli.StringFlag{
				Name:    "task-queue",
				Usage:   "Task queue to poll",
				Value:   models.DefaultTaskQueue,
				Sources: cli.EnvVars("TASK_QUEUE"),
			},
			&cli.IntFlag{
				Name:    "max-concurrent-activities",
				Usage:   "Maximum number of activities executed at the same time",
				Value:   defaultMaxConcurrentActivities,
				Sources: cli.EnvVars("MAX_CONCURRENT_ACTIVITIES"),
			},
			&cli.DurationFlag{
				Name:    "validate-timeout",
				Usage:   "Start-to-close timeout of validate_input",
				Value:   defaults.ValidateTimeout,
				Sources: cli.EnvVars("VALIDATE_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "process-timeout",
				Usage:   "Start-to-close timeout of process_data",
				Value:   defaults.ProcessTimeout,
				Sources: cli.EnvVars("PROCESS_TIMEOUT"),
			},
			&cli.DurationFlag{
				Name:    "store-timeout",
				Usage:   "Start-to-close timeout of store_data",
				Value:   defaults.StoreTimeout,
				Sources: cli.EnvVars("STORE_TIMEOUT"),
			},
			&cli.IntFlag{
				Name:    "activity-max-attempts",
				Usage:   "Maximum attempts per activity (0 uses the engine default)",
				Sources: cli.EnvVars("ACTIVITY_MAX_ATTEMPTS"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Persistence URL of the record sink store_data writes to",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Lifecycle event bus to audit (kafka); empty disables it",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka brokers used when the event bus is kafka",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))

	workerID := command.String("worker-id")
	if workerID == "" {
		workerID = "worker-" + uuid.New().String()[:8]
	}

	logger := log.WithModule(serviceName).With("worker_id", workerID)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Initializing Stepflow Worker")

	store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return err
	}

	defer func() {
		if err := store.Close(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	eventBus, err := cmd.NewAuditEventBus(command.String("event-bus"), command.StringSlice("kafka-brokers"), serviceName, logger)
	if err != nil {
		return err
	}

	if eventBus != nil {
		defer func() {
			if err := eventBus.Close(); err != nil {
				logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
			}
		}()
	}

	temporalClient, err := engine.DialTemporal(ctx, engine.TemporalConfig{
		Address:   command.String("temporal-address"),
		Namespace: command.String("temporal-namespace"),
		Identity:  workerID,
	}, logger)
	if err != nil {
		return err
	}
	defer temporalClient.Close()

	taskQueue := command.String("task-queue")

	temporalWorker := worker.New(temporalClient, taskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: command.Int("max-concurrent-activities"),
		Identity:                           workerID,
	})

	manager := NewWorkerManager(
		workerID,
		temporalWorker,
		activities.New(store, logger),
		workflows.StepOptions{
			ValidateTimeout: command.Duration("validate-timeout"),
			ProcessTimeout:  command.Duration("process-timeout"),
			StoreTimeout:    command.Duration("store-timeout"),
			MaxAttempts:     int32(command.Int("activity-max-attempts")),
		},
		eventBus,
		logger,
	)

	logger.InfoContext(ctx, "Polling task queue", "task_queue", taskQueue)

	return manager.Start(ctx)
}
