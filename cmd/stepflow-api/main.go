package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dukex/stepflow/pkg/cmd"
	"github.com/dukex/stepflow/pkg/engine"
	"github.com/dukex/stepflow/pkg/eventbus"
	"github.com/dukex/stepflow/pkg/log"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/otelhelper"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/dukex/stepflow/pkg/registry"
	"github.com/dukex/stepflow/pkg/services"
	cli "github.com/urfave/cli/v3"
)

const (
	serviceName = "stepflow-api"
	defaultPort = 8000
)

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Start, signal and inspect workflow executions over HTTP",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Usage:   "Host to bind the API server to",
				Value:   "0.0.0.0",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
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
				Usage:   "Task queue workflows are started on",
				Value:   models.DefaultTaskQueue,
				Sources: cli.EnvVars("TASK_QUEUE"),
			},
			&cli.DurationFlag{
				Name:    "result-timeout",
				Usage:   "How long the result endpoint waits for an execution to finish",
				Value:   services.DefaultResultTimeout,
				Sources: cli.EnvVars("RESULT_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Persistence URL of the record sink the worker writes to (enables /records)",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Lifecycle event bus (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringSliceFlag{
				Name:    "kafka-brokers",
				Usage:   "Kafka brokers used when the event bus is kafka",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringSliceFlag{
				Name:    "cors-allow-origins",
				Usage:   "Origins allowed by CORS",
				Value:   []string{"*"},
				Sources: cli.EnvVars("CORS_ALLOW_ORIGINS"),
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
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
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

	logger := log.WithModule("api")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Initializing Stepflow API")

	tracer, shutdownTracer, err := otelhelper.NewTracer(ctx, serviceName, command.Bool("otel-enabled"))
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
			logger.ErrorContext(ctx, "Failed to shutdown tracer", "error", err)
		}
	}()

	connection := engine.NewConnection(engine.TemporalDialer(engine.TemporalConfig{
		Address:   command.String("temporal-address"),
		Namespace: command.String("temporal-namespace"),
		Identity:  serviceName,
	}, logger))
	defer connection.Close()

	health := services.NewHealth(services.DefaultHealthTimeout)
	health.Register("temporal", connection.CheckHealth)

	var store persistence.Persistence

	if databaseURL := command.String("database-url"); databaseURL != "" {
		store, err = cmd.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return err
		}

		defer func() {
			if err := store.Close(context.WithoutCancel(ctx)); err != nil {
				logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
			}
		}()

		health.Register("persistence", store.HealthCheck)
	}

	eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.StringSlice("kafka-brokers"), serviceName, command.Bool("otel-enabled"), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	if provider := command.String("event-bus"); cmd.IsInProcessEventBus(provider) {
		if err := auditLifecycle(ctx, eventBus, logger); err != nil {
			return err
		}
	}

	workflowService := services.NewWorkflow(
		connection,
		registry.Default(logger, command.String("task-queue")),
		logger,
		services.WithEventPublisher(eventBus),
		services.WithTracer(tracer),
		services.WithResultTimeout(command.Duration("result-timeout")),
	)

	api := NewAPI(
		logger,
		workflowService,
		services.NewRecord(store, tracer),
		health,
		command.StringSlice("cors-allow-origins"),
	)

	address := net.JoinHostPort(command.String("host"), strconv.Itoa(command.Int("port")))

	return api.Start(ctx, address)
}

// auditLifecycle logs lifecycle events in this process. Workers never see an in-process bus.
func auditLifecycle(ctx context.Context, bus eventbus.EventBus, logger *slog.Logger) error {
	err := eventbus.NewLifecycleAudit(logger).Register(bus)
	if err != nil {
		return err
	}

	return bus.Subscribe(ctx)
}
