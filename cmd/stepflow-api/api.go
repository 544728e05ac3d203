// Package main provides the Stepflow API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dukex/stepflow/pkg/services"
	"github.com/dukex/stepflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

const shutdownTimeout = 10 * time.Second

type API struct {
	logger          *slog.Logger
	workflowService *services.Workflow
	recordService   *services.Record
	health          *services.Health
	corsOrigins     []string
	validate        *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	workflowService *services.Workflow,
	recordService *services.Record,
	health *services.Health,
	corsOrigins []string,
) *API {
	return &API{
		logger:          logger,
		workflowService: workflowService,
		recordService:   recordService,
		health:          health,
		corsOrigins:     corsOrigins,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.workflowService, a.recordService, a.validate, a.logger)
	healthHandlers := web.NewHealthHandlers(serviceName, a.health)

	app := fiber.New()

	corsConfig := cors.Config{}
	if len(a.corsOrigins) > 0 {
		corsConfig.AllowOrigins = a.corsOrigins
	}

	app.Use(cors.New(corsConfig))
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Stepflow API")
	})

	h := app.Group("/health")
	h.Get("/", healthHandlers.Liveness)
	h.Get("/detailed", healthHandlers.Detailed)

	w := app.Group("/workflows")
	w.Get("/types", handlers.GetWorkflowTypes)
	w.Post("/start", handlers.StartWorkflow)
	w.Get("/:id/status", handlers.GetWorkflowStatus)
	w.Post("/:id/signal", handlers.SignalWorkflow)
	w.Get("/:id/result", handlers.GetWorkflowResult)

	app.Get("/records/:id", handlers.GetRecord)

	return app
}

// Start serves until ctx is done, then shuts the server down gracefully.
func (a *API) Start(ctx context.Context, address string) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		a.logger.Info("Shutting down API server")

		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			a.logger.Error("Failed to shutdown API server", "error", err)
		}
	}()

	a.logger.InfoContext(ctx, "Starting API server", "address", address)

	err := app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
