package web

import (
	"time"

	"github.com/dukex/stepflow/pkg/services"
	"github.com/gofiber/fiber/v3"
)

type HealthHandlers struct {
	service string
	health  *services.Health
}

func NewHealthHandlers(service string, health *services.Health) *HealthHandlers {
	return &HealthHandlers{service: service, health: health}
}

// Liveness answers as long as the process serves HTTP.
func (h *HealthHandlers) Liveness(c fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Service:   h.service,
		Timestamp: time.Now().UTC(),
	})
}

// Detailed runs every dependency check and answers 503 when any of them fails.
func (h *HealthHandlers) Detailed(c fiber.Ctx) error {
	statuses, healthy := h.health.Check(c.Context())

	response := DetailedHealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now().UTC(),
		Dependencies: make(map[string]services.DependencyStatus, len(statuses)),
	}

	for _, status := range statuses {
		response.Dependencies[status.Name] = status
	}

	if !healthy {
		response.Status = "unhealthy"

		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}
