package web

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/stepflow/pkg/engine"
	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	recordService   *services.Record
	validator       *validator.Validate
	logger          *slog.Logger
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	recordService *services.Record,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		recordService:   recordService,
		validator:       validator,
		logger:          logger,
	}
}

func (h *APIHandlers) StartWorkflow(c fiber.Ctx) error {
	var req StartWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return invalidRequest(c, err)
	}

	started, err := h.workflowService.Start(c.Context(), services.StartRequest{
		WorkflowType:   req.WorkflowType,
		UserID:         req.UserID,
		InputData:      req.InputData,
		CorrelationID:  c.Get(HeaderCorrelationID),
		IdempotencyKey: c.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(StartWorkflowResponse{
		WorkflowID: started.WorkflowID,
		RunID:      started.RunID,
		Status:     StatusStarted,
		Message:    fmt.Sprintf("Workflow %s started successfully", started.WorkflowType),
		CreatedAt:  started.CreatedAt,
	})
}

func (h *APIHandlers) GetWorkflowStatus(c fiber.Ctx) error {
	description, err := h.workflowService.Status(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(WorkflowStatusResponse{
		WorkflowID:   description.WorkflowID,
		RunID:        description.RunID,
		WorkflowType: description.WorkflowType,
		Status:       string(description.Status),
		Message:      statusMessage(description.Status),
		CreatedAt:    description.StartTime,
		ClosedAt:     description.CloseTime,
	})
}

// SignalWorkflow accepts any JSON object as the signal payload. The signal name
// comes from the "name" query parameter.
func (h *APIHandlers) SignalWorkflow(c fiber.Ctx) error {
	payload := map[string]any{}

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&payload); err != nil {
			return badRequest(c, "Signal payload must be a JSON object")
		}
	}

	id := c.Params("id")
	name := c.Query("name")

	if err := h.workflowService.Signal(c.Context(), id, name, payload); err != nil {
		return handleServiceError(c, err)
	}

	if name == "" {
		name = models.DefaultSignalName
	}

	return c.JSON(SignalWorkflowResponse{
		Message: fmt.Sprintf("Signal %s sent to workflow %s", name, id),
	})
}

func (h *APIHandlers) GetWorkflowResult(c fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.workflowService.Result(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(WorkflowResultResponse{
		WorkflowID: id,
		Result:     result,
		Status:     StatusCompleted,
	})
}

func (h *APIHandlers) GetWorkflowTypes(c fiber.Ctx) error {
	return c.JSON(WorkflowTypesResponse{Types: h.workflowService.Types()})
}

func (h *APIHandlers) GetRecord(c fiber.Ctx) error {
	record, err := h.recordService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(record)
}

func statusMessage(status engine.Status) string {
	switch status {
	case engine.StatusRunning:
		return "Workflow is running"
	case engine.StatusCompleted:
		return "Workflow completed"
	default:
		return "Workflow is " + strings.ToLower(strings.ReplaceAll(string(status), "_", " "))
	}
}
