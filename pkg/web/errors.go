package web

import (
	"errors"

	"github.com/dukex/stepflow/pkg/engine"
	"github.com/dukex/stepflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// Error codes of the response envelope that do not come from the service layer.
const (
	codeInvalidJSON     = "invalid_json"
	codeNotFound        = "not_found"
	codeConflict        = "conflict"
	codeUnavailable     = "unavailable"
	codeTimeout         = "timeout"
	codeExecutionFailed = "execution_failed"
	codeInternal        = "internal_error"
)

func problem(c fiber.Ctx, status int, code, message string, details any) error {
	response := ErrorResponse{
		DefaultProblem: problems.NewStatusProblem(status).
			WithInstance(c.Path()).
			WithType(code).
			WithDetail(message),
		Error:   code,
		Message: message,
		Details: details,
	}

	return c.Status(status).JSON(response)
}

func badRequest(c fiber.Ctx, message string) error {
	return problem(c, fiber.StatusBadRequest, codeInvalidJSON, message, nil)
}

// invalidRequest reports validator failures field by field.
func invalidRequest(c fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return problem(c, fiber.StatusUnprocessableEntity, services.CodeValidation, err.Error(), nil)
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, FieldError{Field: fieldErr.Field(), Rule: fieldErr.Tag()})
	}

	return problem(c, fiber.StatusUnprocessableEntity, services.CodeValidation, "Request validation failed", fields)
}

// handleServiceError maps service and engine errors to their HTTP status.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return problem(c, fiber.StatusUnprocessableEntity, services.CodeOf(err), err.Error(), nil)

	case errors.Is(err, services.ErrRecordNotFound):
		return problem(c, fiber.StatusNotFound, codeNotFound, "record not found", nil)

	case errors.Is(err, services.ErrRecordsUnavailable):
		return problem(c, fiber.StatusServiceUnavailable, codeUnavailable, err.Error(), nil)
	}

	switch engine.KindOf(err) {
	case engine.KindNotFound:
		return problem(c, fiber.StatusNotFound, codeNotFound, "workflow not found", nil)
	case engine.KindConflict:
		return problem(c, fiber.StatusConflict, codeConflict, err.Error(), nil)
	case engine.KindUnavailable:
		return problem(c, fiber.StatusServiceUnavailable, codeUnavailable, "workflow engine is unavailable", err.Error())
	case engine.KindTimeout:
		return problem(c, fiber.StatusGatewayTimeout, codeTimeout, "workflow engine did not answer in time", err.Error())
	case engine.KindFailed:
		return problem(c, fiber.StatusInternalServerError, codeExecutionFailed, "workflow execution failed", err.Error())
	default:
		return problem(c, fiber.StatusInternalServerError, codeInternal, "internal error", err.Error())
	}
}
