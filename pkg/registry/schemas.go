package registry

import (
	"log/slog"

	"github.com/dukex/stepflow/pkg/models"
)

// simpleInputSchema only constrains the type of required_field. Presence is left
// to the workflow's own validation step so that it reports a business failure.
func simpleInputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			models.RequiredField: map[string]any{
				"type":        "string",
				"description": "Value the workflow uppercases",
			},
		},
	}
}

// Default returns a registry holding every workflow type the worker registers.
func Default(log *slog.Logger, taskQueue string) *Registry {
	reg := NewRegistry(log)

	reg.Register(Definition{
		Type:        models.WorkflowTypeSimple,
		Description: "Validates, processes and stores the input parameters",
		TaskQueue:   taskQueue,
		InputSchema: simpleInputSchema(),
	})

	return reg
}
