// Package registry maps workflow type names accepted by the API to their definitions.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrUnknownWorkflowType indicates a start request named a type nothing is registered for.
	ErrUnknownWorkflowType = errors.New("unknown workflow type")

	// ErrInvalidInput indicates input data failed the workflow type's schema.
	ErrInvalidInput = errors.New("invalid workflow input")
)

// Definition describes a workflow type that can be started.
type Definition struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	TaskQueue   string         `json:"task_queue,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

type Registry struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	definitions map[string]Definition
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:      log,
		definitions: make(map[string]Definition),
	}
}

// Register adds or replaces a definition.
func (r *Registry) Register(definition Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.definitions[definition.Type] = definition
	r.logger.Debug("Registered workflow type", "workflow_type", definition.Type)
}

// Lookup returns the definition registered for workflowType.
func (r *Registry) Lookup(workflowType string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definition, ok := r.definitions[workflowType]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownWorkflowType, workflowType)
	}

	return definition, nil
}

// Definitions returns every registered definition ordered by type.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definitions := make([]Definition, 0, len(r.definitions))
	for _, definition := range r.definitions {
		definitions = append(definitions, definition)
	}

	slices.SortFunc(definitions, func(a, b Definition) int {
		return strings.Compare(a.Type, b.Type)
	})

	return definitions
}

// ValidateInput checks input against the type's input schema, if it has one.
func (r *Registry) ValidateInput(workflowType string, input map[string]any) error {
	definition, err := r.Lookup(workflowType)
	if err != nil {
		return err
	}

	if definition.InputSchema == nil {
		return nil
	}

	if input == nil {
		input = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(definition.InputSchema),
		gojsonschema.NewGoLoader(input),
	)
	if err != nil {
		return fmt.Errorf("failed to validate input for %s: %w", workflowType, err)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(messages, "; "))
	}

	return nil
}
