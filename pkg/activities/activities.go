// Package activities implements the units of work the simple workflow sequences.
// Clock reads and storage I/O live here, never in workflow code.
package activities

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
)

const errTypeInvalidField = "InvalidFieldType"

// Activities holds the dependencies shared by the activity functions. They keep no
// per-call state, so one value serves every concurrent execution on a worker.
type Activities struct {
	persistence persistence.Persistence
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
}

type Option func(*Activities)

// WithClock overrides the time source used for processed_at and stored_at.
func WithClock(now func() time.Time) Option {
	return func(a *Activities) { a.now = now }
}

// WithIDGenerator overrides how storage ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(a *Activities) { a.newID = newID }
}

func New(store persistence.Persistence, logger *slog.Logger, opts ...Option) *Activities {
	a := &Activities{
		persistence: store,
		logger:      logger.With("module", "activities"),
		now:         time.Now,
		newID:       uuid.NewString,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// ValidateInput reports whether parameters can be processed. Invalid input is a
// result, not an error.
func (a *Activities) ValidateInput(ctx context.Context, parameters map[string]any) (models.ValidationResult, error) {
	a.logger.InfoContext(ctx, "Validating input parameters")

	if len(parameters) == 0 {
		return models.ValidationResult{Valid: false, Message: "No parameters provided"}, nil
	}

	if _, ok := parameters[models.RequiredField]; !ok {
		return models.ValidationResult{Valid: false, Message: "Missing required field"}, nil
	}

	return models.ValidationResult{Valid: true, Message: "Input validation successful"}, nil
}

// ProcessData uppercases required_field and stamps the processing time.
func (a *Activities) ProcessData(ctx context.Context, parameters map[string]any) (models.ProcessingResult, error) {
	a.logger.InfoContext(ctx, "Processing data")

	value := ""

	if raw, ok := parameters[models.RequiredField]; ok {
		str, isString := raw.(string)
		if !isString {
			return models.ProcessingResult{}, temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("%s must be a string, got %T", models.RequiredField, raw),
				errTypeInvalidField,
				nil,
			)
		}

		value = str
	}

	original := make(map[string]any, len(parameters))
	maps.Copy(original, parameters)

	return models.ProcessingResult{
		Processed: true,
		Data: models.ProcessedData{
			Original:       original,
			ProcessedAt:    a.now().UTC().Format(time.RFC3339Nano),
			ProcessedValue: strings.ToUpper(value),
		},
	}, nil
}

// StoreData writes the processed data to the persistence sink under a fresh storage id.
func (a *Activities) StoreData(ctx context.Context, processed models.ProcessingResult) (models.StorageResult, error) {
	a.logger.InfoContext(ctx, "Storing processed data")

	record := &models.StorageRecord{
		ID:       "storage_" + a.newID(),
		Data:     processed.Data,
		StoredAt: a.now().UTC(),
	}

	err := a.persistence.SaveRecord(ctx, record)
	if err != nil {
		return models.StorageResult{}, fmt.Errorf("failed to store data: %w", err)
	}

	return models.StorageResult{
		Stored:    true,
		StorageID: record.ID,
		Message:   "Data stored successfully",
	}, nil
}
