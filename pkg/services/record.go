package services

import (
	"context"
	"strings"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/otelhelper"
	"github.com/dukex/stepflow/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Record reads what the store activity wrote to the shared persistence sink.
type Record struct {
	persistence persistence.Persistence
	tracer      trace.Tracer
}

// NewRecord creates a record service. A nil persistence makes every lookup fail with ErrRecordsUnavailable.
func NewRecord(persistence persistence.Persistence, tracer trace.Tracer) *Record {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Record{persistence: persistence, tracer: tracer}
}

func (r *Record) FetchByID(ctx context.Context, id string) (*models.StorageRecord, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "services.record.fetch",
		attribute.String(otelhelper.RecordIDKey, id),
	)
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return nil, NewValidationError("fetch_record", CodeValidation, ErrEmptyRecordID.Error(), ErrEmptyRecordID)
	}

	if r.persistence == nil {
		return nil, ErrRecordsUnavailable
	}

	record, err := r.persistence.RecordByID(ctx, id)
	if err != nil {
		if !persistence.IsRecordNotFound(err) {
			otelhelper.SetError(span, err)
		}

		return nil, err
	}

	return record, nil
}
