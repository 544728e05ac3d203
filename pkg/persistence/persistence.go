// Package persistence provides the storage sink the store activity writes processed data to.
package persistence

import (
	"context"

	"github.com/dukex/stepflow/pkg/models"
)

type Persistence interface {
	// SaveRecord writes a record. Saving the same ID twice keeps the first write.
	SaveRecord(ctx context.Context, record *models.StorageRecord) error
	RecordByID(ctx context.Context, id string) (*models.StorageRecord, error)
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
