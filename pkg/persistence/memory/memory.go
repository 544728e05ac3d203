// Package memory provides an in-process persistence implementation for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
)

// Persistence keeps records in a map guarded by a mutex.
type Persistence struct {
	mu      sync.RWMutex
	records map[string]models.StorageRecord
}

func NewPersistence() *Persistence {
	return &Persistence{records: make(map[string]models.StorageRecord)}
}

func (p *Persistence) SaveRecord(_ context.Context, record *models.StorageRecord) error {
	if record == nil || record.ID == "" {
		return persistence.NewRecordError("SaveRecord", "", persistence.ErrInvalidRecord)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.records[record.ID]; !exists {
		p.records[record.ID] = *record
	}

	return nil
}

func (p *Persistence) RecordByID(_ context.Context, id string) (*models.StorageRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	record, ok := p.records[id]
	if !ok {
		return nil, persistence.NewRecordError("RecordByID", id, persistence.ErrRecordNotFound)
	}

	return &record, nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// Len returns the number of stored records.
func (p *Persistence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.records)
}
