// Package file provides file-based persistence, one JSON document per stored record.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root string
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// SaveRecord writes the record to <root>/records/<id>.json unless it already exists.
func (fp *Persistence) SaveRecord(_ context.Context, record *models.StorageRecord) error {
	if record == nil || record.ID == "" || strings.ContainsAny(record.ID, `/\`) {
		return persistence.NewRecordError("SaveRecord", "", persistence.ErrInvalidRecord)
	}

	err := os.MkdirAll(path.Join(fp.root, "records"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create records directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", record.ID, err)
	}

	file, err := os.OpenFile(fp.recordPath(record.ID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}

		return persistence.NewRecordError("SaveRecord", record.ID, err)
	}

	_, err = file.Write(data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return persistence.NewRecordError("SaveRecord", record.ID, err)
	}

	return nil
}

// RecordByID reads a record back from disk.
func (fp *Persistence) RecordByID(_ context.Context, id string) (*models.StorageRecord, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, persistence.NewRecordError("RecordByID", id, persistence.ErrRecordNotFound)
	}

	body, err := os.ReadFile(fp.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewRecordError("RecordByID", id, persistence.ErrRecordNotFound)
		}

		return nil, fmt.Errorf("failed to fetch record %s: %w", id, err)
	}

	var record models.StorageRecord

	err = json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
	}

	return &record, nil
}

func (fp *Persistence) recordPath(id string) string {
	return filepath.Clean(path.Join(fp.root, "records", id+".json"))
}
