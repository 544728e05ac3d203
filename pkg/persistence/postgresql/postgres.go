// Package postgresql provides PostgreSQL persistence for stored records.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	"github.com/dukex/stepflow/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence opens the database, checks connectivity and runs migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	err = sqlbase.NewMigrationManager(logger, database, migrations()).RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:     database,
		logger: logger,
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// SaveRecord inserts a record; an existing row with the same id is left untouched.
func (p *Persistence) SaveRecord(ctx context.Context, record *models.StorageRecord) error {
	if record == nil || record.ID == "" {
		return persistence.NewRecordError("SaveRecord", "", persistence.ErrInvalidRecord)
	}

	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", record.ID, err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO storage_records (id, data, stored_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		record.ID, data, record.StoredAt,
	)
	if err != nil {
		return persistence.NewRecordError("SaveRecord", record.ID, err)
	}

	p.logger.DebugContext(ctx, "Stored record", "record_id", record.ID)

	return nil
}

// RecordByID returns a stored record by its id.
func (p *Persistence) RecordByID(ctx context.Context, id string) (*models.StorageRecord, error) {
	var (
		record models.StorageRecord
		data   []byte
	)

	err := p.db.QueryRowContext(ctx,
		"SELECT id, data, stored_at FROM storage_records WHERE id = $1", id,
	).Scan(&record.ID, &data, &record.StoredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("RecordByID", id, persistence.ErrRecordNotFound)
		}

		return nil, persistence.NewRecordError("RecordByID", id, err)
	}

	err = json.Unmarshal(data, &record.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
	}

	return &record, nil
}
