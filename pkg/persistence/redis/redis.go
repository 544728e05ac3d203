// Package redis provides Redis persistence for stored records.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "stepflow:records:"

// Persistence stores each record as a JSON string under keyPrefix+id.
type Persistence struct {
	client redis.UniversalClient
	logger *slog.Logger
	ttl    time.Duration
}

// NewPersistence connects using a redis:// or rediss:// URL. A zero ttl keeps records forever.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string, ttl time.Duration) (*Persistence, error) {
	options, err := redis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return NewPersistenceWithClient(client, logger, ttl), nil
}

// NewPersistenceWithClient wraps an existing client.
func NewPersistenceWithClient(client redis.UniversalClient, logger *slog.Logger, ttl time.Duration) *Persistence {
	return &Persistence{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

func (p *Persistence) SaveRecord(ctx context.Context, record *models.StorageRecord) error {
	if record == nil || record.ID == "" {
		return persistence.NewRecordError("SaveRecord", "", persistence.ErrInvalidRecord)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", record.ID, err)
	}

	created, err := p.client.SetNX(ctx, keyPrefix+record.ID, payload, p.ttl).Result()
	if err != nil {
		return persistence.NewRecordError("SaveRecord", record.ID, err)
	}

	if !created {
		p.logger.DebugContext(ctx, "Record already stored", "record_id", record.ID)
	}

	return nil
}

func (p *Persistence) RecordByID(ctx context.Context, id string) (*models.StorageRecord, error) {
	payload, err := p.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewRecordError("RecordByID", id, persistence.ErrRecordNotFound)
		}

		return nil, persistence.NewRecordError("RecordByID", id, err)
	}

	var record models.StorageRecord

	err = json.Unmarshal(payload, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
	}

	return &record, nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}
