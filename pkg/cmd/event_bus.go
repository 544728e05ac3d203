package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/stepflow/pkg/channels/gochannel"
	"github.com/dukex/stepflow/pkg/channels/kafka"
	"github.com/dukex/stepflow/pkg/eventbus"
)

// ErrInProcessEventBus is returned when a bus that only delivers inside one process is asked to
// carry events between the API and the worker.
var ErrInProcessEventBus = errors.New("event bus provider only delivers within one process")

// IsInProcessEventBus reports whether provider delivers events only to subscribers in the same process.
func IsInProcessEventBus(provider string) bool {
	return provider == "gochannel" || provider == ""
}

// NewAuditEventBus builds the bus a worker audits lifecycle events from. An empty provider disables
// the audit and returns a nil bus. In-process providers are rejected since the API publishes from
// another process.
func NewAuditEventBus(provider string, brokers []string, serviceName string, logger *slog.Logger) (eventbus.EventBus, error) {
	if provider == "" {
		return nil, nil
	}

	if IsInProcessEventBus(provider) {
		return nil, fmt.Errorf("%w: %s (use kafka or leave empty)", ErrInProcessEventBus, provider)
	}

	return NewEventBus(provider, brokers, serviceName, false, logger)
}

// NewEventBus builds the lifecycle event bus. provider is "gochannel" (in-process) or "kafka".
func NewEventBus(provider string, brokers []string, serviceName string, otelEnabled bool, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "gochannel", "":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, err
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, brokers, serviceName, otelEnabled)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
