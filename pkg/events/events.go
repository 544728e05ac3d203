// Package events defines the execution lifecycle notifications published by the API.
package events

import (
	"time"
)

type EventType string

// Topic carries every lifecycle event.
const Topic = "stepflow.workflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowStartedEvent  EventType = "workflow.started"
	WorkflowSignaledEvent EventType = "workflow.signaled"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

func NewBaseEvent(id string, eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         id,
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// WorkflowStarted is published once the engine accepted a new execution.
type WorkflowStarted struct {
	BaseEvent

	RunID         string `json:"run_id"`
	WorkflowType  string `json:"workflow_type"`
	UserID        string `json:"user_id"`
	TaskQueue     string `json:"task_queue"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func (w WorkflowStarted) GetType() EventType {
	return WorkflowStartedEvent
}

// WorkflowSignaled is published after a signal was delivered to an execution.
type WorkflowSignaled struct {
	BaseEvent

	SignalName string         `json:"signal_name"`
	Payload    map[string]any `json:"payload,omitempty"`
}

func (w WorkflowSignaled) GetType() EventType {
	return WorkflowSignaledEvent
}

// New returns an empty event value for eventType, ready to be decoded into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case WorkflowStartedEvent:
		return &WorkflowStarted{}, true
	case WorkflowSignaledEvent:
		return &WorkflowSignaled{}, true
	default:
		return nil, false
	}
}
