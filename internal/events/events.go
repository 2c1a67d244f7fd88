package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of engine occurrence being published.
type EventType string

const (
	// EventTaskAdded is published when a task is accepted into a queue.
	EventTaskAdded EventType = "task_added"

	// EventTaskCompleted is published when a task finishes successfully.
	EventTaskCompleted EventType = "task_completed"

	// EventTaskFailed is published when a task fails with no retries
	// remaining. Retryable attempt failures do not produce events.
	EventTaskFailed EventType = "task_failed"

	// EventAlert is published when a performance metric crosses its
	// configured threshold.
	EventAlert EventType = "alert"
)

// Alert describes a threshold violation detected during a metrics sweep.
type Alert struct {
	// Metric names the violated measurement: queue_size, processing_time
	// or error_rate.
	Metric string `json:"metric"`

	// Queue is the priority level name for queue_size alerts, empty for
	// engine-wide metrics.
	Queue string `json:"queue,omitempty"`

	// Value is the observed measurement at sweep time.
	Value float64 `json:"value"`

	// Threshold is the configured limit that Value exceeded.
	Threshold float64 `json:"threshold"`

	// Message is a human-readable description of the violation.
	Message string `json:"message"`
}

// Event represents a single engine occurrence. Task attributes are carried
// as plain values rather than task types, so handlers can subscribe without
// a direct dependency on the task package.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates which occurrence this event describes
	Type EventType `json:"type"`

	// TaskID identifies the task for task lifecycle events
	TaskID uuid.UUID `json:"task_id,omitempty"`

	// TaskKind is the kind of the task for task lifecycle events
	TaskKind string `json:"task_kind,omitempty"`

	// Priority is the queue level name the task was scheduled at
	Priority string `json:"priority,omitempty"`

	// Attempts is the number of executions the task consumed
	Attempts int `json:"attempts,omitempty"`

	// Result holds the handler result for task_completed events
	Result any `json:"result,omitempty"`

	// Error holds the final error message for task_failed events
	Error string `json:"error,omitempty"`

	// Alert holds the violation details for alert events
	Alert *Alert `json:"alert,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTaskAdded creates an event recording that a task entered a queue.
func NewTaskAdded(taskID uuid.UUID, kind, priority string) *Event {
	return &Event{
		ID:        uuid.New(),
		Type:      EventTaskAdded,
		TaskID:    taskID,
		TaskKind:  kind,
		Priority:  priority,
		CreatedAt: time.Now(),
	}
}

// NewTaskCompleted creates an event recording a successful task settle.
func NewTaskCompleted(taskID uuid.UUID, kind, priority string, attempts int, result any) *Event {
	return &Event{
		ID:        uuid.New(),
		Type:      EventTaskCompleted,
		TaskID:    taskID,
		TaskKind:  kind,
		Priority:  priority,
		Attempts:  attempts,
		Result:    result,
		CreatedAt: time.Now(),
	}
}

// NewTaskFailed creates an event recording a final, non-retryable failure.
func NewTaskFailed(taskID uuid.UUID, kind, priority string, attempts int, taskErr error) *Event {
	e := &Event{
		ID:        uuid.New(),
		Type:      EventTaskFailed,
		TaskID:    taskID,
		TaskKind:  kind,
		Priority:  priority,
		Attempts:  attempts,
		CreatedAt: time.Now(),
	}
	if taskErr != nil {
		e.Error = taskErr.Error()
	}
	return e
}

// NewAlert creates an event carrying a metric threshold violation.
func NewAlert(alert Alert) *Event {
	return &Event{
		ID:        uuid.New(),
		Type:      EventAlert,
		Alert:     &alert,
		CreatedAt: time.Now(),
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventHandlerFunc adapts an ordinary function to the EventHandler interface.
type EventHandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the engine to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}
