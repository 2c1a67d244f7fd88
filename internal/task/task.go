package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a task.
type Status string

// Possible task status values
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Kind identifies the work a task performs. The engine ships with handlers
// for the enumerated kinds below; KindCustom marks tasks that carry their own
// handler function.
type Kind string

// Built-in task kinds
const (
	KindSignalProcessing Kind = "signal_processing"
	KindAlertGeneration  Kind = "alert_generation"
	KindAnalysis         Kind = "analysis"
	KindNotification     Kind = "notification"
	KindCacheUpdate      Kind = "cache_update"
	KindReportGeneration Kind = "report_generation"
	KindCustom           Kind = "custom"
)

// HandlerFunc executes one attempt of a task. The context carries the
// attempt's deadline; implementations should honor cancellation. The returned
// value becomes the task's result on success.
type HandlerFunc func(ctx context.Context, t *Task) (any, error)

// CompletionFunc receives a task's final outcome: the result on success, or
// the last error once the retry budget is exhausted. It is not invoked for
// intermediate, retryable failures.
type CompletionFunc func(t *Task, result any, err error)

// Task is a unit of work plus its scheduling metadata. The identifying
// fields (ID, Kind, Payload, Priority, Metadata) are fixed at creation;
// Status, Attempts and LastError are owned by the engine afterwards.
//
// Invariant: 0 <= Attempts <= MaxAttempts once the engine has applied its
// defaults at enqueue.
type Task struct {
	// ID is the task's unique identifier, generated at creation.
	ID uuid.UUID `json:"id"`

	// Kind selects the handler that executes the task.
	Kind Kind `json:"kind"`

	// Payload carries the task-specific data serialized as JSON.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Priority is the level whose queue holds the task.
	Priority Priority `json:"priority"`

	// Metadata carries arbitrary caller-supplied key/value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`

	// MaxAttempts bounds the number of execution attempts. Zero means the
	// engine's configured default applies.
	MaxAttempts int `json:"max_attempts,omitempty"`

	// Timeout bounds a single execution attempt. Zero means the engine's
	// configured default applies.
	Timeout time.Duration `json:"timeout,omitempty"`

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"created_at"`

	// Status is the task's current lifecycle state.
	Status Status `json:"status"`

	// Attempts counts execution attempts started so far.
	Attempts int `json:"attempts"`

	// LastError records the most recent execution failure, if any.
	LastError string `json:"last_error,omitempty"`

	// Handler is the escape hatch for kinds without a registered handler.
	Handler HandlerFunc `json:"-"`

	// OnComplete, if set, is invoked exactly once with the final outcome.
	OnComplete CompletionFunc `json:"-"`
}

// Option customizes a task at creation.
type Option func(*Task)

// WithPriority sets the task's priority level.
func WithPriority(p Priority) Option {
	return func(t *Task) { t.Priority = p }
}

// WithMaxAttempts overrides the engine's default retry budget.
func WithMaxAttempts(n int) Option {
	return func(t *Task) { t.MaxAttempts = n }
}

// WithTimeout overrides the engine's default per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Task) { t.Timeout = d }
}

// WithMetadata attaches caller-supplied metadata to the task.
func WithMetadata(md map[string]string) Option {
	return func(t *Task) { t.Metadata = md }
}

// WithHandler attaches a handler function for kinds that have no registered
// handler, typically KindCustom.
func WithHandler(fn HandlerFunc) Option {
	return func(t *Task) { t.Handler = fn }
}

// WithOnComplete attaches a completion callback receiving the final outcome.
func WithOnComplete(fn CompletionFunc) Option {
	return func(t *Task) { t.OnComplete = fn }
}

// New creates a pending task of the given kind. Priority defaults to MEDIUM
// unless WithPriority overrides it.
func New(kind Kind, payload json.RawMessage, opts ...Option) *Task {
	t := &Task{
		ID:        uuid.New(),
		Kind:      kind,
		Payload:   payload,
		Priority:  PriorityMedium,
		CreatedAt: time.Now(),
		Status:    StatusPending,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Validate checks the fields a producer controls. Handler resolution is
// deliberately not checked here: a task whose kind cannot be resolved fails
// at execution time and passes through the retry path.
func (t *Task) Validate() error {
	if t.Kind == "" {
		return ErrMissingKind
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

// UnmarshalPayload decodes the task payload into the provided structure.
func (t *Task) UnmarshalPayload(v any) error {
	return json.Unmarshal(t.Payload, v)
}
