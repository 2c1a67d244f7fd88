package api

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/config"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/engine"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/service"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// Common request/response structures. Durations cross the wire as _ms integer
// fields; priorities as level names (CRITICAL, HIGH, MEDIUM, LOW, BATCH).

// TokenRequest defines the payload for the token endpoint.
type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=1"`
}

// TokenResponse defines the successful response for the token endpoint.
type TokenResponse struct {
	// Token is the JWT used for API authorization
	Token string `json:"token"`

	// ExpiresAt is when the token stops being accepted
	ExpiresAt time.Time `json:"expires_at"`
}

// TaskSubmission describes one task to enqueue. It is the payload of the
// single submission endpoint and the element type of batch submissions.
type TaskSubmission struct {
	Kind    string          `json:"kind"              validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Priority is a level name; tasks default to MEDIUM when omitted.
	Priority string `json:"priority,omitempty"`

	// MaxAttempts and TimeoutMs override the engine defaults when positive.
	MaxAttempts int   `json:"max_attempts,omitempty" validate:"omitempty,gte=1"`
	TimeoutMs   int64 `json:"timeout_ms,omitempty"   validate:"omitempty,gte=1"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// options translates the submission's optional fields into task options.
// An unknown priority name is the only way this fails.
func (s TaskSubmission) options() ([]task.Option, error) {
	var opts []task.Option
	if s.Priority != "" {
		level, err := task.ParsePriority(s.Priority)
		if err != nil {
			return nil, err
		}
		opts = append(opts, task.WithPriority(level))
	}
	if s.MaxAttempts > 0 {
		opts = append(opts, task.WithMaxAttempts(s.MaxAttempts))
	}
	if s.TimeoutMs > 0 {
		opts = append(opts, task.WithTimeout(time.Duration(s.TimeoutMs)*time.Millisecond))
	}
	if len(s.Metadata) > 0 {
		opts = append(opts, task.WithMetadata(s.Metadata))
	}
	return opts, nil
}

// SubmitResponse acknowledges one accepted task.
type SubmitResponse struct {
	TaskID uuid.UUID `json:"task_id"`
	Status string    `json:"status"`
}

// BatchSubmitRequest defines the payload for bulk task submission. Items are
// validated individually; a bad item is reported by index without failing
// the rest.
type BatchSubmitRequest struct {
	Tasks []TaskSubmission `json:"tasks" validate:"required,min=1,max=1000"`
}

// BatchItemError reports one rejected batch item.
type BatchItemError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// BatchSubmitResponse summarizes a bulk submission.
type BatchSubmitResponse struct {
	Added   int              `json:"added"`
	Failed  int              `json:"failed"`
	TaskIDs []uuid.UUID      `json:"task_ids"`
	Errors  []BatchItemError `json:"errors,omitempty"`
}

// newBatchSubmitResponse merges the engine's result with items the handler
// rejected before submission. indexOf maps submitted positions back to the
// request's positions so every reported index is the caller's.
func newBatchSubmitResponse(res engine.BatchResult, indexOf []int, rejected []BatchItemError) BatchSubmitResponse {
	out := BatchSubmitResponse{
		Added:   res.Added,
		Failed:  res.Failed + len(rejected),
		TaskIDs: res.TaskIDs,
		Errors:  rejected,
	}
	if out.TaskIDs == nil {
		out.TaskIDs = []uuid.UUID{}
	}
	for _, be := range res.Errors {
		idx := be.Index
		if idx >= 0 && idx < len(indexOf) {
			idx = indexOf[idx]
		}
		out.Errors = append(out.Errors, BatchItemError{
			Index: idx,
			Error: be.Err.Error(),
		})
	}
	sort.Slice(out.Errors, func(i, j int) bool { return out.Errors[i].Index < out.Errors[j].Index })
	return out
}

// CreateScheduleRequest defines the payload for registering a cron schedule.
type CreateScheduleRequest struct {
	Name string `json:"name" validate:"required"`

	// Spec is a six-field cron expression (seconds first) or an @every
	// descriptor.
	Spec string `json:"spec" validate:"required"`

	Kind    string          `json:"kind" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Priority is a level name; spawned tasks default to MEDIUM when omitted.
	Priority string `json:"priority,omitempty"`

	MaxAttempts int   `json:"max_attempts,omitempty" validate:"omitempty,gte=1"`
	TimeoutMs   int64 `json:"timeout_ms,omitempty"   validate:"omitempty,gte=1"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// toSchedule translates the request into a schedule template.
func (r CreateScheduleRequest) toSchedule() (service.Schedule, error) {
	level := task.PriorityMedium
	if r.Priority != "" {
		parsed, err := task.ParsePriority(r.Priority)
		if err != nil {
			return service.Schedule{}, err
		}
		level = parsed
	}

	return service.Schedule{
		Name:        r.Name,
		Spec:        r.Spec,
		Kind:        task.Kind(r.Kind),
		Payload:     r.Payload,
		Priority:    level,
		MaxAttempts: r.MaxAttempts,
		Timeout:     time.Duration(r.TimeoutMs) * time.Millisecond,
		Metadata:    r.Metadata,
	}, nil
}

// SchedulesResponse lists registered schedules.
type SchedulesResponse struct {
	Schedules []service.ScheduleInfo `json:"schedules"`
}

// ConfigPatchRequest carries runtime tuning changes. Only the fields present
// in the request are applied; pool sizes are fixed per engine instance and
// therefore absent here.
type ConfigPatchRequest struct {
	QueueMaxSize        *int   `json:"queue_max_size,omitempty"`
	WorkerTimeoutMs     *int64 `json:"worker_timeout_ms,omitempty"`
	MaxBatchSize        *int   `json:"max_batch_size,omitempty"`
	BatchTimeoutMs      *int64 `json:"batch_timeout_ms,omitempty"`
	TickIntervalMs      *int64 `json:"tick_interval_ms,omitempty"`
	BatchTickIntervalMs *int64 `json:"batch_tick_interval_ms,omitempty"`
	RetryAttempts       *int   `json:"retry_attempts,omitempty"`
	RetryDelayMs        *int64 `json:"retry_delay_ms,omitempty"`
	MonitorIntervalMs   *int64 `json:"monitor_interval_ms,omitempty"`
	MetricsIntervalMs   *int64 `json:"metrics_interval_ms,omitempty"`

	AlertQueueSize        *int     `json:"alert_queue_size,omitempty"`
	AlertProcessingTimeMs *int64   `json:"alert_processing_time_ms,omitempty"`
	AlertErrorRate        *float64 `json:"alert_error_rate,omitempty"`
}

func (r ConfigPatchRequest) toPatch() config.EnginePatch {
	return config.EnginePatch{
		QueueMaxSize:      r.QueueMaxSize,
		WorkerTimeout:     msToDuration(r.WorkerTimeoutMs),
		MaxBatchSize:      r.MaxBatchSize,
		BatchTimeout:      msToDuration(r.BatchTimeoutMs),
		TickInterval:      msToDuration(r.TickIntervalMs),
		BatchTickInterval: msToDuration(r.BatchTickIntervalMs),
		RetryAttempts:     r.RetryAttempts,
		RetryDelay:        msToDuration(r.RetryDelayMs),
		MonitorInterval:   msToDuration(r.MonitorIntervalMs),
		MetricsInterval:   msToDuration(r.MetricsIntervalMs),

		AlertQueueSize:      r.AlertQueueSize,
		AlertProcessingTime: msToDuration(r.AlertProcessingTimeMs),
		AlertErrorRate:      r.AlertErrorRate,
	}
}

func msToDuration(ms *int64) *time.Duration {
	if ms == nil {
		return nil
	}
	d := time.Duration(*ms) * time.Millisecond
	return &d
}

// AlertThresholdsView is the API representation of the alert thresholds.
type AlertThresholdsView struct {
	QueueSize        int     `json:"queue_size"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	ErrorRate        float64 `json:"error_rate"`
}

// EngineConfigView is the API representation of the engine configuration.
type EngineConfigView struct {
	QueueMaxSize        int                 `json:"queue_max_size"`
	WorkerCount         int                 `json:"worker_count"`
	WorkerTimeoutMs     int64               `json:"worker_timeout_ms"`
	MaxBatchSize        int                 `json:"max_batch_size"`
	ParallelBatches     int                 `json:"parallel_batches"`
	BatchTimeoutMs      int64               `json:"batch_timeout_ms"`
	TickIntervalMs      int64               `json:"tick_interval_ms"`
	BatchTickIntervalMs int64               `json:"batch_tick_interval_ms"`
	RetryAttempts       int                 `json:"retry_attempts"`
	RetryDelayMs        int64               `json:"retry_delay_ms"`
	MonitorIntervalMs   int64               `json:"monitor_interval_ms"`
	MetricsIntervalMs   int64               `json:"metrics_interval_ms"`
	Alerts              AlertThresholdsView `json:"alerts"`
}

func newEngineConfigView(cfg config.EngineConfig) EngineConfigView {
	return EngineConfigView{
		QueueMaxSize:        cfg.QueueMaxSize,
		WorkerCount:         cfg.WorkerCount,
		WorkerTimeoutMs:     cfg.WorkerTimeout.Milliseconds(),
		MaxBatchSize:        cfg.MaxBatchSize,
		ParallelBatches:     cfg.ParallelBatches,
		BatchTimeoutMs:      cfg.BatchTimeout.Milliseconds(),
		TickIntervalMs:      cfg.TickInterval.Milliseconds(),
		BatchTickIntervalMs: cfg.BatchTickInterval.Milliseconds(),
		RetryAttempts:       cfg.RetryAttempts,
		RetryDelayMs:        cfg.RetryDelay.Milliseconds(),
		MonitorIntervalMs:   cfg.MonitorInterval.Milliseconds(),
		MetricsIntervalMs:   cfg.MetricsInterval.Milliseconds(),
		Alerts: AlertThresholdsView{
			QueueSize:        cfg.Alerts.QueueSize,
			ProcessingTimeMs: cfg.Alerts.ProcessingTime.Milliseconds(),
			ErrorRate:        cfg.Alerts.ErrorRate,
		},
	}
}

// QueuesResponse lists every priority queue's status.
type QueuesResponse struct {
	Queues []engine.QueueStatus `json:"queues"`
}

// WorkersResponse lists every worker slot's status.
type WorkersResponse struct {
	Workers []engine.WorkerStatus `json:"workers"`
}

// BatchProcessorsResponse lists every batch processor slot's status.
type BatchProcessorsResponse struct {
	BatchProcessors []engine.BatchProcessorStatus `json:"batch_processors"`
}

// ClearQueueResponse reports how many queued tasks a clear removed.
type ClearQueueResponse struct {
	// Level is empty when every queue was cleared.
	Level   string `json:"level,omitempty"`
	Cleared int    `json:"cleared"`
}

// HealthResponse reports process liveness and engine state.
type HealthResponse struct {
	Status string    `json:"status"`
	Engine string    `json:"engine"`
	Time   time.Time `json:"time"`
}
