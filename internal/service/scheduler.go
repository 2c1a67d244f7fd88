package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// TaskProducer is the slice of the engine the scheduler submits tasks to.
type TaskProducer interface {
	Enqueue(t *task.Task) (uuid.UUID, error)
}

// Schedule is a template for recurring task submissions. Every firing builds
// a fresh task from the template, with its own ID and a clean attempt budget.
type Schedule struct {
	// Name uniquely identifies the schedule.
	Name string `json:"name"`

	// Spec is a six-field cron expression with a seconds column, for example
	// "0 */5 * * * *" for every five minutes. The @every and other
	// descriptor forms are accepted too.
	Spec string `json:"spec"`

	// Kind selects the handler of the spawned tasks.
	Kind task.Kind `json:"kind"`

	// Payload is copied into every spawned task.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Priority is the queue level of the spawned tasks. The zero value is
	// CRITICAL; callers translating external input should go through
	// task.ParsePriority so the choice is always explicit.
	Priority task.Priority `json:"priority"`

	// MaxAttempts and Timeout override the engine defaults when positive.
	MaxAttempts int           `json:"max_attempts,omitempty"`
	Timeout     time.Duration `json:"timeout_ns,omitempty"`

	// Metadata is attached to every spawned task.
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (s Schedule) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("schedule name is required")
	}
	if s.Kind == "" {
		return task.ErrMissingKind
	}
	if !s.Priority.Valid() {
		return fmt.Errorf("%w: %d", task.ErrInvalidPriority, int(s.Priority))
	}
	if s.MaxAttempts < 0 {
		return errors.New("max attempts cannot be negative")
	}
	if s.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	return nil
}

// ScheduleInfo is a read-only view of a registered schedule with its runtime
// counters.
type ScheduleInfo struct {
	Schedule

	CreatedAt time.Time `json:"created_at"`

	// NextRunAt is the next firing time, nil while the scheduler is stopped.
	NextRunAt *time.Time `json:"next_run_at,omitempty"`

	// Fires counts firings, including ones whose submission was rejected.
	Fires uint64 `json:"fires"`

	// LastFiredAt is the time of the last successful submission.
	LastFiredAt *time.Time `json:"last_fired_at,omitempty"`

	// LastError holds the most recent submission failure, cleared by the
	// next successful firing.
	LastError string `json:"last_error,omitempty"`
}

// scheduleEntry pairs a schedule with its cron registration and counters.
// Guarded by Scheduler.mu.
type scheduleEntry struct {
	sch       Schedule
	id        cron.EntryID
	createdAt time.Time

	fires       uint64
	lastFiredAt time.Time
	lastError   string
}

// Scheduler manages named cron schedules that feed the engine. Schedules can
// be added and removed at any time; firing only happens between Start and
// Stop.
type Scheduler struct {
	producer TaskProducer
	logger   *slog.Logger
	cron     *cron.Cron

	mu      sync.Mutex
	entries map[string]*scheduleEntry
}

// NewScheduler creates a Scheduler submitting to the given producer.
// It returns an error if the producer is nil.
func NewScheduler(producer TaskProducer, logger *slog.Logger) (*Scheduler, error) {
	if producer == nil {
		return nil, errors.New("task producer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		producer: producer,
		logger:   logger.With(slog.String("component", "schedule_service")),
		cron:     cron.New(cron.WithSeconds()),
		entries:  make(map[string]*scheduleEntry),
	}, nil
}

// Start begins firing registered schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("schedule service started")
}

// Stop stops firing and waits for in-flight submissions to finish. The
// registered schedules survive and fire again after the next Start.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("schedule service stopped")
}

// Add registers a schedule. If the scheduler is running the schedule starts
// firing immediately.
func (s *Scheduler) Add(sch Schedule) error {
	if err := sch.validate(); err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[sch.Name]; ok {
		return fmt.Errorf("schedule %q: %w", sch.Name, ErrScheduleExists)
	}

	name := sch.Name
	id, err := s.cron.AddFunc(sch.Spec, func() { s.fire(name) })
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", sch.Spec, err)
	}

	s.entries[sch.Name] = &scheduleEntry{
		sch:       sch,
		id:        id,
		createdAt: time.Now(),
	}

	s.logger.Info("schedule added",
		slog.String("name", sch.Name),
		slog.String("spec", sch.Spec),
		slog.String("kind", string(sch.Kind)),
		slog.String("priority", sch.Priority.String()))
	return nil
}

// Remove unregisters a schedule. A firing already in flight still completes.
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("schedule %q: %w", name, ErrScheduleNotFound)
	}
	s.cron.Remove(e.id)
	delete(s.entries, name)

	s.logger.Info("schedule removed", slog.String("name", name))
	return nil
}

// Get returns the named schedule.
func (s *Scheduler) Get(name string) (ScheduleInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return ScheduleInfo{}, fmt.Errorf("schedule %q: %w", name, ErrScheduleNotFound)
	}
	return s.infoLocked(e), nil
}

// List returns all registered schedules sorted by name.
func (s *Scheduler) List() []ScheduleInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ScheduleInfo, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, s.infoLocked(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) infoLocked(e *scheduleEntry) ScheduleInfo {
	info := ScheduleInfo{
		Schedule:  e.sch,
		CreatedAt: e.createdAt,
		Fires:     e.fires,
		LastError: e.lastError,
	}
	if next := s.cron.Entry(e.id).Next; !next.IsZero() {
		info.NextRunAt = &next
	}
	if !e.lastFiredAt.IsZero() {
		last := e.lastFiredAt
		info.LastFiredAt = &last
	}
	return info
}

// fire builds a task from the template and submits it. Runs on the cron
// goroutine; a rejected submission is recorded on the entry and logged, never
// propagated.
func (s *Scheduler) fire(name string) {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return // removed after this firing was queued
	}
	sch := e.sch
	s.mu.Unlock()

	opts := []task.Option{task.WithPriority(sch.Priority)}
	if sch.MaxAttempts > 0 {
		opts = append(opts, task.WithMaxAttempts(sch.MaxAttempts))
	}
	if sch.Timeout > 0 {
		opts = append(opts, task.WithTimeout(sch.Timeout))
	}
	if len(sch.Metadata) > 0 {
		opts = append(opts, task.WithMetadata(sch.Metadata))
	}

	id, err := s.producer.Enqueue(task.New(sch.Kind, sch.Payload, opts...))

	s.mu.Lock()
	if e, ok := s.entries[name]; ok {
		e.fires++
		if err != nil {
			e.lastError = err.Error()
		} else {
			e.lastError = ""
			e.lastFiredAt = time.Now()
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("scheduled task rejected",
			slog.String("name", name),
			slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("schedule fired",
		slog.String("name", name),
		slog.String("task_id", id.String()))
}
