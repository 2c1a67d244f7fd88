// Package engine implements a priority-based task scheduling and execution
// engine. Producers enqueue heterogeneous tasks tagged with one of five
// urgency levels; per-level queues hold them until a periodic scheduler
// matches them to a bounded worker pool, or, for bulk work, to a bounded
// pool of batch processors that each run a group of tasks concurrently.
// Failed attempts are retried after a fixed delay up to a per-task budget,
// stuck executors are reclaimed by a monitor sweep, and a metrics loop
// publishes throughput gauges and threshold alerts.
//
// All shared state is guarded by a single mutex with O(1) critical
// sections; task execution always happens off the lock and only the
// outcome is delivered back.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/config"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/events"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/platform/metrics"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// Engine owns the priority queues, the executor pools and the periodic
// loops that connect them. Construct one instance per process with New and
// share it explicitly; there is no package-level singleton.
type Engine struct {
	mu         sync.Mutex
	cfg        config.EngineConfig
	queues     [task.NumPriorities]*levelQueue
	workers    []*workerState
	processors []*processorState
	retries    *retryScheduler
	perf       perfState
	tickPanics uint64

	running bool
	runCtx  context.Context
	cancel  context.CancelFunc

	// lifecycleMu serializes Start and Stop so a restart cannot overlap a
	// shutdown still draining goroutines.
	lifecycleMu sync.Mutex
	wg          sync.WaitGroup
	execWG      sync.WaitGroup

	registry *task.Registry
	emitter  events.EventEmitter
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates an engine with the given configuration and collaborators.
// A nil registry falls back to the built-in handler set, nil metrics to
// instruments on a private registry and a nil logger to slog.Default. A
// nil emitter disables event publication.
func New(cfg config.EngineConfig, registry *task.Registry, emitter events.EventEmitter, m *metrics.Metrics, logger *slog.Logger) (*Engine, error) {
	if err := config.ValidateEngineConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	if registry == nil {
		registry = task.DefaultRegistry()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:      cfg,
		registry: registry,
		emitter:  emitter,
		metrics:  m,
		logger:   logger.With("component", "engine"),
	}
	for _, level := range task.Priorities() {
		e.queues[level] = &levelQueue{level: level}
	}
	e.workers = make([]*workerState, cfg.WorkerCount)
	for i := range e.workers {
		e.workers[i] = &workerState{id: i}
	}
	e.processors = make([]*processorState, cfg.ParallelBatches)
	for i := range e.processors {
		e.processors[i] = &processorState{id: i}
	}
	e.retries = newRetryScheduler(e.reinsertFromRetry)
	return e, nil
}

// Start launches the scheduler, batch, monitor, metrics and retry loops.
// It returns ErrAlreadyRunning if the engine is already started.
func (e *Engine) Start() error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.running = true
	e.runCtx = ctx
	e.cancel = cancel
	cfg := e.cfg
	e.mu.Unlock()

	e.wg.Add(5)
	go e.runLoop(ctx, "scheduler", func() time.Duration { return e.Config().TickInterval }, e.schedulerTick)
	go e.runLoop(ctx, "batch", func() time.Duration { return e.Config().BatchTickInterval }, e.batchTick)
	go e.runLoop(ctx, "monitor", func() time.Duration { return e.Config().MonitorInterval }, e.monitorTick)
	go e.runLoop(ctx, "metrics", func() time.Duration { return e.Config().MetricsInterval }, e.metricsTick)
	go func() {
		defer e.wg.Done()
		e.retries.Run(ctx)
	}()

	e.logger.Info("engine started",
		"workers", len(e.workers),
		"batch_processors", len(e.processors),
		"tick_interval", cfg.TickInterval.String(),
		"batch_tick_interval", cfg.BatchTickInterval.String())
	return nil
}

// Stop halts dispatching, cancels in-flight executions and blocks until
// every engine goroutine has exited. Queued tasks, pending retries and all
// counters survive, so a stopped engine can be started again. Stopping a
// stopped engine is a no-op.
//
// In-flight handlers observe cancelled contexts; Stop waits for them to
// return, so a handler that ignores its context delays shutdown.
func (e *Engine) Stop() {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
	e.execWG.Wait()
	e.logger.Info("engine stopped")
}

// IsRunning reports whether the engine is currently started.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Config returns a copy of the effective engine configuration.
func (e *Engine) Config() config.EngineConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Enqueue accepts a task into the queue for its priority level and returns
// its identifier. Submission never blocks: if the queue is full, the
// oldest entry is evicted to make room. Submitting to a stopped engine
// fails immediately with ErrEngineStopped and the task is not queued.
func (e *Engine) Enqueue(t *task.Task) (uuid.UUID, error) {
	if t == nil {
		return uuid.Nil, ErrNilTask
	}
	if err := t.Validate(); err != nil {
		return uuid.Nil, err
	}

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return uuid.Nil, ErrEngineStopped
	}
	evicted := e.queues[t.Priority].insert(t, e.cfg.QueueMaxSize)
	e.mu.Unlock()

	e.noteEvictions(t.Priority, evicted)
	e.metrics.TasksEnqueued.WithLabelValues(t.Priority.String()).Inc()
	e.logger.Debug("task enqueued",
		"task_id", t.ID,
		"task_kind", string(t.Kind),
		"level", t.Priority.String())
	e.emit(events.NewTaskAdded(t.ID, string(t.Kind), t.Priority.String()))
	return t.ID, nil
}

// BatchItem describes one task in a bulk submission.
type BatchItem struct {
	Kind    task.Kind
	Payload json.RawMessage

	// Options override the batch-wide defaults for this item.
	Options []task.Option
}

// BatchError pairs a rejected item's position in the submission with the
// reason it was rejected.
type BatchError struct {
	Index int
	Err   error
}

// BatchResult summarizes a bulk submission.
type BatchResult struct {
	Added   int
	Failed  int
	TaskIDs []uuid.UUID
	Errors  []BatchError
}

// EnqueueBatch accepts many tasks in one call. The defaults apply to every
// item first and each item's own options are applied on top. Items that
// fail validation are reported per index; the rest are queued. A stopped
// engine rejects the whole submission with ErrEngineStopped.
func (e *Engine) EnqueueBatch(items []BatchItem, defaults ...task.Option) (BatchResult, error) {
	var res BatchResult

	type accepted struct {
		t       *task.Task
		evicted []*task.Task
	}
	var queued []accepted

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return BatchResult{}, ErrEngineStopped
	}
	for i, item := range items {
		opts := make([]task.Option, 0, len(defaults)+len(item.Options))
		opts = append(opts, defaults...)
		opts = append(opts, item.Options...)

		t := task.New(item.Kind, item.Payload, opts...)
		if err := t.Validate(); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, BatchError{Index: i, Err: err})
			continue
		}
		evicted := e.queues[t.Priority].insert(t, e.cfg.QueueMaxSize)
		res.Added++
		res.TaskIDs = append(res.TaskIDs, t.ID)
		queued = append(queued, accepted{t: t, evicted: evicted})
	}
	e.mu.Unlock()

	for _, a := range queued {
		e.noteEvictions(a.t.Priority, a.evicted)
		e.metrics.TasksEnqueued.WithLabelValues(a.t.Priority.String()).Inc()
		e.emit(events.NewTaskAdded(a.t.ID, string(a.t.Kind), a.t.Priority.String()))
	}
	e.logger.Info("batch submission processed",
		"added", res.Added,
		"failed", res.Failed)
	return res, nil
}

// UpdateConfig merges a partial configuration into the effective one and
// returns the result. Changes apply from the next cycle of each periodic
// loop; pool sizes are fixed at construction and cannot be patched. If the
// new queue capacity is smaller than a queue's current backlog, the oldest
// entries are evicted immediately.
func (e *Engine) UpdateConfig(patch config.EnginePatch) (config.EngineConfig, error) {
	if patch.IsZero() {
		return e.Config(), nil
	}

	e.mu.Lock()
	merged := patch.Apply(e.cfg)
	if err := config.ValidateEngineConfig(merged); err != nil {
		e.mu.Unlock()
		return config.EngineConfig{}, fmt.Errorf("invalid engine configuration: %w", err)
	}
	e.cfg = merged
	trimmed := 0
	for _, q := range e.queues {
		n := q.trim(merged.QueueMaxSize)
		if n > 0 {
			e.metrics.TasksDropped.WithLabelValues(q.level.String()).Add(float64(n))
			trimmed += n
		}
	}
	e.mu.Unlock()

	if trimmed > 0 {
		e.logger.Warn("queue capacity reduced, oldest tasks evicted", "evicted", trimmed)
	}
	e.logger.Info("engine configuration updated")
	return merged, nil
}
