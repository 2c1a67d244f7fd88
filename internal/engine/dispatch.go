package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/events"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// runLoop drives one periodic tick until ctx is cancelled. The interval is
// re-read before every arm, so configuration updates take effect on the
// next cycle without restarting the loop.
func (e *Engine) runLoop(ctx context.Context, name string, interval func() time.Duration, tick func()) {
	defer e.wg.Done()

	timer := time.NewTimer(interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			e.safeTick(name, tick)
			timer.Reset(interval())
		}
	}
}

// safeTick recovers a panicking tick so one bad cycle never stops a loop.
func (e *Engine) safeTick(name string, tick func()) {
	defer func() {
		if r := recover(); r != nil {
			e.mu.Lock()
			e.tickPanics++
			count := e.tickPanics
			e.mu.Unlock()
			e.logger.Error("scheduler tick panicked",
				"loop", name,
				"panic", fmt.Sprintf("%v", r),
				"panic_count", count)
		}
	}()
	tick()
}

// schedulerTick scans every priority level in ascending rank order and
// dispatches at most one unit of work per eligible level: a single task to
// an idle worker, or a group to an idle batch processor for the batch
// level. Priority governs scan order only; a lower level can still be
// served in the same tick when idle executors remain.
func (e *Engine) schedulerTick() {
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, level := range task.Priorities() {
		if level == task.PriorityBatch {
			e.dispatchBatchLocked(now)
			continue
		}
		e.dispatchWorkerLocked(level, now)
	}
}

// batchTick drives the batch path on its own cadence, independently of the
// main scheduler.
func (e *Engine) batchTick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dispatchBatchLocked(time.Now())
}

// dispatchWorkerLocked starts the head task of one worker level on an idle
// worker. The level's dispatching flag stays set until the attempt settles,
// so each level has at most one attempt in flight.
func (e *Engine) dispatchWorkerLocked(level task.Priority, now time.Time) {
	q := e.queues[level]
	if len(q.entries) == 0 || q.dispatching {
		return
	}
	w := e.idleWorkerLocked()
	if w == nil {
		return
	}

	t := q.dequeue(1)[0]
	t.Attempts++
	t.Status = task.StatusRunning

	timeout := e.effectiveTimeoutLocked(t)
	attemptCtx, cancel := context.WithTimeout(e.runCtx, timeout)

	q.dispatching = true
	w.busy = true
	w.gen++
	w.current = t
	w.startedAt = now
	w.deadline = now.Add(timeout)
	w.cancel = cancel
	gen := w.gen

	e.execWG.Add(1)
	go e.executeOnWorker(attemptCtx, cancel, w.id, gen, t)

	e.logger.Debug("task dispatched",
		"task_id", t.ID,
		"task_kind", string(t.Kind),
		"level", level.String(),
		"worker_id", w.id,
		"attempt", t.Attempts)
	e.metrics.WorkersBusy.Inc()
}

// effectiveTimeoutLocked resolves a task's execution timeout, falling back
// to the configured worker default.
func (e *Engine) effectiveTimeoutLocked(t *task.Task) time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return e.cfg.WorkerTimeout
}

// effectiveMaxAttemptsLocked resolves a task's retry budget, falling back
// to the configured default.
func (e *Engine) effectiveMaxAttemptsLocked(t *task.Task) int {
	if t.MaxAttempts > 0 {
		return t.MaxAttempts
	}
	return e.cfg.RetryAttempts
}

// executeOnWorker runs a single attempt and reports its outcome. Runs in
// its own goroutine; the context carries the attempt deadline.
func (e *Engine) executeOnWorker(ctx context.Context, cancel context.CancelFunc, workerID int, gen uint64, t *task.Task) {
	defer e.execWG.Done()
	defer cancel()

	start := time.Now()
	result, err := e.runTask(ctx, t)
	took := time.Since(start)
	e.metrics.TaskDuration.WithLabelValues(string(t.Kind)).Observe(took.Seconds())

	e.settleWorkerAttempt(workerID, gen, t, result, err, took)
}

// runTask resolves the task's handler and invokes it. A missing handler and
// a panicking handler both surface as ordinary execution errors, entering
// the retry path like any other failure.
func (e *Engine) runTask(ctx context.Context, t *task.Task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("task handler panicked: %v", r)
		}
	}()

	handler, err := e.registry.Resolve(t)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return handler(ctx, t)
}

// settleWorkerAttempt records the outcome of a worker execution. Settles
// carrying a stale generation belong to executions whose slot was already
// reclaimed by the monitor and are discarded.
func (e *Engine) settleWorkerAttempt(workerID int, gen uint64, t *task.Task, result any, execErr error, took time.Duration) {
	e.mu.Lock()
	w := e.workers[workerID]
	if w.gen != gen {
		e.mu.Unlock()
		e.logger.Debug("discarding settle from reclaimed worker",
			"worker_id", workerID,
			"task_id", t.ID)
		return
	}

	w.busy = false
	w.current = nil
	w.cancel = nil
	e.queues[t.Priority].dispatching = false

	s := e.settleLocked(t, result, execErr, took)
	if execErr == nil {
		w.processed++
	} else if s.final {
		w.errors++
	}
	e.mu.Unlock()

	e.metrics.WorkersBusy.Dec()
	e.finishSettlement(s)
}

// settlement captures one settled attempt so events and callbacks can fire
// after the engine mutex is released.
type settlement struct {
	t       *task.Task
	level   task.Priority
	result  any
	err     error
	retried bool
	final   bool
}

// settleLocked applies the shared outcome bookkeeping for one attempt:
// queue and throughput counters, the retry decision, and the task's state
// transition. Executor-specific counters remain with the caller.
func (e *Engine) settleLocked(t *task.Task, result any, execErr error, took time.Duration) settlement {
	now := time.Now()
	q := e.queues[t.Priority]
	q.processed++
	q.lastProcessed = now
	e.perf.totalProcessed++
	e.perf.lastProcessedAt = now

	s := settlement{t: t, level: t.Priority, result: result, err: execErr}

	if execErr == nil {
		t.Status = task.StatusCompleted
		t.LastError = ""
		e.perf.observeProcessingTime(took)
		return s
	}

	q.errors++
	e.perf.totalErrors++
	t.LastError = execErr.Error()

	if t.Attempts < e.effectiveMaxAttemptsLocked(t) {
		t.Status = task.StatusPending
		s.retried = true
		e.retries.Schedule(t, now.Add(e.cfg.RetryDelay))
		return s
	}

	t.Status = task.StatusFailed
	s.final = true
	return s
}

// finishSettlement publishes the attempt outcome outside the engine mutex.
// Retryable failures stay invisible to producers; only completions and
// final failures emit events and invoke the completion callback.
func (e *Engine) finishSettlement(s settlement) {
	kind := string(s.t.Kind)
	switch {
	case s.err == nil:
		e.metrics.TasksProcessed.WithLabelValues(kind, "success").Inc()
		e.emit(events.NewTaskCompleted(s.t.ID, kind, s.level.String(), s.t.Attempts, s.result))
		e.invokeCallback(s.t, s.result, nil)
	case s.retried:
		e.metrics.TasksProcessed.WithLabelValues(kind, "retry").Inc()
		e.metrics.TaskRetries.Inc()
		e.logger.Debug("task scheduled for retry",
			"task_id", s.t.ID,
			"attempt", s.t.Attempts,
			"error", s.err.Error())
	default:
		e.metrics.TasksProcessed.WithLabelValues(kind, "failed").Inc()
		e.logger.Warn("task failed permanently",
			"task_id", s.t.ID,
			"task_kind", kind,
			"attempts", s.t.Attempts,
			"error", s.err.Error())
		e.emit(events.NewTaskFailed(s.t.ID, kind, s.level.String(), s.t.Attempts, s.err))
		e.invokeCallback(s.t, nil, s.err)
	}
}

// reinsertFromRetry returns a retried task to the tail of its level's
// queue, so it does not jump ahead of newcomers that arrived while it
// waited out its delay.
func (e *Engine) reinsertFromRetry(t *task.Task) {
	e.mu.Lock()
	evicted := e.queues[t.Priority].insert(t, e.cfg.QueueMaxSize)
	e.mu.Unlock()

	e.logger.Debug("retried task requeued",
		"task_id", t.ID,
		"level", t.Priority.String(),
		"attempt", t.Attempts)
	e.noteEvictions(t.Priority, evicted)
}

// emit publishes an event to the configured emitter, if any. Delivery
// failures are logged and swallowed; observers never disturb scheduling.
func (e *Engine) emit(evt *events.Event) {
	if e.emitter == nil {
		return
	}
	if err := e.emitter.EmitEvent(context.Background(), evt); err != nil {
		e.logger.Warn("event delivery failed",
			"event_type", string(evt.Type),
			"event_id", evt.ID,
			"error", err)
	}
}

// invokeCallback runs the task's completion callback, shielding the engine
// from panics in caller code.
func (e *Engine) invokeCallback(t *task.Task, result any, err error) {
	cb := t.OnComplete
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("completion callback panicked",
				"task_id", t.ID,
				"panic", fmt.Sprintf("%v", r))
		}
	}()
	cb(t, result, err)
}

// noteEvictions accounts for tasks silently dropped from a full queue.
// Producers are not notified; the loss is visible in logs and counters.
func (e *Engine) noteEvictions(level task.Priority, evicted []*task.Task) {
	for _, dropped := range evicted {
		e.metrics.TasksDropped.WithLabelValues(level.String()).Inc()
		e.logger.Warn("queue full, oldest task evicted",
			"level", level.String(),
			"evicted_task_id", dropped.ID,
			"evicted_task_kind", string(dropped.Kind))
	}
}
