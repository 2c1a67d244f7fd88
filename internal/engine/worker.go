package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// workerState is the bookkeeping slot for one executor in the worker pool.
// Mutated only with the engine mutex held; the execution itself runs in its
// own goroutine and reports back through settleWorkerAttempt.
type workerState struct {
	id   int
	busy bool

	// current holds the task being executed while busy.
	current   *task.Task
	startedAt time.Time

	// deadline is startedAt plus the attempt's effective timeout. The
	// monitor reclaims the slot once the deadline is comfortably past.
	deadline time.Time

	// gen increments on every dispatch and every reclaim. A settle carrying
	// a stale generation belongs to a reclaimed execution and is discarded.
	gen    uint64
	cancel context.CancelFunc

	// processed counts successful completions, errors counts final failures
	// plus monitor reclaims.
	processed uint64
	errors    uint64
}

// WorkerStatus is a point-in-time view of one worker slot.
type WorkerStatus struct {
	ID        int        `json:"id"`
	Status    string     `json:"status"`
	TaskID    *uuid.UUID `json:"task_id,omitempty"`
	TaskKind  string     `json:"task_kind,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	Processed uint64     `json:"processed"`
	Errors    uint64     `json:"errors"`
}

func (w *workerState) snapshot() WorkerStatus {
	s := WorkerStatus{
		ID:        w.id,
		Status:    "idle",
		Processed: w.processed,
		Errors:    w.errors,
	}
	if w.busy {
		s.Status = "busy"
		id := w.current.ID
		s.TaskID = &id
		s.TaskKind = string(w.current.Kind)
		at := w.startedAt
		s.StartedAt = &at
	}
	return s
}

// WorkerStatus reports the state of a single worker.
func (e *Engine) WorkerStatus(id int) (WorkerStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id < 0 || id >= len(e.workers) {
		return WorkerStatus{}, ErrUnknownWorker
	}
	return e.workers[id].snapshot(), nil
}

// WorkerStatuses reports every worker in the pool.
func (e *Engine) WorkerStatuses() []WorkerStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]WorkerStatus, 0, len(e.workers))
	for _, w := range e.workers {
		out = append(out, w.snapshot())
	}
	return out
}

// idleWorkerLocked returns the first idle worker, or nil when the pool is
// fully busy.
func (e *Engine) idleWorkerLocked() *workerState {
	for _, w := range e.workers {
		if !w.busy {
			return w
		}
	}
	return nil
}
