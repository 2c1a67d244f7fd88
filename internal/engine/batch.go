package engine

import (
	"context"
	"time"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// processorState is the bookkeeping slot for one batch processor. A busy
// processor owns a group of tasks executing concurrently; the group settles
// member by member and the slot frees once every member has settled.
type processorState struct {
	id   int
	busy bool

	group     []*task.Task
	settled   []bool
	remaining int
	startedAt time.Time

	// deadline is startedAt plus the batch timeout; the monitor reclaims
	// the slot once it is comfortably past.
	deadline time.Time

	gen    uint64
	cancel context.CancelFunc

	// processedBatches counts completed groups, errors counts member tasks
	// that exhausted their retry budget on this processor.
	processedBatches uint64
	errors           uint64
}

// BatchProcessorStatus is a point-in-time view of one batch processor slot.
type BatchProcessorStatus struct {
	ID               int        `json:"id"`
	Status           string     `json:"status"`
	BatchSize        int        `json:"batch_size"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	ProcessedBatches uint64     `json:"processed_batches"`
	Errors           uint64     `json:"errors"`
}

func (p *processorState) snapshot() BatchProcessorStatus {
	s := BatchProcessorStatus{
		ID:               p.id,
		Status:           "idle",
		ProcessedBatches: p.processedBatches,
		Errors:           p.errors,
	}
	if p.busy {
		s.Status = "busy"
		s.BatchSize = len(p.group)
		at := p.startedAt
		s.StartedAt = &at
	}
	return s
}

// BatchProcessorStatus reports the state of a single batch processor.
func (e *Engine) BatchProcessorStatus(id int) (BatchProcessorStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id < 0 || id >= len(e.processors) {
		return BatchProcessorStatus{}, ErrUnknownProcessor
	}
	return e.processors[id].snapshot(), nil
}

// BatchProcessorStatuses reports every batch processor in the pool.
func (e *Engine) BatchProcessorStatuses() []BatchProcessorStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]BatchProcessorStatus, 0, len(e.processors))
	for _, p := range e.processors {
		out = append(out, p.snapshot())
	}
	return out
}

func (e *Engine) idleProcessorLocked() *processorState {
	for _, p := range e.processors {
		if !p.busy {
			return p
		}
	}
	return nil
}

// dispatchBatchLocked pulls up to MaxBatchSize tasks from the batch queue
// and starts them concurrently on an idle processor. The queue's dispatching
// flag is released as soon as the group is handed off, so further groups can
// start on other processors in later ticks.
func (e *Engine) dispatchBatchLocked(now time.Time) {
	q := e.queues[task.PriorityBatch]
	if len(q.entries) == 0 || q.dispatching {
		return
	}
	p := e.idleProcessorLocked()
	if p == nil {
		return
	}

	q.dispatching = true
	group := q.dequeue(e.cfg.MaxBatchSize)

	groupCtx, groupCancel := context.WithTimeout(e.runCtx, e.cfg.BatchTimeout)
	p.busy = true
	p.gen++
	p.group = group
	p.settled = make([]bool, len(group))
	p.remaining = len(group)
	p.startedAt = now
	p.deadline = now.Add(e.cfg.BatchTimeout)
	p.cancel = groupCancel
	gen := p.gen

	for i, t := range group {
		t.Attempts++
		t.Status = task.StatusRunning

		memberCtx, memberCancel := context.WithTimeout(groupCtx, e.effectiveTimeoutLocked(t))
		e.execWG.Add(1)
		go e.executeBatchMember(memberCtx, memberCancel, p.id, gen, i, t)
	}

	q.dispatching = false

	e.logger.Debug("batch group dispatched",
		"processor_id", p.id,
		"batch_size", len(group))
	e.metrics.BatchProcessorsBusy.Inc()
}

// executeBatchMember runs one member of a batch group and reports its
// outcome. Runs in its own goroutine.
func (e *Engine) executeBatchMember(ctx context.Context, cancel context.CancelFunc, procID int, gen uint64, idx int, t *task.Task) {
	defer e.execWG.Done()
	defer cancel()

	start := time.Now()
	result, err := e.runTask(ctx, t)
	took := time.Since(start)
	e.metrics.TaskDuration.WithLabelValues(string(t.Kind)).Observe(took.Seconds())

	e.settleBatchMember(procID, gen, idx, t, result, err, took)
}

// settleBatchMember records the outcome of one group member. The last
// member to settle releases the processor slot.
func (e *Engine) settleBatchMember(procID int, gen uint64, idx int, t *task.Task, result any, execErr error, took time.Duration) {
	e.mu.Lock()
	p := e.processors[procID]
	if p.gen != gen || p.settled[idx] {
		e.mu.Unlock()
		e.logger.Debug("discarding settle from reclaimed batch processor",
			"processor_id", procID,
			"task_id", t.ID)
		return
	}
	p.settled[idx] = true
	p.remaining--

	s := e.settleLocked(t, result, execErr, took)
	if s.final {
		p.errors++
	}

	var groupCancel context.CancelFunc
	groupDone := p.remaining == 0
	if groupDone {
		p.busy = false
		p.processedBatches++
		p.group = nil
		p.settled = nil
		groupCancel = p.cancel
		p.cancel = nil
	}
	e.mu.Unlock()

	if groupCancel != nil {
		groupCancel()
	}
	if groupDone {
		e.metrics.BatchProcessorsBusy.Dec()
	}
	e.finishSettlement(s)
}
