package engine

import (
	"context"
	"fmt"
	"time"
)

// monitorTick reclaims executors whose current execution has outlived its
// deadline by more than one monitor interval. The grace period keeps the
// sweep from racing an on-time settle that is already waiting on the
// engine mutex.
//
// Reclaiming cancels the execution's context and bumps the slot generation,
// so the abandoned goroutine's eventual settle is discarded. The stuck task
// itself is settled here as a timeout failure and follows the ordinary
// retry path.
func (e *Engine) monitorTick() {
	now := time.Now()

	e.mu.Lock()
	grace := e.cfg.MonitorInterval
	var settlements []settlement
	var cancels []context.CancelFunc
	workersReclaimed := 0
	processorsReclaimed := 0

	for _, w := range e.workers {
		if !w.busy || now.Before(w.deadline.Add(grace)) {
			continue
		}
		t := w.current
		e.logger.Warn("reclaiming stuck worker",
			"worker_id", w.id,
			"task_id", t.ID,
			"running_for", now.Sub(w.startedAt).String())

		cancels = append(cancels, w.cancel)
		w.gen++
		w.busy = false
		w.current = nil
		w.cancel = nil
		w.errors++
		workersReclaimed++

		e.queues[t.Priority].dispatching = false
		execErr := fmt.Errorf("execution ran %s without settling and was reclaimed: %w",
			now.Sub(w.startedAt).Round(time.Millisecond), context.DeadlineExceeded)
		settlements = append(settlements, e.settleLocked(t, nil, execErr, now.Sub(w.startedAt)))
	}

	for _, p := range e.processors {
		if !p.busy || now.Before(p.deadline.Add(grace)) {
			continue
		}
		e.logger.Warn("reclaiming stuck batch processor",
			"processor_id", p.id,
			"batch_size", len(p.group),
			"running_for", now.Sub(p.startedAt).String())

		cancels = append(cancels, p.cancel)
		p.gen++

		// Settle members that never reported back; completed members
		// already went through the ordinary path.
		for i, t := range p.group {
			if p.settled[i] {
				continue
			}
			execErr := fmt.Errorf("batch execution ran %s without settling and was reclaimed: %w",
				now.Sub(p.startedAt).Round(time.Millisecond), context.DeadlineExceeded)
			s := e.settleLocked(t, nil, execErr, now.Sub(p.startedAt))
			if s.final {
				p.errors++
			}
			settlements = append(settlements, s)
		}

		p.busy = false
		p.group = nil
		p.settled = nil
		p.remaining = 0
		p.cancel = nil
		processorsReclaimed++
	}
	e.mu.Unlock()

	for _, cancel := range cancels {
		if cancel != nil {
			cancel()
		}
	}
	for i := 0; i < workersReclaimed; i++ {
		e.metrics.WorkersBusy.Dec()
	}
	for i := 0; i < processorsReclaimed; i++ {
		e.metrics.BatchProcessorsBusy.Dec()
	}
	for _, s := range settlements {
		e.finishSettlement(s)
	}
}
