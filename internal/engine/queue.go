package engine

import (
	"time"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// levelQueue is the ordered backlog for one priority level. All methods
// must be called with the engine mutex held.
type levelQueue struct {
	level   task.Priority
	entries []*task.Task

	// dispatching marks the level as mid-dispatch. For worker levels the
	// flag is held until the dispatched attempt settles, so at most one
	// attempt per level is in flight. The batch level clears it as soon as
	// a group is handed to a processor, allowing several processors to run
	// groups concurrently.
	dispatching bool

	// processed counts settled execution attempts regardless of outcome,
	// errors counts the failed subset.
	processed     uint64
	errors        uint64
	dropped       uint64
	lastProcessed time.Time
}

// insert appends t behind existing entries of the same rank. When the queue
// is at capacity the oldest entries are evicted first; the engine favors
// recency over fairness under overload. Evicted tasks are returned so the
// caller can account for them.
func (q *levelQueue) insert(t *task.Task, maxSize int) []*task.Task {
	var evicted []*task.Task
	for maxSize > 0 && len(q.entries) >= maxSize {
		evicted = append(evicted, q.entries[0])
		q.entries[0] = nil
		q.entries = q.entries[1:]
		q.dropped++
	}
	q.entries = append(q.entries, t)
	return evicted
}

// dequeue removes and returns up to count tasks from the head.
func (q *levelQueue) dequeue(count int) []*task.Task {
	if count <= 0 || len(q.entries) == 0 {
		return nil
	}
	if count > len(q.entries) {
		count = len(q.entries)
	}
	out := make([]*task.Task, count)
	copy(out, q.entries[:count])
	for i := 0; i < count; i++ {
		q.entries[i] = nil
	}
	q.entries = q.entries[count:]
	return out
}

// clear drops every queued entry and returns how many were removed.
// In-flight attempts are unaffected.
func (q *levelQueue) clear() int {
	n := len(q.entries)
	q.entries = nil
	return n
}

// trim evicts head entries until the queue fits maxSize, returning the
// number dropped. Used when a configuration update shrinks the capacity.
func (q *levelQueue) trim(maxSize int) int {
	dropped := 0
	for maxSize > 0 && len(q.entries) > maxSize {
		q.entries[0] = nil
		q.entries = q.entries[1:]
		q.dropped++
		dropped++
	}
	return dropped
}

// QueueStats are the lifetime counters of one priority queue.
type QueueStats struct {
	// Processed counts settled execution attempts from this queue.
	Processed uint64 `json:"processed"`

	// Errors counts the failed attempts among Processed.
	Errors uint64 `json:"errors"`

	// Dropped counts tasks evicted because the queue was full.
	Dropped uint64 `json:"dropped"`

	// LastProcessedAt is the time of the most recent settle, nil if the
	// queue has never dispatched.
	LastProcessedAt *time.Time `json:"last_processed_at,omitempty"`
}

// QueueStatus is a point-in-time view of one priority queue.
type QueueStatus struct {
	Level       task.Priority `json:"level"`
	Size        int           `json:"size"`
	Dispatching bool          `json:"dispatching"`
	Stats       QueueStats    `json:"stats"`
}

func (q *levelQueue) status() QueueStatus {
	s := QueueStatus{
		Level:       q.level,
		Size:        len(q.entries),
		Dispatching: q.dispatching,
		Stats: QueueStats{
			Processed: q.processed,
			Errors:    q.errors,
			Dropped:   q.dropped,
		},
	}
	if !q.lastProcessed.IsZero() {
		t := q.lastProcessed
		s.Stats.LastProcessedAt = &t
	}
	return s
}

// QueueStatus reports the state of a single priority queue.
func (e *Engine) QueueStatus(level task.Priority) (QueueStatus, error) {
	if !level.Valid() {
		return QueueStatus{}, task.ErrInvalidPriority
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queues[level].status(), nil
}

// QueueStatuses reports every priority queue in ascending rank order.
func (e *Engine) QueueStatuses() []QueueStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]QueueStatus, 0, len(e.queues))
	for _, level := range task.Priorities() {
		out = append(out, e.queues[level].status())
	}
	return out
}

// ClearQueue removes all queued tasks from one level and returns how many
// were removed. Tasks already dispatched keep running.
func (e *Engine) ClearQueue(level task.Priority) (int, error) {
	if !level.Valid() {
		return 0, task.ErrInvalidPriority
	}
	e.mu.Lock()
	n := e.queues[level].clear()
	e.mu.Unlock()
	if n > 0 {
		e.logger.Info("queue cleared", "level", level.String(), "removed", n)
	}
	return n, nil
}

// ClearAllQueues empties every priority queue and returns the total number
// of tasks removed.
func (e *Engine) ClearAllQueues() int {
	e.mu.Lock()
	total := 0
	for _, q := range e.queues {
		total += q.clear()
	}
	e.mu.Unlock()
	if total > 0 {
		e.logger.Info("all queues cleared", "removed", total)
	}
	return total
}
