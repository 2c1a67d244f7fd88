package engine

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

type retryItem struct {
	readyAt time.Time
	seq     uint64 // tie-break so equal deadlines keep scheduling order
	t       *task.Task
}

type retryHeap []retryItem

func (h retryHeap) Len() int { return len(h) }
func (h retryHeap) Less(i, j int) bool {
	if h[i].readyAt.Equal(h[j].readyAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].readyAt.Before(h[j].readyAt)
}
func (h retryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *retryHeap) Push(x any)   { *h = append(*h, x.(retryItem)) }
func (h *retryHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = retryItem{}
	*h = old[:n-1]
	return x
}

// retryScheduler holds failed, retryable tasks in a min-heap keyed by their
// ready time and keeps exactly one time.Timer armed for the head deadline.
// When the timer fires, due tasks are handed to the deliver callback, which
// reinserts them at the tail of their priority queue. The heap outlives a
// single run, so retries pending at shutdown are delivered after a restart.
type retryScheduler struct {
	mu      sync.Mutex
	pending retryHeap
	seq     uint64
	wake    chan struct{}
	deliver func(*task.Task)
}

func newRetryScheduler(deliver func(*task.Task)) *retryScheduler {
	return &retryScheduler{
		wake:    make(chan struct{}, 1),
		deliver: deliver,
	}
}

// Schedule queues t for delivery no earlier than at.
func (rs *retryScheduler) Schedule(t *task.Task, at time.Time) {
	rs.mu.Lock()
	rs.seq++
	heap.Push(&rs.pending, retryItem{readyAt: at, seq: rs.seq, t: t})
	rs.mu.Unlock()

	// Non-blocking nudge so Run re-reads the head deadline.
	select {
	case rs.wake <- struct{}{}:
	default:
	}
}

// Len reports how many tasks are waiting for their retry delay.
func (rs *retryScheduler) Len() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.pending)
}

// Run drives delivery until ctx is cancelled. It must not be invoked
// concurrently with itself.
func (rs *retryScheduler) Run(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	// Stop immediately so a stale initial firing can never be observed;
	// the timer is re-armed manually from the heap head below.
	if !timer.Stop() {
		<-timer.C
	}

	for {
		var deadline <-chan time.Time

		rs.mu.Lock()
		if len(rs.pending) > 0 {
			d := time.Until(rs.pending[0].readyAt)
			if d < 0 {
				d = 0
			}
			resetTimer(timer, d)
			deadline = timer.C
		}
		rs.mu.Unlock()

		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case <-rs.wake:
			// Head may have changed; loop to re-arm the timer.

		case <-deadline:
			rs.deliverDue()
		}
	}
}

// deliverDue pops every task whose deadline has passed and hands it to the
// deliver callback. The scheduler mutex is released around each delivery so
// the callback may take the engine lock.
func (rs *retryScheduler) deliverDue() {
	for {
		rs.mu.Lock()
		if len(rs.pending) == 0 || rs.pending[0].readyAt.After(time.Now()) {
			rs.mu.Unlock()
			return
		}
		it := heap.Pop(&rs.pending).(retryItem)
		rs.mu.Unlock()

		rs.deliver(it.t)
	}
}

// resetTimer re-arms a stopped-or-fired timer for delay d, draining a
// pending firing first so the next receive observes only the new deadline.
func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}
