package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/config"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/events"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// A handler that ignores its context simulates stuck third-party code. The
// monitor must reclaim the worker and settle the task without waiting for
// the handler to return.
func TestMonitorReclaimsStuckWorker(t *testing.T) {
	t.Parallel()

	e, recorder := startTestEngine(t, func(c *config.EngineConfig) {
		c.WorkerCount = 1
		c.WorkerTimeout = 20 * time.Millisecond
		c.MonitorInterval = 15 * time.Millisecond
	})

	var returned atomic.Bool
	done := make(chan error, 1)
	tk := task.New(task.KindCustom, nil,
		task.WithPriority(task.PriorityHigh),
		task.WithMaxAttempts(1),
		task.WithHandler(func(context.Context, *task.Task) (any, error) {
			time.Sleep(250 * time.Millisecond) // deliberately ignores ctx
			returned.Store(true)
			return "late", nil
		}),
		task.WithOnComplete(func(_ *task.Task, _ any, err error) { done <- err }))

	_, err := e.Enqueue(tk)
	require.NoError(t, err)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "reclaimed")
	case <-time.After(2 * time.Second):
		t.Fatal("stuck task was never settled")
	}
	assert.False(t, returned.Load(), "settled before the handler returned")

	w, err := e.WorkerStatus(0)
	require.NoError(t, err)
	assert.Equal(t, "idle", w.Status, "reclaimed worker is usable again")
	assert.Equal(t, uint64(1), w.Errors)

	// The handler eventually returns; its stale result must be discarded.
	require.Eventually(t, func() bool { return returned.Load() }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	assert.Zero(t, recorder.count(events.EventTaskCompleted))
	assert.Equal(t, 1, recorder.count(events.EventTaskFailed))

	qs, err := e.QueueStatus(task.PriorityHigh)
	require.NoError(t, err)
	assert.Zero(t, qs.Size)
	assert.False(t, qs.Dispatching)
	assert.Equal(t, uint64(1), qs.Stats.Processed)
	assert.Equal(t, uint64(1), qs.Stats.Errors)
}

func TestReclaimedWorkerKeepsServing(t *testing.T) {
	t.Parallel()

	e, recorder := startTestEngine(t, func(c *config.EngineConfig) {
		c.WorkerCount = 1
		c.WorkerTimeout = 20 * time.Millisecond
		c.MonitorInterval = 15 * time.Millisecond
	})

	stuckSettled := make(chan struct{})
	stuck := task.New(task.KindCustom, nil,
		task.WithMaxAttempts(1),
		task.WithHandler(func(context.Context, *task.Task) (any, error) {
			time.Sleep(150 * time.Millisecond)
			return nil, nil
		}),
		task.WithOnComplete(func(*task.Task, any, error) { close(stuckSettled) }))
	_, err := e.Enqueue(stuck)
	require.NoError(t, err)

	<-stuckSettled

	// The freed worker picks up new work immediately, even while the old
	// handler is still sleeping.
	ok := make(chan struct{})
	next := task.New(task.KindCustom, nil,
		task.WithHandler(func(context.Context, *task.Task) (any, error) { return "fine", nil }),
		task.WithOnComplete(func(*task.Task, any, error) { close(ok) }))
	_, err = e.Enqueue(next)
	require.NoError(t, err)

	select {
	case <-ok:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not serve new tasks after a reclaim")
	}
	assert.Equal(t, 1, recorder.count(events.EventTaskCompleted))
	assert.Equal(t, 1, recorder.count(events.EventTaskFailed))
}

func TestMonitorReclaimsStuckBatchProcessor(t *testing.T) {
	t.Parallel()

	e, recorder := startTestEngine(t, func(c *config.EngineConfig) {
		c.MaxBatchSize = 2
		c.ParallelBatches = 1
		c.BatchTimeout = 25 * time.Millisecond
		c.MonitorInterval = 15 * time.Millisecond
	})

	outcomes := make(chan error, 2)
	onComplete := func(_ *task.Task, _ any, err error) { outcomes <- err }

	fastHandler := func(context.Context, *task.Task) (any, error) { return "ok", nil }
	stuckHandler := func(context.Context, *task.Task) (any, error) {
		time.Sleep(300 * time.Millisecond) // ignores ctx
		return "late", nil
	}

	// Submitting both through one batch call guarantees they land in the
	// same group: no tick can run between the two insertions.
	_, err := e.EnqueueBatch([]BatchItem{
		{Kind: task.KindCustom, Options: []task.Option{task.WithHandler(fastHandler)}},
		{Kind: task.KindCustom, Options: []task.Option{task.WithHandler(stuckHandler)}},
	}, task.WithPriority(task.PriorityBatch), task.WithMaxAttempts(1), task.WithOnComplete(onComplete))
	require.NoError(t, err)

	var succeeded, failed int
	for i := 0; i < 2; i++ {
		select {
		case err := <-outcomes:
			if err != nil {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
				failed++
			} else {
				succeeded++
			}
		case <-time.After(2 * time.Second):
			t.Fatal("group member never settled")
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	require.Eventually(t, func() bool {
		p, err := e.BatchProcessorStatus(0)
		require.NoError(t, err)
		return p.Status == "idle"
	}, 2*time.Second, 5*time.Millisecond)

	p, err := e.BatchProcessorStatus(0)
	require.NoError(t, err)
	assert.Zero(t, p.ProcessedBatches, "a reclaimed group does not count as processed")
	assert.Equal(t, uint64(1), p.Errors)

	// Late return from the stuck member is discarded.
	time.Sleep(350 * time.Millisecond)
	assert.Equal(t, 1, recorder.count(events.EventTaskCompleted))
	assert.Equal(t, 1, recorder.count(events.EventTaskFailed))
}
