package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

func newQueueTask(t *testing.T, level task.Priority) *task.Task {
	t.Helper()
	return task.New(task.KindAnalysis, nil, task.WithPriority(level))
}

func TestLevelQueueInsertPreservesArrivalOrder(t *testing.T) {
	t.Parallel()

	q := &levelQueue{level: task.PriorityMedium}
	first := newQueueTask(t, task.PriorityMedium)
	second := newQueueTask(t, task.PriorityMedium)
	third := newQueueTask(t, task.PriorityMedium)

	for _, tk := range []*task.Task{first, second, third} {
		evicted := q.insert(tk, 10)
		assert.Empty(t, evicted)
	}

	got := q.dequeue(3)
	require.Len(t, got, 3)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, third.ID, got[2].ID)
}

func TestLevelQueueEvictsOldestWhenFull(t *testing.T) {
	t.Parallel()

	q := &levelQueue{level: task.PriorityLow}
	oldest := newQueueTask(t, task.PriorityLow)
	kept := newQueueTask(t, task.PriorityLow)
	newest := newQueueTask(t, task.PriorityLow)

	require.Empty(t, q.insert(oldest, 2))
	require.Empty(t, q.insert(kept, 2))

	evicted := q.insert(newest, 2)
	require.Len(t, evicted, 1)
	assert.Equal(t, oldest.ID, evicted[0].ID)

	// Same size as before the overflowing insert, oldest gone, newest present.
	assert.Len(t, q.entries, 2)
	assert.Equal(t, kept.ID, q.entries[0].ID)
	assert.Equal(t, newest.ID, q.entries[1].ID)
	assert.Equal(t, uint64(1), q.dropped)
}

func TestLevelQueueDequeueBounds(t *testing.T) {
	t.Parallel()

	q := &levelQueue{level: task.PriorityBatch}
	for i := 0; i < 5; i++ {
		q.insert(newQueueTask(t, task.PriorityBatch), 10)
	}

	assert.Nil(t, q.dequeue(0))

	got := q.dequeue(3)
	assert.Len(t, got, 3)
	assert.Len(t, q.entries, 2)

	// Asking for more than remains drains the queue without error.
	got = q.dequeue(10)
	assert.Len(t, got, 2)
	assert.Empty(t, q.entries)
	assert.Nil(t, q.dequeue(1))
}

func TestLevelQueueClear(t *testing.T) {
	t.Parallel()

	q := &levelQueue{level: task.PriorityHigh}
	for i := 0; i < 4; i++ {
		q.insert(newQueueTask(t, task.PriorityHigh), 10)
	}

	assert.Equal(t, 4, q.clear())
	assert.Empty(t, q.entries)
	assert.Equal(t, 0, q.clear())
}

func TestLevelQueueTrim(t *testing.T) {
	t.Parallel()

	q := &levelQueue{level: task.PriorityMedium}
	tasks := make([]*task.Task, 5)
	for i := range tasks {
		tasks[i] = newQueueTask(t, task.PriorityMedium)
		q.insert(tasks[i], 10)
	}

	assert.Equal(t, 3, q.trim(2))
	require.Len(t, q.entries, 2)
	// The newest entries survive.
	assert.Equal(t, tasks[3].ID, q.entries[0].ID)
	assert.Equal(t, tasks[4].ID, q.entries[1].ID)
	assert.Equal(t, uint64(3), q.dropped)

	assert.Equal(t, 0, q.trim(2))
}

func TestLevelQueueStatus(t *testing.T) {
	t.Parallel()

	q := &levelQueue{level: task.PriorityCritical}
	status := q.status()
	assert.Equal(t, task.PriorityCritical, status.Level)
	assert.Equal(t, 0, status.Size)
	assert.False(t, status.Dispatching)
	assert.Nil(t, status.Stats.LastProcessedAt, "no settle yet")

	q.insert(newQueueTask(t, task.PriorityCritical), 10)
	q.dispatching = true
	q.processed = 7
	q.errors = 2
	q.lastProcessed = time.Now()

	status = q.status()
	assert.Equal(t, 1, status.Size)
	assert.True(t, status.Dispatching)
	assert.Equal(t, uint64(7), status.Stats.Processed)
	assert.Equal(t, uint64(2), status.Stats.Errors)
	require.NotNil(t, status.Stats.LastProcessedAt)
}
