package engine

import "errors"

var (
	// ErrEngineStopped is returned when a task is submitted while the
	// engine is not running. The task is not queued.
	ErrEngineStopped = errors.New("engine is not running")

	// ErrAlreadyRunning is returned by Start when the engine is already
	// running.
	ErrAlreadyRunning = errors.New("engine is already running")

	// ErrUnknownWorker is returned when a worker status lookup references
	// an identifier outside the pool.
	ErrUnknownWorker = errors.New("unknown worker")

	// ErrUnknownProcessor is returned when a batch processor status lookup
	// references an identifier outside the pool.
	ErrUnknownProcessor = errors.New("unknown batch processor")

	// ErrNilTask is returned when a nil task is submitted.
	ErrNilTask = errors.New("task must not be nil")
)
