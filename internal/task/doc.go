// Package task defines the unit of work scheduled by the engine: the Task
// type with its priority level, retry budget and timeout, the enumerated
// task kinds with their built-in handlers, and the registry that resolves a
// task to the handler that executes it.
package task
