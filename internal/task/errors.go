package task

import "errors"

// Common errors returned by task construction and handler resolution.
var (
	// ErrInvalidPriority indicates a priority outside the defined levels.
	ErrInvalidPriority = errors.New("invalid priority level")

	// ErrMissingKind indicates a task without a kind.
	ErrMissingKind = errors.New("task kind is required")

	// ErrNoHandler indicates a task whose kind has no registered handler and
	// which carries no handler of its own. It surfaces as an execution
	// failure, so such tasks pass through the normal retry path.
	ErrNoHandler = errors.New("no handler for task kind")

	// ErrHandlerExists indicates an attempt to register a second handler for
	// a kind.
	ErrHandlerExists = errors.New("handler already registered for task kind")
)
