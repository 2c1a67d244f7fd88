package task

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps task kinds to their handlers. Resolution prefers a
// registered handler; a task whose kind is unregistered falls back to its own
// attached Handler, which is how KindCustom tasks execute.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Kind]HandlerFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[Kind]HandlerFunc),
	}
}

// DefaultRegistry creates a registry with the built-in handlers for the
// enumerated kinds already registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	builtins := map[Kind]HandlerFunc{
		KindSignalProcessing: handleSignalProcessing,
		KindAlertGeneration:  handleAlertGeneration,
		KindAnalysis:         handleAnalysis,
		KindNotification:     handleNotification,
		KindCacheUpdate:      handleCacheUpdate,
		KindReportGeneration: handleReportGeneration,
	}
	for kind, fn := range builtins {
		// Registering into a fresh registry cannot collide
		if err := r.Register(kind, fn); err != nil {
			panic(fmt.Sprintf("task: registering built-in handler %q: %v", kind, err))
		}
	}
	return r
}

// Register adds a handler for the given kind.
// Returns ErrHandlerExists if the kind already has one.
func (r *Registry) Register(kind Kind, fn HandlerFunc) error {
	if kind == "" {
		return ErrMissingKind
	}
	if fn == nil {
		return fmt.Errorf("nil handler for task kind %q", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[kind]; ok {
		return fmt.Errorf("%w: %q", ErrHandlerExists, kind)
	}
	r.handlers[kind] = fn
	return nil
}

// Resolve returns the handler that should execute the task: the registered
// handler for its kind if one exists, otherwise the task's own Handler.
// Returns ErrNoHandler when neither is available.
func (r *Registry) Resolve(t *Task) (HandlerFunc, error) {
	r.mu.RLock()
	fn, ok := r.handlers[t.Kind]
	r.mu.RUnlock()

	if ok {
		return fn, nil
	}
	if t.Handler != nil {
		return t.Handler, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNoHandler, t.Kind)
}

// Kinds returns the registered kinds in lexical order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.handlers))
	for kind := range r.handlers {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
