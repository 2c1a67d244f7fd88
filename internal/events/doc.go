// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines event types and handler interfaces that allow for loose coupling
// between the scheduling engine and its observers. The engine emits events as tasks
// move through their lifecycle and as performance alerts fire, without knowing which
// handlers will process them, enabling better separation of concerns and reducing
// circular dependencies.
//
// The primary components are:
// - Event: Represents a single engine occurrence (task lifecycle or alert)
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
