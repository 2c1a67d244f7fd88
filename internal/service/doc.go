// Package service contains application-level features built on top of the
// scheduling engine. It sits between the delivery layer (internal/api) and
// the engine itself, keeping HTTP concerns out of the engine and scheduling
// policy out of the handlers.
//
// Its main component is the Scheduler, which manages named cron schedules
// that submit fresh tasks to the engine on every firing. Schedules are
// templates: each firing produces a new task with its own identity, so a
// recurring submission never collides with a previous run still in flight.
//
// Services receive their dependencies through constructor injection and
// express them as narrow interfaces, so tests can substitute the engine with
// a stub producer.
package service
