// Package api handles incoming HTTP requests, request validation, and
// response formatting for the scheduling engine. It acts as an adapter
// between external clients and the engine, translating HTTP concerns to
// enqueue, status, configuration and schedule operations.
package api
