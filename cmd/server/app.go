package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/config"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/engine"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/events"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/platform/metrics"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/service"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/service/auth"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/task"
)

// application holds the assembled dependencies of the server process.
type application struct {
	config       *config.Config
	logger       *slog.Logger
	promRegistry *prometheus.Registry
	emitter      *events.InMemoryEventEmitter
	engine       *engine.Engine
	scheduler    *service.Scheduler

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
}

// newApplication wires the engine, scheduler and auth services from the
// loaded configuration. Nothing is started yet; Run owns the lifecycle.
func newApplication(cfg *config.Config, log *slog.Logger) (*application, error) {
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	promRegistry := prometheus.NewRegistry()

	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(newEventLogger(log))

	eng, err := engine.New(cfg.Engine, task.DefaultRegistry(), emitter, metrics.New(promRegistry), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	scheduler, err := service.NewScheduler(eng, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &application{
		config:           cfg,
		logger:           log,
		promRegistry:     promRegistry,
		emitter:          emitter,
		engine:           eng,
		scheduler:        scheduler,
		jwtService:       jwtService,
		passwordVerifier: auth.NewBcryptVerifier(),
	}, nil
}

// Run starts the engine and scheduler, then serves HTTP until a shutdown
// signal arrives or the context is canceled.
func (app *application) Run(ctx context.Context) error {
	if err := app.engine.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}
	app.scheduler.Start()

	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup stops the background components in dependency order: the scheduler
// first so nothing new is enqueued, then the engine.
func (app *application) cleanup() {
	app.scheduler.Stop()
	app.engine.Stop()
	app.logger.Info("background components stopped")
}

// newEventLogger returns a handler that writes every engine event to the
// log, the consumer side of the engine's notification contract. Alerts log
// at WARN, final failures at ERROR, lifecycle events at DEBUG.
func newEventLogger(log *slog.Logger) events.EventHandler {
	eventLog := log.With("component", "event_log")
	return events.EventHandlerFunc(func(ctx context.Context, event *events.Event) error {
		switch event.Type {
		case events.EventAlert:
			if event.Alert != nil {
				eventLog.Warn("engine alert",
					"metric", event.Alert.Metric,
					"queue", event.Alert.Queue,
					"value", event.Alert.Value,
					"threshold", event.Alert.Threshold,
					"message", event.Alert.Message)
			}
		case events.EventTaskFailed:
			eventLog.Error("task failed",
				"task_id", event.TaskID,
				"kind", event.TaskKind,
				"priority", event.Priority,
				"attempts", event.Attempts,
				"error", event.Error)
		case events.EventTaskCompleted:
			eventLog.Debug("task completed",
				"task_id", event.TaskID,
				"kind", event.TaskKind,
				"priority", event.Priority,
				"attempts", event.Attempts)
		default:
			eventLog.Debug("task added",
				"task_id", event.TaskID,
				"kind", event.TaskKind,
				"priority", event.Priority)
		}
		return nil
	})
}
