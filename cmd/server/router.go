package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/api"
	apiMiddleware "github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/api/middleware"
)

// setupRouter builds the HTTP surface: producer endpoints for enqueueing,
// read-only status endpoints, and token-protected admin endpoints for the
// destructive and mutating operations.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(&app.config.Auth, app.jwtService, app.passwordVerifier)
	taskHandler := api.NewTaskHandler(app.engine)
	statusHandler := api.NewStatusHandler(app.engine)
	configHandler := api.NewConfigHandler(app.engine)
	scheduleHandler := api.NewScheduleHandler(app.scheduler)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	rateLimiter := apiMiddleware.NewRateLimitMiddleware(
		app.config.Server.EnqueueRateLimit,
		app.config.Server.EnqueueRateBurst,
	)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/token", authHandler.Token)

		// Producer endpoints, rate limited.
		r.Group(func(r chi.Router) {
			r.Use(rateLimiter.Limit)
			r.Post("/tasks", taskHandler.Submit)
			r.Post("/tasks/batch", taskHandler.SubmitBatch)
		})

		// Read-only status endpoints.
		r.Get("/queues", statusHandler.Queues)
		r.Get("/queues/{level}", statusHandler.Queue)
		r.Get("/workers", statusHandler.Workers)
		r.Get("/workers/{id}", statusHandler.Worker)
		r.Get("/batch-processors", statusHandler.BatchProcessors)
		r.Get("/batch-processors/{id}", statusHandler.BatchProcessor)
		r.Get("/metrics", statusHandler.Performance)
		r.Get("/config", configHandler.Get)

		// Admin endpoints, token required.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Delete("/queues", statusHandler.ClearAllQueues)
			r.Delete("/queues/{level}", statusHandler.ClearQueue)
			r.Patch("/config", configHandler.Update)

			r.Post("/schedules", scheduleHandler.Create)
			r.Get("/schedules", scheduleHandler.List)
			r.Get("/schedules/{name}", scheduleHandler.Get)
			r.Delete("/schedules/{name}", scheduleHandler.Delete)
		})
	})

	r.Get("/health", statusHandler.Health)
	r.Handle("/metrics", promhttp.HandlerFor(app.promRegistry, promhttp.HandlerOpts{}))

	return r
}
