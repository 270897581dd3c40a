/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend tooling

ROUTE GROUPS:
  /api/reports          Period billing report (multipart upload)
  /api/schedule         Twelve-month schedule (multipart upload)
  /api/profiles         Registered format profiles
  /healthz              Liveness
  /metrics              Prometheus metrics

SECURITY NOTE:
  No authentication middleware. The server is meant to run inside the
  billing team's network, not on a public edge.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/billing: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/billing-engine/metrics"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/reports", h.ProcessReport)
		r.Post("/schedule", h.ProcessSchedule)
		r.Get("/profiles", h.ListProfiles)
	})

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", metrics.Handler())

	return r
}
