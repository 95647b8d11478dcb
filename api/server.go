/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

SECURITY NOTE:
  No authentication middleware. Authorization is owned by the
  surrounding administrative system, not this engine.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Record ingestion
		r.Post("/fees", h.CreateFee)
		r.Post("/transactions", h.AppendTransaction)
		r.Post("/general-transactions", h.AppendGeneralTransaction)
		r.Post("/salaries", h.CreateSalary)

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Get("/reconciliation", h.GetReconciliationReport)
		})
		r.Get("/students/status", h.GetStudentStatus)

		// Refunds
		r.Post("/refunds/preview", h.PreviewRefund)

		// Schedule
		r.Route("/schedule", func(r chi.Router) {
			r.Get("/day", h.ResolveDay)
			r.Get("/penalty", h.GetPenalty)
			r.Post("/overrides", h.SaveOverride)
			r.Post("/weekdays", h.SaveWeekDaySetting)
		})

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.UpdateSettings)
			r.Post("/config", h.LoadConfig)
		})
	})

	return r
}
