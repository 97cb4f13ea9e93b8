/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /hooks/*              Row-change event intake
  /api/profiles/*       Profiles, ledger history, badges, redemptions
  /api/pickups/*        Pickup scheduling and lifecycle
  /api/badges           Badge catalog
  /api/leaderboard      Points ranking
  /api/admin/*          Admin operations

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Event intake
	r.Route("/hooks", func(r chi.Router) {
		r.Post("/pickup-created", h.HandlePickupCreated)
		r.Post("/pickup-updated", h.HandlePickupUpdated)
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", h.CreateProfile)
			r.Get("/{id}", h.GetProfile)
			r.Get("/{id}/ledger", h.GetLedger)
			r.Get("/{id}/badges", h.GetUserBadges)
			r.Get("/{id}/verify", h.VerifyBalance)
			r.Post("/{id}/redemptions", h.CreateRedemption)
		})

		r.Route("/pickups", func(r chi.Router) {
			r.Post("/", h.CreatePickup)
			r.Get("/{id}", h.GetPickup)
			r.Post("/{id}/status", h.UpdatePickupStatus)
		})

		r.Get("/badges", h.ListBadges)
		r.Get("/leaderboard", h.GetLeaderboard)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/adjustments", h.CreateAdjustment)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
