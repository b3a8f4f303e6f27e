package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/psusim/psusim/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Everything below needs at least read access once a secret is set.
		r.Group(func(r chi.Router) {
			r.Use(s.requirePermission(auth.PermSupplyRead))

			r.Route("/supplies", func(r chi.Router) {
				r.Get("/", s.handleListSupplies)

				r.Route("/{name}", func(r chi.Router) {
					r.Get("/", s.handleGetSupply)
					r.Get("/history", s.handleGetHistory)
					r.Get("/properties/{property}", s.handleGetProperty)
					r.With(s.requirePermission(auth.PermSupplyWrite)).
						Put("/properties/{property}", s.handleSetProperty)
				})
			})

			r.Route("/params", func(r chi.Router) {
				r.Get("/", s.handleListParams)
				r.Get("/{key}", s.handleGetParam)
				r.With(s.requirePermission(auth.PermParamWrite)).
					Put("/{key}", s.handleSetParam)
			})

			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if !s.sim.Initialized() {
		status = "down"
	}
	body := map[string]any{
		"status":     status,
		"version":    s.version,
		"ws_clients": s.hub.ClientCount(),
	}
	if !s.startedAt.IsZero() {
		body["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	writeJSON(w, http.StatusOK, body)
}
