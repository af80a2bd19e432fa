package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// WS ticket requires authentication - user must be logged in to request a ticket
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Subsystem description and counters
			r.Get("/description", s.handleDescription)
			r.Get("/stats", s.handleStats)
			r.Get("/keycodes", s.handleKeycodes)

			// Remote endpoints
			r.Route("/remotes", func(r chi.Router) {
				r.Get("/", s.handleListRemotes)
				r.With(s.requireAdmin).Post("/", s.handleCreateRemote)

				r.Route("/{remote}", func(r chi.Router) {
					r.Get("/", s.handleGetRemote)
					r.With(s.requireAdmin).Delete("/", s.handleDeleteRemote)
					r.Get("/attributes/{attr}", s.handleGetRemoteAttr)
					r.Get("/history", s.handleRemoteEvents)

					// Keymap endpoints
					r.Route("/keymaps", func(r chi.Router) {
						r.Get("/", s.handleListKeymaps)
						r.With(s.requireAdmin).Post("/", s.handleCreateKeymap)

						r.Route("/{keymap}", func(r chi.Router) {
							r.Get("/", s.handleGetKeymap)
							r.With(s.requireAdmin).Delete("/", s.handleDeleteKeymap)
							r.Get("/attributes/{field}", s.handleGetKeymapAttr)
							r.With(s.requireAdmin).Put("/attributes/{field}", s.handleSetKeymapAttr)
						})
					})
				})
			})

			// Signal injection for keymap testing
			r.With(s.requireAdmin).Post("/translate", s.handleTranslate)

			// Signal history
			r.Get("/history", s.handleEvents)
			r.With(s.requireAdmin).Delete("/history", s.handlePruneEvents)

			// Destructive tree reset
			r.With(s.requireAdmin).Post("/system/reset", s.handleReset)
		})

		// WebSocket upgrades cannot carry an Authorization header from
		// browsers, so auth happens via single-use ticket in the handler.
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
