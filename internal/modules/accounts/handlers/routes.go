package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all account routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/clients/{userID}", func(r chi.Router) {
		r.Get("/balances", h.HandleGetBalances)               // Cached balances (?refresh=true forces)
		r.Post("/balances/refresh", h.HandleRefreshBalances)  // Force upstream refresh
		r.Get("/balances/summary", h.HandleGetBalanceSummary) // Live summary, uncached
		r.Get("/sessions", h.HandleGetSessions)               // Upstream sessions passthrough
	})
}
