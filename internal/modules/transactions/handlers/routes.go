package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all transaction routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts/{accountID}/transactions", func(r chi.Router) {
		r.Get("/", h.HandleGetTransactions)             // Cached transactions (?refresh=true forces)
		r.Post("/refresh", h.HandleRefreshTransactions) // Force upstream refresh
	})
}
