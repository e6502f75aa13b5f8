// Package handlers provides HTTP handlers for the persisted configuration.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/bankmirror/internal/httputil"
	"github.com/aristath/bankmirror/internal/modules/settings"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler provides HTTP handlers for settings endpoints
type Handler struct {
	service *settings.Service
	log     zerolog.Logger
}

// NewHandler creates a new settings handler
func NewHandler(service *settings.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "settings").Logger(),
	}
}

// HandleGet handles GET /api/settings. The API key is masked.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetConfiguration()
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, h.log, http.StatusOK, cfg.Masked())
}

// HandleUpdate handles PUT /api/settings
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var update settings.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		httputil.WriteError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg, err := h.service.UpdateConfiguration(update)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, h.log, http.StatusOK, cfg.Masked())
}

// RegisterRoutes registers the settings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Put("/", h.HandleUpdate)
	})
}
