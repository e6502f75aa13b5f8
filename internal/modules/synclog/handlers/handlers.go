// Package handlers exposes the sync audit log over HTTP.
package handlers

import (
	"net/http"

	"github.com/aristath/bankmirror/internal/httputil"
	"github.com/aristath/bankmirror/internal/modules/synclog"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles sync log HTTP requests
type Handler struct {
	repo *synclog.Repository
	log  zerolog.Logger
}

// NewHandler creates a new sync log handler
func NewHandler(repo *synclog.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "sync_logs").Logger(),
	}
}

// HandleListSyncLogs returns the most recent entries (?limit=, default 50).
func (h *Handler) HandleListSyncLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit")
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}
	n := 50
	if limit != nil {
		n = *limit
	}

	entries, err := h.repo.ListRecent(r.Context(), n)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}

	httputil.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{"data": entries})
}

// RegisterRoutes registers the sync log routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sync-logs", h.HandleListSyncLogs)
}
