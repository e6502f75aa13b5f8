// Package handlers provides HTTP handlers for account balances and sessions.
package handlers

import (
	"net/http"

	"github.com/aristath/bankmirror/internal/domain"
	"github.com/aristath/bankmirror/internal/httputil"
	"github.com/aristath/bankmirror/internal/modules/accounts"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles account HTTP requests
type Handler struct {
	service *accounts.AccountService
	log     zerolog.Logger
}

// NewHandler creates a new accounts handler
func NewHandler(service *accounts.AccountService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "accounts").Logger(),
	}
}

type balancesResponse struct {
	Data      []accounts.BalanceSummary `json:"data"`
	Refreshed bool                      `json:"refreshed"`
}

func balanceQuery(r *http.Request) domain.BalanceQuery {
	return domain.BalanceQuery{WithoutAttr: httputil.QueryString(r, "without-attr")}
}

// HandleGetBalances returns cached balances, filling the cache on a miss.
// ?refresh=true forces an upstream call.
func (h *Handler) HandleGetBalances(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	force := httputil.QueryBool(r, "refresh")

	balances, refreshed, err := h.service.GetBalances(r.Context(), userID, force, balanceQuery(r), httputil.ForwardedHeaders(r))
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}

	httputil.WriteJSON(w, h.log, http.StatusOK, balancesResponse{
		Data:      accounts.Summarize(balances),
		Refreshed: refreshed,
	})
}

// HandleRefreshBalances always fetches upstream and rewrites the cache.
func (h *Handler) HandleRefreshBalances(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	list, err := h.service.RefreshAccountBalances(r.Context(), userID, balanceQuery(r), httputil.ForwardedHeaders(r))
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}

	httputil.WriteJSON(w, h.log, http.StatusOK, balancesResponse{
		Data:      accounts.Summarize(list.Values),
		Refreshed: true,
	})
}

// HandleGetBalanceSummary returns a live summary without touching the cache.
func (h *Handler) HandleGetBalanceSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	summary, err := h.service.GetBalanceSummary(r.Context(), userID, balanceQuery(r), httputil.ForwardedHeaders(r))
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}

	httputil.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{"data": summary})
}

// HandleGetSessions passes the upstream session list through.
func (h *Handler) HandleGetSessions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	sessions, err := h.service.GetSessions(r.Context(), userID, httputil.ForwardedHeaders(r))
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}

	httputil.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{"data": sessions})
}
