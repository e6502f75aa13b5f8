// Package handlers provides HTTP handlers for account transactions.
package handlers

import (
	"net/http"

	"github.com/aristath/bankmirror/internal/domain"
	"github.com/aristath/bankmirror/internal/httputil"
	"github.com/aristath/bankmirror/internal/modules/transactions"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles transaction HTTP requests
type Handler struct {
	service *transactions.TransactionService
	log     zerolog.Logger
}

// NewHandler creates a new transactions handler
func NewHandler(service *transactions.TransactionService, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "transactions").Logger(),
	}
}

type transactionsResponse struct {
	Data      []transactions.TransactionRecord `json:"data"`
	Refreshed bool                             `json:"refreshed"`
}

func transactionQuery(r *http.Request) (domain.TransactionQuery, error) {
	pagingFirst, err := httputil.QueryInt(r, "paging-first")
	if err != nil {
		return domain.TransactionQuery{}, err
	}
	if pagingFirst != nil && *pagingFirst < 1 {
		return domain.TransactionQuery{}, &domain.ValidationError{Field: "paging-first", Message: "must be at least 1"}
	}
	return domain.TransactionQuery{
		TransactionState:     httputil.QueryString(r, "transactionState"),
		TransactionDirection: httputil.QueryString(r, "transactionDirection"),
		PagingFirst:          pagingFirst,
		WithAttr:             httputil.QueryString(r, "with-attr"),
	}, nil
}

// HandleGetTransactions returns cached transactions, filling the cache on a miss.
func (h *Handler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	q, err := transactionQuery(r)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}

	txns, refreshed, err := h.service.GetTransactions(r.Context(), accountID, httputil.QueryBool(r, "refresh"), q, httputil.ForwardedHeaders(r))
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}

	httputil.WriteJSON(w, h.log, http.StatusOK, transactionsResponse{
		Data:      transactions.ToRecords(accountID, txns),
		Refreshed: refreshed,
	})
}

// HandleRefreshTransactions always fetches upstream and merges into the cache.
func (h *Handler) HandleRefreshTransactions(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	q, err := transactionQuery(r)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}

	list, err := h.service.RefreshTransactions(r.Context(), accountID, q, httputil.ForwardedHeaders(r))
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}

	httputil.WriteJSON(w, h.log, http.StatusOK, transactionsResponse{
		Data:      transactions.ToRecords(accountID, list.Values),
		Refreshed: true,
	})
}
