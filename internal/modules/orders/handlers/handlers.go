// Package handlers provides HTTP handlers for stored orders.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aristath/bankmirror/internal/httputil"
	"github.com/aristath/bankmirror/internal/modules/orders"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles order HTTP requests
type Handler struct {
	service *orders.Service
	log     zerolog.Logger
}

// NewHandler creates a new orders handler
func NewHandler(service *orders.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "orders").Logger(),
	}
}

// HandleList handles GET /api/orders
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListOrders(r.Context())
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, h.log, http.StatusOK, map[string]interface{}{"data": list})
}

// HandleCreate handles POST /api/orders
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in orders.OrderCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httputil.WriteError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.CreateOrder(r.Context(), in)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, h.log, http.StatusCreated, order)
}

// HandleUpdateStatus handles POST /api/orders/{id}/status
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, h.log, http.StatusBadRequest, "Invalid order id")
		return
	}

	var body orders.StatusUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, h.log, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), id, body.Status)
	if err != nil {
		httputil.WriteServiceError(w, h.log, err)
		return
	}
	httputil.WriteJSON(w, h.log, http.StatusOK, order)
}

// RegisterRoutes registers the order routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Post("/{id}/status", h.HandleUpdateStatus)
	})
}
