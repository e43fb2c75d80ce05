package handler

import (
	"net/http"
	"strings"

	"shopfront/internal/auth"
	"shopfront/internal/model"
	"shopfront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// IdempotencyKeyHeader carries the client's retry key for order placement.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Place handles POST /api/orders requests. A replayed idempotent request
// answers 200 with the original order instead of 201.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req model.PlaceOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, "Request body must be a valid order", h.logger)
		return
	}

	if key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)); key != "" {
		req.IdempotencyKey = key
	}

	principal, _ := auth.FromContext(r.Context())

	result, err := h.service.PlaceOrder(r.Context(), principal, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}

	writeJSON(w, status, model.PlaceOrderResponse{
		OrderID: result.Order.ID,
		Status:  result.Order.Status,
		Total:   result.Order.Total,
	})
}

// List handles GET /api/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidQuery, "limit and offset must be integers", h.logger)
		return
	}

	principal, _ := auth.FromContext(r.Context())

	orders, err := h.service.ListOrders(r.Context(), principal, limit, offset)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/orders/{orderId} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseOrderID(r)
	if !ok {
		writeError(w, r, model.ErrNotFound, h.logger)
		return
	}

	principal, _ := auth.FromContext(r.Context())

	order, err := h.service.GetOrder(r.Context(), principal, orderID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// parseOrderID reads the orderId path parameter. A malformed id cannot name
// an existing order, so callers report it as not found.
func parseOrderID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
