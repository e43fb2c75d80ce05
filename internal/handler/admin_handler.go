package handler

import (
	"net/http"

	"shopfront/internal/auth"
	"shopfront/internal/model"
	"shopfront/internal/service"

	"github.com/rs/zerolog"
)

// AdminHandler handles back-office HTTP requests.
type AdminHandler struct {
	orders service.OrderService
	admin  service.AdminService
	logger zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(orders service.OrderService, admin service.AdminService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		orders: orders,
		admin:  admin,
		logger: logger.With().Str("handler", "admin").Logger(),
	}
}

// ListOrders handles GET /api/admin/orders?status=&limit=&offset=.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidQuery, "limit and offset must be integers", h.logger)
		return
	}

	principal, _ := auth.FromContext(r.Context())

	orders, err := h.admin.ListAllOrders(r.Context(), principal, r.URL.Query().Get("status"), limit, offset)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// UpdateStatus handles PUT /api/admin/orders/{orderId}/status.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, "Request body must contain a status", h.logger)
		return
	}

	orderID, ok := parseOrderID(r)
	if !ok {
		writeError(w, r, model.ErrNotFound, h.logger)
		return
	}

	principal, _ := auth.FromContext(r.Context())

	order, err := h.orders.UpdateOrderStatus(r.Context(), principal, orderID, req.Status)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	stats, err := h.admin.Stats(r.Context(), principal)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Analytics handles GET /api/admin/analytics?range=7d|30d|90d.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	analytics, err := h.admin.Analytics(r.Context(), principal, r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, analytics)
}
