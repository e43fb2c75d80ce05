package handler

import (
	"net/http"

	"shopfront/internal/auth"
	"shopfront/internal/model"
	"shopfront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CartHandler handles cart HTTP requests for the authenticated buyer.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	cart, err := h.service.Get(r.Context(), principal)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req model.AddCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, "Request body must be a valid cart item", h.logger)
		return
	}

	principal, _ := auth.FromContext(r.Context())

	cart, err := h.service.AddItem(r.Context(), principal, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// UpdateItem handles PUT /api/cart/items/{productId}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, "Request body must contain a quantity", h.logger)
		return
	}

	principal, _ := auth.FromContext(r.Context())

	cart, err := h.service.UpdateQuantity(r.Context(), principal, chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/cart/items/{productId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	cart, err := h.service.RemoveItem(r.Context(), principal, chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	if err := h.service.Clear(r.Context(), principal); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
