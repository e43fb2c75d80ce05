package handler

import (
	"errors"
	"net/http"

	"shopfront/internal/auth"
	"shopfront/internal/model"
	"shopfront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// WishlistHandler handles wishlist HTTP requests for the authenticated buyer.
type WishlistHandler struct {
	service service.WishlistService
	logger  zerolog.Logger
}

// NewWishlistHandler creates a new wishlist handler.
func NewWishlistHandler(service service.WishlistService, logger zerolog.Logger) *WishlistHandler {
	return &WishlistHandler{
		service: service,
		logger:  logger.With().Str("handler", "wishlist").Logger(),
	}
}

// Get handles GET /api/wishlist.
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	wishlist, err := h.service.Get(r.Context(), principal)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, wishlist)
}

// Add handles POST /api/wishlist.
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddWishlistItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, "Request body must contain a productId", h.logger)
		return
	}

	principal, _ := auth.FromContext(r.Context())

	wishlist, err := h.service.Add(r.Context(), principal, &req)
	if errors.Is(err, model.ErrProductNotFound) {
		writeError(w, r, model.NewDomainError(model.ErrCodeNotFound, "Product not found"), h.logger)
		return
	}
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, wishlist)
}

// Remove handles DELETE /api/wishlist/{productId}.
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	wishlist, err := h.service.Remove(r.Context(), principal, chi.URLParam(r, "productId"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, wishlist)
}
