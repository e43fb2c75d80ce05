package handler

import (
	"errors"
	"net/http"

	"shopfront/internal/auth"
	"shopfront/internal/model"
	"shopfront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReviewHandler handles product review HTTP requests.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("handler", "review").Logger(),
	}
}

// List handles GET /api/products/{id}/reviews.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidQuery, "limit and offset must be integers", h.logger)
		return
	}

	reviews, err := h.service.List(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}

// Create handles POST /api/products/{id}/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidJSON, "Request body must be a valid review", h.logger)
		return
	}

	principal, _ := auth.FromContext(r.Context())

	review, err := h.service.Create(r.Context(), principal, chi.URLParam(r, "id"), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// MarkHelpful handles POST /api/reviews/{reviewId}/helpful.
func (h *ReviewHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "reviewId"))
	if err != nil {
		writeError(w, r, model.ErrReviewNotFound, h.logger)
		return
	}

	principal, _ := auth.FromContext(r.Context())

	review, err := h.service.MarkHelpful(r.Context(), principal, id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, review)
}

// writeError reports a product in the path that does not exist as 404.
func (h *ReviewHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrProductNotFound) {
		writeError(w, r, model.NewDomainError(model.ErrCodeNotFound, "Product not found"), h.logger)
		return
	}
	writeError(w, r, err, h.logger)
}
