package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shopfront/internal/model"
	"shopfront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// GetAll handles GET /api/products?search=&category=&featured=&limit=&offset=.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeBadRequest(w, r, model.ErrCodeInvalidQuery, "limit and offset must be integers", h.logger)
		return
	}

	q := r.URL.Query()
	filter := model.ProductFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Limit:    limit,
		Offset:   offset,
	}
	if s := q.Get("featured"); s != "" {
		if filter.Featured, err = strconv.ParseBool(s); err != nil {
			writeBadRequest(w, r, model.ErrCodeInvalidQuery, "featured must be true or false", h.logger)
			return
		}
	}

	products, err := h.service.GetAll(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	product, err := h.service.GetByID(r.Context(), productID)
	if errors.Is(err, model.ErrProductNotFound) {
		// A missing catalogue entry is a 404 here, unlike inside an order.
		writeError(w, r, model.NewDomainError(model.ErrCodeNotFound, "Product not found"), h.logger)
		return
	}
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Categories handles GET /api/categories.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, categories)
}
