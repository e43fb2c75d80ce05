package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shopfront/internal/auth"
	"shopfront/internal/handler"
	"shopfront/internal/metrics"
	"shopfront/internal/model"
	"shopfront/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProductService struct{}

func (stubProductService) GetAll(context.Context, model.ProductFilter) ([]model.Product, error) {
	return []model.Product{{ID: "P001", Name: "Widget", Price: decimal.RequireFromString("9.99"), IsActive: true}}, nil
}

func (stubProductService) GetByID(_ context.Context, id string) (*model.Product, error) {
	if id != "P001" {
		return nil, model.NewProductNotFoundError(id)
	}
	return &model.Product{ID: "P001", Name: "Widget", Price: decimal.RequireFromString("9.99"), IsActive: true}, nil
}

func (stubProductService) Categories(context.Context) ([]model.Category, error) {
	return []model.Category{{Name: "Gadgets", ProductCount: 1}}, nil
}

type stubReviewService struct {
	service.ReviewService
}

func (stubReviewService) List(_ context.Context, productID string, _, _ int) (*model.ProductReviews, error) {
	return &model.ProductReviews{ProductID: productID, Reviews: []model.Review{}}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *auth.TokenManager) {
	t.Helper()

	logger := zerolog.Nop()
	tokens := auth.NewTokenManager("router-secret", "")
	reg := prometheus.NewRegistry()
	metrics.New(reg).CacheLookup("hit")

	// Only the catalogue and review listing are backed by services; the other
	// routes are exercised on paths that stop in middleware.
	h := Handlers{
		Products: handler.NewProductHandler(stubProductService{}, logger),
		Reviews:  handler.NewReviewHandler(stubReviewService{}, logger),
		Cart:     handler.NewCartHandler(nil, logger),
		Wishlist: handler.NewWishlistHandler(nil, logger),
		Orders:   handler.NewOrderHandler(nil, logger),
		Admin:    handler.NewAdminHandler(nil, nil, logger),
	}

	return New(h, tokens, reg, logger), tokens
}

func TestRouter_PublicRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		bodyContains   string
	}{
		{
			name:           "Health",
			path:           "/health",
			expectedStatus: http.StatusOK,
			bodyContains:   "healthy",
		},
		{
			name:           "Metrics",
			path:           "/metrics",
			expectedStatus: http.StatusOK,
			bodyContains:   "shopfront_catalog_cache_lookups_total",
		},
		{
			name:           "Product list without a token",
			path:           "/api/products",
			expectedStatus: http.StatusOK,
			bodyContains:   "P001",
		},
		{
			name:           "Product by ID",
			path:           "/api/products/P001",
			expectedStatus: http.StatusOK,
			bodyContains:   "Widget",
		},
		{
			name:           "Unknown product",
			path:           "/api/products/P404",
			expectedStatus: http.StatusNotFound,
			bodyContains:   model.ErrCodeNotFound,
		},
		{
			name:           "Categories",
			path:           "/api/categories",
			expectedStatus: http.StatusOK,
			bodyContains:   "Gadgets",
		},
		{
			name:           "Reviews are public",
			path:           "/api/products/P001/reviews",
			expectedStatus: http.StatusOK,
			bodyContains:   `"productId":"P001"`,
		},
		{
			name:           "Unknown route",
			path:           "/api/nothing",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.bodyContains != "" {
				body, err := io.ReadAll(w.Body)
				require.NoError(t, err)
				assert.True(t, strings.Contains(string(body), tt.bodyContains), "body: %s", body)
			}
		})
	}
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	r, tokens := newTestRouter(t)

	customerToken, err := tokens.Issue(auth.Principal{BuyerID: "buyer-1", Role: auth.RoleCustomer}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Cart requires a token",
			method:         http.MethodGet,
			path:           "/api/cart",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   model.ErrCodeUnauthenticated,
		},
		{
			name:           "Order placement requires a token",
			method:         http.MethodPost,
			path:           "/api/orders",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   model.ErrCodeUnauthenticated,
		},
		{
			name:           "Admin stats require a token",
			method:         http.MethodGet,
			path:           "/api/admin/stats",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   model.ErrCodeUnauthenticated,
		},
		{
			name:           "Writing a review requires a token",
			method:         http.MethodPost,
			path:           "/api/products/P001/reviews",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   model.ErrCodeUnauthenticated,
		},
		{
			name:           "Marking a review helpful requires a token",
			method:         http.MethodPost,
			path:           "/api/reviews/3f1c5e0a-1111-4b8e-9d55-0a6d1c2b7e11/helpful",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   model.ErrCodeUnauthenticated,
		},
		{
			name:           "Wishlist requires a token",
			method:         http.MethodDelete,
			path:           "/api/wishlist/P001",
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   model.ErrCodeUnauthenticated,
		},
		{
			name:           "Customers cannot read analytics",
			method:         http.MethodGet,
			path:           "/api/admin/analytics",
			token:          customerToken,
			expectedStatus: http.StatusForbidden,
			expectedCode:   model.ErrCodeForbidden,
		},
		{
			name:           "Customers cannot reach admin routes",
			method:         http.MethodPut,
			path:           "/api/admin/orders/3f1c5e0a-1111-4b8e-9d55-0a6d1c2b7e11/status",
			token:          customerToken,
			expectedStatus: http.StatusForbidden,
			expectedCode:   model.ErrCodeForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp model.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedCode, resp.Error)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestRouter_Preflight(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key")
}
