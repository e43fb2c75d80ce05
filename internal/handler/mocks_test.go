package handler

import (
	"context"
	"net/http"

	"shopfront/internal/auth"
	"shopfront/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, principal auth.Principal, req *model.PlaceOrderRequest) (*model.PlaceOrderResult, error) {
	args := m.Called(ctx, principal, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlaceOrderResult), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, principal auth.Principal, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, principal, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, principal auth.Principal, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, principal, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, principal auth.Principal, id uuid.UUID, status string) (*model.Order, error) {
	args := m.Called(ctx, principal, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Categories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

// MockReviewService is a mock implementation of ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) List(ctx context.Context, productID string, limit, offset int) (*model.ProductReviews, error) {
	args := m.Called(ctx, productID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductReviews), args.Error(1)
}

func (m *MockReviewService) Create(ctx context.Context, principal auth.Principal, productID string, req *model.CreateReviewRequest) (*model.Review, error) {
	args := m.Called(ctx, principal, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewService) MarkHelpful(ctx context.Context, principal auth.Principal, id uuid.UUID) (*model.Review, error) {
	args := m.Called(ctx, principal, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

// MockWishlistService is a mock implementation of WishlistService.
type MockWishlistService struct {
	mock.Mock
}

func (m *MockWishlistService) Get(ctx context.Context, principal auth.Principal) (*model.Wishlist, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wishlist), args.Error(1)
}

func (m *MockWishlistService) Add(ctx context.Context, principal auth.Principal, req *model.AddWishlistItemRequest) (*model.Wishlist, error) {
	args := m.Called(ctx, principal, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wishlist), args.Error(1)
}

func (m *MockWishlistService) Remove(ctx context.Context, principal auth.Principal, productID string) (*model.Wishlist, error) {
	args := m.Called(ctx, principal, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wishlist), args.Error(1)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Get(ctx context.Context, principal auth.Principal) (*model.Cart, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, principal auth.Principal, req *model.AddCartItemRequest) (*model.Cart, error) {
	args := m.Called(ctx, principal, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, principal auth.Principal, productID string, quantity int) (*model.Cart, error) {
	args := m.Called(ctx, principal, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, principal auth.Principal, productID string) (*model.Cart, error) {
	args := m.Called(ctx, principal, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) Clear(ctx context.Context, principal auth.Principal) error {
	args := m.Called(ctx, principal)
	return args.Error(0)
}

// MockAdminService is a mock implementation of AdminService.
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListAllOrders(ctx context.Context, principal auth.Principal, status string, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, principal, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockAdminService) Stats(ctx context.Context, principal auth.Principal) (*model.DashboardStats, error) {
	args := m.Called(ctx, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DashboardStats), args.Error(1)
}

func (m *MockAdminService) Analytics(ctx context.Context, principal auth.Principal, window string) (*model.Analytics, error) {
	args := m.Called(ctx, principal, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Analytics), args.Error(1)
}

var (
	customer = auth.Principal{BuyerID: "buyer-1", Email: "buyer@example.com", Role: auth.RoleCustomer}
	admin    = auth.Principal{BuyerID: "admin-1", Email: "admin@example.com", Role: auth.RoleAdmin}
)

// withRoute attaches chi URL parameters and an optional principal to req,
// as the router and authentication middleware would.
func withRoute(req *http.Request, principal *auth.Principal, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if principal != nil {
		ctx = auth.WithPrincipal(ctx, *principal)
	}
	return req.WithContext(ctx)
}
