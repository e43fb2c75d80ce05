package service

import (
	"context"
	"time"

	"shopfront/internal/model"
	"shopfront/internal/notify"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, ids []string) (map[string]model.Product, error) {
	args := m.Called(ctx, tx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]model.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id string, qty int) error {
	args := m.Called(ctx, tx, id, qty)
	return args.Error(0)
}

func (m *MockProductRepository) ListLowStock(ctx context.Context, threshold int) ([]model.LowStockProduct, error) {
	args := m.Called(ctx, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LowStockProduct), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateOrderLines(ctx context.Context, tx pgx.Tx, lines []model.OrderLine) error {
	args := m.Called(ctx, tx, lines)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIdempotencyKey(ctx context.Context, buyerID, key string) (*model.Order, error) {
	args := m.Called(ctx, buyerID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIdempotencyKeyTx(ctx context.Context, tx pgx.Tx, buyerID, key string) (*model.Order, error) {
	args := m.Called(ctx, tx, buyerID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, buyerID, key string) error {
	args := m.Called(ctx, tx, buyerID, key)
	return args.Error(0)
}

func (m *MockOrderRepository) ListByBuyer(ctx context.Context, buyerID string, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, buyerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListAll(ctx context.Context, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus) (time.Time, error) {
	args := m.Called(ctx, tx, id, status)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockOrderRepository) Stats(ctx context.Context) ([]model.StatusSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatusSummary), args.Error(1)
}

func (m *MockOrderRepository) Analytics(ctx context.Context, since time.Time, topN int) (*model.Analytics, error) {
	args := m.Called(ctx, since, topN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Analytics), args.Error(1)
}

// MockReviewRepository is a mock implementation of ReviewRepository.
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]model.Review, error) {
	args := m.Called(ctx, productID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockReviewRepository) Stats(ctx context.Context, productID string) (*model.ReviewStats, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReviewStats), args.Error(1)
}

func (m *MockReviewRepository) Create(ctx context.Context, review *model.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) MarkHelpful(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

// MockWishlistRepository is a mock implementation of WishlistRepository.
type MockWishlistRepository struct {
	mock.Mock
}

func (m *MockWishlistRepository) List(ctx context.Context, buyerID string) ([]model.WishlistItem, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WishlistItem), args.Error(1)
}

func (m *MockWishlistRepository) Add(ctx context.Context, buyerID, productID string) (bool, error) {
	args := m.Called(ctx, buyerID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWishlistRepository) Remove(ctx context.Context, buyerID, productID string) (bool, error) {
	args := m.Called(ctx, buyerID, productID)
	return args.Bool(0), args.Error(1)
}

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) Get(ctx context.Context, buyerID string) ([]model.CartItem, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *MockCartRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, buyerID string) ([]model.CartItem, error) {
	args := m.Called(ctx, tx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *MockCartRepository) AddItem(ctx context.Context, buyerID, productID string, qty int) (int, error) {
	args := m.Called(ctx, buyerID, productID, qty)
	return args.Int(0), args.Error(1)
}

func (m *MockCartRepository) SetQuantity(ctx context.Context, buyerID, productID string, qty int) error {
	args := m.Called(ctx, buyerID, productID, qty)
	return args.Error(0)
}

func (m *MockCartRepository) RemoveItem(ctx context.Context, buyerID, productID string) error {
	args := m.Called(ctx, buyerID, productID)
	return args.Error(0)
}

func (m *MockCartRepository) Clear(ctx context.Context, tx pgx.Tx, buyerID string) error {
	args := m.Called(ctx, tx, buyerID)
	return args.Error(0)
}

// MockProductCache is a mock implementation of cache.ProductCache.
type MockProductCache struct {
	mock.Mock
}

func (m *MockProductCache) Generation(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductCache) GetProduct(ctx context.Context, gen int64, id string) (*model.Product, error) {
	args := m.Called(ctx, gen, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductCache) SetProduct(ctx context.Context, gen int64, product *model.Product) error {
	args := m.Called(ctx, gen, product)
	return args.Error(0)
}

func (m *MockProductCache) GetPage(ctx context.Context, gen int64, filter model.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, gen, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductCache) SetPage(ctx context.Context, gen int64, filter model.ProductFilter, products []model.Product) error {
	args := m.Called(ctx, gen, filter, products)
	return args.Error(0)
}

func (m *MockProductCache) Invalidate(ctx context.Context, productIDs ...string) error {
	args := m.Called(ctx, productIDs)
	return args.Error(0)
}

// MockNotifier records queued notifications.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, kind notify.Kind, order *model.Order) {
	m.Called(ctx, kind, order)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
