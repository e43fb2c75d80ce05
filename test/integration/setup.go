package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"shopfront/internal/auth"
	"shopfront/internal/cache"
	"shopfront/internal/database"
	"shopfront/internal/handler"
	"shopfront/internal/model"
	"shopfront/internal/notify"
	"shopfront/internal/repository"
	"shopfront/internal/router"
	"shopfront/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testJWTSecret = "integration-secret"

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, applies the schema
// migrations and opens a connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.Migrate(connStr, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 20

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// recordingNotifier captures notifications instead of delivering them.
type recordingNotifier struct {
	sent chan notify.Kind
}

func (n *recordingNotifier) Notify(_ context.Context, kind notify.Kind, _ *model.Order) {
	select {
	case n.sent <- kind:
	default:
	}
}

// TestServer is the full HTTP stack backed by a test database.
type TestServer struct {
	Handler  http.Handler
	Tokens   *auth.TokenManager
	Notifier *recordingNotifier
}

// NewTestServer wires repositories, services and handlers the same way the
// API binary does, without Redis or an email provider.
func NewTestServer(t *testing.T, testDB *TestDB, orderCfg service.OrderConfig) *TestServer {
	t.Helper()

	logger := zerolog.Nop()
	notifier := &recordingNotifier{sent: make(chan notify.Kind, 64)}
	catalog := cache.NopCache{}

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	cartRepo := repository.NewCartRepository(testDB.Pool, logger)
	reviewRepo := repository.NewReviewRepository(testDB.Pool, logger)
	wishlistRepo := repository.NewWishlistRepository(testDB.Pool, logger)

	productService := service.NewProductService(productRepo, catalog, nil, logger)
	cartService := service.NewCartService(cartRepo, productRepo, orderRepo, logger)
	orderService := service.NewOrderService(orderCfg, orderRepo, productRepo, cartRepo, catalog, notifier, nil, logger)
	adminService := service.NewAdminService(orderRepo, productRepo, 5, logger)
	reviewService := service.NewReviewService(reviewRepo, productRepo, logger)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo, logger)

	tokens := auth.NewTokenManager(testJWTSecret, "")

	h := router.New(
		router.Handlers{
			Products: handler.NewProductHandler(productService, logger),
			Reviews:  handler.NewReviewHandler(reviewService, logger),
			Cart:     handler.NewCartHandler(cartService, logger),
			Wishlist: handler.NewWishlistHandler(wishlistService, logger),
			Orders:   handler.NewOrderHandler(orderService, logger),
			Admin:    handler.NewAdminHandler(orderService, adminService, logger),
		},
		tokens,
		nil,
		logger,
	)

	return &TestServer{Handler: h, Tokens: tokens, Notifier: notifier}
}

// Token issues a bearer token for buyerID with the given role.
func (s *TestServer) Token(t *testing.T, buyerID, role string) string {
	t.Helper()

	token, err := s.Tokens.Issue(auth.Principal{
		BuyerID: buyerID,
		Email:   buyerID + "@example.com",
		Role:    role,
	}, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

// SeedProducts inserts test product data into the database.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	products := []struct {
		id       string
		name     string
		price    string
		stock    int
		category string
		featured bool
		active   bool
	}{
		{"P001", "Test Product 1", "10.00", 50, "Category A", true, true},
		{"P002", "Test Product 2", "60.00", 20, "Category B", false, true},
		{"P003", "Test Product 3", "30.00", 2, "Category A", false, true},
		{"P004", "Test Product 4", "40.00", 1, "Category C", true, true},
		{"P005", "Test Product 5", "50.00", 10, "Category B", true, false},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, name, price, stock, category, featured, is_active) VALUES ($1, $2, $3, $4, $5, $6, $7)",
			p.id, p.name, decimal.RequireFromString(p.price), p.stock, p.category, p.featured, p.active,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}
}

// Stock reads the current stock of a product.
func Stock(t *testing.T, pool *pgxpool.Pool, productID string) int {
	t.Helper()

	var stock int
	if err := pool.QueryRow(context.Background(), "SELECT stock FROM products WHERE id = $1", productID).Scan(&stock); err != nil {
		t.Fatalf("failed to read stock for %s: %v", productID, err)
	}
	return stock
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()

	var n int
	if err := pool.QueryRow(context.Background(), fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"reviews", "wishlist_items", "order_lines", "orders", "cart_items", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
