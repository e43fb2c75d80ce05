package database

import (
	"context"
	"testing"
	"time"

	"shopfront/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@h:5432/db?sslmode=disable", "pgx5://u:p@h:5432/db?sslmode=disable"},
		{"postgresql://u:p@h/db", "pgx5://u:p@h/db"},
		{"pgx5://u:p@h/db", "pgx5://u:p@h/db"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, migrateURL(tt.in))
		})
	}
}

func TestLatestVersion(t *testing.T) {
	latest, err := LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), latest)
}

func TestSchemaStatus_Pending(t *testing.T) {
	assert.True(t, SchemaStatus{Current: 1, Latest: 2}.Pending())
	assert.False(t, SchemaStatus{Current: 2, Latest: 2}.Pending())
}

func TestNewPool_CannotConnect(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.DatabaseConfig{
		Host:            "127.0.0.1",
		Port:            1,
		User:            "nobody",
		Database:        "none",
		MaxConnections:  2,
		MinConnections:  1,
		MaxConnLifetime: 60,
	}

	pool, err := NewPool(ctx, cfg, zerolog.Nop())

	require.Error(t, err)
	assert.Nil(t, pool)
}

func TestMigrate_AppliesSchemaIdempotently(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping database test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	before, err := Status(connStr)
	require.NoError(t, err)
	assert.Zero(t, before.Current)
	assert.True(t, before.Pending())

	require.NoError(t, Migrate(connStr, zerolog.Nop()))
	// Second run is a no-op.
	require.NoError(t, Migrate(connStr, zerolog.Nop()))

	after, err := Status(connStr)
	require.NoError(t, err)
	assert.Equal(t, after.Latest, after.Current)
	assert.False(t, after.Dirty)
	assert.False(t, after.Pending())

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	pool, err := NewPool(ctx, config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "postgres",
		Password:        "postgres",
		Database:        "testdb",
		MaxConnections:  4,
		MinConnections:  1,
		MaxConnLifetime: 60,
		LockTimeout:     1500 * time.Millisecond,
	}, zerolog.Nop())
	require.NoError(t, err)
	defer pool.Close()

	var lockTimeout, appName string
	require.NoError(t, pool.QueryRow(ctx, "SHOW lock_timeout").Scan(&lockTimeout))
	require.NoError(t, pool.QueryRow(ctx, "SHOW application_name").Scan(&appName))
	assert.Equal(t, "1500ms", lockTimeout)
	assert.Equal(t, "shopfront", appName)

	for _, table := range []string{"products", "cart_items", "orders", "order_lines", "reviews", "wishlist_items"} {
		var exists bool
		err := pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, table)
	}

	_, err = pool.Exec(ctx, `INSERT INTO products (id, name, price, stock) VALUES ('P1', 'Mug', 5, 0)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE products SET stock = stock - 1 WHERE id = 'P1'`)
	assert.Error(t, err, "stock must never go negative")

	var featured bool
	require.NoError(t, pool.QueryRow(ctx, "SELECT featured FROM products WHERE id = 'P1'").Scan(&featured))
	assert.False(t, featured)

	_, err = pool.Exec(ctx, `INSERT INTO reviews (id, product_id, buyer_id, rating, title, comment)
		VALUES (gen_random_uuid(), 'P1', 'b1', 6, 't', 'c')`)
	assert.Error(t, err, "ratings are bounded to 1..5")
}
