package repository

import (
	"context"
	"testing"

	"shopfront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewWishlistRepository(pool, zerolog.Nop())
	seedProducts(t, pool, []model.Product{
		product("P001", "Product A", "10.00", 5, true),
		product("P002", "Product B", "20.00", 0, true),
	})

	added, err := repo.Add(ctx, "buyer-1", "P001")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.Add(ctx, "buyer-1", "P001")
	require.NoError(t, err)
	assert.False(t, added, "saving twice is a no-op")

	_, err = pool.Exec(ctx, "UPDATE wishlist_items SET added_at = NOW() - INTERVAL '1 hour' WHERE product_id = 'P001'")
	require.NoError(t, err)

	added, err = repo.Add(ctx, "buyer-1", "P002")
	require.NoError(t, err)
	assert.True(t, added)

	_, err = repo.Add(ctx, "buyer-2", "P001")
	require.NoError(t, err)

	_, err = repo.Add(ctx, "buyer-1", "P404")
	assert.Error(t, err, "unknown products violate the foreign key")

	items, err := repo.List(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "P002", items[0].ProductID, "newest first")
	assert.Equal(t, "Product B", items[0].ProductName)
	assert.Equal(t, 0, items[0].Stock)
	assert.Equal(t, "P001", items[1].ProductID)

	removed, err := repo.Remove(ctx, "buyer-1", "P001")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Remove(ctx, "buyer-1", "P001")
	require.NoError(t, err)
	assert.False(t, removed)

	items, err = repo.List(ctx, "buyer-2")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
