package cache

import (
	"context"
	"errors"

	"shopfront/internal/model"
)

// ErrCacheMiss is returned when a key is not cached.
var ErrCacheMiss = errors.New("cache miss")

// ProductCache is a read-through cache for catalogue reads. Order placement
// never reads from it; it only invalidates entries whose stock changed.
//
// Entries are scoped by a catalogue generation. Readers call Generation
// before querying the database and pass the value to the Set methods, so a
// result computed before an invalidation is stored under the old generation
// and never served.
type ProductCache interface {
	Generation(ctx context.Context) (int64, error)

	GetProduct(ctx context.Context, gen int64, id string) (*model.Product, error)
	SetProduct(ctx context.Context, gen int64, product *model.Product) error
	GetPage(ctx context.Context, gen int64, filter model.ProductFilter) ([]model.Product, error)
	SetPage(ctx context.Context, gen int64, filter model.ProductFilter, products []model.Product) error

	// Invalidate advances the generation, dropping every cached product and
	// page. productIDs are only logged.
	Invalidate(ctx context.Context, productIDs ...string) error
}

// NopCache is used when Redis is disabled. Every read misses.
type NopCache struct{}

func (NopCache) Generation(context.Context) (int64, error) { return 0, nil }
func (NopCache) GetProduct(context.Context, int64, string) (*model.Product, error) {
	return nil, ErrCacheMiss
}
func (NopCache) SetProduct(context.Context, int64, *model.Product) error { return nil }
func (NopCache) GetPage(context.Context, int64, model.ProductFilter) ([]model.Product, error) {
	return nil, ErrCacheMiss
}
func (NopCache) SetPage(context.Context, int64, model.ProductFilter, []model.Product) error {
	return nil
}
func (NopCache) Invalidate(context.Context, ...string) error { return nil }
