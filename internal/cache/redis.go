package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"shopfront/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const generationKey = "catalog:gen"

var _ ProductCache = (*RedisCache)(nil)

// RedisCache stores catalogue reads in Redis as JSON. Every key embeds the
// generation counter so a single INCR invalidates all of them.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache creates a product cache backed by client.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "catalog_cache").Logger(),
	}
}

// Generation returns the current catalogue generation, zero when unset.
func (r *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get failed: %w", err)
	}
	return gen, nil
}

func (r *RedisCache) GetProduct(ctx context.Context, gen int64, id string) (*model.Product, error) {
	var p model.Product
	if err := r.get(ctx, productKey(gen, id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RedisCache) SetProduct(ctx context.Context, gen int64, product *model.Product) error {
	return r.set(ctx, productKey(gen, product.ID), product)
}

func (r *RedisCache) GetPage(ctx context.Context, gen int64, filter model.ProductFilter) ([]model.Product, error) {
	var products []model.Product
	if err := r.get(ctx, pageKey(gen, filter), &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *RedisCache) SetPage(ctx context.Context, gen int64, filter model.ProductFilter, products []model.Product) error {
	return r.set(ctx, pageKey(gen, filter), products)
}

// Invalidate advances the generation. Entries under older generations are
// left to expire with their TTL.
func (r *RedisCache) Invalidate(ctx context.Context, productIDs ...string) error {
	gen, err := r.client.Incr(ctx, generationKey).Result()
	if err != nil {
		return fmt.Errorf("redis invalidate failed: %w", err)
	}

	r.logger.Debug().
		Int64("generation", gen).
		Strs("product_ids", productIDs).
		Msg("catalog cache invalidated")
	return nil
}

func (r *RedisCache) get(ctx context.Context, key string, dst any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err)
	}
	return nil
}

func (r *RedisCache) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func productKey(gen int64, id string) string {
	return fmt.Sprintf("catalog:%d:product:%s", gen, id)
}

// pageKey encodes every field of filter. Free-text parts are query-escaped
// so a ':' in a search cannot alias another key.
func pageKey(gen int64, filter model.ProductFilter) string {
	return fmt.Sprintf("catalog:%d:page:%d:%d:%t:%s:%s",
		gen,
		filter.Limit,
		filter.Offset,
		filter.Featured,
		url.QueryEscape(filter.Category),
		url.QueryEscape(strings.ToLower(filter.Search)),
	)
}
