package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopfront/internal/cache"
	"shopfront/internal/metrics"
	"shopfront/internal/model"
	"shopfront/internal/repository"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	catalog     cache.ProductCache
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewProductService creates a new product service. Reads go through catalog
// first; pass cache.NopCache{} to disable caching.
func NewProductService(productRepo repository.ProductRepository, catalog cache.ProductCache, m *metrics.Metrics, logger zerolog.Logger) ProductService {
	if catalog == nil {
		catalog = cache.NopCache{}
	}
	return &productService{
		productRepo: productRepo,
		catalog:     catalog,
		metrics:     m,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves active products matching filter with pagination.
func (s *productService) GetAll(ctx context.Context, filter model.ProductFilter) (products []model.Product, err error) {
	ctx, span := tracer.Start(ctx, "ProductService.GetAll")
	defer func() { endSpan(span, err) }()

	filter.Search = strings.TrimSpace(filter.Search)
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)

	span.SetAttributes(
		attribute.String("catalog.search", filter.Search),
		attribute.String("catalog.category", filter.Category),
		attribute.Bool("catalog.featured", filter.Featured),
	)

	// The generation is read before the database so a page loaded while an
	// invalidation lands is stored under the old generation and never served.
	gen, cacheable := s.generation(ctx)
	if cacheable {
		cached, err := s.catalog.GetPage(ctx, gen, filter)
		if s.lookup(err, "page") {
			return cached, nil
		}
	}

	products, err = s.productRepo.GetAll(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", filter.Limit).
			Int("offset", filter.Offset).
			Msg("failed to get all products")
		return nil, repository.Classify(fmt.Errorf("failed to get products: %w", err))
	}

	if cacheable {
		if err := s.catalog.SetPage(ctx, gen, filter, products); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache product page")
		}
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", filter.Limit).
		Int("offset", filter.Offset).
		Str("category", filter.Category).
		Bool("featured", filter.Featured).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single active product by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		s.logger.Warn().Msg("product ID is empty")
		return nil, model.ErrProductNotFound
	}

	gen, cacheable := s.generation(ctx)
	if cacheable {
		cached, err := s.catalog.GetProduct(ctx, gen, id)
		if s.lookup(err, "product") {
			return cached, nil
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, repository.Classify(fmt.Errorf("failed to get product: %w", err))
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.NewProductNotFoundError(id)
	}

	if cacheable {
		if err := s.catalog.SetProduct(ctx, gen, product); err != nil {
			s.logger.Warn().Err(err).Str("product_id", id).Msg("failed to cache product")
		}
	}

	return product, nil
}

// Categories lists the categories that have at least one active product.
func (s *productService) Categories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.productRepo.ListCategories(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, repository.Classify(fmt.Errorf("failed to list categories: %w", err))
	}
	return categories, nil
}

// generation reports the current cache generation. When it cannot be read
// the cache is bypassed for the whole request.
func (s *productService) generation(ctx context.Context) (int64, bool) {
	gen, err := s.catalog.Generation(ctx)
	if err != nil {
		s.metrics.CacheLookup("error")
		s.logger.Warn().Err(err).Msg("catalogue cache generation unavailable")
		return 0, false
	}
	return gen, true
}

// lookup records a cache read and reports whether it was a hit. Cache
// failures fall through to the database.
func (s *productService) lookup(err error, what string) bool {
	switch {
	case err == nil:
		s.metrics.CacheLookup("hit")
		return true
	case errors.Is(err, cache.ErrCacheMiss):
		s.metrics.CacheLookup("miss")
	default:
		s.metrics.CacheLookup("error")
		s.logger.Warn().Err(err).Str("entry", what).Msg("catalogue cache unavailable")
	}
	return false
}
