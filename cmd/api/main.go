package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopfront/internal/auth"
	"shopfront/internal/cache"
	"shopfront/internal/config"
	"shopfront/internal/database"
	"shopfront/internal/handler"
	"shopfront/internal/metrics"
	"shopfront/internal/notify"
	"shopfront/internal/repository"
	"shopfront/internal/router"
	"shopfront/internal/service"
	"shopfront/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting shopfront API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.NewTracerProvider(cfg.Tracing, os.Stdout, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	telemetry.Install(tp, logger)
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to flush spans")
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	var catalog cache.ProductCache = cache.NopCache{}
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			// The catalogue falls back to the database on cache errors, so a
			// cold Redis is not fatal.
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable at startup")
		}
		catalog = cache.NewRedisCache(client, cfg.Redis.TTL, logger)
		logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("catalogue cache enabled")
	}

	dispatcher, err := newDispatcher(ctx, cfg, m, logger)
	if err != nil {
		return err
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	reviewRepo := repository.NewReviewRepository(pool, logger)
	wishlistRepo := repository.NewWishlistRepository(pool, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, catalog, m, logger)
	cartService := service.NewCartService(cartRepo, productRepo, orderRepo, logger)
	orderService := service.NewOrderService(
		service.OrderConfig{
			PlacementTimeout:  cfg.Order.PlacementTimeout,
			StrictTransitions: cfg.Order.StrictTransitions,
		},
		orderRepo, productRepo, cartRepo, catalog, dispatcher, m, logger,
	)
	adminService := service.NewAdminService(orderRepo, productRepo, cfg.Order.LowStockThreshold, logger)
	reviewService := service.NewReviewService(reviewRepo, productRepo, logger)
	wishlistService := service.NewWishlistService(wishlistRepo, productRepo, logger)

	// Initialize router
	mux := router.New(
		router.Handlers{
			Products: handler.NewProductHandler(productService, logger),
			Reviews:  handler.NewReviewHandler(reviewService, logger),
			Cart:     handler.NewCartHandler(cartService, logger),
			Wishlist: handler.NewWishlistHandler(wishlistService, logger),
			Orders:   handler.NewOrderHandler(orderService, logger),
			Admin:    handler.NewAdminHandler(orderService, adminService, logger),
		},
		auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		registry,
		logger,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	return serve(server, shutdown, dispatcher.Close, logger)
}

// serve runs server until it fails or a signal arrives on shutdown. On both
// paths drain runs after the server has stopped accepting requests, so queued
// notifications are flushed before the process exits.
func serve(server *http.Server, shutdown <-chan os.Signal, drain func(context.Context) error, logger zerolog.Logger) error {
	defer func() {
		drainCtx, drainCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer drainCancel()
		if err := drain(drainCtx); err != nil {
			logger.Warn().Err(err).Msg("notification queue not fully drained")
		}
	}()

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", server.Addr).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newDispatcher loads notification templates from the configured source and
// starts the delivery pool.
func newDispatcher(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) (*notify.Dispatcher, error) {
	var loader notify.Loader

	switch cfg.Notify.TemplateSource {
	case "file":
		loader = notify.NewFileLoader(cfg.Notify.TemplateDir, logger)
	case "s3":
		fileLoader := notify.NewFileLoader(cfg.Notify.TemplateDir, logger)
		s3Loader, err := notify.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.Prefix, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
			loader = fileLoader
		} else {
			loader = notify.NewFallbackLoader(s3Loader, fileLoader, logger)
		}
	default:
		logger.Info().Msg("using embedded notification templates")
	}

	templates, err := notify.LoadTemplates(ctx, loader, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification templates: %w", err)
	}

	var sender notify.Sender
	if cfg.Notify.Provider == "postmark" {
		sender = notify.NewPostmarkSender(cfg.Notify.PostmarkToken, cfg.Notify.Sender, logger)
	} else {
		sender = notify.NewLogSender(logger)
	}

	return notify.NewDispatcher(notify.DispatcherConfig{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		MaxAttempts: cfg.Notify.MaxAttempts,
		SendTimeout: cfg.Notify.SendTimeout,
		Backoff:     500 * time.Millisecond,
	}, templates, sender, m, logger), nil
}
