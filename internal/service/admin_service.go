package service

import (
	"context"
	"fmt"
	"time"

	"shopfront/internal/auth"
	"shopfront/internal/model"
	"shopfront/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	defaultAnalyticsRange = "30d"
	topProductsLimit      = 5
)

// adminService implements AdminService.
type adminService struct {
	orderRepo         repository.OrderRepository
	productRepo       repository.ProductRepository
	lowStockThreshold int
	now               func() time.Time
	logger            zerolog.Logger
}

// NewAdminService creates a new admin service. Products with stock at or
// below lowStockThreshold are reported on the dashboard.
func NewAdminService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	lowStockThreshold int,
	logger zerolog.Logger,
) AdminService {
	return &adminService{
		orderRepo:         orderRepo,
		productRepo:       productRepo,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
		logger:            logger.With().Str("service", "admin").Logger(),
	}
}

// ListAllOrders lists orders across buyers, optionally filtered by status.
func (s *adminService) ListAllOrders(ctx context.Context, principal auth.Principal, status string, limit, offset int) ([]model.Order, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	filter := model.OrderFilter{}
	filter.Limit, filter.Offset = normalizePage(limit, offset)

	if status != "" {
		parsed, err := model.ParseOrderStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = &parsed
	}

	orders, err := s.orderRepo.ListAll(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Str("status", status).Msg("failed to list all orders")
		return nil, repository.Classify(fmt.Errorf("failed to list orders: %w", err))
	}

	return orders, nil
}

// Stats builds the dashboard summary. Every status is reported, with zero
// counts for statuses that have no orders. Cancelled orders do not count
// towards total revenue.
func (s *adminService) Stats(ctx context.Context, principal auth.Principal) (*model.DashboardStats, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	summaries, err := s.orderRepo.Stats(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to aggregate orders")
		return nil, repository.Classify(fmt.Errorf("failed to aggregate orders: %w", err))
	}

	lowStock, err := s.productRepo.ListLowStock(ctx, s.lowStockThreshold)
	if err != nil {
		s.logger.Error().Err(err).Int("threshold", s.lowStockThreshold).Msg("failed to list low stock products")
		return nil, repository.Classify(fmt.Errorf("failed to list low stock products: %w", err))
	}

	byStatus := make(map[model.OrderStatus]model.StatusSummary, len(summaries))
	for _, summary := range summaries {
		byStatus[summary.Status] = summary
	}

	stats := &model.DashboardStats{
		ByStatus:     make([]model.StatusSummary, 0, len(model.AllStatuses)),
		TotalRevenue: decimal.Zero,
		LowStock:     lowStock,
	}

	for _, status := range model.AllStatuses {
		summary, ok := byStatus[status]
		if !ok {
			summary = model.StatusSummary{Status: status, Revenue: decimal.Zero}
		}
		stats.ByStatus = append(stats.ByStatus, summary)
		stats.TotalOrders += summary.Orders
		if status != model.StatusCancelled {
			stats.TotalRevenue = stats.TotalRevenue.Add(summary.Revenue)
		}
	}

	return stats, nil
}

// Analytics summarises non-cancelled orders placed in the trailing window.
// The window starts at UTC midnight so the first day is counted whole.
func (s *adminService) Analytics(ctx context.Context, principal auth.Principal, window string) (*model.Analytics, error) {
	if err := requireAdmin(principal); err != nil {
		return nil, err
	}

	if window == "" {
		window = defaultAnalyticsRange
	}
	days, ok := model.AnalyticsRanges[window]
	if !ok {
		return nil, model.ErrInvalidRange
	}

	since := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))

	analytics, err := s.orderRepo.Analytics(ctx, since, topProductsLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("range", window).Msg("failed to build analytics")
		return nil, repository.Classify(fmt.Errorf("failed to build analytics: %w", err))
	}

	analytics.Range = window
	analytics.AverageOrderValue = decimal.Zero
	if analytics.Orders > 0 {
		analytics.AverageOrderValue = analytics.Revenue.
			Div(decimal.NewFromInt(int64(analytics.Orders))).
			Round(2)
	}

	return analytics, nil
}
