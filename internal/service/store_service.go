package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const revenueChartDays = 7

// DashboardStats is the admin dashboard summary
type DashboardStats struct {
	TodayRevenue  repository.DailyRevenue    `json:"today_revenue"`
	TotalRevenue  float64                    `json:"total_revenue"`
	OrderCount    int                        `json:"order_count"`
	CustomerCount int                        `json:"customer_count"`
	RecentOrders  []repository.OrderSummary  `json:"recent_orders"`
	RevenueByDay  []repository.RevenueBucket `json:"revenue_by_day"`
}

// StoreService covers the admin side of the store: dashboard numbers,
// counter sales and store settings.
type StoreService interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	RecordCounterSale(ctx context.Context, date time.Time, amount float64, notes string) (*domain.CounterSale, error)
	ListCounterSales(ctx context.Context, limit int) ([]*domain.CounterSale, error)
	Settings(ctx context.Context) (*domain.StoreSettings, error)
	UpdateSettings(ctx context.Context, settings *domain.StoreSettings) (*domain.StoreSettings, error)
	ListCustomers(ctx context.Context, page, pageSize int) ([]*domain.Profile, int, error)
}

type storeService struct {
	orders       repository.OrderRepository
	counterSales repository.CounterSaleRepository
	settings     repository.SettingsRepository
	profiles     repository.ProfileRepository
	logger       *zap.Logger
}

// NewStoreService creates a new instance of StoreService
func NewStoreService(
	orders repository.OrderRepository,
	counterSales repository.CounterSaleRepository,
	settings repository.SettingsRepository,
	profiles repository.ProfileRepository,
	logger *zap.Logger,
) StoreService {
	return &storeService{
		orders:       orders,
		counterSales: counterSales,
		settings:     settings,
		profiles:     profiles,
		logger:       logger,
	}
}

// Dashboard assembles the admin dashboard in one call. Today's revenue
// comes from the database aggregate; when that fails it is recomputed
// from the order and counter-sale tables so the dashboard still loads.
func (s *storeService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		RecentOrders: []repository.OrderSummary{},
		RevenueByDay: []repository.RevenueBucket{},
	}

	err := repository.WithRetry(ctx, s.logger, "dashboard.daily_revenue", func(ctx context.Context) error {
		daily, err := s.orders.DailyRevenue(ctx)
		if err != nil {
			return err
		}
		stats.TodayRevenue = *daily
		return nil
	})
	if err != nil {
		s.logger.Warn("Daily revenue aggregate failed, recomputing from source tables", zap.Error(err))
		daily, err := s.dailyRevenueFallback(ctx)
		if err != nil {
			return nil, err
		}
		stats.TodayRevenue = *daily
	}

	total, err := s.orders.TotalRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute total revenue: %w", err)
	}
	stats.TotalRevenue = total

	count, err := s.orders.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	stats.OrderCount = count

	customers, err := s.profiles.CountCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	stats.CustomerCount = customers

	recent, err := s.orders.Recent(ctx, 5)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}
	if recent != nil {
		stats.RecentOrders = recent
	}

	buckets, err := s.orders.RevenueByDay(ctx, revenueChartDays)
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue series: %w", err)
	}
	if buckets != nil {
		stats.RevenueByDay = buckets
	}

	return stats, nil
}

// dailyRevenueFallback recomputes today's split directly: online from
// today's non-cancelled orders, counter from today's counter sales.
func (s *storeService) dailyRevenueFallback(ctx context.Context) (*repository.DailyRevenue, error) {
	today := time.Now()

	buckets, err := s.orders.RevenueByDay(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to compute online revenue: %w", err)
	}
	var online float64
	for _, b := range buckets {
		if sameDay(b.Day, today) {
			online += b.Total
		}
	}

	counter, err := s.counterSales.SumForDate(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to compute counter revenue: %w", err)
	}

	return &repository.DailyRevenue{
		Total:   online + counter,
		Online:  online,
		Counter: counter,
	}, nil
}

// RecordCounterSale upserts the day's offline cash total. Recording the
// same date twice overwrites the earlier amount.
func (s *storeService) RecordCounterSale(ctx context.Context, date time.Time, amount float64, notes string) (*domain.CounterSale, error) {
	if amount < 0 {
		return nil, fmt.Errorf("counter sale amount must not be negative, got %.2f", amount)
	}

	sale := &domain.CounterSale{
		ID:        uuid.New(),
		SaleDate:  date,
		Amount:    amount,
		Notes:     notes,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.counterSales.Upsert(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to record counter sale: %w", err)
	}

	return sale, nil
}

// ListCounterSales returns recorded counter sales, newest first
func (s *storeService) ListCounterSales(ctx context.Context, limit int) ([]*domain.CounterSale, error) {
	if limit <= 0 {
		limit = 30
	}
	return s.counterSales.List(ctx, limit)
}

// Settings returns the store settings, falling back to defaults when
// none were ever saved.
func (s *storeService) Settings(ctx context.Context) (*domain.StoreSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err == repository.ErrSettingsNotFound {
		return &domain.StoreSettings{
			StoreName: "Storefront",
			Currency:  "USD",
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateSettings persists the store settings
func (s *storeService) UpdateSettings(ctx context.Context, settings *domain.StoreSettings) (*domain.StoreSettings, error) {
	settings.UpdatedAt = time.Now()
	if err := s.settings.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return s.settings.Get(ctx)
}

// ListCustomers returns a page of customer profiles for the admin view
func (s *storeService) ListCustomers(ctx context.Context, page, pageSize int) ([]*domain.Profile, int, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.profiles.ListCustomers(ctx, page, pageSize)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
