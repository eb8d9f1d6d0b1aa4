package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

type mockCounterSaleRepository struct {
	sales map[string]*domain.CounterSale
}

func newMockCounterSaleRepository() *mockCounterSaleRepository {
	return &mockCounterSaleRepository{sales: make(map[string]*domain.CounterSale)}
}

func (m *mockCounterSaleRepository) Upsert(ctx context.Context, sale *domain.CounterSale) error {
	m.sales[sale.SaleDate.Format("2006-01-02")] = sale
	return nil
}

func (m *mockCounterSaleRepository) List(ctx context.Context, limit int) ([]*domain.CounterSale, error) {
	sales := make([]*domain.CounterSale, 0, len(m.sales))
	for _, sale := range m.sales {
		sales = append(sales, sale)
	}
	if len(sales) > limit {
		sales = sales[:limit]
	}
	return sales, nil
}

func (m *mockCounterSaleRepository) SumForDate(ctx context.Context, date time.Time) (float64, error) {
	sale, ok := m.sales[date.Format("2006-01-02")]
	if !ok {
		return 0, nil
	}
	return sale.Amount, nil
}

type mockSettingsRepository struct {
	settings *domain.StoreSettings
}

func (m *mockSettingsRepository) Get(ctx context.Context) (*domain.StoreSettings, error) {
	if m.settings == nil {
		return nil, repository.ErrSettingsNotFound
	}
	return m.settings, nil
}

func (m *mockSettingsRepository) Upsert(ctx context.Context, settings *domain.StoreSettings) error {
	m.settings = settings
	return nil
}

func newTestStoreService() (StoreService, *mockOrderRepository, *mockCounterSaleRepository, *mockSettingsRepository) {
	orders := newMockOrderRepository()
	counterSales := newMockCounterSaleRepository()
	settings := &mockSettingsRepository{}
	return NewStoreService(orders, counterSales, settings, newMockProfileRepository(), zap.NewNop()), orders, counterSales, settings
}

func TestDashboard_UsesTheDatabaseAggregate(t *testing.T) {
	svc, orders, _, _ := newTestStoreService()
	orders.daily = &repository.DailyRevenue{Total: 150, Online: 100, Counter: 50}
	orders.totalRevenue = 1234.56

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if stats.TodayRevenue.Total != 150 {
		t.Errorf("expected today's total 150, got %.2f", stats.TodayRevenue.Total)
	}
	if stats.TotalRevenue != 1234.56 {
		t.Errorf("expected total revenue 1234.56, got %.2f", stats.TotalRevenue)
	}
	if stats.RecentOrders == nil || stats.RevenueByDay == nil {
		t.Error("expected empty slices rather than nil in the dashboard payload")
	}
}

func TestDashboard_RecomputesTodayWhenTheAggregateFails(t *testing.T) {
	svc, orders, counterSales, _ := newTestStoreService()
	orders.dailyErr = errors.New("function get_daily_revenue does not exist")
	orders.revenueByDay = []repository.RevenueBucket{
		{Day: time.Now(), Total: 80},
		{Day: time.Now().AddDate(0, 0, -1), Total: 999},
	}
	counterSales.sales[time.Now().Format("2006-01-02")] = &domain.CounterSale{
		SaleDate: time.Now(),
		Amount:   20,
	}

	stats, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if stats.TodayRevenue.Online != 80 {
		t.Errorf("expected online revenue 80 from today's bucket only, got %.2f", stats.TodayRevenue.Online)
	}
	if stats.TodayRevenue.Counter != 20 {
		t.Errorf("expected counter revenue 20, got %.2f", stats.TodayRevenue.Counter)
	}
	if stats.TodayRevenue.Total != 100 {
		t.Errorf("expected total 100, got %.2f", stats.TodayRevenue.Total)
	}
}

func TestRecordCounterSale_SameDateOverwrites(t *testing.T) {
	svc, _, counterSales, _ := newTestStoreService()
	ctx := context.Background()
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if _, err := svc.RecordCounterSale(ctx, date, 100, "morning till"); err != nil {
		t.Fatalf("RecordCounterSale failed: %v", err)
	}
	if _, err := svc.RecordCounterSale(ctx, date, 250, "corrected"); err != nil {
		t.Fatalf("RecordCounterSale failed: %v", err)
	}

	if len(counterSales.sales) != 1 {
		t.Fatalf("expected one row per date, got %d", len(counterSales.sales))
	}
	sum, err := counterSales.SumForDate(ctx, date)
	if err != nil {
		t.Fatalf("SumForDate failed: %v", err)
	}
	if sum != 250 {
		t.Errorf("expected the later amount to win, got %.2f", sum)
	}
}

func TestRecordCounterSale_NegativeAmountIsRejected(t *testing.T) {
	svc, _, _, _ := newTestStoreService()

	if _, err := svc.RecordCounterSale(context.Background(), time.Now(), -5, ""); err == nil {
		t.Error("expected a negative amount to be rejected")
	}
}

func TestSettings_DefaultsWhenNeverSaved(t *testing.T) {
	svc, _, _, _ := newTestStoreService()

	settings, err := svc.Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if settings.StoreName != "Storefront" || settings.Currency != "USD" {
		t.Errorf("expected default settings, got %+v", settings)
	}
}

func TestUpdateSettings_RoundTrips(t *testing.T) {
	svc, _, _, _ := newTestStoreService()

	updated, err := svc.UpdateSettings(context.Background(), &domain.StoreSettings{
		StoreName: "Walnut & Co",
		Currency:  "EUR",
	})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if updated.StoreName != "Walnut & Co" || updated.Currency != "EUR" {
		t.Errorf("expected the saved settings back, got %+v", updated)
	}
	if updated.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be stamped")
	}

	settings, err := svc.Settings(context.Background())
	if err != nil {
		t.Fatalf("Settings failed: %v", err)
	}
	if settings.Currency != "EUR" {
		t.Errorf("expected the persisted currency, got %q", settings.Currency)
	}
}
