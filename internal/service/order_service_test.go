package service

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mockOrderRepository struct {
	orders  map[uuid.UUID]*domain.Order
	items   map[uuid.UUID][]domain.OrderItem
	failOne bool

	daily        *repository.DailyRevenue
	dailyErr     error
	totalRevenue float64
	recent       []repository.OrderSummary
	revenueByDay []repository.RevenueBucket
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders: make(map[uuid.UUID]*domain.Order),
		items:  make(map[uuid.UUID][]domain.OrderItem),
	}
}

func (m *mockOrderRepository) CreateWithItems(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	if m.failOne {
		m.failOne = false
		return errors.New("write conflict")
	}
	m.orders[order.ID] = order
	m.items[order.ID] = items
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	return m.items[orderID], nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) List(ctx context.Context, page, pageSize int) ([]repository.OrderSummary, int, error) {
	return nil, len(m.orders), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (m *mockOrderRepository) Recent(ctx context.Context, limit int) ([]repository.OrderSummary, error) {
	return m.recent, nil
}

func (m *mockOrderRepository) TotalRevenue(ctx context.Context) (float64, error) {
	return m.totalRevenue, nil
}

func (m *mockOrderRepository) Count(ctx context.Context) (int, error) {
	return len(m.orders), nil
}

func (m *mockOrderRepository) DailyRevenue(ctx context.Context) (*repository.DailyRevenue, error) {
	if m.dailyErr != nil {
		return nil, m.dailyErr
	}
	if m.daily != nil {
		return m.daily, nil
	}
	return &repository.DailyRevenue{}, nil
}

func (m *mockOrderRepository) RevenueByDay(ctx context.Context, days int) ([]repository.RevenueBucket, error) {
	return m.revenueByDay, nil
}

func testAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName:   "Jamie Doe",
		Address:    "12 Long Street",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
}

func newTestOrderService() (OrderService, *mockOrderRepository, CartService, *mockProductRepository) {
	cartSvc, _, _, products := newTestCartService()
	orders := newMockOrderRepository()
	svc := NewOrderService(orders, products, cartSvc, zap.NewNop())
	return svc, orders, cartSvc, products
}

func TestCheckout_OneOrderWithSnapshotPrices(t *testing.T) {
	svc, orders, cartSvc, products := newTestOrderService()
	ctx := context.Background()
	session := guestSession("visitor-1")

	a := products.add("Product A", 10.00)
	b := products.add("Product B", 25.50)
	cartSvc.AddItem(ctx, session, a.ID)
	cartSvc.AddItem(ctx, session, a.ID)
	cartSvc.AddItem(ctx, session, b.ID)

	// The catalog price changes between add-to-cart and checkout; the
	// order keeps the price captured in the cart.
	a.Price = 99.99

	detail, err := svc.Checkout(ctx, session, testAddress())
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	if len(orders.orders) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(orders.orders))
	}
	if len(detail.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(detail.Items))
	}

	for _, item := range detail.Items {
		if item.ProductID != nil && *item.ProductID == a.ID {
			if item.PriceAtPurchase != 10.00 {
				t.Errorf("expected cart snapshot price 10.00, got %.2f", item.PriceAtPurchase)
			}
			if item.Quantity != 2 {
				t.Errorf("expected quantity 2 for A, got %d", item.Quantity)
			}
		}
	}

	if detail.Order.TotalAmount != 45.50 {
		t.Errorf("expected order total 45.50, got %.2f", detail.Order.TotalAmount)
	}
	if detail.Order.Status != domain.OrderStatusPending {
		t.Errorf("expected new order pending, got %s", detail.Order.Status)
	}

	// Checkout empties the cart.
	view, err := cartSvc.Get(ctx, session)
	if err != nil {
		t.Fatalf("Get cart failed: %v", err)
	}
	if len(view.Items) != 0 {
		t.Errorf("expected cart cleared after checkout, got %+v", view.Items)
	}
}

func TestCheckout_EmptyCartIsRejected(t *testing.T) {
	svc, _, _, _ := newTestOrderService()

	_, err := svc.Checkout(context.Background(), guestSession("visitor-1"), testAddress())
	if err != ErrEmptyCart {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckout_InsufficientStockAborts(t *testing.T) {
	svc, orders, cartSvc, products := newTestOrderService()
	ctx := context.Background()
	session := guestSession("visitor-1")

	p := products.add("Scarce", 10.00)
	p.StockQuantity = 1
	cartSvc.AddItem(ctx, session, p.ID)
	cartSvc.AddItem(ctx, session, p.ID)

	_, err := svc.Checkout(ctx, session, testAddress())
	if !errors.Is(err, repository.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if len(orders.orders) != 0 {
		t.Errorf("expected no order created, got %d", len(orders.orders))
	}
	if p.StockQuantity != 1 {
		t.Errorf("expected stock untouched after abort, got %d", p.StockQuantity)
	}
}

func TestCheckout_OrderWriteFailureReleasesStock(t *testing.T) {
	svc, orders, cartSvc, products := newTestOrderService()
	ctx := context.Background()
	session := guestSession("visitor-1")

	p := products.add("Widget", 10.00)
	p.StockQuantity = 5
	cartSvc.AddItem(ctx, session, p.ID)
	cartSvc.AddItem(ctx, session, p.ID)

	orders.failOne = true
	if _, err := svc.Checkout(ctx, session, testAddress()); err == nil {
		t.Fatal("expected checkout to fail")
	}
	if p.StockQuantity != 5 {
		t.Errorf("expected reserved stock released, got %d", p.StockQuantity)
	}
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	svc, orders, _, _ := newTestOrderService()
	orderID := uuid.New()
	orders.orders[orderID] = &domain.Order{ID: orderID, Status: domain.OrderStatusPending}

	if err := svc.UpdateStatus(context.Background(), orderID, "refunded-ish"); !errors.Is(err, ErrInvalidOrderStatus) {
		t.Errorf("expected ErrInvalidOrderStatus, got %v", err)
	}

	if err := svc.UpdateStatus(context.Background(), orderID, domain.OrderStatusShipped); err != nil {
		t.Errorf("expected valid transition to succeed, got %v", err)
	}
	if orders.orders[orderID].Status != domain.OrderStatusShipped {
		t.Errorf("status not applied, got %s", orders.orders[orderID].Status)
	}
}
