package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// OrderDetail bundles an order with its line items
type OrderDetail struct {
	Order *domain.Order      `json:"order"`
	Items []domain.OrderItem `json:"items"`
}

// OrderPage is a paginated admin order listing
type OrderPage struct {
	Orders     []repository.OrderSummary `json:"orders"`
	Total      int                       `json:"total"`
	Page       int                       `json:"page"`
	PageSize   int                       `json:"page_size"`
	TotalPages int                       `json:"total_pages"`
}

// OrderService defines the interface for checkout and order management
type OrderService interface {
	Checkout(ctx context.Context, session CartSession, address domain.ShippingAddress) (*OrderDetail, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetail, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListOrders(ctx context.Context, page, pageSize int) (*OrderPage, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
}

type orderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	cart     CartService
	logger   *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	cart CartService,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orders:   orders,
		products: products,
		cart:     cart,
		logger:   logger,
	}
}

// Checkout turns the session's cart into an order. Every line item is
// priced from the cart snapshot at this moment, never re-read from the
// catalog, and the order plus its items are written in one transaction.
// The cart is cleared only after the order is committed.
func (s *orderService) Checkout(ctx context.Context, session CartSession, address domain.ShippingAddress) (*OrderDetail, error) {
	view, err := s.cart.Get(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(view.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Reserve stock up front so an oversold line aborts before any
	// order row exists. Already-reserved lines are released on failure.
	reserved := make([]domain.CartItem, 0, len(view.Items))
	for _, item := range view.Items {
		if err := s.products.AdjustStock(ctx, item.Product.ID, -item.Quantity); err != nil {
			s.releaseStock(ctx, reserved)
			if err == repository.ErrInsufficientStock {
				return nil, fmt.Errorf("%w: %s", repository.ErrInsufficientStock, item.Product.Title)
			}
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
		reserved = append(reserved, item)
	}

	order := &domain.Order{
		ID:              uuid.New(),
		UserID:          session.UserID,
		Status:          domain.OrderStatusPending,
		TotalAmount:     view.Total,
		ShippingAddress: address,
		CreatedAt:       time.Now(),
	}

	items := make([]domain.OrderItem, 0, len(view.Items))
	for _, line := range view.Items {
		productID := line.Product.ID
		items = append(items, domain.OrderItem{
			ID:              uuid.New(),
			OrderID:         order.ID,
			ProductID:       &productID,
			ProductTitle:    line.Product.Title,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.Product.Price,
			CreatedAt:       order.CreatedAt,
		})
	}

	if err := s.orders.CreateWithItems(ctx, order, items); err != nil {
		s.releaseStock(ctx, reserved)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := s.cart.Clear(ctx, session); err != nil {
		// The order exists; a stale cart is an annoyance, not a failure.
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	return &OrderDetail{Order: order, Items: items}, nil
}

// GetOrder retrieves an order with its line items
func (s *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderDetail, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.orders.ListItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}

	return &OrderDetail{Order: order, Items: items}, nil
}

// ListByUser returns a customer's order history, newest first
func (s *orderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListOrders returns a page of all orders for the admin view
func (s *orderService) ListOrders(ctx context.Context, page, pageSize int) (*OrderPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	orders, total, err := s.orders.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []repository.OrderSummary{}
	}

	return &OrderPage{
		Orders:     orders,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// UpdateStatus moves an order through its lifecycle. Status is the
// only mutable order field.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidOrderStatus, status)
	}
	return s.orders.UpdateStatus(ctx, id, status)
}

func (s *orderService) releaseStock(ctx context.Context, reserved []domain.CartItem) {
	for _, item := range reserved {
		if err := s.products.AdjustStock(ctx, item.Product.ID, item.Quantity); err != nil {
			s.logger.Error("Failed to release reserved stock",
				zap.String("product_id", item.Product.ID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}
