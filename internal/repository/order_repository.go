package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// RevenueBucket is one day in the revenue chart series.
type RevenueBucket struct {
	Day   time.Time `json:"day"`
	Total float64   `json:"total"`
}

// DailyRevenue is today's revenue split by source.
type DailyRevenue struct {
	Total   float64 `json:"total"`
	Online  float64 `json:"online"`
	Counter float64 `json:"counter"`
}

// OrderSummary is an order row with the buyer's name for admin listings.
type OrderSummary struct {
	Order        domain.Order `json:"order"`
	CustomerName string       `json:"customer_name"`
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	CreateWithItems(ctx context.Context, order *domain.Order, items []domain.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	List(ctx context.Context, page, pageSize int) ([]OrderSummary, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error
	Recent(ctx context.Context, limit int) ([]OrderSummary, error)
	TotalRevenue(ctx context.Context) (float64, error)
	Count(ctx context.Context) (int, error)
	DailyRevenue(ctx context.Context) (*DailyRevenue, error)
	RevenueByDay(ctx context.Context, days int) ([]RevenueBucket, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateWithItems inserts the order row and all of its item rows in one
// transaction, so a checkout is either fully recorded or not at all.
func (r *orderRepository) CreateWithItems(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return fmt.Errorf("failed to encode shipping address: %w", err)
	}

	orderQuery := `
		INSERT INTO orders (id, user_id, status, total_amount, shipping_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = tx.ExecContext(
		ctx,
		orderQuery,
		order.ID,
		order.UserID,
		order.Status,
		order.TotalAmount,
		address,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_title, quantity, price_at_purchase, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, item := range items {
		_, err = tx.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductTitle,
			item.Quantity,
			item.PriceAtPurchase,
			item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}

	return nil
}

// FindByID retrieves an order by ID
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `
		SELECT id, user_id, status, total_amount, shipping_address, created_at
		FROM orders
		WHERE id = $1
	`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	return order, nil
}

// ListItems retrieves the item rows of an order
func (r *orderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_title, quantity, price_at_purchase, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductTitle,
			&item.Quantity,
			&item.PriceAtPurchase,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// ListByUser retrieves a user's order history, newest first
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, status, total_amount, shipping_address, created_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// List retrieves all orders with buyer names for the admin console
func (r *orderRepository) List(ctx context.Context, page, pageSize int) ([]OrderSummary, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * pageSize

	query := `
		SELECT o.id, o.user_id, o.status, o.total_amount, o.shipping_address, o.created_at,
		       COALESCE(p.full_name, '')
		FROM orders o
		LEFT JOIN profiles p ON p.id = o.user_id
		ORDER BY o.created_at DESC
		LIMIT $1 OFFSET $2
	`

	summaries, err := r.querySummaries(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	return summaries, total, nil
}

// UpdateStatus changes the status field, the only mutation an order
// allows after placement.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Recent retrieves the latest orders with buyer names
func (r *orderRepository) Recent(ctx context.Context, limit int) ([]OrderSummary, error) {
	query := `
		SELECT o.id, o.user_id, o.status, o.total_amount, o.shipping_address, o.created_at,
		       COALESCE(p.full_name, '')
		FROM orders o
		LEFT JOIN profiles p ON p.id = o.user_id
		ORDER BY o.created_at DESC
		LIMIT $1
	`

	return r.querySummaries(ctx, query, limit)
}

// TotalRevenue sums order totals, excluding cancelled and returned orders
func (r *orderRepository) TotalRevenue(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE status NOT IN ('cancelled', 'returned')
	`

	var total float64
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return total, nil
}

// Count returns the total number of orders
func (r *orderRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

// DailyRevenue invokes the get_daily_revenue database function. Callers
// fall back to a hand-computed figure when it errors.
func (r *orderRepository) DailyRevenue(ctx context.Context) (*DailyRevenue, error) {
	query := `SELECT total, online, counter FROM get_daily_revenue()`

	revenue := &DailyRevenue{}
	err := r.db.QueryRowContext(ctx, query).Scan(&revenue.Total, &revenue.Online, &revenue.Counter)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily revenue: %w", err)
	}

	return revenue, nil
}

// RevenueByDay returns one bucket per calendar day over the trailing window
func (r *orderRepository) RevenueByDay(ctx context.Context, days int) ([]RevenueBucket, error) {
	query := `
		SELECT created_at::date AS day, COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE created_at > NOW() - ($1 || ' days')::interval
		  AND status NOT IN ('cancelled', 'returned')
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := r.db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue by day: %w", err)
	}
	defer rows.Close()

	buckets := []RevenueBucket{}
	for rows.Next() {
		var bucket RevenueBucket
		if err := rows.Scan(&bucket.Day, &bucket.Total); err != nil {
			return nil, fmt.Errorf("failed to scan revenue bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating revenue buckets: %w", err)
	}

	return buckets, nil
}

func (r *orderRepository) querySummaries(ctx context.Context, query string, args ...interface{}) ([]OrderSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	summaries := []OrderSummary{}
	for rows.Next() {
		var summary OrderSummary
		var address []byte
		err := rows.Scan(
			&summary.Order.ID,
			&summary.Order.UserID,
			&summary.Order.Status,
			&summary.Order.TotalAmount,
			&address,
			&summary.Order.CreatedAt,
			&summary.CustomerName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order summary: %w", err)
		}
		if err := json.Unmarshal(address, &summary.Order.ShippingAddress); err != nil {
			return nil, fmt.Errorf("failed to decode shipping address: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order summaries: %w", err)
	}

	return summaries, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var address []byte
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.TotalAmount,
		&address,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(address, &order.ShippingAddress); err != nil {
		return nil, fmt.Errorf("failed to decode shipping address: %w", err)
	}
	return order, nil
}
