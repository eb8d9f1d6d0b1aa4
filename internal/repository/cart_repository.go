package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
)

// CartRepository handles the server-side cart: one cart row per user,
// item rows keyed by (cart, product).
type CartRepository interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	AddItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	FindItemQuantity(ctx context.Context, cartID, productID uuid.UUID) (int, error)
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreate returns the user's cart row, creating it lazily on first use.
func (r *cartRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := r.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if err != ErrCartNotFound {
		return nil, err
	}

	now := time.Now()
	cart = &domain.Cart{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, cart.ID, cart.UserID, cart.CreatedAt, cart.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	// A concurrent session may have created the row first; re-read to
	// return whichever row won.
	return r.FindByUser(ctx, userID)
}

// FindByUser retrieves the cart row for a user
func (r *cartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	query := `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	cart := &domain.Cart{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	return cart, nil
}

// AddItemQuantity adds quantity to the (cart, product) row, inserting it
// when absent. The unique constraint on (cart_id, product_id) makes this
// an increment, never a duplicate row.
func (r *cartRepository) AddItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), cartID, productID, quantity, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}

	return nil
}

// SetItemQuantity overwrites the quantity of the (cart, product) row,
// inserting it when absent.
func (r *cartRepository) SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity
	`

	_, err := r.db.ExecContext(ctx, query, uuid.New(), cartID, productID, quantity, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set cart item quantity: %w", err)
	}

	return nil
}

// FindItemQuantity returns the current quantity of the (cart, product) row
func (r *cartRepository) FindItemQuantity(ctx context.Context, cartID, productID uuid.UUID) (int, error) {
	query := `
		SELECT quantity
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
	`

	var quantity int
	err := r.db.QueryRowContext(ctx, query, cartID, productID).Scan(&quantity)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrCartItemNotFound
		}
		return 0, fmt.Errorf("failed to find cart item: %w", err)
	}

	return quantity, nil
}

// DeleteItem removes the (cart, product) row
func (r *cartRepository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, cartID, productID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}

	return nil
}

// ClearItems removes all item rows for the cart
func (r *cartRepository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1`

	if _, err := r.db.ExecContext(ctx, query, cartID); err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}

	return nil
}

// ListItems returns the cart's item rows joined with current product data,
// ordered by when each line was first added.
func (r *cartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	query := fmt.Sprintf(`
		SELECT ci.quantity, %s
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at ASC
	`, prefixColumns("p", productColumns))

	rows, err := r.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		err := rows.Scan(
			&item.Quantity,
			&item.Product.ID,
			&item.Product.Title,
			&item.Product.Description,
			&item.Product.Price,
			&item.Product.CompareAtPrice,
			&item.Product.StockQuantity,
			&item.Product.CategoryID,
			&item.Product.Slug,
			&item.Product.ImageURL,
			&item.Product.IsFeatured,
			&item.Product.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, c := range parts {
		parts[i] = prefix + "." + c
	}
	return strings.Join(parts, ", ")
}
