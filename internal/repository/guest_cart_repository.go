package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// guestCartTTL keeps abandoned anonymous carts around long enough to
// survive a return visit before Redis reclaims them.
const guestCartTTL = 30 * 24 * time.Hour

// GuestCartRepository persists anonymous carts in Redis, addressed by a
// client-held cart token. A guest cart outlives the process and exists
// independently of the server-side cart rows.
type GuestCartRepository interface {
	List(ctx context.Context, token string) ([]domain.CartItem, error)
	AddItem(ctx context.Context, token string, product domain.Product) ([]domain.CartItem, error)
	SetQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) ([]domain.CartItem, error)
	RemoveItem(ctx context.Context, token string, productID uuid.UUID) ([]domain.CartItem, error)
	Clear(ctx context.Context, token string) error
}

type guestCartRepository struct {
	client *redis.Client
}

// NewGuestCartRepository creates a new instance of GuestCartRepository
func NewGuestCartRepository(client *redis.Client) GuestCartRepository {
	return &guestCartRepository{client: client}
}

func guestCartKey(token string) string {
	return "guest_cart:" + token
}

// List returns the cart lines stored under the token, oldest first.
func (r *guestCartRepository) List(ctx context.Context, token string) ([]domain.CartItem, error) {
	fields, err := r.client.HGetAll(ctx, guestCartKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}

	items := make([]domain.CartItem, 0, len(fields))
	for _, raw := range fields {
		var item domain.CartItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("failed to decode guest cart item: %w", err)
		}
		items = append(items, item)
	}

	sortCartItems(items)
	return items, nil
}

// AddItem increments the product's line by one, inserting it at quantity
// one when absent, and returns the resulting cart.
func (r *guestCartRepository) AddItem(ctx context.Context, token string, product domain.Product) ([]domain.CartItem, error) {
	key := guestCartKey(token)
	field := product.ID.String()

	item := domain.CartItem{Product: product, Quantity: 1}

	raw, err := r.client.HGet(ctx, key, field).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read guest cart item: %w", err)
	}
	if err == nil {
		var existing domain.CartItem
		if err := json.Unmarshal([]byte(raw), &existing); err != nil {
			return nil, fmt.Errorf("failed to decode guest cart item: %w", err)
		}
		item = existing
		item.Quantity++
		// Keep the freshest product snapshot so prices follow the catalog.
		item.Product = product
	}

	if err := r.writeItem(ctx, key, field, item); err != nil {
		return nil, err
	}

	return r.List(ctx, token)
}

// SetQuantity overwrites the line's quantity; a non-positive quantity
// removes the line.
func (r *guestCartRepository) SetQuantity(ctx context.Context, token string, productID uuid.UUID, quantity int) ([]domain.CartItem, error) {
	if quantity <= 0 {
		return r.RemoveItem(ctx, token, productID)
	}

	key := guestCartKey(token)
	field := productID.String()

	raw, err := r.client.HGet(ctx, key, field).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("failed to read guest cart item: %w", err)
	}

	var item domain.CartItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart item: %w", err)
	}
	item.Quantity = quantity

	if err := r.writeItem(ctx, key, field, item); err != nil {
		return nil, err
	}

	return r.List(ctx, token)
}

// RemoveItem drops the product's line from the cart
func (r *guestCartRepository) RemoveItem(ctx context.Context, token string, productID uuid.UUID) ([]domain.CartItem, error) {
	key := guestCartKey(token)

	if err := r.client.HDel(ctx, key, productID.String()).Err(); err != nil {
		return nil, fmt.Errorf("failed to remove guest cart item: %w", err)
	}

	return r.List(ctx, token)
}

// Clear deletes the whole guest cart
func (r *guestCartRepository) Clear(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, guestCartKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to clear guest cart: %w", err)
	}
	return nil
}

func (r *guestCartRepository) writeItem(ctx context.Context, key, field string, item domain.CartItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart item: %w", err)
	}

	if err := r.client.HSet(ctx, key, field, data).Err(); err != nil {
		return fmt.Errorf("failed to write guest cart item: %w", err)
	}

	// Refresh the sliding expiry on every write.
	if err := r.client.Expire(ctx, key, guestCartTTL).Err(); err != nil {
		return fmt.Errorf("failed to set guest cart expiry: %w", err)
	}

	return nil
}

func sortCartItems(items []domain.CartItem) {
	// Hash fields come back unordered; present lines in a stable order
	// by the snapshot's creation time, then by id.
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i].Product, items[j].Product
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}
