package domain

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the server-side cart row, one per authenticated user,
// created lazily on the first reconciliation.
type Cart struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CartItem is a cart line: a product snapshot plus a quantity.
// A quantity reaching zero removes the line, so a present item
// always carries a positive quantity.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns price * quantity for this line.
func (i CartItem) Subtotal() float64 {
	return i.Product.Price * float64(i.Quantity)
}

// CartTotal sums price * quantity over the given lines.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}
