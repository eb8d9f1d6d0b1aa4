package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus enumerates the order lifecycle. Status is the only field
// that may change after an order is placed.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusReturned  OrderStatus = "returned"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned:
		return true
	}
	return false
}

// ShippingAddress is the address snapshot captured at checkout time.
// It is denormalized into the order row, not a live reference, so later
// profile edits never rewrite order history.
type ShippingAddress struct {
	FullName   string `json:"full_name" validate:"required,min=2"`
	Address    string `json:"address" validate:"required,min=5"`
	City       string `json:"city" validate:"required,min=2"`
	PostalCode string `json:"postal_code" validate:"required,min=4"`
	Country    string `json:"country" validate:"required,min=2"`
}

// Order is immutable once placed except for Status.
// UserID is nil for guest checkouts.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Status          OrderStatus     `json:"status" db:"status"`
	TotalAmount     float64         `json:"total_amount" db:"total_amount"`
	ShippingAddress ShippingAddress `json:"shipping_address" db:"shipping_address"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// OrderItem records one cart line at the moment of purchase.
// PriceAtPurchase is the cart snapshot price, never recomputed from the
// current product price; ProductID is nil once the product is deleted.
type OrderItem struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	OrderID         uuid.UUID  `json:"order_id" db:"order_id"`
	ProductID       *uuid.UUID `json:"product_id,omitempty" db:"product_id"`
	ProductTitle    string     `json:"product_title" db:"product_title"`
	Quantity        int        `json:"quantity" db:"quantity"`
	PriceAtPurchase float64    `json:"price_at_purchase" db:"price_at_purchase"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// CounterSale is a manually entered daily cash-sales total recorded
// outside the online order pipeline, folded into revenue reporting.
// SaleDate is unique; recording the same day again overwrites the amount.
type CounterSale struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SaleDate  time.Time `json:"sale_date" db:"sale_date"`
	Amount    float64   `json:"amount" db:"amount"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
