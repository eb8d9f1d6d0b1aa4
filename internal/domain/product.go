package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog.
// CompareAtPrice, when set, is the pre-discount price shown next to Price.
type Product struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Description    string     `json:"description" db:"description"`
	Price          float64    `json:"price" db:"price"`
	CompareAtPrice *float64   `json:"compare_at_price,omitempty" db:"compare_at_price"`
	StockQuantity  int        `json:"stock_quantity" db:"stock_quantity"`
	CategoryID     *uuid.UUID `json:"category_id,omitempty" db:"category_id"`
	Slug           string     `json:"slug" db:"slug"`
	ImageURL       string     `json:"image_url" db:"image_url"`
	IsFeatured     bool       `json:"is_featured" db:"is_featured"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Category represents a product category
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	ImageURL  string    `json:"image_url" db:"image_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Review is a customer rating attached to a product.
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
