package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one message in a customer's support thread.
// Sender is "customer" or "admin"; messages are grouped per UserID.
type ChatMessage struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Sender    string    `json:"sender" db:"sender"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// StoreSettings is the single-row store configuration.
type StoreSettings struct {
	ID           uuid.UUID `json:"id" db:"id"`
	StoreName    string    `json:"store_name" db:"store_name"`
	Currency     string    `json:"currency" db:"currency"`
	SupportEmail string    `json:"support_email" db:"support_email"`
	Announcement string    `json:"announcement" db:"announcement"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
