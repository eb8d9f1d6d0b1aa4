package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

// ChatThread is one customer's support conversation as seen in the
// admin console listing.
type ChatThread struct {
	UserID       uuid.UUID `json:"user_id"`
	CustomerName string    `json:"customer_name"`
	LastMessage  string    `json:"last_message"`
	LastSentAt   time.Time `json:"last_sent_at"`
}

// ChatRepository defines the interface for chat message data access
type ChatRepository interface {
	Create(ctx context.Context, message *domain.ChatMessage) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ChatMessage, error)
	ListThreads(ctx context.Context) ([]ChatThread, error)
}

type chatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new instance of ChatRepository
func NewChatRepository(db *sql.DB) ChatRepository {
	return &chatRepository{db: db}
}

// Create inserts a new chat message
func (r *chatRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, user_id, sender, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		message.ID,
		message.UserID,
		message.Sender,
		message.Content,
		message.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}

	return nil
}

// ListByUser retrieves a customer's thread, oldest first
func (r *chatRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ChatMessage, error) {
	query := `
		SELECT id, user_id, sender, content, created_at
		FROM chat_messages
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	messages := []*domain.ChatMessage{}
	for rows.Next() {
		message := &domain.ChatMessage{}
		err := rows.Scan(
			&message.ID,
			&message.UserID,
			&message.Sender,
			&message.Content,
			&message.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, message)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat messages: %w", err)
	}

	return messages, nil
}

// ListThreads retrieves one row per customer with their latest message,
// most recently active thread first.
func (r *chatRepository) ListThreads(ctx context.Context) ([]ChatThread, error) {
	query := `
		SELECT DISTINCT ON (m.user_id)
		       m.user_id, COALESCE(p.full_name, ''), m.content, m.created_at
		FROM chat_messages m
		LEFT JOIN profiles p ON p.id = m.user_id
		ORDER BY m.user_id, m.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat threads: %w", err)
	}
	defer rows.Close()

	threads := []ChatThread{}
	for rows.Next() {
		var thread ChatThread
		err := rows.Scan(
			&thread.UserID,
			&thread.CustomerName,
			&thread.LastMessage,
			&thread.LastSentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat thread: %w", err)
		}
		threads = append(threads, thread)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat threads: %w", err)
	}

	// DISTINCT ON ordering is by user; re-sort by recency for display.
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].LastSentAt.After(threads[j].LastSentAt)
	})

	return threads, nil
}
