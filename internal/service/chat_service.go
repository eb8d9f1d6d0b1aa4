package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

const (
	ChatSenderCustomer = "customer"
	ChatSenderAdmin    = "admin"
)

var ErrEmptyMessage = errors.New("message content is empty")

// ChatService handles the customer support chat. Every conversation is
// one thread keyed by the customer's user id; admins reply into that
// same thread.
type ChatService interface {
	Send(ctx context.Context, userID uuid.UUID, sender, content string) (*domain.ChatMessage, error)
	Thread(ctx context.Context, userID uuid.UUID) ([]*domain.ChatMessage, error)
	Threads(ctx context.Context) ([]repository.ChatThread, error)
}

type chatService struct {
	messages repository.ChatRepository
}

// NewChatService creates a new instance of ChatService
func NewChatService(messages repository.ChatRepository) ChatService {
	return &chatService{messages: messages}
}

// Send appends a message to the customer's thread
func (s *chatService) Send(ctx context.Context, userID uuid.UUID, sender, content string) (*domain.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if sender != ChatSenderCustomer && sender != ChatSenderAdmin {
		return nil, fmt.Errorf("unknown sender %q", sender)
	}

	message := &domain.ChatMessage{
		ID:        uuid.New(),
		UserID:    userID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	return message, nil
}

// Thread returns the customer's full conversation, oldest first
func (s *chatService) Thread(ctx context.Context, userID uuid.UUID) ([]*domain.ChatMessage, error) {
	return s.messages.ListByUser(ctx, userID)
}

// Threads returns every conversation with its latest message, most
// recently active first, for the admin inbox.
func (s *chatService) Threads(ctx context.Context) ([]repository.ChatThread, error) {
	return s.messages.ListThreads(ctx)
}
