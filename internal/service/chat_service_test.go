package service

import (
	"context"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type mockChatRepository struct {
	messages []*domain.ChatMessage
}

func (m *mockChatRepository) Create(ctx context.Context, message *domain.ChatMessage) error {
	m.messages = append(m.messages, message)
	return nil
}

func (m *mockChatRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ChatMessage, error) {
	var thread []*domain.ChatMessage
	for _, message := range m.messages {
		if message.UserID == userID {
			thread = append(thread, message)
		}
	}
	return thread, nil
}

func (m *mockChatRepository) ListThreads(ctx context.Context) ([]repository.ChatThread, error) {
	latest := make(map[uuid.UUID]repository.ChatThread)
	for _, message := range m.messages {
		latest[message.UserID] = repository.ChatThread{
			UserID:      message.UserID,
			LastMessage: message.Content,
			LastSentAt:  message.CreatedAt,
		}
	}
	threads := make([]repository.ChatThread, 0, len(latest))
	for _, thread := range latest {
		threads = append(threads, thread)
	}
	return threads, nil
}

func TestSend_StampsSenderAndTime(t *testing.T) {
	repo := &mockChatRepository{}
	svc := NewChatService(repo)
	userID := uuid.New()

	message, err := svc.Send(context.Background(), userID, ChatSenderCustomer, "  is the desk in stock?  ")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if message.Content != "is the desk in stock?" {
		t.Errorf("expected trimmed content, got %q", message.Content)
	}
	if message.Sender != ChatSenderCustomer {
		t.Errorf("expected sender %q, got %q", ChatSenderCustomer, message.Sender)
	}
	if message.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped")
	}
	if len(repo.messages) != 1 {
		t.Errorf("expected the message to be persisted, got %d rows", len(repo.messages))
	}
}

func TestSend_EmptyContentIsRejected(t *testing.T) {
	svc := NewChatService(&mockChatRepository{})

	if _, err := svc.Send(context.Background(), uuid.New(), ChatSenderCustomer, "   "); err != ErrEmptyMessage {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSend_UnknownSenderIsRejected(t *testing.T) {
	svc := NewChatService(&mockChatRepository{})

	if _, err := svc.Send(context.Background(), uuid.New(), "support-bot", "hi"); err == nil {
		t.Error("expected an unknown sender to be rejected")
	}
}

func TestThread_ReturnsOnlyTheUsersMessages(t *testing.T) {
	repo := &mockChatRepository{}
	svc := NewChatService(repo)
	ctx := context.Background()
	alice := uuid.New()
	bob := uuid.New()

	if _, err := svc.Send(ctx, alice, ChatSenderCustomer, "hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := svc.Send(ctx, alice, ChatSenderAdmin, "hi, how can we help?"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if _, err := svc.Send(ctx, bob, ChatSenderCustomer, "unrelated"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	thread, err := svc.Thread(ctx, alice)
	if err != nil {
		t.Fatalf("Thread failed: %v", err)
	}
	if len(thread) != 2 {
		t.Fatalf("expected 2 messages in the thread, got %d", len(thread))
	}
	for _, message := range thread {
		if message.UserID != alice {
			t.Errorf("foreign message leaked into the thread: %+v", message)
		}
	}

	threads, err := svc.Threads(ctx)
	if err != nil {
		t.Fatalf("Threads failed: %v", err)
	}
	if len(threads) != 2 {
		t.Errorf("expected one thread per customer, got %d", len(threads))
	}
}
