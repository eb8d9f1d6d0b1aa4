package realtime

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Change is one row-level event from the database change feed.
// UserID is set only for tables whose trigger includes a row owner,
// which lets subscribers watch a single user's rows.
type Change struct {
	Table  string     `json:"table"`
	Action string     `json:"action"`
	ID     uuid.UUID  `json:"id"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

// Subscription is a disposable handle on a table's change stream.
// Read from C until done, then Cancel exactly once.
type Subscription struct {
	C chan Change

	table      string
	userFilter *uuid.UUID
	cancel     func()
	lastKey    string
}

// Cancel detaches the subscription from the hub and closes C.
func (s *Subscription) Cancel() {
	s.cancel()
}

// Hub fans database change events out to subscribers. Each subscriber
// names a table and optionally a user whose rows it cares about; events
// that match neither are never delivered to it.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	logger *zap.Logger
}

// NewHub creates a new Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers interest in one table's changes. A non-nil
// userFilter narrows delivery to rows owned by that user.
func (h *Hub) Subscribe(table string, userFilter *uuid.UUID) *Subscription {
	sub := &Subscription{
		C:          make(chan Change, 16),
		table:      table,
		userFilter: userFilter,
	}
	sub.cancel = func() {
		h.mu.Lock()
		if _, ok := h.subs[sub]; ok {
			delete(h.subs, sub)
			close(sub.C)
		}
		h.mu.Unlock()
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	return sub
}

// Publish delivers a change to every matching subscriber. A subscriber
// that cannot keep up has the event dropped rather than blocking the
// feed; consecutive duplicates of the same row event are suppressed.
// Safe to call from multiple goroutines.
func (h *Hub) Publish(change Change) {
	key := change.Table + "/" + change.Action + "/" + change.ID.String()

	// Full lock: the dedupe key on each subscription is written here.
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if sub.table != change.Table {
			continue
		}
		if sub.userFilter != nil {
			if change.UserID == nil || *change.UserID != *sub.userFilter {
				continue
			}
		}
		if sub.lastKey == key {
			continue
		}
		sub.lastKey = key

		select {
		case sub.C <- change:
		default:
			h.logger.Warn("Dropping change event for slow subscriber",
				zap.String("table", change.Table),
				zap.String("action", change.Action),
			)
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
