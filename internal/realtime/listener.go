package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// channelName is the NOTIFY channel the row triggers publish on.
const channelName = "table_changes"

// Listener holds a dedicated Postgres connection on LISTEN and feeds
// every notification into the hub.
type Listener struct {
	connString string
	hub        *Hub
	logger     *zap.Logger
}

// NewListener creates a new Listener
func NewListener(connString string, hub *Hub, logger *zap.Logger) *Listener {
	return &Listener{
		connString: connString,
		hub:        hub,
		logger:     logger,
	}
}

// Run listens until ctx is cancelled, reconnecting with backoff when
// the connection drops. It never returns a terminal error; a broken
// change feed degrades realtime updates, not the store.
func (l *Listener) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if err := l.listen(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Error("Change feed connection lost, reconnecting",
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.connString)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
		return err
	}
	l.logger.Info("Change feed listening", zap.String("channel", channelName))

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var change Change
		if err := json.Unmarshal([]byte(notification.Payload), &change); err != nil {
			l.logger.Warn("Discarding malformed change notification",
				zap.String("payload", notification.Payload),
				zap.Error(err),
			)
			continue
		}

		l.hub.Publish(change)
	}
}
