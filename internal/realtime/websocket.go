package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// watchableTables limits websocket subscriptions to tables that carry
// a change trigger.
var watchableTables = map[string]bool{
	"orders":        true,
	"products":      true,
	"counter_sales": true,
	"chat_messages": true,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades HTTP requests to change-feed streams.
type WebSocketHandler struct {
	hub    *Hub
	logger *zap.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// Serve subscribes the connection to one table's change stream. A
// non-nil userFilter narrows the stream to that user's rows; callers
// decide the filter from the authenticated session, not the query.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request, table string, userFilter *uuid.UUID) {
	if !watchableTables[table] {
		http.Error(w, "unknown table", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.hub.Subscribe(table, userFilter)

	go h.writeLoop(conn, sub)
	h.readLoop(conn, sub)
}

// readLoop drains client frames until the connection closes, then
// tears the subscription down.
func (h *WebSocketHandler) readLoop(conn *websocket.Conn, sub *Subscription) {
	defer func() {
		sub.Cancel()
		conn.Close()
	}()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WebSocketHandler) writeLoop(conn *websocket.Conn, sub *Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case change, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(change)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
