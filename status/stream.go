package status

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"gmocoin-bot/logging"
)

// Message is one frame pushed to stream clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans status updates out to websocket clients connected on /ws.
// Run owns all writes to registered connections.
type Hub struct {
	Logger       logging.LoggerInterface
	WriteTimeout time.Duration

	upgrader  websocket.Upgrader
	mu        sync.Mutex
	clients   map[*websocket.Conn]struct{}
	last      *Message
	broadcast chan Message
}

// NewHub creates a hub; call Run to start delivering messages.
func NewHub(logger logging.LoggerInterface) *Hub {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Hub{
		Logger:       logger,
		WriteTimeout: 5 * time.Second,
		upgrader: websocket.Upgrader{
			// local diagnostics only
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan Message, 16),
	}
}

// ServeHTTP upgrades the request and keeps the client registered until it
// disconnects. The latest published message is sent first.
func (h *Hub) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		h.Logger.Warning("Stream upgrade error: %v", err)
		return
	}

	h.mu.Lock()
	last := h.last
	h.mu.Unlock()
	if last != nil {
		_ = conn.SetWriteDeadline(time.Now().Add(h.WriteTimeout))
		if err := conn.WriteJSON(last); err != nil {
			conn.Close()
			return
		}
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	h.Logger.Debug("Stream client connected from %s", r.RemoteAddr)

	// clients never send anything useful; reading detects the disconnect
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
}

// Publish queues a message for every client. It never blocks; a full queue
// drops the update.
func (h *Hub) Publish(msgType string, data interface{}) bool {
	msg := Message{Type: msgType, Data: data}
	h.mu.Lock()
	h.last = &msg
	h.mu.Unlock()
	select {
	case h.broadcast <- msg:
		return true
	default:
		h.Logger.Debug("Stream queue full, skipping %s update", msgType)
		return false
	}
}

// PublishStatus pushes the same payload /status would serve.
func (h *Hub) PublishStatus(src Source) bool {
	return h.Publish("status", src.build(time.Now()))
}

// Clients reports the number of connected stream clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Run delivers queued messages until ctx is done, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return
		case msg := <-h.broadcast:
			h.mu.Lock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.mu.Unlock()
			for _, conn := range conns {
				_ = conn.SetWriteDeadline(time.Now().Add(h.WriteTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					h.Logger.Warning("Stream write error: %v", err)
					h.drop(conn)
				}
			}
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	conn.Close()
}
