package services

import (
	"sync"
	"time"

	"serverbot/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"` // "check", "pong", "error"
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// ClientConnection represents a connected WebSocket client.
// Send is never closed; Close is closed once by the client's read loop.
type ClientConnection struct {
	ID    string
	Conn  *websocket.Conn
	Send  chan WebSocketMessage
	Close chan bool
}

// RecordPublisher receives every completed monitoring pass
type RecordPublisher interface {
	Publish(record models.CheckRecord)
}

// WebSocketHub fans check records out to all connected clients
type WebSocketHub struct {
	clients    map[string]*ClientConnection
	broadcast  chan WebSocketMessage
	register   chan *ClientConnection
	unregister chan string
	mu         sync.RWMutex
	done       chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger
}

// NewWebSocketHub creates the hub and starts its event loop
func NewWebSocketHub(logger *zap.Logger) *WebSocketHub {
	h := &WebSocketHub{
		clients:    make(map[string]*ClientConnection),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		done:       make(chan struct{}),
		logger:     logger,
	}

	go h.run()

	return h
}

// run manages the hub's event loop
func (h *WebSocketHub) run() {
	for {
		select {
		case <-h.done:
			// Send channels stay open: a client's pumps may still write to them.
			// Writers watch Done() instead.
			h.mu.Lock()
			for id := range h.clients {
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("WebSocket client connected", zap.String("client", client.ID), zap.Int("total", total))

		case clientID := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, clientID)
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("WebSocket client disconnected", zap.String("client", clientID), zap.Int("total", total))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// Client's send channel is full, skip this message
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a new client to the hub
func (h *WebSocketHub) Register(client *ClientConnection) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(clientID string) {
	select {
	case h.unregister <- clientID:
	case <-h.done:
	}
}

// Publish broadcasts a check record without blocking the monitoring pass
func (h *WebSocketHub) Publish(record models.CheckRecord) {
	msg := WebSocketMessage{
		Type:      "check",
		Timestamp: record.Timestamp,
		Data:      record,
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("WebSocket broadcast queue full, dropping check record")
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Done is closed when the hub stops; client write loops exit on it
func (h *WebSocketHub) Done() <-chan struct{} {
	return h.done
}

// Stop gracefully stops the hub and drops every client
func (h *WebSocketHub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}
