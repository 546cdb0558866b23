package controllers

import (
	"net/http"
	"time"

	"serverbot/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Access is gated by the token, not the origin
		return true
	},
}

// HandleWebSocket streams monitoring passes to a client holding a valid token
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "streaming is disabled"})
		return
	}

	token := c.Query("token")
	if token == "" {
		h.logger.Warn("Failed authentication", zap.String("ip", c.ClientIP()), zap.String("reason", "missing token"))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		h.logger.Warn("Failed authentication", zap.String("ip", c.ClientIP()), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &services.ClientConnection{
		ID:    c.ClientIP() + "-" + claims.ClientName,
		Conn:  ws,
		Send:  make(chan services.WebSocketMessage, 256),
		Close: make(chan bool),
	}
	h.hub.Register(client)

	go h.readPump(client)
	go h.writePump(client)
}

// readPump reads messages from the WebSocket client
func (h *Handlers) readPump(client *services.ClientConnection) {
	defer func() {
		close(client.Close)
		h.hub.Unregister(client.ID)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(4096)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg services.WebSocketMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("WebSocket read failed", zap.String("client", client.ID), zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case "ping":
			select {
			case client.Send <- services.WebSocketMessage{Type: "pong", Timestamp: time.Now()}:
			default:
			}
		case "latest":
			reply := services.WebSocketMessage{Type: "check", Timestamp: time.Now()}
			if latest := h.monitor.History().Latest(); latest != nil {
				reply.Data = latest
			}
			select {
			case client.Send <- reply:
			default:
			}
		case "unsubscribe":
			return
		default:
			h.logger.Debug("Unknown WebSocket message type", zap.String("type", msg.Type))
		}
	}
}

// writePump writes messages to the WebSocket client
func (h *Handlers) writePump(client *services.ClientConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case msg := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logger.Warn("WebSocket write failed", zap.String("client", client.ID), zap.Error(err))
				}
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-h.hub.Done():
			// Server shutdown; closing the socket also ends readPump
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case <-client.Close:
			return
		}
	}
}
