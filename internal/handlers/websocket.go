package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/models"
	"github.com/ternarybob/narrato/internal/services/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// subscribeMessage is the client-to-server frame on the push socket
type subscribeMessage struct {
	Action string `json:"action"`
	JobID  string `json:"jobId"`
}

// wsClient wraps a websocket connection with a write mutex so the hub and
// the read loop never interleave frames
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// SendEvent implements hub.Conn
func (c *wsClient) SendEvent(event *models.JobEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(event)
}

func (c *wsClient) send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// WebSocketHandler upgrades connections and manages job subscriptions
type WebSocketHandler struct {
	hub    *hub.Hub
	logger arbor.ILogger

	mu      sync.RWMutex
	clients map[*wsClient]bool
}

// NewWebSocketHandler creates a websocket handler over the notification hub
func NewWebSocketHandler(h *hub.Hub, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:     h,
		logger:  logger,
		clients: make(map[*wsClient]bool),
	}
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := &wsClient{conn: conn}

	h.mu.Lock()
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Msgf("WebSocket client connected (total: %d)", clientCount)

	defer func() {
		h.hub.RemoveConn(client)

		h.mu.Lock()
		delete(h.clients, client)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Msgf("WebSocket client disconnected (remaining: %d)", remaining)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}

		h.handleMessage(client, data)
	}
}

// handleMessage processes one client frame. Malformed frames get an error
// reply but never close the connection.
func (h *WebSocketHandler) handleMessage(client *wsClient, data []byte) {
	var msg subscribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		client.send(map[string]string{"error": "invalid message format"})
		return
	}

	if msg.JobID == "" {
		client.send(map[string]string{"error": "jobId is required"})
		return
	}

	switch msg.Action {
	case "subscribe":
		h.hub.Subscribe(client, msg.JobID)
		client.send(map[string]string{"type": "subscribed", "jobId": msg.JobID})
	case "unsubscribe":
		h.hub.Unsubscribe(client, msg.JobID)
		client.send(map[string]string{"type": "unsubscribed", "jobId": msg.JobID})
	default:
		client.send(map[string]string{"error": "unknown action: " + msg.Action})
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
