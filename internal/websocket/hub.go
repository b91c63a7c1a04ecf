package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/dukerupert/fieldtrack/internal/metrics"
	"github.com/dukerupert/fieldtrack/internal/session"
)

// Message types.
const (
	TypeStatus = "status"
	TypeEnded  = "session_ended"
)

// Message is a status push to local displays.
type Message struct {
	Type   string         `json:"type"`
	Status session.Status `json:"status"`
}

// NewMessage wraps a snapshot, marking the final one of a session.
func NewMessage(st session.Status) Message {
	typ := TypeStatus
	if st.Ended != "" {
		typ = TypeEnded
	}
	return Message{Type: typ, Status: st}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
// It remembers the last message so a new client starts with current state.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	last    []byte
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub and queues the last message for it.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		select {
		case c.send <- h.last:
		default:
		}
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.StatusClients.Set(float64(n))
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.StatusClients.Set(float64(n))
}

// Publish broadcasts a session snapshot.
func (h *Hub) Publish(st session.Status) {
	h.Broadcast(NewMessage(st))
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop rather than block the session loop
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
