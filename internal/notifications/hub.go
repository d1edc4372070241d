package notifications

import (
	"errors"
	"sync"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per moderator
	maxConnsPerModerator = 4
	// Max total connections
	maxTotalConns = 2000
)

// Hub fans moderation events out to connected moderator dashboards. It maps
// moderatorID -> set of Clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "moderation hub" }

// NewHub creates a Hub for moderator dashboard connections.
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Client]struct{})}
}

// Register adds a connection for a moderator. Returns an error when a
// connection limit is exceeded.
func (h *Hub) Register(moderatorID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[moderatorID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[moderatorID] = m
	}
	if len(m) >= maxConnsPerModerator {
		return nil, errors.New("moderator connection limit reached")
	}

	client := NewClient(h, conn, moderatorID)
	m[client] = struct{}{}
	h.totalConns++
	return client, nil
}

// UnregisterClient removes a client from the hub.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m, ok := h.conns[client.ModeratorID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
		}
		if len(m) == 0 {
			delete(h.conns, client.ModeratorID)
		}
	}
}

// Broadcast sends a message to every connected moderator. Clients whose
// send buffer is full are skipped rather than blocked on.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.conns {
		for client := range clients {
			select {
			case client.Send <- message:
			default:
			}
		}
	}
}

// Send delivers a message to one moderator's connections.
func (h *Hub) Send(moderatorID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.conns[moderatorID] {
		select {
		case client.Send <- message:
		default:
		}
	}
}

// ConnectionCount returns the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}
