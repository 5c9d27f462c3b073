package gateway

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stockdash/internal/metrics"
)

// Hub tracks connected WebSocket clients. Each client renders pages for
// itself; the hub only owns their lifecycle.
type Hub struct {
	renderer Renderer
	defaults renderDefaults
	metrics  *metrics.Metrics
	latency  *LatencyTracker

	mu      sync.RWMutex
	clients map[*Client]bool
	closed  bool
}

type renderDefaults struct {
	indicators bool
	timeout    time.Duration
}

// NewHub creates a hub rendering through r. Each RENDER is bounded by
// timeout; zero means only the connection bounds it.
func NewHub(r Renderer, indicatorsDefault bool, timeout time.Duration, m *metrics.Metrics, lt *LatencyTracker) *Hub {
	return &Hub{
		renderer: r,
		defaults: renderDefaults{indicators: indicatorsDefault, timeout: timeout},
		metrics:  m,
		latency:  lt,
		clients:  make(map[*Client]bool),
	}
}

// HandleWSRequest registers an upgraded connection and starts its pumps.
func (h *Hub) HandleWSRequest(conn *websocket.Conn, traceID string) {
	client := newClient(h, conn, traceID)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.WSClientDelta(1)
	log.Printf("[dashboard] ws client connected (%d total)", count)

	go client.writePump()
	go client.readPump()
}

// RemoveClient unregisters c and stops its pumps. Calling it twice is safe.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		h.metrics.WSClientDelta(-1)
	}
	c.stop()
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.RemoveClient(c)
	}
}
