// Package notifications provides the real-time fan-out channel for post activity.
package notifications

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"communityhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// Max total connections
const maxTotalConns = 10000

// ErrConnectionLimit is returned by Register when the hub is full.
var ErrConnectionLimit = errors.New("server connection limit reached")

// HubConfig controls fan-out behaviour.
type HubConfig struct {
	// RoomScoped restricts relays to peers whose room label matches the sender's.
	RoomScoped bool
	// MaxConnections caps open connections. Zero means maxTotalConns.
	MaxConnections int
}

// Hub is the registry of open fan-out connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	cfg     HubConfig
	nextID  atomic.Uint64
	closed  bool

	// pumps tracks connections whose Serve has not returned yet.
	pumps   sync.WaitGroup
	running atomic.Int64
}

// NewHub creates an empty Hub.
func NewHub(cfg HubConfig) *Hub {
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = maxTotalConns
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		cfg:     cfg,
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "post hub" }

// RoomScoped reports whether relays are limited to the sender's room.
func (h *Hub) RoomScoped() bool { return h.cfg.RoomScoped }

// Register adds a connection to the hub. conn may be nil in tests; such
// clients never run pumps and are read through their Send channel.
func (h *Hub) Register(conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errors.New("hub is shut down")
	}
	if len(h.clients) >= h.cfg.MaxConnections {
		return nil, ErrConnectionLimit
	}

	client := newClient(h, conn, h.nextID.Add(1))
	h.clients[client] = struct{}{}
	if conn != nil {
		h.pumps.Add(1)
		h.running.Add(1)
	}
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes a connection and closes its send buffer. Safe to
// call more than once.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	observability.WebSocketConnectionsTotal.Dec()
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Running returns the number of connections still being served.
func (h *Hub) Running() int64 { return h.running.Load() }

// Broadcast queues message on every open connection except sender and returns
// how many peers accepted it. With RoomScoped set only peers in the sender's
// room are considered.
func (h *Hub) Broadcast(sender *Client, message []byte) int {
	room := ""
	if sender != nil {
		room = sender.Room()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients {
		if c == sender {
			continue
		}
		if h.cfg.RoomScoped && c.Room() != room {
			continue
		}
		if c.TrySend(message) {
			delivered++
		}
	}
	return delivered
}

// Shutdown closes every send buffer; each write pump then sends a going-away
// close frame and drops its connection. It waits for served connections to
// finish or for ctx to end.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		for client := range h.clients {
			close(client.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
		h.clients = make(map[*Client]struct{})
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.pumps.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
