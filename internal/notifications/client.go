package notifications

import (
	"context"
	"sync"
	"time"

	"communityhub/internal/middleware"
	"communityhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 65536

	// SendBufferSize is the number of outbound frames queued per connection.
	SendBufferSize = 256
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	hub *Hub

	// ID identifies the connection in logs.
	ID uint64

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages. Closed by the hub on unregister.
	Send chan []byte

	// closed when WritePump returns
	done chan struct{}

	mu   sync.RWMutex
	room string
}

func newClient(hub *Hub, conn *websocket.Conn, id uint64) *Client {
	return &Client{
		hub:  hub,
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, SendBufferSize),
		done: make(chan struct{}),
	}
}

// Serve runs both pumps and returns once neither touches Conn any more.
// The websocket handler must not return before Serve does: the connection
// is recycled as soon as it does.
func (c *Client) Serve() {
	defer func() {
		c.hub.running.Add(-1)
		c.hub.pumps.Done()
	}()

	go c.WritePump()
	c.ReadPump()
	<-c.done
}

// Room returns the label set by the last join_room frame.
func (c *Client) Room() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.room
}

// SetRoom replaces the client's room label.
func (c *Client) SetRoom(room string) {
	c.mu.Lock()
	c.room = room
	c.mu.Unlock()
}

// ReadPump pumps messages from the websocket connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("websocket read error", "client_id", c.ID, "error", err)
			}
			break
		}

		// handling errors are logged by the hub and never close the socket
		_ = c.hub.HandleMessage(context.Background(), c, message)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues message without blocking. A full buffer or a client that
// has already left drops the message and reports false.
func (c *Client) TrySend(message []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "closed").Inc()
			sent = false
		}
	}()

	select {
	case c.Send <- message:
		return true
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.hub.Name(), "full").Inc()
		middleware.Logger.Warn("websocket send buffer full, dropped message", "client_id", c.ID, "hub", c.hub.Name())
		return false
	}
}
