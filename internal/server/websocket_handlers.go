package server

import (
	"log/slog"

	"communityhub/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebSocketUpgrade rejects plain HTTP requests to /ws.
func (s *Server) WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// WebsocketHandler attaches each connection to the post hub. Connections are
// anonymous; frames are relayed as they arrive.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client, err := s.hub.Register(conn)
		if err != nil {
			middleware.Logger.Warn("websocket register failed",
				slog.String("remote", conn.RemoteAddr().String()),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","message":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		middleware.Logger.Debug("websocket connected",
			slog.Uint64("client", client.ID),
			slog.Int("connections", s.hub.Len()),
		)

		// blocks until the peer goes away and the write pump has stopped
		client.Serve()

		middleware.Logger.Debug("websocket disconnected", slog.Uint64("client", client.ID))
	})
}
