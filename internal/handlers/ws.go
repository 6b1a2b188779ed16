package handlers

import (
	"encoding/json"
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/example/velo/internal/config"
	"github.com/example/velo/internal/relay"
	"github.com/example/velo/internal/utils"
)

const wsUserContextKey = "wsUserID"

// WSHandler serves the real-time connection: one reader and one writer per
// socket, with the relay hub in between.
type WSHandler struct {
	router *relay.Router
	cfg    *config.Config
}

// NewWSHandler constructs a WSHandler.
func NewWSHandler(router *relay.Router, cfg *config.Config) *WSHandler {
	return &WSHandler{router: router, cfg: cfg}
}

// Upgrade gates the /ws route on a WebSocket handshake and resolves the
// optional token query parameter before the connection leaves Fiber. A
// missing or invalid token still connects, just anonymously.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	if token := c.Query("token"); token != "" {
		if userID, err := utils.ParseToken(h.cfg.JWTSecret, token); err == nil {
			c.Locals(wsUserContextKey, userID)
		}
	}

	return c.Next()
}

// Serve runs one connection until the peer goes away. The writer goroutine
// drains the hub queue; the read loop dispatches inbound events.
func (h *WSHandler) Serve(c *websocket.Conn) {
	userID, authenticated := c.Locals(wsUserContextKey).(uint)

	hub := h.router.Hub()
	conn := hub.Register(h.cfg.WSSendBuffer)
	defer hub.Unregister(conn)

	h.router.Connect(conn, userID, authenticated)

	// Outbound frames end when Unregister closes the queue.
	go func() {
		for frame := range conn.Outbound() {
			if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			return
		}

		var env relay.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("ws: malformed frame from conn %d: %v", conn.ID(), err)
			continue
		}

		switch env.Event {
		case relay.EventJoin:
			var p relay.JoinPayload
			if err := json.Unmarshal(env.Data, &p); err != nil || p.Room == "" {
				continue
			}
			h.router.Join(conn, p.Room)

		case relay.EventSendMessage:
			var p relay.MessagePayload
			if err := json.Unmarshal(env.Data, &p); err != nil {
				continue
			}
			sender := p.Sender
			if authenticated {
				// The socket identity wins over whatever the client claims.
				sender = userID
			}
			if _, err := h.router.SendMessage(sender, p.Receiver, p.Message); err != nil {
				// The send failed before delivery; the connection stays open
				// and the client may retry.
				log.Printf("ws: send from %d to %d failed: %v", sender, p.Receiver, err)
			}
		}
	}
}
