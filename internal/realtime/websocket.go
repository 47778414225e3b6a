// internal/realtime/websocket.go
package realtime

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/gigfolio/gigfolio_be/internal/logger"
)

// ServeWS streams notifications to an authenticated connection. The upgrade
// route must have stored the caller in Locals("userId").
func (h *Hub) ServeWS(c *websocket.Conn) {
	raw, _ := c.Locals("userId").(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		logger.Warn("websocket without a valid user", "user_id", raw)
		_ = c.Close()
		return
	}

	client := NewClient(userID)
	h.RegisterClient(client)
	defer h.UnregisterClient(client)

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("websocket write failed", "user_id", userID, "error", err)
				return
			}
		}
	}()

	// the client only sends pings; reading detects the disconnect
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
