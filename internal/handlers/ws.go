package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/gigfolio/gigfolio_be/internal/utils"
)

// WSUpgrade authenticates the notification socket before the upgrade.
// Browsers cannot set headers on websocket requests, so the token comes
// from the session cookie or the token query parameter.
func WSUpgrade(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		tok := c.Cookies(utils.TokenCookie)
		if tok == "" {
			tok = c.Query("token")
		}
		_, claims, err := utils.ParseJWT(secret, tok)
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}
