package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gigfolio/gigfolio_be/internal/utils"
)

// tokenFrom reads the session cookie, falling back to a bearer header.
func tokenFrom(c *fiber.Ctx) string {
	if tok := c.Cookies(utils.TokenCookie); tok != "" {
		return tok
	}
	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func JWTFromCookie(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		token, _, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals("user", token)
		return c.Next()
	}
}

// OptionalJWT attaches the caller when a valid token is present and lets
// anonymous requests through.
func OptionalJWT(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenStr := tokenFrom(c); tokenStr != "" {
			if token, claims, err := utils.ParseJWT(secret, tokenStr); err == nil {
				c.Locals("user", token)
				c.Locals("userId", strings.TrimSpace(claims.UserID))
				c.Locals("role", strings.ToLower(strings.TrimSpace(claims.Role)))
			}
		}
		return c.Next()
	}
}
