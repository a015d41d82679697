package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// BearerToken returns the token from an "Authorization: Bearer <token>" header.
// It returns "" when the header is absent or not a bearer credential.
func BearerToken(c *fiber.Ctx) string {
	authHeader := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
