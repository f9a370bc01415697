package middleware

import (
	"strings"

	"github.com/bethel4/Ecommerce-Backend-Repo/internal/auth"
	"github.com/gofiber/fiber/v2"
)

// NewAuthMiddleware validates the bearer token locally and stores the
// caller's user id in the request locals.
func NewAuthMiddleware(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: missing header"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: invalid header format"})
		}

		claims, err := tokens.ValidateToken(parts[1], false)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: invalid token"})
		}

		c.Locals("userId", claims.UserID)
		return c.Next()
	}
}
