package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/ketowell/ketowell-backend/internal/config"
	"github.com/ketowell/ketowell-backend/internal/dto"
)

// AdminRequired guards support-tooling routes with the shared admin token.
// An unset token disables the admin surface entirely.
func AdminRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken == "" {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Not found",
			})
		}

		provided := c.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.AdminToken)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		return c.Next()
	}
}
