package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/MaxKoenig/ClubSync/internal/pkg/env"
)

// CronAuthMiddleware guards scheduler trigger endpoints with a shared secret.
// The secret authenticates the cron caller itself and is independent of any
// per-organization provider credential.
func CronAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := env.GetEnv("CRON_SECRET", "")
		if secret == "" {
			log.Print("cron middleware: CRON_SECRET not configured")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Cron trigger not configured"})
		}

		token := extractCronSecretFromHeader(c)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid cron secret"})
		}

		return c.Next()
	}
}

func extractCronSecretFromHeader(c *fiber.Ctx) string {
	token := strings.TrimSpace(c.Get("X-Cron-Secret"))
	if token != "" {
		return token
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
