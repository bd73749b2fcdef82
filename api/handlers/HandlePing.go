package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"
)

// CreatePingHandler reports liveness and how long the server has been up.
func CreatePingHandler(startedAt time.Time) fiber.Handler {
	return func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "pong",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
		})
	}
}
