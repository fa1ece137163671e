package handlers

import (
	"github.com/coinacademy/api/database"
	"github.com/coinacademy/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// HandleCheckHealth reports service and database health
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.Error(c, fiber.StatusServiceUnavailable, "Database unreachable", "DB_UNAVAILABLE")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
