package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// HandleTest is a liveness probe.
func HandleTest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("Test endpoint working!")
}

// HealthCheck probes one backing service.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewHealthHandler reports 503 and the failing checks when any backing
// service is unreachable.
func NewHealthHandler(checks ...HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		failed := fiber.Map{}
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				log.Warnf("health: %s: %v", hc.Name, err)
				failed[hc.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "failed": failed})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
