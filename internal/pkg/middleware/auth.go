package middleware

import (
	"github.com/gofiber/fiber/v2"

	icuser "github.com/ManuelReschke/SaaSKit/internal/pkg/usercontext"
)

// RequireAPISessionAuth ensures a logged-in caller for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	v := c.Locals(icuser.KeyFromProtected)
	loggedIn := false
	if b, ok := v.(bool); ok {
		loggedIn = b
	}
	if !loggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "User not authenticated",
		})
	}
	return c.Next()
}

// RequireAPIAdmin ensures a logged-in admin; 401 or 403 JSON otherwise.
func RequireAPIAdmin(c *fiber.Ctx) error {
	if loggedIn, ok := c.Locals(icuser.KeyFromProtected).(bool); !ok || !loggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "User not authenticated",
		})
	}
	if isAdmin, ok := c.Locals(icuser.KeyIsAdmin).(bool); !ok || !isAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "Admin access required",
		})
	}
	return c.Next()
}
