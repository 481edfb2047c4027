package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SaaSKit/app/controllers"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/middleware"
)

type HttpRouter struct {
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.NewUserContextMiddleware(middleware.UserContextConfig{
		JWTSecret: h.deps.Tokens.Secret,
		Denylist:  h.deps.Tokens.Denylist,
	}))

	app.Get("/test", controllers.HandleTest)
	app.Get("/health", controllers.NewHealthHandler(h.deps.Health...))

	webhooks := controllers.NewWebhookController(h.deps.Billing)
	app.Post("/stripe/webhook", webhooks.HandleStripeWebhook)
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
