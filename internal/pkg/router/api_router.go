package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/SaaSKit/app/controllers"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/middleware"
)

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	max := h.deps.LimiterMax
	if max <= 0 {
		max = 120
	}
	window := h.deps.LimiterWindow
	if window <= 0 {
		window = time.Minute
	}
	origins := h.deps.CORSAllowOrigin
	if origins == "" {
		origins = "*"
	}

	api := app.Group("/api",
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
			AllowCredentials: origins != "*",
		}),
		limiter.New(limiter.Config{
			Max:        max,
			Expiration: window,
			Storage:    h.deps.LimiterStorage,
		}),
	)
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	repos := h.deps.Repositories
	auth := controllers.NewAuthController(repos.User, h.deps.Tokens)
	users := controllers.NewUserController(repos.User)
	subscriptions := controllers.NewSubscriptionController(h.deps.Billing)
	payments := controllers.NewPaymentController(h.deps.Billing)
	products := controllers.NewProductController(h.deps.Catalog, repos.Product)

	v1 := api.Group("/v1")

	v1.Post("/auth/register", auth.HandleRegister)
	v1.Post("/auth/login", auth.HandleLogin)
	v1.Post("/auth/anonymous", auth.HandleAnonymous)
	v1.Post("/auth/logout", auth.HandleLogout)

	v1.Get("/user/me", users.HandleMe)
	v1.Put("/user/name", middleware.RequireAPISessionAuth, users.HandleUpdateName)
	v1.Put("/user/password", middleware.RequireAPISessionAuth, users.HandleUpdatePassword)

	v1.Get("/subscription", subscriptions.HandleGet)
	v1.Post("/subscription", middleware.RequireAPISessionAuth, subscriptions.HandleCreate)
	v1.Post("/subscription/cancel", middleware.RequireAPISessionAuth, subscriptions.HandleCancel)
	v1.Put("/subscription/:stripeSubscriptionId", middleware.RequireAPISessionAuth, subscriptions.HandleUpdate)

	v1.Get("/payments", payments.HandleList)
	v1.Post("/payments", middleware.RequireAPISessionAuth, payments.HandleCreate)
	v1.Post("/checkout/session", middleware.RequireAPISessionAuth, payments.HandleCheckout)
	v1.Post("/billing/portal", middleware.RequireAPISessionAuth, payments.HandlePortal)

	v1.Get("/products", products.HandleList)
	v1.Get("/products/price/:priceId", products.HandleGetByPrice)
	v1.Post("/products/seed", middleware.RequireAPIAdmin, products.HandleSeed)
	v1.Get("/products/:id", products.HandleGet)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
