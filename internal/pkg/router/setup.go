package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/SaaSKit/app/controllers"
	"github.com/ManuelReschke/SaaSKit/app/repository"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/catalog"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the wired services the routers hand to controllers.
type Dependencies struct {
	Repositories *repository.Repositories
	Billing      *billing.Service
	Catalog      *catalog.Catalog
	Tokens       controllers.TokenConfig
	Health       []controllers.HealthCheck

	// LimiterStorage backs the API rate limiter; nil keeps counters in memory.
	LimiterStorage  fiber.Storage
	LimiterMax      int
	LimiterWindow   time.Duration
	CORSAllowOrigin string
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// Install HttpRouter first to register the global UserContext
	// middleware the API routes depend on.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
