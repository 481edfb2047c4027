package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/SaaSKit/app/controllers"
	"github.com/ManuelReschke/SaaSKit/app/repository"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/cache"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/catalog"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/database"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/env"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/router"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/security"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/session"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	products := catalog.MustLoad(catalog.ModeFor(env.GetEnv("APP_ENV", "dev")))

	billingCfg := billing.ConfigFromEnv()
	var provider billing.Provider
	if billingCfg.SecretKey != "" {
		provider = billing.NewStripeProvider(billingCfg.SecretKey)
	} else {
		log.Println("STRIPE_SECRET_KEY is not set, checkout and webhooks are disabled")
	}
	repos := repository.GetGlobalRepositories()
	billingService := billing.NewService(repos.Billing, provider, products, billingCfg)

	jwtSecret := env.GetEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		panic("JWT_SECRET must be set")
	}

	basePath := findBasePath()

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "change-me"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	// SESSION
	session.NewSessionStore()

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Repositories: repos,
		Billing:      billingService,
		Catalog:      products,
		Health: []controllers.HealthCheck{
			{Name: "database", Check: pingDatabase},
			{Name: "cache", Check: cache.Ping},
		},
		Tokens: controllers.TokenConfig{
			Secret:   jwtSecret,
			TTL:      durationFromEnv("JWT_TTL", security.DefaultAccessTokenTTL),
			Denylist: security.CacheDenylist{},
		},
		LimiterStorage:  cache.NewStorage(cache.DBLimiter),
		LimiterMax:      intFromEnv("RATE_LIMIT_MAX", 120),
		LimiterWindow:   durationFromEnv("RATE_LIMIT_WINDOW", time.Minute),
		CORSAllowOrigin: env.GetEnv("CORS_ALLOW_ORIGINS", "*"),
	})

	return app
}

func pingDatabase(ctx context.Context) error {
	sqlDB, err := database.GetDB().DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func findBasePath() string {
	// Define possible base paths
	for _, path := range []string{"./", "../../", "../../../"} {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); err == nil {
			return path
		}
	}
	panic("Could not find project root directory")
}

func intFromEnv(key string, def int) int {
	v, err := strconv.Atoi(env.GetEnv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func durationFromEnv(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(env.GetEnv(key, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
