package router

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/SaaSKit/app/controllers"
	"github.com/ManuelReschke/SaaSKit/app/repository/repositorytest"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing/billingtest"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/catalog"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/security"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/session"
)

const openAPIFile = "../../../public/docs/v1/openapi.yml"

var (
	pathParam  = regexp.MustCompile(`\{([^}]+)\}`)
	fiberParam = regexp.MustCompile(`:([A-Za-z]+)`)
)

func testApp(t *testing.T) *fiber.App {
	t.Helper()
	repos := repositorytest.NewRepositories()
	products := catalog.MustLoad(catalog.ModeTest)
	session.SetStore(fibersession.New())
	t.Cleanup(func() { session.SetStore(nil) })
	app := fiber.New()
	InstallRouter(app, Dependencies{
		Repositories: repos.Repositories,
		Billing:      billing.NewService(repos.Billing, billingtest.NewFakeProvider(), products, billing.Config{}),
		Catalog:      products,
		Tokens:       controllers.TokenConfig{Secret: "secret", Denylist: security.NewMemoryDenylist()},
	})
	return app
}

func TestOpenAPIDocumentIsValid(t *testing.T) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(openAPIFile)
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
}

func TestOpenAPIPathsAreRouted(t *testing.T) {
	doc, err := openapi3.NewLoader().LoadFromFile(openAPIFile)
	require.NoError(t, err)

	routes := map[string]bool{}
	for _, r := range testApp(t).GetRoutes(true) {
		routes[r.Method+" "+r.Path] = true
	}

	documented := 0
	for path, item := range doc.Paths.Map() {
		fiberPath := "/api/v1" + pathParam.ReplaceAllString(path, ":$1")
		for method := range item.Operations() {
			documented++
			key := strings.ToUpper(method) + " " + fiberPath
			assert.True(t, routes[key], "documented route %s is not installed", key)
		}
	}

	// every API route is documented
	for key := range routes {
		parts := strings.SplitN(key, " ", 2)
		if !strings.HasPrefix(parts[1], "/api/v1/") || parts[0] == fiber.MethodHead || parts[0] == fiber.MethodOptions {
			continue
		}
		path := strings.TrimPrefix(parts[1], "/api/v1")
		path = fiberParam.ReplaceAllString(path, "{$1}")
		item := doc.Paths.Find(path)
		if assert.NotNil(t, item, "route %s is not documented", key) {
			assert.NotNil(t, item.GetOperation(parts[0]), "route %s is not documented", key)
		}
	}
	assert.Equal(t, 19, documented)
}

func TestStripeWebhookRouteIsOutsideAPI(t *testing.T) {
	found := false
	for _, r := range testApp(t).GetRoutes(true) {
		if r.Method == fiber.MethodPost && r.Path == "/stripe/webhook" {
			found = true
		}
	}
	assert.True(t, found)
}
