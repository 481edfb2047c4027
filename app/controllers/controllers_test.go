package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/SaaSKit/app/controllers"
	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/app/repository/repositorytest"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing/billingtest"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/catalog"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/router"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/security"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/session"
)

const (
	webhookSecret = "whsec_test_secret"
	jwtSecret     = "jwt-test-secret"
	proPriceID    = "price_1Rvl5v9s881ETZA7AmMgKS0U"
	strongPass    = "Secret123"
)

type harness struct {
	t        *testing.T
	app      *fiber.App
	repos    *repositorytest.Repositories
	provider *billingtest.FakeProvider
	denylist *security.MemoryDenylist
}

func newHarness(t *testing.T, cfg billing.Config) *harness {
	t.Helper()
	repos := repositorytest.NewRepositories()
	provider := billingtest.NewFakeProvider()
	products := catalog.MustLoad(catalog.ModeTest)
	svc := billing.NewService(repos.Billing, provider, products, cfg)

	session.SetStore(fibersession.New())
	t.Cleanup(func() { session.SetStore(nil) })

	denylist := security.NewMemoryDenylist()
	app := fiber.New()
	router.InstallRouter(app, router.Dependencies{
		Repositories: repos.Repositories,
		Billing:      svc,
		Catalog:      products,
		Tokens:       controllers.TokenConfig{Secret: jwtSecret, TTL: time.Minute, Denylist: denylist},
		LimiterMax:   1000,
	})
	return &harness{t: t, app: app, repos: repos, provider: provider, denylist: denylist}
}

func configuredHarness(t *testing.T) *harness {
	return newHarness(t, billing.Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: webhookSecret,
		SiteURL:       "http://localhost:4000",
	})
}

type response struct {
	status int
	body   []byte
}

func (r response) json(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (h *harness) do(method, path string, body interface{}, token string) response {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return h.send(req)
}

func (h *harness) send(req *http.Request) response {
	h.t.Helper()
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return response{status: resp.StatusCode, body: raw}
}

// register signs up a user and returns the bearer token and id.
func (h *harness) register(email string) (string, uint) {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name": "Jane", "email": email, "password": strongPass,
	}, "")
	require.Equal(h.t, fiber.StatusCreated, resp.status, string(resp.body))
	out := resp.json(h.t)
	user := out["user"].(map[string]interface{})
	return out["access_token"].(string), uint(user["id"].(float64))
}

func (h *harness) admin() string {
	h.t.Helper()
	u, err := models.CreateUser("Admin", "admin@example.com", strongPass)
	require.NoError(h.t, err)
	u.Role = models.ROLE_ADMIN
	require.NoError(h.t, h.repos.Users.Create(u))

	resp := h.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "admin@example.com", "password": strongPass,
	}, "")
	require.Equal(h.t, fiber.StatusOK, resp.status, string(resp.body))
	return resp.json(h.t)["access_token"].(string)
}

func (h *harness) webhook(payload []byte, signature string) response {
	h.t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/stripe/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	return h.send(req)
}

func (h *harness) seedSubscription(userID uint) {
	h.t.Helper()
	require.NoError(h.t, h.repos.Billing.UpsertSubscription(&models.Subscription{
		UserID:               userID,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
		Status:               models.SubscriptionStatusActive,
		PriceID:              proPriceID,
		PlanName:             "Pro Plan",
	}))
}
