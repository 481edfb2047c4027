package controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducts_List(t *testing.T) {
	h := configuredHarness(t)

	tests := []struct {
		name   string
		path   string
		status int
		kind   string
	}{
		{name: "all", path: "/api/v1/products", status: fiber.StatusOK},
		{name: "subscriptions", path: "/api/v1/products?type=subscription", status: fiber.StatusOK, kind: "subscription"},
		{name: "one time", path: "/api/v1/products?type=one_time", status: fiber.StatusOK, kind: "one_time"},
		{name: "invalid type", path: "/api/v1/products?type=lifetime", status: fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(http.MethodGet, tt.path, nil, "")
			require.Equal(t, tt.status, resp.status)
			if tt.status != fiber.StatusOK {
				return
			}
			var list []map[string]interface{}
			require.NoError(t, json.Unmarshal(resp.body, &list))
			require.NotEmpty(t, list)
			for _, p := range list {
				assert.NotEmpty(t, p["display_price"])
				if tt.kind != "" {
					assert.Equal(t, tt.kind, p["type"])
				}
			}
		})
	}
}

func TestProducts_Lookup(t *testing.T) {
	h := configuredHarness(t)

	resp := h.do(http.MethodGet, "/api/v1/products/pro-monthly", nil, "")
	require.Equal(t, fiber.StatusOK, resp.status)
	out := resp.json(t)
	assert.Equal(t, "Pro Plan", out["name"])
	assert.Equal(t, "29.99 USD", out["display_price"])

	resp = h.do(http.MethodGet, "/api/v1/products/price/"+proPriceID, nil, "")
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "pro-monthly", resp.json(t)["id"])

	for _, path := range []string{"/api/v1/products/nope", "/api/v1/products/price/price_nope"} {
		resp = h.do(http.MethodGet, path, nil, "")
		assert.Equal(t, fiber.StatusNotFound, resp.status)
		assert.Equal(t, "Product not found", resp.json(t)["message"])
	}
}

func TestProducts_Seed(t *testing.T) {
	h := configuredHarness(t)

	resp := h.do(http.MethodPost, "/api/v1/products/seed", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	user, _ := h.register("jane@example.com")
	resp = h.do(http.MethodPost, "/api/v1/products/seed", nil, user)
	assert.Equal(t, fiber.StatusForbidden, resp.status)
	assert.Equal(t, "Admin access required", resp.json(t)["message"])

	admin := h.admin()
	resp = h.do(http.MethodPost, "/api/v1/products/seed", nil, admin)
	require.Equal(t, fiber.StatusCreated, resp.status, string(resp.body))
	out := resp.json(t)
	assert.Equal(t, "Sample products initialized successfully", out["message"])
	seeded, err := h.repos.Products.List()
	require.NoError(t, err)
	assert.EqualValues(t, len(seeded), out["count"])

	resp = h.do(http.MethodPost, "/api/v1/products/seed", nil, admin)
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "Products already initialized", resp.json(t)["message"])
}

func TestHealthEndpoints(t *testing.T) {
	h := configuredHarness(t)

	resp := h.do(http.MethodGet, "/test", nil, "")
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, "Test endpoint working!", string(resp.body))

	resp = h.do(http.MethodGet, "/api/", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.status)
}
