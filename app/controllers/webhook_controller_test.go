package controllers_test

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing/billingtest"
)

func deletedEvent(id string) []byte {
	return billingtest.EventPayload(id, billing.EventSubscriptionDeleted, map[string]interface{}{
		"id":                   "sub_1",
		"object":               "subscription",
		"customer":             "cus_1",
		"status":               "canceled",
		"cancel_at_period_end": false,
	})
}

func TestStripeWebhook_MissingSignature(t *testing.T) {
	h := configuredHarness(t)
	h.seedSubscription(1)

	resp := h.webhook(deletedEvent("evt_1"), "")
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.Equal(t, "Missing stripe signature", resp.json(t)["error"])

	subs := h.repos.Billing.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriptionStatusActive, subs[0].Status)
	assert.Empty(t, h.repos.Billing.WebhookEvents())
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	h := configuredHarness(t)
	h.seedSubscription(1)
	payload := deletedEvent("evt_1")

	resp := h.webhook(payload, billingtest.SignPayload(payload, "whsec_wrong"))
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.Equal(t, models.SubscriptionStatusActive, h.repos.Billing.Subscriptions()[0].Status)
	assert.Empty(t, h.repos.Billing.WebhookEvents())
}

func TestStripeWebhook_NotConfigured(t *testing.T) {
	h := newHarness(t, billing.Config{WebhookSecret: webhookSecret})
	payload := deletedEvent("evt_1")

	resp := h.webhook(payload, billingtest.SignPayload(payload, webhookSecret))
	assert.Equal(t, fiber.StatusInternalServerError, resp.status)
}

func TestStripeWebhook_SubscriptionDeleted(t *testing.T) {
	h := configuredHarness(t)
	h.seedSubscription(1)
	payload := deletedEvent("evt_1")

	resp := h.webhook(payload, billingtest.SignPayload(payload, webhookSecret))
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, true, resp.json(t)["received"])

	subs := h.repos.Billing.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, models.SubscriptionStatusCanceled, subs[0].Status)
	assert.True(t, subs[0].CancelAtPeriodEnd)

	events := h.repos.Billing.WebhookEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "evt_1", events[0].StripeEventID)
	assert.True(t, events[0].AlreadyHandled())

	// Same event id again is acknowledged without reprocessing.
	resp = h.webhook(payload, billingtest.SignPayload(payload, webhookSecret))
	require.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, true, resp.json(t)["duplicate"])
	assert.Equal(t, 2, h.repos.Billing.WebhookEvents()[0].Attempts)
}

func TestStripeWebhook_RetryableFailureIsReprocessed(t *testing.T) {
	h := configuredHarness(t)
	now := time.Now().UTC()
	h.provider.Subscriptions["sub_1"] = &billing.ProviderSubscription{
		ID: "sub_1", CustomerID: "cus_1", Status: "active", PriceID: proPriceID,
		CurrentPeriodStart: &now, CurrentPeriodEnd: &now,
	}
	h.provider.Customers["cus_1"] = &billing.ProviderCustomer{ID: "cus_1", Deleted: true}

	payload := billingtest.EventPayload("evt_9", billing.EventCheckoutSessionCompleted, map[string]interface{}{
		"id":           "cs_1",
		"object":       "checkout.session",
		"mode":         "subscription",
		"subscription": "sub_1",
		"customer":     "cus_1",
		"metadata":     map[string]string{"userId": "3", "type": "subscription"},
	})

	resp := h.webhook(payload, billingtest.SignPayload(payload, webhookSecret))
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.Empty(t, h.repos.Billing.Subscriptions())
	events := h.repos.Billing.WebhookEvents()
	require.Len(t, events, 1)
	assert.Contains(t, events[0].ProcessingError, "deleted")

	// Stripe retries after the customer is restored.
	h.provider.Customers["cus_1"].Deleted = false
	resp = h.webhook(payload, billingtest.SignPayload(payload, webhookSecret))
	require.Equal(t, fiber.StatusOK, resp.status, string(resp.body))
	subs := h.repos.Billing.Subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, uint(3), subs[0].UserID)
	assert.Equal(t, "Pro Plan", subs[0].PlanName)
}

func TestStripeWebhook_UnknownStatusAcknowledged(t *testing.T) {
	h := configuredHarness(t)
	h.seedSubscription(1)
	payload := billingtest.EventPayload("evt_2", billing.EventSubscriptionUpdated, map[string]interface{}{
		"id":       "sub_1",
		"customer": "cus_1",
		"status":   "paused",
	})

	resp := h.webhook(payload, billingtest.SignPayload(payload, webhookSecret))
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.Equal(t, models.SubscriptionStatusActive, h.repos.Billing.Subscriptions()[0].Status)
	assert.Contains(t, h.repos.Billing.WebhookEvents()[0].ProcessingError, "unknown subscription status")
}

func TestStripeWebhook_PaymentRedelivery(t *testing.T) {
	h := configuredHarness(t)
	pi := map[string]interface{}{
		"id":       "pi_1",
		"object":   "payment_intent",
		"amount":   2999,
		"currency": "usd",
		"metadata": map[string]string{"userId": "4", "type": "subscription"},
	}
	// Distinct event ids for the same payment intent.
	for _, id := range []string{"evt_a", "evt_b"} {
		payload := billingtest.EventPayload(id, billing.EventPaymentIntentSucceeded, pi)
		resp := h.webhook(payload, billingtest.SignPayload(payload, webhookSecret))
		require.Equal(t, fiber.StatusOK, resp.status)
	}
	payments := h.repos.Billing.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, models.ProductTypeSubscription, payments[0].Type)
}
