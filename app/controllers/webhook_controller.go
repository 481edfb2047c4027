package controllers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
)

const stripeSignatureHeader = "Stripe-Signature"

type WebhookController struct {
	billing *billing.Service
}

func NewWebhookController(svc *billing.Service) *WebhookController {
	return &WebhookController{billing: svc}
}

// HandleStripeWebhook verifies, records and applies one Stripe delivery.
// Only failures worth a retry are reported back with a non-2xx status.
func (wc *WebhookController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get(stripeSignatureHeader))
	if signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing stripe signature"})
	}
	if !wc.billing.Config().WebhookConfigured() {
		log.Error("stripe webhook: STRIPE_SECRET_KEY or STRIPE_WEBHOOK_SECRET is not set")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Webhook not configured"})
	}

	event, err := wc.billing.VerifyEvent(rawBody, signature)
	if err != nil {
		log.Warnf("stripe webhook: signature verification failed: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	created, stored, err := wc.billing.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		StripeEventID:  event.ID,
		EventType:      event.Type,
		PayloadJSON:    string(rawBody),
		SignatureValid: true,
	})
	if err != nil {
		log.Errorf("stripe webhook: failed to persist event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}
	if !created && stored.AlreadyHandled() {
		log.Infof("stripe webhook: event %s already handled (attempt %d)", event.ID, stored.Attempts)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	handleErr := wc.billing.HandleEvent(ctx, event)
	if err := wc.billing.MarkWebhookProcessed(ctx, stored.ID, handleErr); err != nil {
		log.Errorf("stripe webhook: failed to mark event %s processed: %v", event.ID, err)
	}
	if handleErr != nil {
		if billing.IsRetryable(handleErr) {
			log.Errorf("stripe webhook: %s (%s) failed, asking Stripe to retry: %v", event.Type, event.ID, handleErr)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": handleErr.Error()})
		}
		log.Errorf("stripe webhook: %s (%s) not applied: %v", event.Type, event.ID, handleErr)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
