package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SaaSKit/app/models"
)

const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionCreated      = "customer.subscription.created"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
	EventInvoiceCreated           = "invoice.created"
	EventInvoiceFinalized         = "invoice.finalized"
	EventInvoicePaid              = "invoice.paid"
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
)

const (
	metadataUserID = "userId"
	metadataType   = "type"
)

// stripeRef decodes a Stripe reference that is either an id string or an
// expanded object.
type stripeRef string

func (r *stripeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = stripeRef(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*r = stripeRef(obj.ID)
	return nil
}

type checkoutSessionObject struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Subscription stripeRef         `json:"subscription"`
	Customer     stripeRef         `json:"customer"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionItemObject struct {
	Price struct {
		ID       string `json:"id"`
		Nickname string `json:"nickname"`
	} `json:"price"`
	CurrentPeriodStart int64 `json:"current_period_start"`
	CurrentPeriodEnd   int64 `json:"current_period_end"`
}

type subscriptionObject struct {
	ID                string            `json:"id"`
	Customer          stripeRef         `json:"customer"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	Metadata          map[string]string `json:"metadata"`
	Items             struct {
		Data []subscriptionItemObject `json:"data"`
	} `json:"items"`
	// Set by API versions before periods moved onto items.
	CurrentPeriodStart int64 `json:"current_period_start"`
	CurrentPeriodEnd   int64 `json:"current_period_end"`
}

type paymentIntentObject struct {
	ID          string            `json:"id"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Customer    stripeRef         `json:"customer"`
	Metadata    map[string]string `json:"metadata"`
}

type invoiceObject struct {
	ID string `json:"id"`
}

// VerifyEvent checks the Stripe-Signature header against the configured
// webhook secret and decodes the event.
func (s *Service) VerifyEvent(payload []byte, signatureHeader string) (Event, error) {
	if s.provider != nil {
		return s.provider.ConstructEvent(payload, signatureHeader, s.cfg.WebhookSecret)
	}
	return ConstructEvent(payload, signatureHeader, s.cfg.WebhookSecret)
}

// HandleEvent applies a verified Stripe event to local state. Errors for
// which IsRetryable is true should be reported back to Stripe.
func (s *Service) HandleEvent(ctx context.Context, ev Event) error {
	log.Infof("stripe webhook: processing %s (%s)", ev.Type, ev.ID)

	switch ev.Type {
	case EventCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, ev)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return s.handleSubscriptionChanged(ctx, ev, false)
	case EventSubscriptionDeleted:
		return s.handleSubscriptionChanged(ctx, ev, true)
	case EventPaymentIntentSucceeded:
		return s.handlePaymentSucceeded(ctx, ev)
	case EventInvoiceCreated, EventInvoiceFinalized, EventInvoicePaid, EventInvoicePaymentSucceeded:
		var inv invoiceObject
		if err := decodeObject(ev, &inv); err != nil {
			return err
		}
		log.Infof("stripe webhook: invoice %s %s", inv.ID, ev.Type)
		return nil
	default:
		log.Infof("stripe webhook: unhandled event type %s", ev.Type)
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, ev Event) error {
	var session checkoutSessionObject
	if err := decodeObject(ev, &session); err != nil {
		return err
	}
	if session.Mode != CheckoutModeSubscription || session.Subscription == "" {
		log.Infof("stripe webhook: checkout session %s (mode %s) has no subscription to sync", session.ID, session.Mode)
		return nil
	}
	if s.provider == nil {
		return ErrNotConfigured
	}

	sub, err := s.provider.GetSubscription(ctx, string(session.Subscription))
	if err != nil {
		return err
	}
	customer, err := s.provider.GetCustomer(ctx, sub.CustomerID)
	if err != nil {
		return err
	}
	if customer.Deleted {
		return fmt.Errorf("%w: %s", ErrCustomerDeleted, customer.ID)
	}

	userID := parseUserID(session.Metadata[metadataUserID])
	if userID == 0 {
		userID = parseUserID(sub.Metadata[metadataUserID])
	}
	if userID == 0 || sub.PriceID == "" {
		log.Warnf("stripe webhook: checkout session %s is missing user id or price id", session.ID)
		return nil
	}

	stored, err := s.SyncSubscription(ctx, NormalizedSubscription{
		UserID:               userID,
		StripeCustomerID:     customer.ID,
		StripeSubscriptionID: sub.ID,
		Status:               sub.Status,
		PriceID:              sub.PriceID,
		PlanName:             sub.PriceNickname,
		CurrentPeriodStart:   sub.CurrentPeriodStart,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	})
	if err != nil {
		return err
	}
	log.Infof("stripe webhook: subscription %s synced for user %d (%s)", stored.StripeSubscriptionID, stored.UserID, stored.Status)
	return nil
}

func (s *Service) handleSubscriptionChanged(ctx context.Context, ev Event, deleted bool) error {
	var obj subscriptionObject
	if err := decodeObject(ev, &obj); err != nil {
		return err
	}
	in := obj.normalize()
	if deleted {
		in.Status = models.SubscriptionStatusCanceled
		in.CancelAtPeriodEnd = true
	}

	stored, err := s.SyncSubscription(ctx, in)
	if err != nil {
		return err
	}
	log.Infof("stripe webhook: subscription %s is %s (cancel at period end: %t)", stored.StripeSubscriptionID, stored.Status, stored.CancelAtPeriodEnd)
	return nil
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, ev Event) error {
	var pi paymentIntentObject
	if err := decodeObject(ev, &pi); err != nil {
		return err
	}

	payment, created, err := s.RecordPayment(ctx, NormalizedPayment{
		UserID:                parseUserID(pi.Metadata[metadataUserID]),
		StripeCustomerID:      string(pi.Customer),
		StripePaymentIntentID: pi.ID,
		Amount:                pi.Amount,
		Currency:              pi.Currency,
		Status:                models.PaymentStatusSucceeded,
		Type:                  pi.Metadata[metadataType],
		Description:           pi.Description,
	})
	if err != nil {
		return err
	}
	if !created {
		log.Infof("stripe webhook: payment %s already recorded", payment.StripePaymentIntentID)
		return nil
	}
	log.Infof("stripe webhook: payment %s recorded for user %d", payment.StripePaymentIntentID, payment.UserID)
	return nil
}

func (o subscriptionObject) normalize() NormalizedSubscription {
	in := NormalizedSubscription{
		UserID:               parseUserID(o.Metadata[metadataUserID]),
		StripeCustomerID:     string(o.Customer),
		StripeSubscriptionID: o.ID,
		Status:               o.Status,
		CancelAtPeriodEnd:    o.CancelAtPeriodEnd,
		CurrentPeriodStart:   UnixTime(o.CurrentPeriodStart),
		CurrentPeriodEnd:     UnixTime(o.CurrentPeriodEnd),
	}
	if len(o.Items.Data) > 0 {
		item := o.Items.Data[0]
		in.PriceID = item.Price.ID
		in.PlanName = item.Price.Nickname
		if t := UnixTime(item.CurrentPeriodStart); t != nil {
			in.CurrentPeriodStart = t
		}
		if t := UnixTime(item.CurrentPeriodEnd); t != nil {
			in.CurrentPeriodEnd = t
		}
	}
	return in
}

func decodeObject(ev Event, dst interface{}) error {
	if err := json.Unmarshal(ev.Object, dst); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidPayload, ev.Type, ev.ID, err)
	}
	return nil
}

func parseUserID(raw string) uint {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}
