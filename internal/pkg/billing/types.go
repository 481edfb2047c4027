package billing

import (
	"encoding/json"
	"time"
)

// NormalizedSubscription is the provider-agnostic shape used when syncing
// Stripe subscription state into the local table. Zero values mean "not
// present in the event" and leave the stored column untouched on update.
type NormalizedSubscription struct {
	UserID               uint
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               string
	PriceID              string
	PlanName             string
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool
}

// SubscriptionUpdate is a caller-issued change to an existing subscription.
type SubscriptionUpdate struct {
	StripeSubscriptionID string
	Status               string
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    *bool
}

// NormalizedPayment is a succeeded charge keyed by its payment intent.
type NormalizedPayment struct {
	UserID                uint
	StripeCustomerID      string
	StripePaymentIntentID string
	Amount                int64
	Currency              string
	Status                string
	Type                  string
	Description           string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	StripeEventID  string
	EventType      string
	PayloadJSON    string
	SignatureValid bool
}

// Event is a verified Stripe event envelope. Object holds data.object.
type Event struct {
	ID     string
	Type   string
	Object json.RawMessage
}

// CheckoutUser identifies who starts a checkout.
type CheckoutUser struct {
	ID    uint
	Email string
}

// CheckoutSession is what the caller needs to redirect to Stripe.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}
