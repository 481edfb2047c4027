package billing

import (
	"context"
	"time"
)

// Provider is the subset of the Stripe API the billing service relies on.
type Provider interface {
	ConstructEvent(payload []byte, signatureHeader, secret string) (Event, error)
	GetSubscription(ctx context.Context, id string) (*ProviderSubscription, error)
	GetCustomer(ctx context.Context, id string) (*ProviderCustomer, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// ProviderSubscription is a Stripe subscription reduced to the fields we store.
type ProviderSubscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	PriceNickname      string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
	Metadata           map[string]string
}

type ProviderCustomer struct {
	ID      string
	Email   string
	Deleted bool
}

// CheckoutSessionInput describes a hosted checkout for one price.
type CheckoutSessionInput struct {
	PriceID       string
	Mode          string
	SuccessURL    string
	CancelURL     string
	CustomerEmail string
	// Metadata is attached to the session, and to the subscription or
	// payment intent created by it.
	Metadata map[string]string
}

const (
	CheckoutModeSubscription = "subscription"
	CheckoutModePayment      = "payment"
)

// UnixTime converts unix seconds to a UTC time; zero or negative means unset.
func UnixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
