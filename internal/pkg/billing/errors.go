package billing

import "errors"

// Caller-facing errors carry the message shown to the user.
var (
	ErrUnauthenticated      = errors.New("User not authenticated")
	ErrSubscriptionNotFound = errors.New("Subscription not found")
	ErrNoActiveSubscription = errors.New("No active subscription found")
	ErrNoSubscription       = errors.New("No subscription found")
	ErrSubscriptionExists   = errors.New("Subscription already exists")
	ErrInvalidInput         = errors.New("invalid input")
)

// Reconciliation errors.
var (
	ErrUnknownStatus   = errors.New("unknown subscription status")
	ErrOwnerUnknown    = errors.New("cannot resolve owning user")
	ErrCustomerDeleted = errors.New("stripe customer has been deleted")
	ErrProviderCall    = errors.New("stripe request failed")
	ErrInvalidPayload  = errors.New("invalid event payload")
	ErrNotConfigured   = errors.New("stripe is not configured")
)

// IsRetryable reports whether a webhook failure should be surfaced to Stripe
// so that the delivery is retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProviderCall) ||
		errors.Is(err, ErrCustomerDeleted) ||
		errors.Is(err, ErrInvalidPayload)
}
