package billingtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
)

// FakeProvider is a scriptable billing.Provider. Signature checks use the
// real Stripe verification so signed test payloads behave as in production.
type FakeProvider struct {
	mu sync.Mutex

	Subscriptions map[string]*billing.ProviderSubscription
	Customers     map[string]*billing.ProviderCustomer

	// Err, when set, is returned by every API call.
	Err error

	Canceled         []string
	CheckoutRequests []billing.CheckoutSessionInput
	PortalCustomers  []string
}

var _ billing.Provider = (*FakeProvider)(nil)

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		Subscriptions: map[string]*billing.ProviderSubscription{},
		Customers:     map[string]*billing.ProviderCustomer{},
	}
}

func (f *FakeProvider) ConstructEvent(payload []byte, signatureHeader, secret string) (billing.Event, error) {
	return billing.ConstructEvent(payload, signatureHeader, secret)
}

func (f *FakeProvider) GetSubscription(ctx context.Context, id string) (*billing.ProviderSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	sub, ok := f.Subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("%w: no such subscription: %s", billing.ErrProviderCall, id)
	}
	out := *sub
	return &out, nil
}

func (f *FakeProvider) GetCustomer(ctx context.Context, id string) (*billing.ProviderCustomer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	c, ok := f.Customers[id]
	if !ok {
		return nil, fmt.Errorf("%w: no such customer: %s", billing.ErrProviderCall, id)
	}
	out := *c
	return &out, nil
}

func (f *FakeProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Canceled = append(f.Canceled, subscriptionID)
	if sub, ok := f.Subscriptions[subscriptionID]; ok {
		sub.CancelAtPeriodEnd = true
	}
	return nil
}

func (f *FakeProvider) CreateCheckoutSession(ctx context.Context, in billing.CheckoutSessionInput) (*billing.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.CheckoutRequests = append(f.CheckoutRequests, in)
	id := fmt.Sprintf("cs_test_%d", len(f.CheckoutRequests))
	return &billing.CheckoutSession{ID: id, URL: "https://checkout.stripe.com/c/pay/" + id}, nil
}

func (f *FakeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.PortalCustomers = append(f.PortalCustomers, customerID)
	return "https://billing.stripe.com/p/session/" + customerID, nil
}

// SignPayload returns a Stripe-Signature header for payload.
func SignPayload(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

// EventPayload renders a Stripe event envelope around object.
func EventPayload(id, eventType string, object interface{}) []byte {
	body, err := json.Marshal(map[string]interface{}{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": stripe.APIVersion,
		"created":     time.Now().Unix(),
		"data":        map[string]interface{}{"object": object},
	})
	if err != nil {
		panic(err)
	}
	return body
}
