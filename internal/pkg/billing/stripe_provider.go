package billing

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider on top of stripe-go.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider creates a Stripe API client for secretKey.
func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) ConstructEvent(payload []byte, signatureHeader, secret string) (Event, error) {
	return ConstructEvent(payload, signatureHeader, secret)
}

// ConstructEvent verifies the Stripe-Signature header and decodes the envelope.
// Events rendered with another API version are accepted; objects are decoded
// field by field.
func ConstructEvent(payload []byte, signatureHeader, secret string) (Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return Event{}, err
	}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return Event{}, errors.New("event has no data object")
	}
	return Event{ID: ev.ID, Type: string(ev.Type), Object: ev.Data.Raw}, nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (*ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := p.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve subscription %s: %v", ErrProviderCall, id, err)
	}
	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) GetCustomer(ctx context.Context, id string) (*ProviderCustomer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	c, err := p.api.Customers.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve customer %s: %v", ErrProviderCall, id, err)
	}
	return &ProviderCustomer{ID: c.ID, Email: c.Email, Deleted: c.Deleted}, nil
}

func (p *StripeProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx
	if _, err := p.api.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("%w: cancel subscription %s: %v", ErrProviderCall, subscriptionID, err)
	}
	return nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(in.PriceID), Quantity: stripe.Int64(1)},
		},
		Mode:       stripe.String(in.Mode),
		SuccessURL: stripe.String(in.SuccessURL),
		CancelURL:  stripe.String(in.CancelURL),
	}
	params.Context = ctx
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	switch in.Mode {
	case CheckoutModeSubscription:
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"userId": in.Metadata["userId"]},
		}
	case CheckoutModePayment:
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: in.Metadata,
		}
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", ErrProviderCall, err)
	}
	if s.URL == "" {
		return nil, fmt.Errorf("%w: checkout session %s has no url", ErrProviderCall, s.ID)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	s, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create portal session: %v", ErrProviderCall, err)
	}
	return s.URL, nil
}

func fromStripeSubscription(sub *stripe.Subscription) *ProviderSubscription {
	out := &ProviderSubscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		Metadata:          sub.Metadata,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			out.PriceID = item.Price.ID
			out.PriceNickname = item.Price.Nickname
		}
		out.CurrentPeriodStart = UnixTime(item.CurrentPeriodStart)
		out.CurrentPeriodEnd = UnixTime(item.CurrentPeriodEnd)
	}
	return out
}
