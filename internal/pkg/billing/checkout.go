package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/SaaSKit/app/models"
)

// CreateCheckoutSession starts a Stripe-hosted checkout for one catalog
// price. productType selects subscription or one-time payment mode.
func (s *Service) CreateCheckoutSession(ctx context.Context, user CheckoutUser, priceID, productType string) (*CheckoutSession, error) {
	if user.ID == 0 {
		return nil, ErrUnauthenticated
	}
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return nil, fmt.Errorf("%w: priceId is required", ErrInvalidInput)
	}
	if !models.IsValidProductType(productType) {
		return nil, fmt.Errorf("%w: type must be subscription or one_time", ErrInvalidInput)
	}
	if s.products != nil {
		if p, ok := s.products.ByPriceID(priceID); ok && p.Type != productType {
			return nil, fmt.Errorf("%w: price %s is a %s product", ErrInvalidInput, priceID, p.Type)
		}
	}
	if s.provider == nil {
		return nil, ErrNotConfigured
	}

	mode := CheckoutModePayment
	if productType == models.ProductTypeSubscription {
		mode = CheckoutModeSubscription
	}
	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutSessionInput{
		PriceID:       priceID,
		Mode:          mode,
		SuccessURL:    s.cfg.CheckoutSuccessURL(),
		CancelURL:     s.cfg.CheckoutCancelURL(),
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			metadataUserID: strconv.FormatUint(uint64(user.ID), 10),
			metadataType:   productType,
		},
	})
	if err != nil {
		log.Errorf("billing: checkout session for user %d failed: %v", user.ID, err)
		return nil, err
	}
	return session, nil
}

// CreatePortalSession opens the Stripe billing portal for the customer of
// the caller's subscription.
func (s *Service) CreatePortalSession(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", ErrUnauthenticated
	}
	sub, err := s.repo.FindLatestSubscriptionByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoSubscription
		}
		return "", err
	}
	if s.provider == nil {
		return "", ErrNotConfigured
	}
	url, err := s.provider.CreatePortalSession(ctx, sub.StripeCustomerID, s.cfg.PortalURL())
	if err != nil {
		log.Errorf("billing: portal session for user %d failed: %v", userID, err)
		return "", err
	}
	return url, nil
}
