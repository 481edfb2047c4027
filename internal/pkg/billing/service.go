package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/catalog"
)

// Service reconciles Stripe state into local subscriptions and payments and
// backs the caller-facing billing operations.
type Service struct {
	repo     Repository
	provider Provider
	products *catalog.Catalog
	cfg      Config
}

// NewService creates a billing service. provider may be nil when Stripe is
// not configured; operations needing it then fail with ErrNotConfigured.
func NewService(repo Repository, provider Provider, products *catalog.Catalog, cfg Config) *Service {
	return &Service{repo: repo, provider: provider, products: products, cfg: cfg}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, provider Provider, products *catalog.Catalog, cfg Config) *Service {
	return NewService(NewRepository(db), provider, products, cfg)
}

func (s *Service) Config() Config {
	return s.cfg
}

// SyncSubscription creates or updates the local row for a Stripe
// subscription in a single upsert. Unknown statuses are rejected. When the
// event carries no owner it is taken from the existing row or from another
// subscription of the same Stripe customer.
func (s *Service) SyncSubscription(ctx context.Context, in NormalizedSubscription) (*models.Subscription, error) {
	_ = ctx
	subID := strings.TrimSpace(in.StripeSubscriptionID)
	if subID == "" {
		return nil, fmt.Errorf("%w: stripe subscription id is required", ErrInvalidInput)
	}
	status, ok := models.NormalizeSubscriptionStatus(in.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, in.Status)
	}

	userID := in.UserID
	if userID == 0 {
		var err error
		userID, err = s.resolveOwner(subID, in.StripeCustomerID)
		if err != nil {
			return nil, err
		}
	}

	priceID := strings.TrimSpace(in.PriceID)
	sub := &models.Subscription{
		UserID:               userID,
		StripeCustomerID:     strings.TrimSpace(in.StripeCustomerID),
		StripeSubscriptionID: subID,
		Status:               status,
		PriceID:              priceID,
		PlanName:             s.planName(priceID, in.PlanName),
		CurrentPeriodStart:   in.CurrentPeriodStart,
		CurrentPeriodEnd:     in.CurrentPeriodEnd,
		CancelAtPeriodEnd:    in.CancelAtPeriodEnd,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) resolveOwner(subID, customerID string) (uint, error) {
	existing, err := s.repo.FindSubscriptionByStripeID(subID)
	if err == nil {
		return existing.UserID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if customerID = strings.TrimSpace(customerID); customerID != "" {
		sibling, err := s.repo.FindSubscriptionByCustomer(customerID)
		if err == nil {
			return sibling.UserID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: subscription %s", ErrOwnerUnknown, subID)
}

// planName prefers the Stripe price nickname, then the catalog entry for the
// price. Without a price nothing is returned so the stored name is kept.
func (s *Service) planName(priceID, nickname string) string {
	if n := strings.TrimSpace(nickname); n != "" {
		return n
	}
	if priceID == "" {
		return ""
	}
	if s.products != nil {
		if name, ok := s.products.PlanName(priceID); ok {
			return name
		}
	}
	return models.UnknownPlanName
}

// GetUserSubscription returns the caller's most recent subscription, or nil.
func (s *Service) GetUserSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	_ = ctx
	if userID == 0 {
		return nil, nil
	}
	sub, err := s.repo.FindLatestSubscriptionByUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return sub, err
}

// CancelSubscription schedules cancellation at period end with Stripe and
// mirrors the flag locally. It returns the Stripe subscription id.
func (s *Service) CancelSubscription(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", ErrUnauthenticated
	}
	sub, err := s.repo.FindLatestSubscriptionByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoActiveSubscription
		}
		return "", err
	}
	if s.provider == nil {
		return "", ErrNotConfigured
	}
	if err := s.provider.CancelAtPeriodEnd(ctx, sub.StripeSubscriptionID); err != nil {
		return "", err
	}
	if err := s.repo.UpdateSubscription(sub.ID, map[string]interface{}{"cancel_at_period_end": true}); err != nil {
		return "", err
	}
	log.Infof("billing: user %d scheduled cancellation of %s", userID, sub.StripeSubscriptionID)
	return sub.StripeSubscriptionID, nil
}

// CreateSubscription stores a subscription reported by the caller. Unlike
// SyncSubscription it never overwrites an existing row.
func (s *Service) CreateSubscription(ctx context.Context, userID uint, in NormalizedSubscription) (*models.Subscription, error) {
	_ = ctx
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	subID := strings.TrimSpace(in.StripeSubscriptionID)
	if subID == "" {
		return nil, fmt.Errorf("%w: stripe subscription id is required", ErrInvalidInput)
	}
	status, ok := models.NormalizeSubscriptionStatus(in.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, in.Status)
	}

	if _, err := s.repo.FindSubscriptionByStripeID(subID); err == nil {
		return nil, ErrSubscriptionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	priceID := strings.TrimSpace(in.PriceID)
	sub := &models.Subscription{
		UserID:               userID,
		StripeCustomerID:     strings.TrimSpace(in.StripeCustomerID),
		StripeSubscriptionID: subID,
		Status:               status,
		PriceID:              priceID,
		PlanName:             s.planName(priceID, in.PlanName),
		CurrentPeriodStart:   in.CurrentPeriodStart,
		CurrentPeriodEnd:     in.CurrentPeriodEnd,
		CancelAtPeriodEnd:    in.CancelAtPeriodEnd,
	}
	if err := s.repo.CreateSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// UpdateSubscription overwrites status and periods of one of the caller's
// subscriptions, and the cancel flag when given.
func (s *Service) UpdateSubscription(ctx context.Context, userID uint, in SubscriptionUpdate) (*models.Subscription, error) {
	_ = ctx
	if userID == 0 {
		return nil, ErrUnauthenticated
	}
	status, ok := models.NormalizeSubscriptionStatus(in.Status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, in.Status)
	}
	sub, err := s.repo.FindSubscriptionByStripeID(strings.TrimSpace(in.StripeSubscriptionID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	if sub.UserID != userID {
		return nil, ErrSubscriptionNotFound
	}

	updates := map[string]interface{}{
		"status":               status,
		"current_period_start": in.CurrentPeriodStart,
		"current_period_end":   in.CurrentPeriodEnd,
	}
	sub.Status = status
	sub.CurrentPeriodStart = in.CurrentPeriodStart
	sub.CurrentPeriodEnd = in.CurrentPeriodEnd
	if in.CancelAtPeriodEnd != nil {
		updates["cancel_at_period_end"] = *in.CancelAtPeriodEnd
		sub.CancelAtPeriodEnd = *in.CancelAtPeriodEnd
	}
	if err := s.repo.UpdateSubscription(sub.ID, updates); err != nil {
		return nil, err
	}
	return sub, nil
}

// RecordPayment inserts a payment once per payment intent. The bool reports
// whether a new row was written.
func (s *Service) RecordPayment(ctx context.Context, in NormalizedPayment) (*models.Payment, bool, error) {
	_ = ctx
	intentID := strings.TrimSpace(in.StripePaymentIntentID)
	if intentID == "" {
		return nil, false, fmt.Errorf("%w: payment intent id is required", ErrInvalidInput)
	}

	userID := in.UserID
	if userID == 0 {
		customerID := strings.TrimSpace(in.StripeCustomerID)
		if customerID == "" {
			return nil, false, fmt.Errorf("%w: payment intent %s", ErrOwnerUnknown, intentID)
		}
		sub, err := s.repo.FindSubscriptionByCustomer(customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, fmt.Errorf("%w: payment intent %s", ErrOwnerUnknown, intentID)
			}
			return nil, false, err
		}
		userID = sub.UserID
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.PaymentStatusSucceeded
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = models.DefaultPaymentDescription
	}

	payment := &models.Payment{
		UserID:                userID,
		StripePaymentIntentID: intentID,
		Amount:                in.Amount,
		Currency:              strings.ToLower(strings.TrimSpace(in.Currency)),
		Status:                status,
		Type:                  models.NormalizeProductType(in.Type),
		Description:           description,
	}
	if err := payment.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	created, err := s.repo.CreatePaymentIfNotExists(payment)
	if err != nil {
		return nil, false, err
	}
	return payment, created, nil
}

// CreatePayment records a payment on behalf of the authenticated caller.
func (s *Service) CreatePayment(ctx context.Context, userID uint, in NormalizedPayment) (*models.Payment, bool, error) {
	if userID == 0 {
		return nil, false, ErrUnauthenticated
	}
	in.UserID = userID
	return s.RecordPayment(ctx, in)
}

// ListUserPayments returns the caller's payments, newest first.
func (s *Service) ListUserPayments(ctx context.Context, userID uint) ([]models.Payment, error) {
	_ = ctx
	if userID == 0 {
		return []models.Payment{}, nil
	}
	return s.repo.ListPaymentsByUser(userID)
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	eventID := strings.TrimSpace(in.StripeEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		StripeEventID:  eventID,
		EventType:      strings.TrimSpace(in.EventType),
		PayloadJSON:    in.PayloadJSON,
		SignatureValid: in.SignatureValid,
		Attempts:       1,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}
