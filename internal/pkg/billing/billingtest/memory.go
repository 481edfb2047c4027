// Package billingtest provides in-memory stand-ins for the billing
// repository and the Stripe provider.
package billingtest

import (
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
)

// MemoryRepository implements billing.Repository with the same upsert and
// idempotency rules as the GORM repository.
type MemoryRepository struct {
	mu            sync.Mutex
	nextID        uint
	subscriptions []models.Subscription
	payments      []models.Payment
	events        []models.BillingWebhookEvent
	now           func() time.Time
}

var _ billing.Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	return &MemoryRepository{
		// Strictly increasing clock so "latest" ordering is deterministic.
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		},
	}
}

func (r *MemoryRepository) id() uint {
	r.nextID++
	return r.nextID
}

func (r *MemoryRepository) UpsertSubscription(sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for i := range r.subscriptions {
		row := &r.subscriptions[i]
		if row.StripeSubscriptionID != sub.StripeSubscriptionID {
			continue
		}
		for _, col := range billing.SubscriptionUpsertColumns(sub) {
			switch col {
			case "status":
				row.Status = sub.Status
			case "cancel_at_period_end":
				row.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
			case "stripe_customer_id":
				row.StripeCustomerID = sub.StripeCustomerID
			case "price_id":
				row.PriceID = sub.PriceID
			case "plan_name":
				row.PlanName = sub.PlanName
			case "current_period_start":
				row.CurrentPeriodStart = sub.CurrentPeriodStart
			case "current_period_end":
				row.CurrentPeriodEnd = sub.CurrentPeriodEnd
			}
		}
		row.UpdatedAt = now
		*sub = *row
		return nil
	}

	sub.ID = r.id()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	r.subscriptions = append(r.subscriptions, *sub)
	return nil
}

func (r *MemoryRepository) CreateSubscription(sub *models.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.subscriptions {
		if row.StripeSubscriptionID == sub.StripeSubscriptionID {
			return gorm.ErrDuplicatedKey
		}
	}
	now := r.now()
	sub.ID = r.id()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	r.subscriptions = append(r.subscriptions, *sub)
	return nil
}

func (r *MemoryRepository) FindSubscriptionByStripeID(stripeSubscriptionID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.subscriptions {
		if row.StripeSubscriptionID == stripeSubscriptionID {
			found := row
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryRepository) FindSubscriptionByCustomer(stripeCustomerID string) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stripeCustomerID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return r.latest(func(s models.Subscription) bool { return s.StripeCustomerID == stripeCustomerID })
}

func (r *MemoryRepository) FindLatestSubscriptionByUser(userID uint) (*models.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest(func(s models.Subscription) bool { return s.UserID == userID })
}

func (r *MemoryRepository) latest(match func(models.Subscription) bool) (*models.Subscription, error) {
	var best *models.Subscription
	for i := range r.subscriptions {
		row := r.subscriptions[i]
		if !match(row) {
			continue
		}
		if best == nil || row.UpdatedAt.After(best.UpdatedAt) ||
			(row.UpdatedAt.Equal(best.UpdatedAt) && row.ID > best.ID) {
			found := row
			best = &found
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (r *MemoryRepository) UpdateSubscription(id uint, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.subscriptions {
		row := &r.subscriptions[i]
		if row.ID != id {
			continue
		}
		for col, v := range updates {
			switch col {
			case "status":
				row.Status = v.(string)
			case "cancel_at_period_end":
				row.CancelAtPeriodEnd = v.(bool)
			case "current_period_start":
				row.CurrentPeriodStart = v.(*time.Time)
			case "current_period_end":
				row.CurrentPeriodEnd = v.(*time.Time)
			}
		}
		row.UpdatedAt = r.now()
		return nil
	}
	return nil
}

func (r *MemoryRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.payments {
		if row.StripePaymentIntentID == payment.StripePaymentIntentID {
			*payment = row
			return false, nil
		}
	}
	payment.ID = r.id()
	payment.CreatedAt = r.now()
	r.payments = append(r.payments, *payment)
	return true, nil
}

func (r *MemoryRepository) ListPaymentsByUser(userID uint) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Payment{}
	for _, row := range r.payments {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *MemoryRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		row := &r.events[i]
		if row.StripeEventID == event.StripeEventID {
			row.Attempts++
			stored := *row
			return false, &stored, nil
		}
	}
	now := r.now()
	event.ID = r.id()
	event.CreatedAt = now
	event.UpdatedAt = now
	r.events = append(r.events, *event)
	stored := *event
	return true, &stored, nil
}

func (r *MemoryRepository) MarkWebhookProcessed(id uint, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == id {
			now := r.now()
			r.events[i].ProcessedAt = &now
			r.events[i].ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// Subscriptions returns a copy of all stored subscriptions.
func (r *MemoryRepository) Subscriptions() []models.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Subscription(nil), r.subscriptions...)
}

func (r *MemoryRepository) Payments() []models.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Payment(nil), r.payments...)
}

func (r *MemoryRepository) WebhookEvents() []models.BillingWebhookEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.BillingWebhookEvent(nil), r.events...)
}
