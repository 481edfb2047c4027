package billing

import (
	"errors"
	"time"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service. Lookups
// return gorm.ErrRecordNotFound when nothing matches.
type Repository interface {
	UpsertSubscription(sub *models.Subscription) error
	CreateSubscription(sub *models.Subscription) error
	FindSubscriptionByStripeID(stripeSubscriptionID string) (*models.Subscription, error)
	FindSubscriptionByCustomer(stripeCustomerID string) (*models.Subscription, error)
	FindLatestSubscriptionByUser(userID uint) (*models.Subscription, error)
	UpdateSubscription(id uint, updates map[string]interface{}) error
	CreatePaymentIfNotExists(payment *models.Payment) (bool, error)
	ListPaymentsByUser(userID uint) ([]models.Payment, error)
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// SubscriptionUpsertColumns lists the columns an upsert overwrites on an
// existing row. Identifiers and plan data are only replaced when the incoming
// record carries them; the owning user never changes.
func SubscriptionUpsertColumns(sub *models.Subscription) []string {
	cols := []string{"status", "cancel_at_period_end", "updated_at"}
	if sub.StripeCustomerID != "" {
		cols = append(cols, "stripe_customer_id")
	}
	if sub.PriceID != "" {
		cols = append(cols, "price_id")
	}
	if sub.PlanName != "" {
		cols = append(cols, "plan_name")
	}
	if sub.CurrentPeriodStart != nil {
		cols = append(cols, "current_period_start")
	}
	if sub.CurrentPeriodEnd != nil {
		cols = append(cols, "current_period_end")
	}
	return cols
}

func (r *gormRepository) UpsertSubscription(sub *models.Subscription) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns(SubscriptionUpsertColumns(sub)),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID and owner reflect the stored row after upsert.
	return r.db.Where("stripe_subscription_id = ?", sub.StripeSubscriptionID).First(sub).Error
}

func (r *gormRepository) CreateSubscription(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *gormRepository) FindSubscriptionByStripeID(stripeSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) FindSubscriptionByCustomer(stripeCustomerID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("stripe_customer_id = ? AND stripe_customer_id <> ''", stripeCustomerID).
		Order("updated_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) FindLatestSubscriptionByUser(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("id DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) UpdateSubscription(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Subscription{}).Where("id = ?", id).Updates(updates).Error
}

func (r *gormRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	var existing models.Payment
	err := r.db.Where("stripe_payment_intent_id = ?", payment.StripePaymentIntentID).First(&existing).Error
	if err == nil {
		*payment = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	tx := r.insertPayment(payment)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// insertPayment leaves an existing row for the same payment intent untouched.
// The unique index covers a concurrent delivery slipping past the lookup.
func (r *gormRepository) insertPayment(payment *models.Payment) *gorm.DB {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_payment_intent_id"}},
		DoNothing: true,
	}).Create(payment)
}

func (r *gormRepository) ListPaymentsByUser(userID uint) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&payments).Error
	return payments, err
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	if !created {
		if err := r.db.Model(&models.BillingWebhookEvent{}).
			Where("stripe_event_id = ?", event.StripeEventID).
			UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error; err != nil {
			return false, nil, err
		}
	}

	var stored models.BillingWebhookEvent
	if err := r.db.Where("stripe_event_id = ?", event.StripeEventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
