package models

import (
	"strings"
	"time"
)

const (
	SubscriptionStatusActive            = "active"
	SubscriptionStatusCanceled          = "canceled"
	SubscriptionStatusIncomplete        = "incomplete"
	SubscriptionStatusIncompleteExpired = "incomplete_expired"
	SubscriptionStatusPastDue           = "past_due"
	SubscriptionStatusTrialing          = "trialing"
	SubscriptionStatusUnpaid            = "unpaid"
)

// UnknownPlanName is stored when neither the price nor the catalog names the plan.
const UnknownPlanName = "Unknown Plan"

var subscriptionStatuses = map[string]struct{}{
	SubscriptionStatusActive:            {},
	SubscriptionStatusCanceled:          {},
	SubscriptionStatusIncomplete:        {},
	SubscriptionStatusIncompleteExpired: {},
	SubscriptionStatusPastDue:           {},
	SubscriptionStatusTrialing:          {},
	SubscriptionStatusUnpaid:            {},
}

// Subscription mirrors a Stripe subscription for one user.
type Subscription struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"not null;index:idx_subscriptions_user" json:"user_id"`
	StripeCustomerID     string     `gorm:"type:varchar(191);not null;index" json:"stripe_customer_id"`
	StripeSubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex:ux_subscriptions_stripe_subscription" json:"stripe_subscription_id"`
	Status               string     `gorm:"type:varchar(32);not null" json:"status"`
	PriceID              string     `gorm:"type:varchar(191);not null;default:''" json:"price_id"`
	PlanName             string     `gorm:"type:varchar(191);not null;default:''" json:"plan_name"`
	CurrentPeriodStart   *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start"`
	CurrentPeriodEnd     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end"`
	CancelAtPeriodEnd    bool       `gorm:"not null" json:"cancel_at_period_end"`
	CreatedAt            time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NormalizeSubscriptionStatus lowercases a provider status and reports
// whether it belongs to the local enum.
func NormalizeSubscriptionStatus(status string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(status))
	_, ok := subscriptionStatuses[s]
	return s, ok
}
