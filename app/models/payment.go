package models

import (
	"strings"
	"time"
)

const (
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusPending   = "pending"
	PaymentStatusFailed    = "failed"
	PaymentStatusCanceled  = "canceled"
)

const (
	ProductTypeSubscription = "subscription"
	ProductTypeOneTime      = "one_time"
)

// DefaultPaymentDescription is used when Stripe sends no description.
const DefaultPaymentDescription = "Payment"

type Payment struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	UserID                uint      `gorm:"not null;index:idx_payments_user" json:"user_id"`
	StripePaymentIntentID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_payments_payment_intent" json:"stripe_payment_intent_id"`
	Amount                int64     `gorm:"not null" json:"amount"`
	Currency              string    `gorm:"type:varchar(10);not null" json:"currency"`
	Status                string    `gorm:"type:varchar(20);not null" json:"status" validate:"oneof=succeeded pending failed canceled"`
	Type                  string    `gorm:"type:varchar(20);not null" json:"type" validate:"oneof=subscription one_time"`
	Description           string    `gorm:"type:varchar(500);not null;default:''" json:"description"`
	CreatedAt             time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Payment) Validate() error {
	return validate.Struct(p)
}

// NormalizeProductType maps empty or unknown values to one_time.
func NormalizeProductType(t string) string {
	if strings.ToLower(strings.TrimSpace(t)) == ProductTypeSubscription {
		return ProductTypeSubscription
	}
	return ProductTypeOneTime
}

// IsValidProductType reports whether t names a known product type.
func IsValidProductType(t string) bool {
	return t == ProductTypeSubscription || t == ProductTypeOneTime
}
