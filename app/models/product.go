package models

import "time"

// Product is the persisted copy of a catalog entry.
type Product struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	Slug            string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"id"`
	Name            string    `gorm:"type:varchar(150);not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	StripePriceID   string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"stripe_price_id"`
	StripeProductID string    `gorm:"type:varchar(191);not null" json:"stripe_product_id"`
	Price           int64     `gorm:"not null" json:"price"`
	Currency        string    `gorm:"type:varchar(10);not null" json:"currency"`
	Type            string    `gorm:"type:varchar(20);not null;index" json:"type"`
	Interval        string    `gorm:"type:varchar(10);default:''" json:"interval,omitempty"`
	Features        []string  `gorm:"type:text;serializer:json" json:"features"`
	Popular         bool      `gorm:"default:false" json:"popular"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
