package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon's value is interpreted.
type DiscountType string

const (
	DiscountFlat       DiscountType = "flat"
	DiscountPercentage DiscountType = "percentage"
)

// Coupon is a discount code. Code is stored upper-cased and matched case-insensitively.
type Coupon struct {
	ID                int                 `db:"id" json:"id"`
	Code              string              `db:"code" json:"code"`
	DiscountType      DiscountType        `db:"discount_type" json:"discountType"`
	DiscountValue     decimal.Decimal     `db:"discount_value" json:"discountValue"`
	MinOrderAmount    decimal.Decimal     `db:"min_order_amount" json:"minOrderAmount"`
	MaxDiscountAmount decimal.NullDecimal `db:"max_discount_amount" json:"maxDiscountAmount"`
	IsActive          bool                `db:"is_active" json:"isActive"`
	ExpiresAt         *time.Time          `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedAt         time.Time           `db:"created_at" json:"createdAt"`
}
