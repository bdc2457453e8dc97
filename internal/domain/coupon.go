package domain

import "time"

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage of the subtotal, optionally
	// capped at MaxDiscountAmount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed amount, capped at the subtotal so the
	// total can never go negative.
	DiscountFixed DiscountType = "fixed"
)

// CouponRule is immutable during a single pricing computation. UsedCount
// only moves on successful order placement, never on cart-level apply.
type CouponRule struct {
	Code              string       `bson:"code" json:"code"` // normalized upper-case, unique
	DiscountType      DiscountType `bson:"discount_type" json:"discount_type"`
	DiscountValue     float64      `bson:"discount_value" json:"discount_value"`
	MinOrderAmount    float64      `bson:"min_order_amount" json:"min_order_amount"`
	MaxDiscountAmount *float64     `bson:"max_discount_amount,omitempty" json:"max_discount_amount,omitempty"`
	ValidFrom         time.Time    `bson:"valid_from" json:"valid_from"`
	ValidUntil        time.Time    `bson:"valid_until" json:"valid_until"`
	UsageLimit        *int         `bson:"usage_limit,omitempty" json:"usage_limit,omitempty"`
	UsedCount         int          `bson:"used_count" json:"used_count"`
	Active            bool         `bson:"active" json:"active"`
}

// InWindow checks the validity window.
func (r *CouponRule) InWindow(now time.Time) bool {
	return !now.Before(r.ValidFrom) && !now.After(r.ValidUntil)
}

// UsageExhausted reports whether the usage limit has been reached.
// A nil limit means unlimited.
func (r *CouponRule) UsageExhausted() bool {
	return r.UsageLimit != nil && r.UsedCount >= *r.UsageLimit
}

// Redeemable reports whether the coupon can currently be applied at all.
// The minimum-order check is separate because it needs the subtotal.
func (r *CouponRule) Redeemable(now time.Time) bool {
	return r.Active && r.InWindow(now) && !r.UsageExhausted()
}
