package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goshop/storefront/internal/domain"
)

// Config carries the storefront pricing policy. The values come from the
// environment, not from constants buried in the computation.
type Config struct {
	// FreeShippingThreshold: shipping is waived when the subtotal is
	// strictly above this value.
	FreeShippingThreshold float64
	// ShippingFee is the flat charge below the threshold.
	ShippingFee float64
	// TaxRate is a flat fraction (e.g. 0.18) applied to the subtotal.
	// Tax is computed pre-discount; this ordering is storefront policy.
	TaxRate float64
}

type Engine struct {
	threshold decimal.Decimal
	shipping  decimal.Decimal
	taxRate   decimal.Decimal
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		threshold: decimal.NewFromFloat(cfg.FreeShippingThreshold),
		shipping:  decimal.NewFromFloat(cfg.ShippingFee),
		taxRate:   decimal.NewFromFloat(cfg.TaxRate),
	}
}

// Line pairs a cart quantity with the current catalog unit price.
type Line struct {
	Quantity  int
	UnitPrice float64
}

// Subtotal sums quantity times current unit price over all lines.
func Subtotal(lines []Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		price := decimal.NewFromFloat(l.UnitPrice)
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return subtotal
}

// Discount computes the discount a coupon yields against the given subtotal.
// It does not check the validity window or usage limit; callers validate the
// rule with CouponRule.Redeemable first.
//
// Results are rounded to 2 decimal places, half away from zero.
func Discount(rule *domain.CouponRule, subtotal decimal.Decimal) (decimal.Decimal, error) {
	minOrder := decimal.NewFromFloat(rule.MinOrderAmount)
	if subtotal.LessThan(minOrder) {
		return decimal.Zero, fmt.Errorf("%w: subtotal %s below minimum %s",
			domain.ErrMinOrderNotMet, subtotal.StringFixed(2), minOrder.StringFixed(2))
	}

	value := decimal.NewFromFloat(rule.DiscountValue)
	var discount decimal.Decimal

	switch rule.DiscountType {
	case domain.DiscountPercentage:
		discount = subtotal.Mul(value).Div(decimal.NewFromInt(100))
		if rule.MaxDiscountAmount != nil {
			maxDiscount := decimal.NewFromFloat(*rule.MaxDiscountAmount)
			if discount.GreaterThan(maxDiscount) {
				discount = maxDiscount
			}
		}
	case domain.DiscountFixed:
		discount = value
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown discount type %q",
			domain.ErrInvalidCoupon, rule.DiscountType)
	}

	// A discount can never exceed the order value.
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	return discount.Round(2), nil
}

// Breakdown assembles the full price breakdown from a subtotal and an
// already-computed discount.
func (e *Engine) Breakdown(subtotal, discount decimal.Decimal) domain.PriceBreakdown {
	shipping := e.shipping
	if subtotal.GreaterThan(e.threshold) {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(e.taxRate).Round(2)

	total := subtotal.Add(shipping).Add(tax).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return domain.PriceBreakdown{
		Subtotal:       subtotal.Round(2).InexactFloat64(),
		ShippingCharge: shipping.Round(2).InexactFloat64(),
		TaxAmount:      tax.InexactFloat64(),
		DiscountAmount: discount.Round(2).InexactFloat64(),
		TotalAmount:    total.Round(2).InexactFloat64(),
	}
}

// ValidateCoupon runs the full cart-level coupon checks: redeemability at
// the given instant, then the discount computation against the subtotal.
func ValidateCoupon(rule *domain.CouponRule, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !rule.Redeemable(now) {
		return decimal.Zero, fmt.Errorf("%w: %s is inactive, expired or exhausted",
			domain.ErrInvalidCoupon, rule.Code)
	}
	return Discount(rule, subtotal)
}
