package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPlaced OrderStatus = "placed"
)

// PriceBreakdown is derived from the live cart on every read and frozen into
// the order record at placement. It is never trusted from client input.
type PriceBreakdown struct {
	Subtotal       float64 `json:"subtotal"`
	ShippingCharge float64 `json:"shipping_charge"`
	TaxAmount      float64 `json:"tax_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	TotalAmount    float64 `json:"total_amount"`
}

// OrderItem freezes the price actually charged for a line. Later catalog
// price changes do not affect placed orders.
type OrderItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

type Order struct {
	ID                uuid.UUID      `json:"id"`
	OwnerID           string         `json:"owner_id"`
	Items             []OrderItem    `json:"items"`
	CouponCode        string         `json:"coupon_code,omitempty"`
	Breakdown         PriceBreakdown `json:"breakdown"`
	ShippingAddressID string         `json:"shipping_address_id"`
	BillingAddressID  string         `json:"billing_address_id,omitempty"`
	PaymentMethod     string         `json:"payment_method"`
	Status            OrderStatus    `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
