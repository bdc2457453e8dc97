package domain

import "time"

// CartLineItem is unique per product within a cart. Adding a product that is
// already present increases the quantity of its existing line instead of
// creating a duplicate.
type CartLineItem struct {
	ID        string  `bson:"id" json:"id"`
	ProductID int64   `bson:"product_id" json:"product_id"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	// UnitPriceAtAdd is the catalog price captured when the line was first
	// created. Display-only: pricing always uses the current catalog price.
	UnitPriceAtAdd float64   `bson:"unit_price_at_add" json:"unit_price_at_add"`
	AddedAt        time.Time `bson:"added_at" json:"added_at"`
}

// Cart holds one owner's line items plus the currently applied coupon code.
// The discount amount is never stored: it is derived from the coupon and the
// live subtotal on every read, so it can not go stale.
type Cart struct {
	ID         string         `bson:"_id,omitempty" json:"-"`
	OwnerID    string         `bson:"owner_id" json:"owner_id"`
	Items      []CartLineItem `bson:"items" json:"items"`
	CouponCode string         `bson:"coupon_code,omitempty" json:"applied_coupon_code,omitempty"`
	CreatedAt  time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at" json:"updated_at"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// FindItem returns the line with the given id, or nil.
func (c *Cart) FindItem(itemID string) *CartLineItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// FindItemByProduct returns the line holding the given product, or nil.
func (c *Cart) FindItemByProduct(productID int64) *CartLineItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
