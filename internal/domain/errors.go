package domain

import (
	"errors"
	"fmt"
)

// Client-recoverable errors; the HTTP layer maps these to 4xx responses.
// Anything else bubbling out of a service is treated as infrastructure
// failure and mapped to 5xx.
var (
	ErrValidation      = errors.New("validation failed")
	ErrProductNotFound = errors.New("product not found")
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrCartNotFound    = errors.New("cart not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidCoupon   = errors.New("invalid coupon code")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrMinOrderNotMet  = errors.New("minimum order amount not met")
)

// OutOfStockError reports how much stock was available versus requested,
// so the caller can adjust the quantity and retry.
type OutOfStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
