package cart

import (
	"context"
	"errors"

	"github.com/goshop/storefront/internal/domain"
)

// ErrLineExists reports that AddLine found a line for the product already in
// the cart, possibly pushed by a concurrent request. Callers increment the
// existing line instead.
var ErrLineExists = errors.New("cart line for product already exists")

// Repository defines the cart persistence operations the service needs.
// Every mutation must be a single atomic update against the cart document so
// concurrent requests from the same owner can not lose items.
type Repository interface {
	// GetCart returns the owner's cart, or domain.ErrCartNotFound.
	GetCart(ctx context.Context, ownerID string) (*domain.Cart, error)

	// AddLine appends a new line item, creating the cart if needed.
	// Returns ErrLineExists when the cart already holds a line for the
	// item's product, so two concurrent adds can never produce two lines.
	AddLine(ctx context.Context, ownerID string, item domain.CartLineItem) error

	// IncrementLineQuantity adds delta to the quantity of the line holding
	// the given product. Returns domain.ErrItemNotFound if no such line.
	IncrementLineQuantity(ctx context.Context, ownerID string, productID int64, delta int) error

	// SetLineQuantity replaces the quantity of the line with the given id.
	// Returns domain.ErrItemNotFound if no such line.
	SetLineQuantity(ctx context.Context, ownerID, itemID string, quantity int) error

	// RemoveLine pulls the line with the given id. Removing an absent line
	// is a no-op success, mirroring pull semantics.
	RemoveLine(ctx context.Context, ownerID, itemID string) error

	// SetCoupon stores the applied coupon code; an empty code clears it.
	SetCoupon(ctx context.Context, ownerID, code string) error

	// Clear empties the items and removes any applied coupon.
	Clear(ctx context.Context, ownerID string) error

	// CreateIndexes installs the unique owner_id index the upsert paths
	// depend on. Run once at startup.
	CreateIndexes(ctx context.Context) error
}
