package order

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/goshop/storefront/internal/cart"
	"github.com/goshop/storefront/internal/domain"
)

// Catalog is the slice of the product catalog order placement needs: price
// lookups plus the atomic stock movements.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	DecrementStock(ctx context.Context, id int64, quantity int) error
	IncrementStock(ctx context.Context, id int64, quantity int) error
}

// Coupons covers redemption. Redeem must be an atomic
// increment-if-below-limit; Release compensates a counted redemption when
// placement fails afterwards.
type Coupons interface {
	Redeem(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error
}

// Carts is the cart access order placement needs. *cart.Service satisfies it.
type Carts interface {
	GetCart(ctx context.Context, ownerID string) (*cart.View, error)
	ApplyCoupon(ctx context.Context, ownerID, code string) (*cart.View, error)
	Clear(ctx context.Context, ownerID string) error
}

type PlaceOrderInput struct {
	OwnerID           string
	ShippingAddressID string
	BillingAddressID  string
	PaymentMethod     string
	CouponCode        string
}

type Service struct {
	carts   Carts
	catalog Catalog
	coupons Coupons
	repo    Repository
}

func NewService(carts Carts, catalog Catalog, coupons Coupons, repo Repository) *Service {
	return &Service{
		carts:   carts,
		catalog: catalog,
		coupons: coupons,
		repo:    repo,
	}
}

// PlaceOrder turns the owner's cart into a durable order:
//
//  1. stock is re-checked and decremented atomically per line (stock may
//     have moved since the items were added),
//  2. an applied coupon is redeemed with an atomic
//     increment-if-below-limit,
//  3. the order and its outbox event are committed in one transaction,
//  4. the cart is cleared only after the order is durable.
//
// Any failure along the way compensates the steps already taken, so a
// failed placement leaves no stock or coupon usage behind.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Order, error) {
	if in.ShippingAddressID == "" {
		return nil, fmt.Errorf("%w: shipping address is required", domain.ErrValidation)
	}
	if in.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: payment method is required", domain.ErrValidation)
	}

	var view *cart.View
	var err error
	if in.CouponCode != "" {
		view, err = s.carts.ApplyCoupon(ctx, in.OwnerID, in.CouponCode)
	} else {
		view, err = s.carts.GetCart(ctx, in.OwnerID)
	}
	if err != nil {
		return nil, err
	}
	if view.Cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	items, err := s.reserveStock(ctx, view.Cart.Items)
	if err != nil {
		return nil, err
	}

	couponCode := view.Cart.CouponCode
	if couponCode != "" {
		if err := s.coupons.Redeem(ctx, couponCode); err != nil {
			s.releaseStock(view.Cart.Items)
			return nil, err
		}
	}

	now := time.Now()
	order := &domain.Order{
		ID:                uuid.New(),
		OwnerID:           in.OwnerID,
		Items:             items,
		CouponCode:        couponCode,
		Breakdown:         view.Breakdown,
		ShippingAddressID: in.ShippingAddressID,
		BillingAddressID:  in.BillingAddressID,
		PaymentMethod:     in.PaymentMethod,
		Status:            domain.OrderStatusPlaced,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		s.releaseStock(view.Cart.Items)
		if couponCode != "" {
			s.releaseCoupon(couponCode)
		}
		return nil, fmt.Errorf("failed to record order: %w", err)
	}

	// The order is durable; clearing the cart is best-effort from here.
	if err := s.carts.Clear(ctx, in.OwnerID); err != nil {
		log.Printf("order %s placed but cart clear failed for owner %s: %v", order.ID, in.OwnerID, err)
	}

	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.OwnerID != ownerID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// reserveStock decrements stock for every line, compensating the lines
// already taken when one fails. It also freezes the prices being charged.
func (s *Service) reserveStock(ctx context.Context, lines []domain.CartLineItem) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	taken := make([]domain.CartLineItem, 0, len(lines))

	for _, line := range lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			s.releaseStock(taken)
			return nil, err
		}

		if err := s.catalog.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			s.releaseStock(taken)
			return nil, err
		}
		taken = append(taken, line)

		unitPrice := decimal.NewFromFloat(product.Price)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		items = append(items, domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice.Round(2).InexactFloat64(),
			LineTotal:   lineTotal.Round(2).InexactFloat64(),
		})
	}

	return items, nil
}

// releaseStock compensates decrements after a failed placement. Failures
// here are logged, not surfaced: the caller is already returning the
// original error.
func (s *Service) releaseStock(lines []domain.CartLineItem) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, line := range lines {
		if err := s.catalog.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			log.Printf("failed to return %d units of product %d to stock: %v",
				line.Quantity, line.ProductID, err)
		}
	}
}

func (s *Service) releaseCoupon(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.coupons.Release(ctx, code); err != nil {
		log.Printf("failed to release coupon %q: %v", code, err)
	}
}
