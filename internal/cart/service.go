package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/goshop/storefront/internal/cache"
	"github.com/goshop/storefront/internal/domain"
	"github.com/goshop/storefront/internal/pricing"
)

// RemoveCouponSentinel is accepted in place of a coupon code to clear the
// currently applied coupon.
const RemoveCouponSentinel = "REMOVE"

// Catalog is the product lookup the cart needs. The catalog package
// implements it; consumers define the interface.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// CouponRegistry resolves coupon codes to rules.
type CouponRegistry interface {
	FindByCode(ctx context.Context, code string) (*domain.CouponRule, error)
}

// View is a cart plus its freshly computed price breakdown. The breakdown is
// derived on every read; no caller ever sees a stale discount.
type View struct {
	Cart      domain.Cart           `json:"cart"`
	Breakdown domain.PriceBreakdown `json:"breakdown"`
}

type Service struct {
	repo    Repository
	cache   cache.CartCache
	catalog Catalog
	coupons CouponRegistry
	pricer  *pricing.Engine
	sfg     singleflight.Group // prevents cache stampede on reads
	now     func() time.Time
}

func NewService(repo Repository, cartCache cache.CartCache, catalog Catalog, coupons CouponRegistry, pricer *pricing.Engine) *Service {
	return &Service{
		repo:    repo,
		cache:   cartCache,
		catalog: catalog,
		coupons: coupons,
		pricer:  pricer,
		now:     time.Now,
	}
}

// GetCart returns the owner's cart with its breakdown. Owners without a cart
// get an empty one; carts are created lazily on first write.
func (s *Service) GetCart(ctx context.Context, ownerID string) (*View, error) {
	cart, err := s.loadCart(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cart)
}

// AddItem adds quantity units of a product, summing with any existing line
// for the same product. The line's display price is captured at first add;
// increments keep it, they never reprice the older quantity.
func (s *Service) AddItem(ctx context.Context, ownerID string, productID int64, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.loadFromRepo(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	existing := cart.FindItemByProduct(productID)
	requested := quantity
	if existing != nil {
		requested += existing.Quantity
	}
	if product.Stock < requested {
		return nil, &domain.OutOfStockError{
			ProductID: productID,
			Available: product.Stock,
			Requested: requested,
		}
	}

	if existing != nil {
		err = s.repo.IncrementLineQuantity(ctx, ownerID, productID, quantity)
	} else {
		err = s.repo.AddLine(ctx, ownerID, domain.CartLineItem{
			ID:             uuid.New().String(),
			ProductID:      productID,
			Quantity:       quantity,
			UnitPriceAtAdd: product.Price,
			AddedAt:        s.now(),
		})
		if errors.Is(err, ErrLineExists) {
			// A concurrent add pushed the line between our read and the
			// guarded push. Fold the quantities together instead.
			err = s.repo.IncrementLineQuantity(ctx, ownerID, productID, quantity)
		}
	}
	if err != nil {
		return nil, err
	}

	// An applied coupon survives additions; its discount is recomputed
	// against the grown subtotal on the read below.
	s.invalidateCache(ownerID)
	return s.viewFromRepo(ctx, ownerID)
}

// UpdateItemQuantity sets a line to an exact quantity. Quantities below 1
// are rejected; callers wanting removal use RemoveItem.
func (s *Service) UpdateItemQuantity(ctx context.Context, ownerID, itemID string, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}

	cart, err := s.loadFromRepo(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	item := cart.FindItem(itemID)
	if item == nil {
		return nil, domain.ErrItemNotFound
	}

	product, err := s.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, &domain.OutOfStockError{
			ProductID: item.ProductID,
			Available: product.Stock,
			Requested: quantity,
		}
	}

	if err := s.repo.SetLineQuantity(ctx, ownerID, itemID, quantity); err != nil {
		return nil, err
	}

	s.invalidateCache(ownerID)
	return s.viewFromRepo(ctx, ownerID)
}

// RemoveItem deletes a line. Removing an absent line is a no-op success.
func (s *Service) RemoveItem(ctx context.Context, ownerID, itemID string) (*View, error) {
	if err := s.repo.RemoveLine(ctx, ownerID, itemID); err != nil {
		return nil, err
	}

	s.invalidateCache(ownerID)
	return s.viewFromRepo(ctx, ownerID)
}

// Clear empties the cart and drops any applied coupon. This is the only
// operation that unconditionally removes a coupon.
func (s *Service) Clear(ctx context.Context, ownerID string) error {
	if err := s.repo.Clear(ctx, ownerID); err != nil {
		return err
	}

	s.invalidateCache(ownerID)
	return nil
}

// ApplyCoupon applies (or replaces) the cart's coupon. At most one coupon is
// active at a time; codes never stack. The empty string and the REMOVE
// sentinel clear the coupon instead.
func (s *Service) ApplyCoupon(ctx context.Context, ownerID, code string) (*View, error) {
	normalized := normalizeCode(code)
	if normalized == "" || normalized == RemoveCouponSentinel {
		return s.RemoveCoupon(ctx, ownerID)
	}

	cart, err := s.loadFromRepo(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	rule, err := s.coupons.FindByCode(ctx, normalized)
	if err != nil {
		return nil, err
	}

	subtotal, err := s.subtotal(ctx, cart)
	if err != nil {
		return nil, err
	}
	if _, err := pricing.ValidateCoupon(rule, subtotal, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.SetCoupon(ctx, ownerID, rule.Code); err != nil {
		return nil, err
	}

	s.invalidateCache(ownerID)
	return s.viewFromRepo(ctx, ownerID)
}

// RemoveCoupon clears the applied coupon, dropping the discount to zero.
func (s *Service) RemoveCoupon(ctx context.Context, ownerID string) (*View, error) {
	if err := s.repo.SetCoupon(ctx, ownerID, ""); err != nil {
		if !errors.Is(err, domain.ErrCartNotFound) {
			return nil, err
		}
	}

	s.invalidateCache(ownerID)
	return s.viewFromRepo(ctx, ownerID)
}

// viewFromRepo prices a cart read straight from the repository. Mutations
// return through here so their response can never reflect a stale cache
// entry written by a concurrent read.
func (s *Service) viewFromRepo(ctx context.Context, ownerID string) (*View, error) {
	cart, err := s.loadFromRepo(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cart)
}

// loadCart reads through the cache, collapsing concurrent misses for the
// same owner into a single repo query.
func (s *Service) loadCart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(ownerID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, ownerID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cart cache get error: %v", err) // degrade to repo read
		}

		cart, err = s.loadFromRepo(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(setCtx, ownerID, cart); err != nil {
				log.Printf("cart cache set error: %v", err)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// loadFromRepo bypasses the cache; mutations use it to decide against
// current persisted state.
func (s *Service) loadFromRepo(ctx context.Context, ownerID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, ownerID)
	if errors.Is(err, domain.ErrCartNotFound) {
		now := s.now()
		return &domain.Cart{
			OwnerID:   ownerID,
			Items:     nil,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// subtotal prices every line at the current catalog price. The stored
// unit_price_at_add is display-only and deliberately ignored here.
func (s *Service) subtotal(ctx context.Context, cart *domain.Cart) (decimal.Decimal, error) {
	lines := make([]pricing.Line, 0, len(cart.Items))

	for _, item := range cart.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("pricing line for product %d: %w", item.ProductID, err)
		}
		lines = append(lines, pricing.Line{
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}

	return pricing.Subtotal(lines), nil
}

// price computes the breakdown for a cart. If the applied coupon no longer
// holds against the live subtotal (shrunk below the minimum, expired,
// exhausted), it is invalidated here rather than left dangling.
func (s *Service) price(ctx context.Context, cart *domain.Cart) (*View, error) {
	subtotal, err := s.subtotal(ctx, cart)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	if cart.CouponCode != "" {
		rule, err := s.coupons.FindByCode(ctx, cart.CouponCode)
		switch {
		case errors.Is(err, domain.ErrInvalidCoupon):
			s.dropStaleCoupon(ctx, cart)
		case err != nil:
			return nil, err
		default:
			discount, err = pricing.ValidateCoupon(rule, subtotal, s.now())
			if err != nil {
				if !errors.Is(err, domain.ErrInvalidCoupon) && !errors.Is(err, domain.ErrMinOrderNotMet) {
					return nil, err
				}
				s.dropStaleCoupon(ctx, cart)
				discount = decimal.Zero
			}
		}
	}

	return &View{
		Cart:      *cart,
		Breakdown: s.pricer.Breakdown(subtotal, discount),
	}, nil
}

func (s *Service) dropStaleCoupon(ctx context.Context, cart *domain.Cart) {
	log.Printf("invalidating stale coupon %q on cart of owner %s", cart.CouponCode, cart.OwnerID)
	if err := s.repo.SetCoupon(ctx, cart.OwnerID, ""); err != nil {
		log.Printf("failed to clear stale coupon: %v", err)
	}
	cart.CouponCode = ""
	s.invalidateCache(cart.OwnerID)
}

func (s *Service) invalidateCache(ownerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, ownerID); err != nil {
		log.Printf("cart cache invalidate error: %v", err)
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
