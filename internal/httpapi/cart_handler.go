package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goshop/storefront/internal/cart"
)

// CartService is the slice of the cart service the handlers need.
type CartService interface {
	GetCart(ctx context.Context, ownerID string) (*cart.View, error)
	AddItem(ctx context.Context, ownerID string, productID int64, quantity int) (*cart.View, error)
	UpdateItemQuantity(ctx context.Context, ownerID, itemID string, quantity int) (*cart.View, error)
	RemoveItem(ctx context.Context, ownerID, itemID string) (*cart.View, error)
	Clear(ctx context.Context, ownerID string) error
	ApplyCoupon(ctx context.Context, ownerID, code string) (*cart.View, error)
}

type CartHandler struct {
	carts CartService
}

func NewCartHandler(carts CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Request bodies keep the camelCase keys of the storefront's existing
// clients.
type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type applyCouponRequest struct {
	CouponCode string `json:"couponCode"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	view, err := h.carts.GetCart(r.Context(), ownerID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "productId must be positive")
		return
	}

	view, err := h.carts.AddItem(r.Context(), ownerID, req.ProductID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())
	itemID := chi.URLParam(r, "itemId")

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	view, err := h.carts.UpdateItemQuantity(r.Context(), ownerID, itemID, req.Quantity)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())
	itemID := chi.URLParam(r, "itemId")

	view, err := h.carts.RemoveItem(r.Context(), ownerID, itemID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	if err := h.carts.Clear(r.Context(), ownerID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	view, err := h.carts.ApplyCoupon(r.Context(), ownerID, req.CouponCode)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
