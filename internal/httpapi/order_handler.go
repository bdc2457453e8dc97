package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goshop/storefront/internal/domain"
	"github.com/goshop/storefront/internal/order"
)

// OrderService is the slice of the order service the handlers need.
type OrderService interface {
	PlaceOrder(ctx context.Context, in order.PlaceOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, ownerID string, id uuid.UUID) (*domain.Order, error)
}

type OrderHandler struct {
	orders OrderService
}

func NewOrderHandler(orders OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type placeOrderRequest struct {
	ShippingAddressID string `json:"shippingAddressId"`
	BillingAddressID  string `json:"billingAddressId"`
	PaymentMethod     string `json:"paymentMethod"`
	CouponCode        string `json:"couponCode"`
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderInput{
		OwnerID:           ownerID,
		ShippingAddressID: req.ShippingAddressID,
		BillingAddressID:  req.BillingAddressID,
		PaymentMethod:     req.PaymentMethod,
		CouponCode:        req.CouponCode,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	result, err := h.orders.GetOrder(r.Context(), ownerID, id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
