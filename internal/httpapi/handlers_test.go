package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goshop/storefront/internal/cart"
	"github.com/goshop/storefront/internal/domain"
	"github.com/goshop/storefront/internal/order"
)

type mockCartService struct {
	view       *cart.View
	err        error
	gotOwnerID string
	gotProduct int64
	gotItemID  string
	gotQty     int
	gotCode    string
	cleared    bool
}

func (m *mockCartService) GetCart(_ context.Context, ownerID string) (*cart.View, error) {
	m.gotOwnerID = ownerID
	return m.view, m.err
}

func (m *mockCartService) AddItem(_ context.Context, ownerID string, productID int64, quantity int) (*cart.View, error) {
	m.gotOwnerID, m.gotProduct, m.gotQty = ownerID, productID, quantity
	return m.view, m.err
}

func (m *mockCartService) UpdateItemQuantity(_ context.Context, ownerID, itemID string, quantity int) (*cart.View, error) {
	m.gotOwnerID, m.gotItemID, m.gotQty = ownerID, itemID, quantity
	return m.view, m.err
}

func (m *mockCartService) RemoveItem(_ context.Context, ownerID, itemID string) (*cart.View, error) {
	m.gotOwnerID, m.gotItemID = ownerID, itemID
	return m.view, m.err
}

func (m *mockCartService) Clear(_ context.Context, ownerID string) error {
	m.gotOwnerID = ownerID
	m.cleared = true
	return m.err
}

func (m *mockCartService) ApplyCoupon(_ context.Context, ownerID, code string) (*cart.View, error) {
	m.gotOwnerID, m.gotCode = ownerID, code
	return m.view, m.err
}

type mockOrderService struct {
	order    *domain.Order
	err      error
	gotInput order.PlaceOrderInput
	gotID    uuid.UUID
	gotOwner string
}

func (m *mockOrderService) PlaceOrder(_ context.Context, in order.PlaceOrderInput) (*domain.Order, error) {
	m.gotInput = in
	return m.order, m.err
}

func (m *mockOrderService) GetOrder(_ context.Context, ownerID string, id uuid.UUID) (*domain.Order, error) {
	m.gotOwner, m.gotID = ownerID, id
	return m.order, m.err
}

func emptyView() *cart.View {
	return &cart.View{Cart: domain.Cart{OwnerID: "owner-1"}}
}

func doRequest(t *testing.T, carts CartService, orders OrderService, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("X-Owner-ID", "owner-1")

	rec := httptest.NewRecorder()
	NewRouter(carts, orders, 5*time.Second).ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestGetCart(t *testing.T) {
	carts := &mockCartService{view: emptyView()}

	rec := doRequest(t, carts, &mockOrderService{}, http.MethodGet, "/cart", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner-1", carts.gotOwnerID)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.NotNil(t, env.Data)
}

func TestMissingOwnerHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	NewRouter(&mockCartService{}, &mockOrderService{}, 5*time.Second).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "missing owner identity", env.Message)
}

func TestHealthNeedsNoOwner(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	NewRouter(&mockCartService{}, &mockOrderService{}, 5*time.Second).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddItem(t *testing.T) {
	carts := &mockCartService{view: emptyView()}

	rec := doRequest(t, carts, &mockOrderService{}, http.MethodPost, "/cart",
		map[string]interface{}{"productId": 42, "quantity": 3})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(42), carts.gotProduct)
	assert.Equal(t, 3, carts.gotQty)
}

func TestAddItem_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/cart", bytes.NewBufferString("{not json"))
	req.Header.Set("X-Owner-ID", "owner-1")
	rec := httptest.NewRecorder()
	NewRouter(&mockCartService{}, &mockOrderService{}, 5*time.Second).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_NonPositiveProduct(t *testing.T) {
	rec := doRequest(t, &mockCartService{}, &mockOrderService{}, http.MethodPost, "/cart",
		map[string]interface{}{"productId": 0, "quantity": 1})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem_OutOfStockMapsToConflict(t *testing.T) {
	carts := &mockCartService{err: &domain.OutOfStockError{ProductID: 42, Available: 1, Requested: 5}}

	rec := doRequest(t, carts, &mockOrderService{}, http.MethodPost, "/cart",
		map[string]interface{}{"productId": 42, "quantity": 5})

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "insufficient stock")
}

func TestUpdateQuantity(t *testing.T) {
	carts := &mockCartService{view: emptyView()}

	rec := doRequest(t, carts, &mockOrderService{}, http.MethodPut, "/cart/line-1",
		map[string]interface{}{"quantity": 7})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "line-1", carts.gotItemID)
	assert.Equal(t, 7, carts.gotQty)
}

func TestUpdateQuantity_UnknownItem(t *testing.T) {
	carts := &mockCartService{err: domain.ErrItemNotFound}

	rec := doRequest(t, carts, &mockOrderService{}, http.MethodPut, "/cart/nope",
		map[string]interface{}{"quantity": 1})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveItem(t *testing.T) {
	carts := &mockCartService{view: emptyView()}

	rec := doRequest(t, carts, &mockOrderService{}, http.MethodDelete, "/cart/line-1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "line-1", carts.gotItemID)
}

func TestClearCart(t *testing.T) {
	carts := &mockCartService{}

	rec := doRequest(t, carts, &mockOrderService{}, http.MethodDelete, "/cart", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, carts.cleared)
}

func TestApplyCoupon(t *testing.T) {
	carts := &mockCartService{view: emptyView()}

	rec := doRequest(t, carts, &mockOrderService{}, http.MethodPost, "/cart/apply-coupon",
		map[string]interface{}{"couponCode": "save10"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "save10", carts.gotCode)
}

func TestApplyCoupon_InvalidMapsToUnprocessable(t *testing.T) {
	carts := &mockCartService{err: domain.ErrInvalidCoupon}

	rec := doRequest(t, carts, &mockOrderService{}, http.MethodPost, "/cart/apply-coupon",
		map[string]interface{}{"couponCode": "EXPIRED"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPlaceOrder(t *testing.T) {
	orders := &mockOrderService{order: &domain.Order{ID: uuid.New(), OwnerID: "owner-1"}}

	rec := doRequest(t, &mockCartService{}, orders, http.MethodPost, "/orders",
		map[string]interface{}{
			"shippingAddressId": "addr-1",
			"paymentMethod":     "card",
			"couponCode":        "SAVE10",
		})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "owner-1", orders.gotInput.OwnerID)
	assert.Equal(t, "addr-1", orders.gotInput.ShippingAddressID)
	assert.Equal(t, "SAVE10", orders.gotInput.CouponCode)
}

func TestPlaceOrder_EmptyCartMapsToBadRequest(t *testing.T) {
	orders := &mockOrderService{err: domain.ErrEmptyCart}

	rec := doRequest(t, &mockCartService{}, orders, http.MethodPost, "/orders",
		map[string]interface{}{"shippingAddressId": "addr-1", "paymentMethod": "card"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrder(t *testing.T) {
	id := uuid.New()
	orders := &mockOrderService{order: &domain.Order{ID: id, OwnerID: "owner-1"}}

	rec := doRequest(t, &mockCartService{}, orders, http.MethodGet, "/orders/"+id.String(), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, orders.gotID)
	assert.Equal(t, "owner-1", orders.gotOwner)
}

func TestGetOrder_BadID(t *testing.T) {
	rec := doRequest(t, &mockCartService{}, &mockOrderService{}, http.MethodGet, "/orders/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	orders := &mockOrderService{err: domain.ErrOrderNotFound}

	rec := doRequest(t, &mockCartService{}, orders, http.MethodGet, "/orders/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
