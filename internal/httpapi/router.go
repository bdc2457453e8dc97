package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the storefront routes with the shared middleware stack.
func NewRouter(carts CartService, orders OrderService, requestTimeout time.Duration) chi.Router {
	cartHandler := NewCartHandler(carts)
	orderHandler := NewOrderHandler(orders)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(OwnerMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/", cartHandler.AddItem)
			r.Delete("/", cartHandler.ClearCart)
			r.Put("/{itemId}", cartHandler.UpdateQuantity)
			r.Delete("/{itemId}", cartHandler.RemoveItem)
			r.Post("/apply-coupon", cartHandler.ApplyCoupon)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderHandler.PlaceOrder)
			r.Get("/{orderId}", orderHandler.GetOrder)
		})
	})

	return r
}
