package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/goshop/storefront/internal/domain"
)

// Envelope wraps every response body.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{Success: true, Data: data}); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{Success: false, Message: message}); err != nil {
		log.Printf("failed to encode error response: %v", err)
	}
}

// respondDomainError maps the domain error kinds onto HTTP statuses. Every
// operation behind it is either a single atomic store update or a compensated
// sequence, so an error response never leaves a partial mutation behind.
func respondDomainError(w http.ResponseWriter, err error) {
	var oos *domain.OutOfStockError
	switch {
	case errors.As(err, &oos):
		respondError(w, http.StatusConflict, oos.Error())
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCoupon),
		errors.Is(err, domain.ErrMinOrderNotMet):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrItemNotFound),
		errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
