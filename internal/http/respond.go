package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/profile"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidSize),
		errors.Is(err, cart.ErrInvalidPrice),
		errors.Is(err, cart.ErrMissingProduct),
		errors.Is(err, cart.ErrUnknownSource),
		errors.Is(err, catalog.ErrMissingCategory),
		errors.Is(err, ErrMissingSession),
		errors.Is(err, profile.ErrMissingEmail),
		errors.Is(err, profile.ErrInvalid),
		errors.Is(err, errInvalidJSON):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, profile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrEmptyCheckout),
		errors.Is(err, order.ErrDuplicateOrder):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// writeErr maps err to its status. Internal failures are not echoed.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", GetCorrelationID(r.Context())),
			zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

var errInvalidJSON = errors.New("invalid json")
