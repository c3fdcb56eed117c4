package checkout

import (
	"errors"
	"net/http"

	"github.com/butikdev/backend-butik/internal/common"
	"github.com/butikdev/backend-butik/internal/discount"
	"github.com/butikdev/backend-butik/internal/gateway"
	"github.com/butikdev/backend-butik/internal/order"
	"github.com/butikdev/backend-butik/internal/shipping"
)

// writeError maps domain failures onto the HTTP error taxonomy. Three bands:
// user-correctable input gets a 400 with a stable code, configuration and
// gateway outages get a 5xx, and everything unexpected is a logged 500.
// Persistence failures are safe to retry because the payment reference
// guards against duplicate orders.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, discount.ErrCodeNotFound):
		common.JSONError(w, http.StatusBadRequest, "CODE_NOT_FOUND", "discount code not found", nil)
	case errors.Is(err, discount.ErrCodeInactive):
		common.JSONError(w, http.StatusBadRequest, "CODE_INACTIVE", "discount code is inactive", nil)
	case errors.Is(err, discount.ErrCodeNotYetValid):
		common.JSONError(w, http.StatusBadRequest, "CODE_NOT_YET_VALID", "discount code is not yet valid", nil)
	case errors.Is(err, discount.ErrCodeExpired):
		common.JSONError(w, http.StatusBadRequest, "CODE_EXPIRED", "discount code has expired", nil)
	case errors.Is(err, discount.ErrMinimumPurchaseNotMet):
		common.JSONError(w, http.StatusBadRequest, "MINIMUM_PURCHASE_NOT_MET", "subtotal below the code's minimum purchase", nil)
	case errors.Is(err, discount.ErrGlobalUsageLimitReached):
		common.JSONError(w, http.StatusBadRequest, "USAGE_LIMIT_REACHED", "discount code has been used up", nil)
	case errors.Is(err, discount.ErrUserUsageLimitReached):
		common.JSONError(w, http.StatusBadRequest, "USER_USAGE_LIMIT_REACHED", "you have already used this code", nil)
	case errors.Is(err, shipping.ErrRegionNotFound):
		common.JSONError(w, http.StatusBadRequest, "REGION_NOT_FOUND", "unknown shipping region", nil)
	case errors.Is(err, order.ErrCartEmpty):
		common.JSONError(w, http.StatusBadRequest, "CART_EMPTY", "cart is empty", nil)
	case errors.Is(err, order.ErrPaymentNotSucceeded):
		common.JSONError(w, http.StatusBadRequest, "PAYMENT_NOT_SUCCEEDED", "payment has not succeeded at the provider", nil)
	case errors.Is(err, gateway.ErrRefNotFound):
		common.JSONError(w, http.StatusBadRequest, "PAYMENT_REF_NOT_FOUND", "unknown payment reference", nil)
	case errors.Is(err, gateway.ErrRejected):
		common.JSONError(w, http.StatusBadRequest, "GATEWAY_REJECTED", "payment provider rejected the request", nil)
	case errors.Is(err, gateway.ErrUnavailable):
		h.Log.Error().Err(err).Msg("payment gateway unavailable")
		common.JSONError(w, http.StatusInternalServerError, "GATEWAY_UNAVAILABLE", "payment provider unavailable", nil)
	default:
		h.Log.Error().Err(err).Msg("checkout request failed")
		common.JSONError(w, http.StatusInternalServerError, "PERSISTENCE_FAILURE", "could not complete the request, safe to retry", nil)
	}
}
