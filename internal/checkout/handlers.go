package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/butikdev/backend-butik/internal/cart"
	"github.com/butikdev/backend-butik/internal/common"
	"github.com/butikdev/backend-butik/internal/discount"
	"github.com/butikdev/backend-butik/internal/gateway"
	"github.com/butikdev/backend-butik/internal/obs"
	"github.com/butikdev/backend-butik/internal/order"
	"github.com/butikdev/backend-butik/internal/pricing"
	"github.com/butikdev/backend-butik/internal/session"
)

// Handlers is the request-level coordinator for the checkout flow. It owns
// the external HTTP surface and the error policy; the heavy lifting lives in
// the pricing engine, the gateway adapters and the materializer.
type Handlers struct {
	Engine    pricing.Engine
	Cart      cart.Store
	Providers map[string]gateway.Provider
	Mat       *order.Materializer
	Validate  *validator.Validate
	Log       zerolog.Logger
}

type quoteRequest struct {
	ShippingRegionID string `json:"shippingRegionId" validate:"omitempty,uuid4"`
	DiscountCode     string `json:"discountCode" validate:"omitempty,min=1,max=64"`
}

type validateDiscountRequest struct {
	Code     string `json:"code" validate:"required,min=1,max=64"`
	Subtotal int64  `json:"subtotal" validate:"gte=0"`
}

type confirmRequest struct {
	Provider         string          `json:"provider" validate:"omitempty,oneof=stripe paypal"`
	ProviderRef      string          `json:"providerRef" validate:"required,min=1,max=255"`
	ShippingRegionID string          `json:"shippingRegionId" validate:"omitempty,uuid4"`
	DiscountCode     string          `json:"discountCode" validate:"omitempty,min=1,max=64"`
	Email            string          `json:"email" validate:"omitempty,email"`
	ShippingAddress  json.RawMessage `json:"shippingAddress" validate:"required"`
}

type captureRequest struct {
	OrderID string `json:"orderId" validate:"required,min=1,max=255"`
}

type breakdownResponse struct {
	Subtotal       int64                `json:"subtotal"`
	ShippingCost   int64                `json:"shippingCost"`
	DiscountAmount int64                `json:"discountAmount"`
	TaxExtracted   int64                `json:"taxExtracted"`
	Total          int64                `json:"total"`
	Currency       string               `json:"currency"`
	DiscountCode   string               `json:"discountCode,omitempty"`
	Lines          []quotedLineResponse `json:"lines"`
}

type quotedLineResponse struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Title     string `json:"title"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"unitPrice"`
	LineTotal int64  `json:"lineTotal"`
}

func toBreakdownResponse(bd pricing.Breakdown) breakdownResponse {
	resp := breakdownResponse{
		Subtotal:       bd.Subtotal,
		ShippingCost:   bd.ShippingCost,
		DiscountAmount: bd.DiscountAmount,
		TaxExtracted:   bd.TaxExtracted,
		Total:          bd.Total,
		Currency:       bd.Currency,
		DiscountCode:   bd.DiscountCode,
		Lines:          make([]quotedLineResponse, 0, len(bd.Lines)),
	}
	for _, line := range bd.Lines {
		resp.Lines = append(resp.Lines, quotedLineResponse{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Title:     line.Title,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal,
		})
	}
	return resp
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		details := map[string]string{}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
		}
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid payload", details)
		return false
	}
	return true
}

func (h *Handlers) identity(r *http.Request) discount.Identity {
	who := discount.Identity{Email: session.Email(r)}
	if userID, ok := common.UserID(r.Context()); ok && userID != "" {
		if id, err := common.ToUUID(userID); err == nil {
			who.UserID = id
		}
	}
	return who
}

func (h *Handlers) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner, ok := common.CartOwner(r.Context())
	if !ok || owner == "" {
		common.JSONError(w, http.StatusUnauthorized, "NO_SESSION", "no session", nil)
		return "", false
	}
	return owner, true
}

// Quote prices the current cart, optionally with a region and discount code.
func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var payload quoteRequest
	if !h.decode(w, r, &payload) {
		return
	}
	lines, err := h.Cart.Items(r.Context(), owner)
	if err != nil {
		h.internal(w, err, "load cart")
		return
	}
	bd, _, err := h.Engine.Quote(r.Context(), pricing.Input{
		Lines:    lines,
		RegionID: payload.ShippingRegionID,
		Code:     payload.DiscountCode,
		Who:      h.identity(r),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toBreakdownResponse(bd)})
}

// ValidateDiscount checks a code against a client-supplied subtotal. This is
// the iterative pre-check the cart UI calls as the customer types; nothing is
// reserved here.
func (h *Handlers) ValidateDiscount(w http.ResponseWriter, r *http.Request) {
	var payload validateDiscountRequest
	if !h.decode(w, r, &payload) {
		return
	}
	code, err := h.Engine.Discounts.Validate(r.Context(), payload.Code, payload.Subtotal, h.identity(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	amount := discount.ComputeAmount(code, payload.Subtotal)
	common.JSON(w, http.StatusOK, map[string]any{
		"valid":          true,
		"discountAmount": amount,
		"discountCode": map[string]any{
			"id":    common.UUIDString(code.ID),
			"code":  code.Code,
			"type":  string(code.DiscountType),
			"value": code.Value,
		},
	})
}

// CreateIntent prices the cart and opens a payment intent at the named
// provider. No local record is created; the intent lives at the gateway
// until confirmation.
func (h *Handlers) CreateIntent(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	providerName := strings.ToLower(chi.URLParam(r, "provider"))
	provider, ok := h.Providers[providerName]
	if !ok {
		common.JSONError(w, http.StatusNotFound, "UNKNOWN_PROVIDER", "unknown payment provider", nil)
		return
	}
	var payload quoteRequest
	if !h.decode(w, r, &payload) {
		return
	}
	lines, err := h.Cart.Items(r.Context(), owner)
	if err != nil {
		h.internal(w, err, "load cart")
		return
	}
	if len(lines) == 0 {
		common.JSONError(w, http.StatusBadRequest, "CART_EMPTY", "cart is empty", nil)
		return
	}
	bd, _, err := h.Engine.Quote(r.Context(), pricing.Input{
		Lines:    lines,
		RegionID: payload.ShippingRegionID,
		Code:     payload.DiscountCode,
		Who:      h.identity(r),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	intent, err := provider.CreateIntent(r.Context(), bd)
	if err != nil {
		obs.PaymentIntentTotal.WithLabelValues(providerName, "error").Inc()
		h.writeError(w, err)
		return
	}
	obs.PaymentIntentTotal.WithLabelValues(providerName, "created").Inc()
	resp := map[string]any{"providerRef": intent.Ref}
	if intent.ClientSecret != "" {
		resp["clientSecret"] = intent.ClientSecret
	}
	if intent.ApproveURL != "" {
		resp["approveUrl"] = intent.ApproveURL
	}
	common.JSON(w, http.StatusCreated, resp)
}

// ConfirmPayment verifies the payment with the gateway and materializes the
// order. Safe to retry: the provider reference is the idempotency key.
func (h *Handlers) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var payload confirmRequest
	if !h.decode(w, r, &payload) {
		return
	}
	providerName := payload.Provider
	if providerName == "" {
		providerName = "stripe"
	}
	provider, found := h.Providers[providerName]
	if !found {
		common.JSONError(w, http.StatusNotFound, "UNKNOWN_PROVIDER", "unknown payment provider", nil)
		return
	}

	who := h.identity(r)
	email := payload.Email
	if email == "" {
		email = who.Email
	}
	created, err := h.Mat.Materialize(r.Context(), order.Input{
		Provider:        provider,
		ProviderRef:     payload.ProviderRef,
		OwnerKey:        owner,
		UserID:          who.UserID,
		Email:           email,
		RegionID:        payload.ShippingRegionID,
		DiscountCode:    payload.DiscountCode,
		ShippingAddress: payload.ShippingAddress,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"orderNumber":   created.OrderNumber,
		"status":        string(created.Status),
		"paymentStatus": string(created.PaymentStatus),
		"total":         created.Total,
		"currency":      created.Currency,
	})
}

// PayPalCapture performs the explicit server-side capture step of the
// PayPal flow. The client follows up with ConfirmPayment to materialize.
func (h *Handlers) PayPalCapture(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.Providers["paypal"]
	if !ok {
		common.JSONError(w, http.StatusNotFound, "UNKNOWN_PROVIDER", "paypal is not configured", nil)
		return
	}
	capturer, ok := provider.(gateway.Capturer)
	if !ok {
		common.JSONError(w, http.StatusNotFound, "UNKNOWN_PROVIDER", "provider does not support capture", nil)
		return
	}
	var payload captureRequest
	if !h.decode(w, r, &payload) {
		return
	}
	status, err := capturer.Capture(r.Context(), payload.OrderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"orderId": status.Ref, "status": status.Raw})
}

func (h *Handlers) internal(w http.ResponseWriter, err error, msg string) {
	h.Log.Error().Err(err).Msg(msg)
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
