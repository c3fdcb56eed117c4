package order

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/butikdev/backend-butik/internal/common"
	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
	"github.com/butikdev/backend-butik/internal/money"
)

// ReadQuerier captures the read-side queries the handlers need.
type ReadQuerier interface {
	ListOrdersByOwner(ctx context.Context, ownerKey string) ([]dbgen.Order, error)
	GetOrderByNumberForOwner(ctx context.Context, arg dbgen.GetOrderByNumberForOwnerParams) (dbgen.Order, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]dbgen.OrderItem, error)
}

// Handlers serves the order history endpoints. Orders are scoped by owner
// key, so anonymous sessions only ever see their own orders.
type Handlers struct {
	Q   ReadQuerier
	Log zerolog.Logger
}

type orderItemResponse struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Title     string `json:"title"`
	SKU       string `json:"sku,omitempty"`
	UnitPrice int64  `json:"unitPrice"`
	Qty       int32  `json:"qty"`
	LineTotal int64  `json:"lineTotal"`
}

type orderResponse struct {
	OrderNumber     string              `json:"orderNumber"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"paymentStatus"`
	PaymentProvider string              `json:"paymentProvider"`
	Subtotal        int64               `json:"subtotal"`
	ShippingCost    int64               `json:"shippingCost"`
	DiscountAmount  int64               `json:"discountAmount"`
	Tax             int64               `json:"tax"`
	Total           int64               `json:"total"`
	TotalDisplay    string              `json:"totalDisplay"`
	Currency        string              `json:"currency"`
	DiscountCode    string              `json:"discountCode,omitempty"`
	CreatedAt       string              `json:"createdAt"`
	Items           []orderItemResponse `json:"items,omitempty"`
}

func toOrderResponse(o dbgen.Order, items []dbgen.OrderItem) orderResponse {
	resp := orderResponse{
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentProvider: o.PaymentProvider,
		Subtotal:        o.Subtotal,
		ShippingCost:    o.ShippingCost,
		DiscountAmount:  o.DiscountAmount,
		Tax:             o.Tax,
		Total:           o.Total,
		TotalDisplay:    money.ToMajorString(o.Total),
		Currency:        o.Currency,
		DiscountCode:    o.DiscountCode.String,
	}
	if o.CreatedAt.Valid {
		resp.CreatedAt = o.CreatedAt.Time.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	for _, item := range items {
		ir := orderItemResponse{
			ProductID: common.UUIDString(item.ProductID),
			Title:     item.Title,
			SKU:       item.Sku.String,
			UnitPrice: item.UnitPrice,
			Qty:       item.Qty,
			LineTotal: item.LineTotal,
		}
		if item.VariantID.Valid {
			ir.VariantID = common.UUIDString(item.VariantID)
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

// List returns the owner's orders, newest first, without line items.
func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := common.CartOwner(r.Context())
	if !ok || owner == "" {
		common.JSONError(w, http.StatusUnauthorized, "NO_SESSION", "no session", nil)
		return
	}
	rows, err := h.Q.ListOrdersByOwner(r.Context(), owner)
	if err != nil {
		h.Log.Error().Err(err).Msg("list orders")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not list orders", nil)
		return
	}
	out := make([]orderResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toOrderResponse(row, nil))
	}
	common.JSON(w, http.StatusOK, map[string]any{"orders": out})
}

// Get returns one order with its line items.
func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := common.CartOwner(r.Context())
	if !ok || owner == "" {
		common.JSONError(w, http.StatusUnauthorized, "NO_SESSION", "no session", nil)
		return
	}
	number := chi.URLParam(r, "orderNumber")
	row, err := h.Q.GetOrderByNumberForOwner(r.Context(), dbgen.GetOrderByNumberForOwnerParams{
		OrderNumber: number,
		OwnerKey:    owner,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "order not found", nil)
			return
		}
		h.Log.Error().Err(err).Msg("get order")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load order", nil)
		return
	}
	items, err := h.Q.ListOrderItems(r.Context(), row.ID)
	if err != nil {
		h.Log.Error().Err(err).Msg("list order items")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load order", nil)
		return
	}
	common.JSON(w, http.StatusOK, toOrderResponse(row, items))
}
