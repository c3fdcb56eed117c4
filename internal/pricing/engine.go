package pricing

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/butikdev/backend-butik/internal/cart"
	"github.com/butikdev/backend-butik/internal/catalog"
	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
	"github.com/butikdev/backend-butik/internal/discount"
	"github.com/butikdev/backend-butik/internal/money"
	"github.com/butikdev/backend-butik/internal/obs"
	"github.com/butikdev/backend-butik/internal/shipping"
)

// QuotedLine is one cart line with its authoritative price resolved.
type QuotedLine struct {
	ProductID string
	VariantID string
	Title     string
	SKU       string
	Qty       int
	UnitPrice money.Money
	LineTotal money.Money
}

// Breakdown is the result of pricing a cart. Totals are minor units. Tax is
// informational: unit prices are tax-inclusive, so it is never added on top.
type Breakdown struct {
	Lines          []QuotedLine
	Subtotal       money.Money
	ShippingCost   money.Money
	DiscountAmount money.Money
	TaxExtracted   money.Money
	Total          money.Money
	Currency       string
	DiscountCode   string
}

// Input names what to price. RegionID and DiscountCode are optional; absent
// region means partial pricing with zero shipping.
type Input struct {
	Lines    []cart.Line
	RegionID string
	Code     string
	Who      discount.Identity
}

// Engine composes catalog, shipping and discount into a Breakdown.
type Engine struct {
	Catalog   catalog.Source
	Shipping  shipping.Calculator
	Discounts discount.Validator
	Currency  string
	TaxBps    int
	Log       zerolog.Logger
}

// Quote prices the given cart lines fresh. Lines referencing products that
// have gone missing or inactive since they were added are dropped rather
// than failing the whole quote. Discount validation failures propagate so
// the caller can report them; a valid code is consumed into the breakdown.
func (e Engine) Quote(ctx context.Context, in Input) (Breakdown, *dbgen.DiscountCode, error) {
	bd := Breakdown{Currency: e.Currency}
	for _, line := range in.Lines {
		unit, err := e.Catalog.Resolve(ctx, line.ProductID, line.VariantID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				e.Log.Warn().Str("product_id", line.ProductID).Msg("dropping unpriceable cart line")
				continue
			}
			return Breakdown{}, nil, err
		}
		lineTotal := unit.UnitPrice * money.Money(line.Qty)
		bd.Lines = append(bd.Lines, QuotedLine{
			ProductID: unit.ProductID,
			VariantID: unit.VariantID,
			Title:     unit.Title,
			SKU:       unit.SKU,
			Qty:       line.Qty,
			UnitPrice: unit.UnitPrice,
			LineTotal: lineTotal,
		})
		bd.Subtotal += lineTotal
	}

	var validated *dbgen.DiscountCode
	if in.Code != "" {
		code, err := e.Discounts.Validate(ctx, in.Code, bd.Subtotal, in.Who)
		if err != nil {
			return Breakdown{}, nil, err
		}
		validated = &code
		bd.DiscountCode = code.Code
		bd.DiscountAmount = discount.ComputeAmount(code, bd.Subtotal)
	}

	if in.RegionID != "" {
		region, err := e.Shipping.Region(ctx, in.RegionID)
		if err != nil {
			return Breakdown{}, nil, err
		}
		bd.ShippingCost = e.Shipping.Cost(&region, bd.Subtotal)
	}

	bd.TaxExtracted = money.ExtractTax(bd.Subtotal, e.TaxBps)
	bd.Total = bd.Subtotal - bd.DiscountAmount + bd.ShippingCost
	if bd.Total < 0 {
		e.Log.Warn().
			Int64("subtotal", bd.Subtotal).
			Int64("discount", bd.DiscountAmount).
			Int64("shipping", bd.ShippingCost).
			Msg("pricing produced a negative total, clamping to zero")
		obs.PricingAnomalyTotal.Inc()
		bd.Total = 0
	}
	obs.PricingQuoteTotal.WithLabelValues("ok").Inc()
	return bd, validated, nil
}

// Retotal recomputes the dependent fields after the discount is removed,
// used when a concurrent order consumed the last redemption of a code.
func (e Engine) Retotal(bd Breakdown) Breakdown {
	bd.DiscountAmount = 0
	bd.DiscountCode = ""
	bd.Total = bd.Subtotal + bd.ShippingCost
	return bd
}
