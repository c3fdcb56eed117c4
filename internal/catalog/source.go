package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/butikdev/backend-butik/internal/common"
	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
	"github.com/butikdev/backend-butik/internal/money"
)

// ErrNotFound indicates the product or variant is missing or inactive.
var ErrNotFound = errors.New("catalog: product not found")

// Unit is the authoritative pricing snapshot for one product or variant,
// resolved at quote time. The variant price overrides the product price.
type Unit struct {
	ProductID string
	VariantID string
	Title     string
	SKU       string
	UnitPrice money.Money
}

// Source resolves authoritative unit prices. The live catalog is an external
// collaborator; pricing only ever consumes it through this interface.
type Source interface {
	Resolve(ctx context.Context, productID string, variantID string) (Unit, error)
}

// Querier captures the database methods required by the pg-backed source.
type Querier interface {
	GetProductForPricing(ctx context.Context, id pgtype.UUID) (dbgen.Product, error)
	GetVariantForPricing(ctx context.Context, id pgtype.UUID) (dbgen.ProductVariant, error)
}

// PGSource resolves prices from the store's product tables.
type PGSource struct {
	Q Querier
}

// Resolve implements Source.
func (s PGSource) Resolve(ctx context.Context, productID string, variantID string) (Unit, error) {
	if s.Q == nil {
		return Unit{}, errors.New("catalog: querier not configured")
	}
	pID, err := common.ToUUID(productID)
	if err != nil {
		return Unit{}, fmt.Errorf("catalog: parse product id: %w", err)
	}
	product, err := s.Q.GetProductForPricing(ctx, pID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Unit{}, ErrNotFound
		}
		return Unit{}, err
	}
	unit := Unit{
		ProductID: productID,
		Title:     product.Title,
		SKU:       product.Sku.String,
		UnitPrice: product.Price,
	}
	if variantID == "" {
		return unit, nil
	}
	vID, err := common.ToUUID(variantID)
	if err != nil {
		return Unit{}, fmt.Errorf("catalog: parse variant id: %w", err)
	}
	variant, err := s.Q.GetVariantForPricing(ctx, vID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Unit{}, ErrNotFound
		}
		return Unit{}, err
	}
	if !common.UUIDEqual(variant.ProductID, pID) {
		return Unit{}, ErrNotFound
	}
	unit.VariantID = variantID
	unit.UnitPrice = variant.Price
	if variant.Sku.Valid {
		unit.SKU = variant.Sku.String
	}
	if variant.Title != "" {
		unit.Title = fmt.Sprintf("%s - %s", product.Title, variant.Title)
	}
	return unit, nil
}
