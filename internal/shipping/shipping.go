package shipping

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/butikdev/backend-butik/internal/common"
	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
	"github.com/butikdev/backend-butik/internal/money"
)

// ErrRegionNotFound is returned for an unknown or inactive shipping region id.
var ErrRegionNotFound = errors.New("shipping: region not found")

// Region is a shipping zone with its base cost and optional free-shipping
// threshold, both in minor units.
type Region struct {
	ID            string
	Name          string
	BaseCost      money.Money
	FreeThreshold *money.Money
}

// Querier captures the database methods the calculator needs.
type Querier interface {
	GetActiveShippingRegion(ctx context.Context, id pgtype.UUID) (dbgen.ShippingRegion, error)
}

// Calculator resolves shipping regions and computes shipping cost.
type Calculator struct {
	Q Querier
}

// Region loads an active shipping region by id.
func (c Calculator) Region(ctx context.Context, id string) (Region, error) {
	regionID, err := common.ToUUID(id)
	if err != nil {
		return Region{}, ErrRegionNotFound
	}
	row, err := c.Q.GetActiveShippingRegion(ctx, regionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Region{}, ErrRegionNotFound
		}
		return Region{}, err
	}
	region := Region{
		ID:       common.UUIDString(row.ID),
		Name:     row.Name,
		BaseCost: row.BaseCost,
	}
	if row.FreeShippingThreshold.Valid {
		threshold := row.FreeShippingThreshold.Int64
		region.FreeThreshold = &threshold
	}
	return region, nil
}

// Cost computes the shipping cost for a subtotal. A nil region means no
// shipping has been selected yet and costs nothing; an absent threshold means
// the base cost always applies.
func (c Calculator) Cost(region *Region, subtotal money.Money) money.Money {
	if region == nil {
		return 0
	}
	if region.FreeThreshold != nil && subtotal >= *region.FreeThreshold {
		return 0
	}
	return region.BaseCost
}
