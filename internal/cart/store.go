package cart

import (
	"context"
	"errors"

	"github.com/butikdev/backend-butik/internal/common"
	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
)

// ErrEmpty signals a cart with no lines at checkout time.
var ErrEmpty = errors.New("cart: empty")

// Line is one cart row. Prices are deliberately absent: unit prices are
// resolved from the live catalog when a quote is computed, never cached here.
type Line struct {
	ProductID string
	VariantID string
	Qty       int
}

// Store reads the active cart for an owner key. The owner key is the user id
// for signed-in customers and the anonymous session id otherwise.
type Store interface {
	Items(ctx context.Context, ownerKey string) ([]Line, error)
}

// Querier captures the database methods the pg-backed store needs.
type Querier interface {
	ListCartItemsByOwner(ctx context.Context, ownerKey string) ([]dbgen.CartItem, error)
}

// PGStore reads cart lines from the cart_items table.
type PGStore struct {
	Q Querier
}

// Items implements Store. Lines with a non-positive quantity are dropped.
func (s PGStore) Items(ctx context.Context, ownerKey string) ([]Line, error) {
	rows, err := s.Q.ListCartItemsByOwner(ctx, ownerKey)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		if row.Qty <= 0 {
			continue
		}
		line := Line{
			ProductID: common.UUIDString(row.ProductID),
			Qty:       int(row.Qty),
		}
		if row.VariantID.Valid {
			line.VariantID = common.UUIDString(row.VariantID)
		}
		lines = append(lines, line)
	}
	return lines, nil
}
