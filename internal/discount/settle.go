package discount

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
	"github.com/butikdev/backend-butik/internal/money"
)

// SettleQuerier captures the transaction-bound queries settlement needs.
type SettleQuerier interface {
	IncrementDiscountUsage(ctx context.Context, id pgtype.UUID) (int64, error)
	InsertDiscountUsage(ctx context.Context, arg dbgen.InsertDiscountUsageParams) error
}

// Reserve consumes one redemption of a code. The increment is conditional on
// the global usage limit, so two concurrent orders racing for the last slot
// resolve in the database: exactly one increments, the other gets false and
// must proceed without the discount. Call inside the order transaction so
// the reservation rolls back with the order.
func Reserve(ctx context.Context, q SettleQuerier, code dbgen.DiscountCode) (bool, error) {
	affected, err := q.IncrementDiscountUsage(ctx, code.ID)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// RecordUsage writes the usage row tying a reserved redemption to the order
// it was spent on. Call after the order row exists, in the same transaction
// as the Reserve that granted it.
func RecordUsage(ctx context.Context, q SettleQuerier, code dbgen.DiscountCode, orderID pgtype.UUID, who Identity, amount money.Money) error {
	return q.InsertDiscountUsage(ctx, dbgen.InsertDiscountUsageParams{
		DiscountID: code.ID,
		OrderID:    orderID,
		UserID:     who.UserID,
		Email:      pgtype.Text{String: who.Email, Valid: who.Email != ""},
		Amount:     amount,
	})
}
