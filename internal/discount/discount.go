package discount

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
	"github.com/butikdev/backend-butik/internal/money"
)

// Validation failures. Every one of these is user-facing and recoverable; the
// handler layer maps them to a 4xx with a stable code.
var (
	ErrCodeNotFound            = errors.New("discount: code not found")
	ErrCodeInactive            = errors.New("discount: code inactive")
	ErrCodeNotYetValid         = errors.New("discount: code not yet valid")
	ErrCodeExpired             = errors.New("discount: code expired")
	ErrMinimumPurchaseNotMet   = errors.New("discount: minimum purchase not met")
	ErrGlobalUsageLimitReached = errors.New("discount: usage limit reached")
	ErrUserUsageLimitReached   = errors.New("discount: user usage limit reached")
)

// Identity carries who is redeeming a code. Either field may be empty for
// anonymous checkouts; per-user limits then count prior usages by email.
type Identity struct {
	UserID pgtype.UUID
	Email  string
}

// Querier captures the database methods the validator needs.
type Querier interface {
	GetDiscountCodeByCode(ctx context.Context, code string) (dbgen.DiscountCode, error)
	CountDiscountUsageByIdentity(ctx context.Context, arg dbgen.CountDiscountUsageByIdentityParams) (int64, error)
}

// Validator checks discount codes and computes discount amounts.
type Validator struct {
	Q   Querier
	Now func() time.Time
}

func (v Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Validate runs the eligibility checks in order, short-circuiting on the
// first failure: existence, active flag, validity window, minimum purchase,
// global usage limit, per-user usage limit.
func (v Validator) Validate(ctx context.Context, code string, subtotal money.Money, who Identity) (dbgen.DiscountCode, error) {
	row, err := v.Q.GetDiscountCodeByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.DiscountCode{}, ErrCodeNotFound
		}
		return dbgen.DiscountCode{}, err
	}
	if !row.Active {
		return dbgen.DiscountCode{}, ErrCodeInactive
	}
	now := v.now()
	if row.ValidFrom.Valid && now.Before(row.ValidFrom.Time) {
		return dbgen.DiscountCode{}, ErrCodeNotYetValid
	}
	if row.ValidUntil.Valid && now.After(row.ValidUntil.Time) {
		return dbgen.DiscountCode{}, ErrCodeExpired
	}
	if subtotal < row.MinimumPurchase {
		return dbgen.DiscountCode{}, ErrMinimumPurchaseNotMet
	}
	if row.UsageLimit.Valid && row.UsageCount >= row.UsageLimit.Int32 {
		return dbgen.DiscountCode{}, ErrGlobalUsageLimitReached
	}
	if row.UserUsageLimit > 0 && (who.UserID.Valid || who.Email != "") {
		count, err := v.Q.CountDiscountUsageByIdentity(ctx, dbgen.CountDiscountUsageByIdentityParams{
			DiscountID: row.ID,
			UserID:     who.UserID,
			Email:      pgtype.Text{String: who.Email, Valid: who.Email != ""},
		})
		if err != nil {
			return dbgen.DiscountCode{}, err
		}
		if count >= int64(row.UserUsageLimit) {
			return dbgen.DiscountCode{}, ErrUserUsageLimitReached
		}
	}
	return row, nil
}

// ComputeAmount computes the discount for a subtotal. Percentage codes are
// capped by maximum_discount when set; fixed codes never discount below zero.
func ComputeAmount(code dbgen.DiscountCode, subtotal money.Money) money.Money {
	switch code.DiscountType {
	case dbgen.DiscountTypePercentage:
		amount := subtotal * code.Value / 100
		if code.MaximumDiscount.Valid && amount > code.MaximumDiscount.Int64 {
			amount = code.MaximumDiscount.Int64
		}
		return amount
	case dbgen.DiscountTypeFixed:
		if code.Value > subtotal {
			return subtotal
		}
		return code.Value
	default:
		return 0
	}
}

// IsValidationError reports whether err is one of the user-facing
// validation failures as opposed to an infrastructure error.
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrCodeNotFound),
		errors.Is(err, ErrCodeInactive),
		errors.Is(err, ErrCodeNotYetValid),
		errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrMinimumPurchaseNotMet),
		errors.Is(err, ErrGlobalUsageLimitReached),
		errors.Is(err, ErrUserUsageLimitReached):
		return true
	}
	return false
}
