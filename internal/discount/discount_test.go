package discount

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
)

type stubQuerier struct {
	code       dbgen.DiscountCode
	codeErr    error
	usageCount int64
	usageErr   error
}

func (s *stubQuerier) GetDiscountCodeByCode(ctx context.Context, code string) (dbgen.DiscountCode, error) {
	return s.code, s.codeErr
}

func (s *stubQuerier) CountDiscountUsageByIdentity(ctx context.Context, arg dbgen.CountDiscountUsageByIdentityParams) (int64, error) {
	return s.usageCount, s.usageErr
}

func ts(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func activeCode() dbgen.DiscountCode {
	return dbgen.DiscountCode{
		Code:            "SOMMAR25",
		DiscountType:    dbgen.DiscountTypePercentage,
		Value:           25,
		MinimumPurchase: 50000,
		UserUsageLimit:  1,
		Active:          true,
	}
}

func TestValidateHappyPath(t *testing.T) {
	v := Validator{Q: &stubQuerier{code: activeCode()}, Now: fixedNow}
	code, err := v.Validate(context.Background(), "sommar25", 80000, Identity{Email: "kund@example.se"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if code.Code != "SOMMAR25" {
		t.Fatalf("unexpected code %q", code.Code)
	}
}

func TestValidateNotFound(t *testing.T) {
	v := Validator{Q: &stubQuerier{codeErr: pgx.ErrNoRows}, Now: fixedNow}
	_, err := v.Validate(context.Background(), "NOPE", 80000, Identity{})
	if !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("expected ErrCodeNotFound, got %v", err)
	}
}

func TestValidateInactive(t *testing.T) {
	code := activeCode()
	code.Active = false
	v := Validator{Q: &stubQuerier{code: code}, Now: fixedNow}
	if _, err := v.Validate(context.Background(), code.Code, 80000, Identity{}); !errors.Is(err, ErrCodeInactive) {
		t.Fatalf("expected ErrCodeInactive, got %v", err)
	}
}

func TestValidateWindow(t *testing.T) {
	code := activeCode()
	code.ValidFrom = ts(fixedNow().Add(time.Hour))
	v := Validator{Q: &stubQuerier{code: code}, Now: fixedNow}
	if _, err := v.Validate(context.Background(), code.Code, 80000, Identity{}); !errors.Is(err, ErrCodeNotYetValid) {
		t.Fatalf("expected ErrCodeNotYetValid, got %v", err)
	}

	code = activeCode()
	code.ValidUntil = ts(fixedNow().Add(-time.Hour))
	v = Validator{Q: &stubQuerier{code: code}, Now: fixedNow}
	if _, err := v.Validate(context.Background(), code.Code, 80000, Identity{}); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestValidateMinimumPurchaseBoundary(t *testing.T) {
	v := Validator{Q: &stubQuerier{code: activeCode()}, Now: fixedNow}
	if _, err := v.Validate(context.Background(), "SOMMAR25", 49999, Identity{}); !errors.Is(err, ErrMinimumPurchaseNotMet) {
		t.Fatalf("expected ErrMinimumPurchaseNotMet just below minimum, got %v", err)
	}
	if _, err := v.Validate(context.Background(), "SOMMAR25", 50000, Identity{}); err != nil {
		t.Fatalf("expected exact minimum to pass, got %v", err)
	}
}

func TestValidateGlobalLimit(t *testing.T) {
	code := activeCode()
	code.UsageLimit = pgtype.Int4{Int32: 100, Valid: true}
	code.UsageCount = 100
	v := Validator{Q: &stubQuerier{code: code}, Now: fixedNow}
	if _, err := v.Validate(context.Background(), code.Code, 80000, Identity{}); !errors.Is(err, ErrGlobalUsageLimitReached) {
		t.Fatalf("expected ErrGlobalUsageLimitReached, got %v", err)
	}
}

func TestValidatePerUserLimit(t *testing.T) {
	v := Validator{Q: &stubQuerier{code: activeCode(), usageCount: 1}, Now: fixedNow}
	_, err := v.Validate(context.Background(), "SOMMAR25", 80000, Identity{Email: "kund@example.se"})
	if !errors.Is(err, ErrUserUsageLimitReached) {
		t.Fatalf("expected ErrUserUsageLimitReached, got %v", err)
	}
}

func TestValidateAnonymousSkipsPerUserCheck(t *testing.T) {
	// No user id and no email: nothing to count prior usage against.
	v := Validator{Q: &stubQuerier{code: activeCode(), usageCount: 99}, Now: fixedNow}
	if _, err := v.Validate(context.Background(), "SOMMAR25", 80000, Identity{}); err != nil {
		t.Fatalf("expected anonymous validation to pass, got %v", err)
	}
}

func TestComputeAmountPercentage(t *testing.T) {
	code := activeCode()
	if got := ComputeAmount(code, 80000); got != 20000 {
		t.Fatalf("expected 25%% of 80000 = 20000, got %d", got)
	}
}

func TestComputeAmountPercentageCapped(t *testing.T) {
	code := activeCode()
	code.MaximumDiscount = pgtype.Int8{Int64: 10000, Valid: true}
	if got := ComputeAmount(code, 80000); got != 10000 {
		t.Fatalf("expected cap at 10000, got %d", got)
	}
}

func TestComputeAmountFixedClampedToSubtotal(t *testing.T) {
	code := dbgen.DiscountCode{DiscountType: dbgen.DiscountTypeFixed, Value: 10000}
	if got := ComputeAmount(code, 80000); got != 10000 {
		t.Fatalf("expected fixed 10000, got %d", got)
	}
	if got := ComputeAmount(code, 6000); got != 6000 {
		t.Fatalf("expected clamp to subtotal 6000, got %d", got)
	}
}

type stubSettle struct {
	affected  int64
	incErr    error
	insertErr error
	inserted  []dbgen.InsertDiscountUsageParams
}

func (s *stubSettle) IncrementDiscountUsage(ctx context.Context, id pgtype.UUID) (int64, error) {
	return s.affected, s.incErr
}

func (s *stubSettle) InsertDiscountUsage(ctx context.Context, arg dbgen.InsertDiscountUsageParams) error {
	s.inserted = append(s.inserted, arg)
	return s.insertErr
}

func TestReserveGrantsWhenLimitHasRoom(t *testing.T) {
	q := &stubSettle{affected: 1}
	applied, err := Reserve(context.Background(), q, activeCode())
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !applied {
		t.Fatal("expected reservation to be granted")
	}
}

func TestReserveLoserGetsFalse(t *testing.T) {
	q := &stubSettle{affected: 0}
	applied, err := Reserve(context.Background(), q, activeCode())
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if applied {
		t.Fatal("expected applied=false when the limit is exhausted")
	}
}

func TestRecordUsageWritesRow(t *testing.T) {
	q := &stubSettle{}
	err := RecordUsage(context.Background(), q, activeCode(), pgtype.UUID{}, Identity{Email: "kund@example.se"}, 20000)
	if err != nil {
		t.Fatalf("record usage: %v", err)
	}
	if len(q.inserted) != 1 || q.inserted[0].Amount != 20000 {
		t.Fatalf("expected one usage row with amount 20000, got %+v", q.inserted)
	}
	if q.inserted[0].Email.String != "kund@example.se" {
		t.Fatalf("expected email recorded, got %+v", q.inserted[0].Email)
	}
}
