package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/butikdev/backend-butik/internal/cart"
	"github.com/butikdev/backend-butik/internal/common"
	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
	"github.com/butikdev/backend-butik/internal/discount"
	"github.com/butikdev/backend-butik/internal/events"
	"github.com/butikdev/backend-butik/internal/gateway"
	"github.com/butikdev/backend-butik/internal/lock"
	"github.com/butikdev/backend-butik/internal/money"
	"github.com/butikdev/backend-butik/internal/obs"
	"github.com/butikdev/backend-butik/internal/pricing"
)

var (
	// ErrCartEmpty means there is nothing to materialize; most likely a
	// stale or duplicate confirmation after the cart was already consumed.
	ErrCartEmpty = errors.New("order: cart empty")
	// ErrPaymentNotSucceeded means the gateway does not report the terminal
	// success state for the payment reference.
	ErrPaymentNotSucceeded = errors.New("order: payment not succeeded")
)

const uniqueViolation = "23505"

// Store is the set of queries materialization needs, both inside and
// outside the transaction.
type Store interface {
	GetOrderByPaymentRef(ctx context.Context, paymentReferenceID string) (dbgen.Order, error)
	CreateOrder(ctx context.Context, arg dbgen.CreateOrderParams) (dbgen.Order, error)
	CreateOrderItem(ctx context.Context, arg dbgen.CreateOrderItemParams) error
	ClearCartByOwner(ctx context.Context, ownerKey string) error
	IncrementDiscountUsage(ctx context.Context, id pgtype.UUID) (int64, error)
	InsertDiscountUsage(ctx context.Context, arg dbgen.InsertDiscountUsageParams) error
}

// TxFunc runs fn against a transaction-bound Store, committing when fn
// returns nil and rolling back otherwise.
type TxFunc func(ctx context.Context, fn func(Store) error) error

// PoolTx builds a TxFunc over a pgx pool.
func PoolTx(pool *pgxpool.Pool, q *dbgen.Queries) TxFunc {
	return func(ctx context.Context, fn func(Store) error) error {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)
		if err := fn(q.WithTx(tx)); err != nil {
			return err
		}
		return tx.Commit(ctx)
	}
}

// Input names one confirmation to materialize.
type Input struct {
	Provider        gateway.Provider
	ProviderRef     string
	OwnerKey        string
	UserID          pgtype.UUID
	Email           string
	RegionID        string
	DiscountCode    string
	ShippingAddress json.RawMessage
}

// Materializer turns a verified successful payment into a persisted order.
// The payment reference id is the idempotency key: at most one order ever
// exists per reference, and repeated confirmations return that order.
type Materializer struct {
	Q       Store
	Tx      TxFunc
	Cart    cart.Store
	Engine  pricing.Engine
	Locks   *lock.Locker
	Bus     *events.Bus
	Log     zerolog.Logger
	LockTTL time.Duration
	Now     func() time.Time
}

func (m *Materializer) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Materialize verifies the gateway status and atomically persists the order,
// its line items, the discount settlement, and the cart clear.
func (m *Materializer) Materialize(ctx context.Context, in Input) (dbgen.Order, error) {
	if existing, err := m.Q.GetOrderByPaymentRef(ctx, in.ProviderRef); err == nil {
		return existing, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return dbgen.Order{}, err
	}

	var out dbgen.Order
	run := func(ctx context.Context) error {
		var err error
		out, err = m.materializeLocked(ctx, in)
		return err
	}
	if m.Locks != nil {
		ttl := m.LockTTL
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		if err := m.Locks.WithLock(ctx, "order:materialize:"+in.ProviderRef, ttl, run); err != nil {
			return dbgen.Order{}, err
		}
		return out, nil
	}
	if err := run(ctx); err != nil {
		return dbgen.Order{}, err
	}
	return out, nil
}

func (m *Materializer) materializeLocked(ctx context.Context, in Input) (dbgen.Order, error) {
	// Second look while holding the lock: a concurrent confirmation may
	// have finished between the fast path and lock acquisition.
	if existing, err := m.Q.GetOrderByPaymentRef(ctx, in.ProviderRef); err == nil {
		return existing, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return dbgen.Order{}, err
	}

	provider := in.Provider.Name()
	status, err := in.Provider.Status(ctx, in.ProviderRef)
	if err != nil {
		obs.OrderMaterializedTotal.WithLabelValues(provider, "gateway_error").Inc()
		return dbgen.Order{}, err
	}
	if !status.Succeeded {
		obs.OrderMaterializedTotal.WithLabelValues(provider, "not_succeeded").Inc()
		return dbgen.Order{}, fmt.Errorf("%w: provider reports %q", ErrPaymentNotSucceeded, status.Raw)
	}

	lines, err := m.Cart.Items(ctx, in.OwnerKey)
	if err != nil {
		return dbgen.Order{}, err
	}
	if len(lines) == 0 {
		obs.OrderMaterializedTotal.WithLabelValues(provider, "cart_empty").Inc()
		return dbgen.Order{}, ErrCartEmpty
	}

	who := discount.Identity{UserID: in.UserID, Email: in.Email}
	bd, code, err := m.quote(ctx, in, lines, who)
	if err != nil {
		return dbgen.Order{}, err
	}

	// The gateway-confirmed amount is what was actually captured from the
	// customer and is authoritative; a divergent recomputed total is an
	// anomaly to investigate, never a reason to fail the order.
	if status.Amount > 0 && status.Amount != bd.Total {
		obs.AmountMismatchTotal.Inc()
		m.Log.Warn().
			Str("provider_ref", in.ProviderRef).
			Int64("gateway_amount", status.Amount).
			Int64("recomputed_total", bd.Total).
			Msg("gateway amount diverges from recomputed cart total")
		bd.Total = status.Amount
	}
	currency := bd.Currency
	if status.Currency != "" {
		currency = status.Currency
	}

	var created dbgen.Order
	txErr := m.Tx(ctx, func(qtx Store) error {
		settled := false
		if code != nil {
			applied, err := discount.Reserve(ctx, qtx, *code)
			if err != nil {
				return err
			}
			if !applied {
				obs.DiscountSettleTotal.WithLabelValues("lost_race").Inc()
				bd = m.Engine.Retotal(bd)
				code = nil
			} else {
				settled = true
			}
		}

		created, err = qtx.CreateOrder(ctx, dbgen.CreateOrderParams{
			OrderNumber:        NewOrderNumber(m.now()),
			OwnerKey:           in.OwnerKey,
			UserID:             in.UserID,
			Email:              in.Email,
			PaymentProvider:    provider,
			PaymentReferenceID: in.ProviderRef,
			PaymentStatus:      dbgen.PaymentStatePAID,
			Status:             dbgen.OrderStatusPROCESSING,
			Subtotal:           bd.Subtotal,
			ShippingCost:       bd.ShippingCost,
			DiscountAmount:     bd.DiscountAmount,
			Tax:                bd.TaxExtracted,
			Total:              bd.Total,
			Currency:           currency,
			DiscountCode:       pgtype.Text{String: bd.DiscountCode, Valid: bd.DiscountCode != ""},
			ShippingAddress:    in.ShippingAddress,
		})
		if err != nil {
			return err
		}

		for _, line := range bd.Lines {
			productID, err := common.ToUUID(line.ProductID)
			if err != nil {
				return err
			}
			item := dbgen.CreateOrderItemParams{
				OrderID:   created.ID,
				ProductID: productID,
				Title:     line.Title,
				Sku:       pgtype.Text{String: line.SKU, Valid: line.SKU != ""},
				UnitPrice: line.UnitPrice,
				Qty:       int32(line.Qty),
				LineTotal: line.LineTotal,
			}
			if line.VariantID != "" {
				if item.VariantID, err = common.ToUUID(line.VariantID); err != nil {
					return err
				}
			}
			if err := qtx.CreateOrderItem(ctx, item); err != nil {
				return err
			}
		}

		if settled {
			if err := discount.RecordUsage(ctx, qtx, *code, created.ID, who, bd.DiscountAmount); err != nil {
				return err
			}
			obs.DiscountSettleTotal.WithLabelValues("applied").Inc()
		}

		return qtx.ClearCartByOwner(ctx, in.OwnerKey)
	})
	if txErr != nil {
		// A concurrent confirmation slipped past the lock (e.g. a second
		// instance with its own redis): the unique constraint on the
		// payment reference is the last line of defence.
		var pgErr *pgconn.PgError
		if errors.As(txErr, &pgErr) && pgErr.Code == uniqueViolation {
			if existing, err := m.Q.GetOrderByPaymentRef(ctx, in.ProviderRef); err == nil {
				obs.OrderMaterializedTotal.WithLabelValues(provider, "duplicate").Inc()
				return existing, nil
			}
		}
		obs.OrderMaterializedTotal.WithLabelValues(provider, "error").Inc()
		return dbgen.Order{}, txErr
	}

	obs.OrderMaterializedTotal.WithLabelValues(provider, "created").Inc()
	m.emit(ctx, events.TopicOrderPaid, created.ID, map[string]any{
		"order_number": created.OrderNumber,
		"email":        created.Email,
		"total":        money.ToMajorString(created.Total),
		"currency":     created.Currency,
	})
	return created, nil
}

// quote prices the current cart. A discount that stopped validating between
// intent creation and confirmation is dropped rather than blocking the
// order; the gateway amount already reflects what the customer agreed to.
func (m *Materializer) quote(ctx context.Context, in Input, lines []cart.Line, who discount.Identity) (pricing.Breakdown, *dbgen.DiscountCode, error) {
	input := pricing.Input{Lines: lines, RegionID: in.RegionID, Code: in.DiscountCode, Who: who}
	bd, code, err := m.Engine.Quote(ctx, input)
	if err == nil {
		return bd, code, nil
	}
	if in.DiscountCode != "" && discount.IsValidationError(err) {
		m.Log.Warn().Str("code", in.DiscountCode).Err(err).Msg("discount no longer valid at confirmation, dropping")
		input.Code = ""
		bd, _, err = m.Engine.Quote(ctx, input)
		return bd, nil, err
	}
	return pricing.Breakdown{}, nil, err
}

func (m *Materializer) emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) {
	if m.Bus == nil || !aggregateID.Valid {
		return
	}
	if _, err := m.Bus.Emit(ctx, topic, aggregateID, payload); err != nil {
		m.Log.Warn().Err(err).Str("topic", topic).Msg("emit domain event")
	}
}
