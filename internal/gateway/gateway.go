package gateway

import (
	"context"
	"errors"

	"github.com/butikdev/backend-butik/internal/money"
	"github.com/butikdev/backend-butik/internal/pricing"
)

var (
	// ErrUnavailable means the gateway cannot be reached or is not
	// configured. A configuration gap is an operator problem, not a user
	// error, and surfaces as a 5xx.
	ErrUnavailable = errors.New("gateway: unavailable")
	// ErrRejected means the provider declined the request, for example an
	// intent for a non-positive amount.
	ErrRejected = errors.New("gateway: rejected")
	// ErrRefNotFound means the provider does not know the given reference.
	ErrRefNotFound = errors.New("gateway: reference not found")
)

// Intent is a freshly created provider-side payment intent or order. No
// local record exists at this point; until confirmation the intent lives
// only at the gateway.
type Intent struct {
	Provider     string
	Ref          string
	ClientSecret string
	ApproveURL   string
	Status       string
}

// PaymentStatus is the provider's authoritative view of a payment.
type PaymentStatus struct {
	Ref       string
	Raw       string
	Succeeded bool
	Amount    money.Money
	Currency  string
}

// Provider creates payment intents and reports their authoritative status.
// The breakdown travels to the gateway as informational metadata only; the
// cart remains the source of truth at confirmation time.
type Provider interface {
	Name() string
	CreateIntent(ctx context.Context, bd pricing.Breakdown) (Intent, error)
	Status(ctx context.Context, ref string) (PaymentStatus, error)
}

// Capturer is implemented by providers whose flow needs an explicit
// server-side capture step after buyer approval.
type Capturer interface {
	Capture(ctx context.Context, ref string) (PaymentStatus, error)
}
