package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/butikdev/backend-butik/internal/pricing"
	"github.com/butikdev/backend-butik/internal/resilience"
)

const stripeSucceeded = "succeeded"

// Stripe talks to a Stripe-compatible payment intent API. Requests are form
// encoded and authenticated with the secret key as a bearer token.
type Stripe struct {
	SecretKey string
	BaseURL   string
	HTTP      resilience.HTTPClient
	Log       zerolog.Logger
}

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Stripe) Name() string { return "stripe" }

// CreateIntent creates a payment intent for the breakdown's total. The full
// breakdown rides along as string metadata; it is the only pricing context
// that survives the client's redirect to the payment page.
func (s *Stripe) CreateIntent(ctx context.Context, bd pricing.Breakdown) (Intent, error) {
	if s.SecretKey == "" {
		return Intent{}, fmt.Errorf("%w: stripe credentials not configured", ErrUnavailable)
	}
	if bd.Total <= 0 {
		return Intent{}, fmt.Errorf("%w: amount must be positive", ErrRejected)
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(bd.Total, 10))
	form.Set("currency", strings.ToLower(bd.Currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("metadata[subtotal]", strconv.FormatInt(bd.Subtotal, 10))
	form.Set("metadata[shipping_cost]", strconv.FormatInt(bd.ShippingCost, 10))
	form.Set("metadata[discount_amount]", strconv.FormatInt(bd.DiscountAmount, 10))
	form.Set("metadata[tax]", strconv.FormatInt(bd.TaxExtracted, 10))
	if bd.DiscountCode != "" {
		form.Set("metadata[discount_code]", bd.DiscountCode)
	}

	var intent stripeIntent
	if err := s.call(ctx, http.MethodPost, "/v1/payment_intents", form, &intent); err != nil {
		return Intent{}, err
	}
	return Intent{
		Provider:     s.Name(),
		Ref:          intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       intent.Status,
	}, nil
}

// Status fetches the provider's authoritative intent state.
func (s *Stripe) Status(ctx context.Context, ref string) (PaymentStatus, error) {
	if s.SecretKey == "" {
		return PaymentStatus{}, fmt.Errorf("%w: stripe credentials not configured", ErrUnavailable)
	}
	var intent stripeIntent
	if err := s.call(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(ref), nil, &intent); err != nil {
		return PaymentStatus{}, err
	}
	return PaymentStatus{
		Ref:       intent.ID,
		Raw:       intent.Status,
		Succeeded: intent.Status == stripeSucceeded,
		Amount:    intent.Amount,
		Currency:  strings.ToUpper(intent.Currency),
	}, nil
}

func (s *Stripe) call(ctx context.Context, method, path string, form url.Values, out any) error {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.BaseURL, "/")+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrRefNotFound
	case resp.StatusCode >= 400:
		var se stripeError
		_ = json.NewDecoder(resp.Body).Decode(&se)
		s.Log.Warn().
			Int("status", resp.StatusCode).
			Str("code", se.Error.Code).
			Str("type", se.Error.Type).
			Msg("stripe rejected request")
		return fmt.Errorf("%w: %s", ErrRejected, se.Error.Message)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
