package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/butikdev/backend-butik/internal/money"
	"github.com/butikdev/backend-butik/internal/pricing"
	"github.com/butikdev/backend-butik/internal/resilience"
)

const paypalCompleted = "COMPLETED"

// PayPal talks to a PayPal-compatible checkout orders API. Amounts cross the
// wire as decimal major-unit strings; the token endpoint is called lazily and
// the access token cached until shortly before expiry.
type PayPal struct {
	ClientID string
	Secret   string
	BaseURL  string
	HTTP     resilience.HTTPClient
	Log      zerolog.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

type paypalAmount struct {
	CurrencyCode string           `json:"currency_code"`
	Value        string           `json:"value"`
	Breakdown    *paypalBreakdown `json:"breakdown,omitempty"`
}

type paypalBreakdown struct {
	ItemTotal *paypalMoney `json:"item_total,omitempty"`
	Shipping  *paypalMoney `json:"shipping,omitempty"`
	Discount  *paypalMoney `json:"discount,omitempty"`
}

type paypalMoney struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalPurchaseUnit struct {
	Amount   paypalAmount `json:"amount"`
	CustomID string       `json:"custom_id,omitempty"`
}

type paypalOrderRequest struct {
	Intent        string               `json:"intent"`
	PurchaseUnits []paypalPurchaseUnit `json:"purchase_units"`
}

type paypalOrder struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Amount paypalAmount `json:"amount"`
	} `json:"purchase_units"`
	Links []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

func (p *PayPal) Name() string { return "paypal" }

// CreateIntent creates a CAPTURE-intent order carrying the breakdown in the
// purchase unit's amount breakdown.
func (p *PayPal) CreateIntent(ctx context.Context, bd pricing.Breakdown) (Intent, error) {
	if p.ClientID == "" || p.Secret == "" {
		return Intent{}, fmt.Errorf("%w: paypal credentials not configured", ErrUnavailable)
	}
	if bd.Total <= 0 {
		return Intent{}, fmt.Errorf("%w: amount must be positive", ErrRejected)
	}

	breakdown := &paypalBreakdown{
		ItemTotal: &paypalMoney{CurrencyCode: bd.Currency, Value: money.ToMajorString(bd.Subtotal)},
	}
	if bd.ShippingCost > 0 {
		breakdown.Shipping = &paypalMoney{CurrencyCode: bd.Currency, Value: money.ToMajorString(bd.ShippingCost)}
	}
	if bd.DiscountAmount > 0 {
		breakdown.Discount = &paypalMoney{CurrencyCode: bd.Currency, Value: money.ToMajorString(bd.DiscountAmount)}
	}
	body := paypalOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			Amount: paypalAmount{
				CurrencyCode: bd.Currency,
				Value:        money.ToMajorString(bd.Total),
				Breakdown:    breakdown,
			},
			CustomID: bd.DiscountCode,
		}},
	}

	var order paypalOrder
	if err := p.call(ctx, http.MethodPost, "/v2/checkout/orders", body, &order); err != nil {
		return Intent{}, err
	}
	intent := Intent{Provider: p.Name(), Ref: order.ID, Status: order.Status}
	for _, link := range order.Links {
		if link.Rel == "approve" {
			intent.ApproveURL = link.Href
		}
	}
	return intent, nil
}

// Status fetches the provider's authoritative order state.
func (p *PayPal) Status(ctx context.Context, ref string) (PaymentStatus, error) {
	var order paypalOrder
	if err := p.call(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(ref), nil, &order); err != nil {
		return PaymentStatus{}, err
	}
	return p.toStatus(order)
}

// Capture captures an approved order. PayPal's flow needs this explicit
// server-side step after buyer approval; COMPLETED is the terminal success.
func (p *PayPal) Capture(ctx context.Context, ref string) (PaymentStatus, error) {
	var order paypalOrder
	if err := p.call(ctx, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(ref)+"/capture", struct{}{}, &order); err != nil {
		return PaymentStatus{}, err
	}
	return p.toStatus(order)
}

func (p *PayPal) toStatus(order paypalOrder) (PaymentStatus, error) {
	status := PaymentStatus{
		Ref:       order.ID,
		Raw:       order.Status,
		Succeeded: order.Status == paypalCompleted,
	}
	if len(order.PurchaseUnits) > 0 {
		amount := order.PurchaseUnits[0].Amount
		status.Currency = amount.CurrencyCode
		value, err := money.FromMajorString(amount.Value)
		if err != nil {
			return PaymentStatus{}, fmt.Errorf("%w: parse amount %q: %v", ErrUnavailable, amount.Value, err)
		}
		status.Amount = value
	}
	return status, nil
}

func (p *PayPal) call(ctx context.Context, method, path string, in, out any) error {
	if p.ClientID == "" || p.Secret == "" {
		return fmt.Errorf("%w: paypal credentials not configured", ErrUnavailable)
	}
	token, err := p.token(ctx)
	if err != nil {
		return err
	}

	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(p.BaseURL, "/")+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrRefNotFound
	case resp.StatusCode >= 400:
		p.Log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("paypal rejected request")
		return fmt.Errorf("%w: paypal returned %d", ErrRejected, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func (p *PayPal) token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accessToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.BaseURL, "/")+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.SetBasicAuth(p.ClientID, p.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.HTTP.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrUnavailable, resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode token: %v", ErrUnavailable, err)
	}
	p.accessToken = payload.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(payload.ExpiresIn)*time.Second - 30*time.Second)
	return p.accessToken, nil
}
