package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/butikdev/backend-butik/internal/pricing"
)

func paypalServer(t *testing.T, tokenCalls *int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "hemlig" {
			t.Errorf("unexpected basic auth %q/%q", user, pass)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok_abc","expires_in":3600}`))
	})
	mux.HandleFunc("/", handler)
	return httptest.NewServer(mux)
}

func TestPayPalCreateIntentSendsDecimalBreakdown(t *testing.T) {
	var tokenCalls int32
	var gotOrder paypalOrderRequest
	srv := paypalServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/checkout/orders" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok_abc" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotOrder); err != nil {
			t.Fatalf("decode order: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"PP123","status":"CREATED","links":[{"rel":"approve","href":"https://paypal.example/approve/PP123"}]}`))
	})
	defer srv.Close()

	p := &PayPal{ClientID: "client", Secret: "hemlig", BaseURL: srv.URL, HTTP: testHTTP(), Log: zerolog.Nop()}
	intent, err := p.CreateIntent(context.Background(), pricing.Breakdown{
		Subtotal:       80000,
		ShippingCost:   5000,
		DiscountAmount: 20000,
		Total:          65000,
		Currency:       "SEK",
	})
	if err != nil {
		t.Fatalf("create intent: %v", err)
	}
	if intent.Ref != "PP123" {
		t.Fatalf("unexpected ref %q", intent.Ref)
	}
	if intent.ApproveURL != "https://paypal.example/approve/PP123" {
		t.Fatalf("unexpected approve url %q", intent.ApproveURL)
	}

	if gotOrder.Intent != "CAPTURE" || len(gotOrder.PurchaseUnits) != 1 {
		t.Fatalf("unexpected order request %+v", gotOrder)
	}
	amount := gotOrder.PurchaseUnits[0].Amount
	if amount.Value != "650.00" || amount.CurrencyCode != "SEK" {
		t.Fatalf("unexpected amount %+v", amount)
	}
	if amount.Breakdown.ItemTotal.Value != "800.00" {
		t.Fatalf("item_total = %q, want 800.00", amount.Breakdown.ItemTotal.Value)
	}
	if amount.Breakdown.Shipping.Value != "50.00" {
		t.Fatalf("shipping = %q, want 50.00", amount.Breakdown.Shipping.Value)
	}
	if amount.Breakdown.Discount.Value != "200.00" {
		t.Fatalf("discount = %q, want 200.00", amount.Breakdown.Discount.Value)
	}
}

func TestPayPalTokenIsCached(t *testing.T) {
	var tokenCalls int32
	srv := paypalServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"PP123","status":"COMPLETED","purchase_units":[{"amount":{"currency_code":"SEK","value":"650.00"}}]}`))
	})
	defer srv.Close()

	p := &PayPal{ClientID: "client", Secret: "hemlig", BaseURL: srv.URL, HTTP: testHTTP(), Log: zerolog.Nop()}
	for i := 0; i < 3; i++ {
		if _, err := p.Status(context.Background(), "PP123"); err != nil {
			t.Fatalf("status: %v", err)
		}
	}
	if got := atomic.LoadInt32(&tokenCalls); got != 1 {
		t.Fatalf("expected one token call, got %d", got)
	}
}

func TestPayPalCaptureParsesAmount(t *testing.T) {
	var tokenCalls int32
	srv := paypalServer(t, &tokenCalls, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/checkout/orders/PP123/capture" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"PP123","status":"COMPLETED","purchase_units":[{"amount":{"currency_code":"SEK","value":"650.00"}}]}`))
	})
	defer srv.Close()

	p := &PayPal{ClientID: "client", Secret: "hemlig", BaseURL: srv.URL, HTTP: testHTTP(), Log: zerolog.Nop()}
	status, err := p.Capture(context.Background(), "PP123")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !status.Succeeded {
		t.Fatal("expected succeeded status")
	}
	if status.Amount != 65000 {
		t.Fatalf("amount = %d, want 65000 minor units", status.Amount)
	}
}

func TestPayPalWithoutCredentials(t *testing.T) {
	p := &PayPal{HTTP: testHTTP(), Log: zerolog.Nop()}
	_, err := p.CreateIntent(context.Background(), pricing.Breakdown{Total: 65000, Currency: "SEK"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
