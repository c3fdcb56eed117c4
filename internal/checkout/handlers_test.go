package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/butikdev/backend-butik/internal/cart"
	"github.com/butikdev/backend-butik/internal/catalog"
	"github.com/butikdev/backend-butik/internal/common"
	dbgen "github.com/butikdev/backend-butik/internal/db/gen"
	"github.com/butikdev/backend-butik/internal/discount"
	"github.com/butikdev/backend-butik/internal/gateway"
	"github.com/butikdev/backend-butik/internal/obs"
	"github.com/butikdev/backend-butik/internal/order"
	"github.com/butikdev/backend-butik/internal/pricing"
	"github.com/butikdev/backend-butik/internal/shipping"
)

func TestMain(m *testing.M) {
	obs.MustRegisterDomainMetrics("butik_test", prometheus.NewRegistry())
	os.Exit(m.Run())
}

const (
	testProductID = "11111111-1111-1111-1111-111111111111"
	testOwner     = "anon:a0a0a0a0-0000-0000-0000-000000000000"
)

type fakeCatalog map[string]catalog.Unit

func (f fakeCatalog) Resolve(ctx context.Context, productID, variantID string) (catalog.Unit, error) {
	unit, ok := f[productID]
	if !ok {
		return catalog.Unit{}, catalog.ErrNotFound
	}
	return unit, nil
}

type fakeCart struct {
	lines []cart.Line
}

func (f *fakeCart) Items(ctx context.Context, ownerKey string) ([]cart.Line, error) {
	return f.lines, nil
}

type fakeProvider struct {
	name      string
	intent    gateway.Intent
	intentErr error
	status    gateway.PaymentStatus
	captured  []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) CreateIntent(ctx context.Context, bd pricing.Breakdown) (gateway.Intent, error) {
	return f.intent, f.intentErr
}

func (f *fakeProvider) Status(ctx context.Context, ref string) (gateway.PaymentStatus, error) {
	return f.status, nil
}

func (f *fakeProvider) Capture(ctx context.Context, ref string) (gateway.PaymentStatus, error) {
	f.captured = append(f.captured, ref)
	return f.status, nil
}

type stubDiscountQuerier struct {
	code    dbgen.DiscountCode
	codeErr error
}

func (s *stubDiscountQuerier) GetDiscountCodeByCode(ctx context.Context, code string) (dbgen.DiscountCode, error) {
	return s.code, s.codeErr
}

func (s *stubDiscountQuerier) CountDiscountUsageByIdentity(ctx context.Context, arg dbgen.CountDiscountUsageByIdentityParams) (int64, error) {
	return 0, nil
}

type stubShippingQuerier struct{}

func (stubShippingQuerier) GetActiveShippingRegion(ctx context.Context, id pgtype.UUID) (dbgen.ShippingRegion, error) {
	return dbgen.ShippingRegion{}, pgx.ErrNoRows
}

type stubStore struct {
	existing map[string]dbgen.Order
	cleared  int
}

func (s *stubStore) GetOrderByPaymentRef(ctx context.Context, ref string) (dbgen.Order, error) {
	if o, ok := s.existing[ref]; ok {
		return o, nil
	}
	return dbgen.Order{}, pgx.ErrNoRows
}

func (s *stubStore) CreateOrder(ctx context.Context, arg dbgen.CreateOrderParams) (dbgen.Order, error) {
	if _, ok := s.existing[arg.PaymentReferenceID]; ok {
		return dbgen.Order{}, &pgconn.PgError{Code: "23505"}
	}
	o := dbgen.Order{
		ID:                 pgtype.UUID{Bytes: [16]byte{7}, Valid: true},
		OrderNumber:        arg.OrderNumber,
		OwnerKey:           arg.OwnerKey,
		PaymentReferenceID: arg.PaymentReferenceID,
		PaymentStatus:      arg.PaymentStatus,
		Status:             arg.Status,
		Total:              arg.Total,
		Currency:           arg.Currency,
	}
	s.existing[arg.PaymentReferenceID] = o
	return o, nil
}

func (s *stubStore) CreateOrderItem(ctx context.Context, arg dbgen.CreateOrderItemParams) error {
	return nil
}

func (s *stubStore) ClearCartByOwner(ctx context.Context, ownerKey string) error {
	s.cleared++
	return nil
}

func (s *stubStore) IncrementDiscountUsage(ctx context.Context, id pgtype.UUID) (int64, error) {
	return 1, nil
}

func (s *stubStore) InsertDiscountUsage(ctx context.Context, arg dbgen.InsertDiscountUsageParams) error {
	return nil
}

func testHandlers(provider *fakeProvider, dq discount.Querier, store *stubStore) *Handlers {
	engine := pricing.Engine{
		Catalog:   fakeCatalog{testProductID: {ProductID: testProductID, Title: "Ulltröja", UnitPrice: 40000}},
		Shipping:  shipping.Calculator{Q: stubShippingQuerier{}},
		Discounts: discount.Validator{Q: dq},
		Currency:  "SEK",
		TaxBps:    2500,
		Log:       zerolog.Nop(),
	}
	carts := &fakeCart{lines: []cart.Line{{ProductID: testProductID, Qty: 2}}}
	mat := &order.Materializer{
		Q:      store,
		Tx:     func(ctx context.Context, fn func(order.Store) error) error { return fn(store) },
		Cart:   carts,
		Engine: engine,
		Log:    zerolog.Nop(),
	}
	return &Handlers{
		Engine:    engine,
		Cart:      carts,
		Providers: map[string]gateway.Provider{provider.name: provider},
		Mat:       mat,
		Validate:  validator.New(),
		Log:       zerolog.Nop(),
	}
}

func doRequest(h http.HandlerFunc, method, target string, body any, routeParams map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	ctx := common.WithCartOwner(req.Context(), testOwner)
	if len(routeParams) > 0 {
		routeCtx := chi.NewRouteContext()
		for key, value := range routeParams {
			routeCtx.URLParams.Add(key, value)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx))
	return rec
}

func TestQuoteReturnsBreakdown(t *testing.T) {
	h := testHandlers(&fakeProvider{name: "stripe"}, &stubDiscountQuerier{}, &stubStore{existing: map[string]dbgen.Order{}})

	rec := doRequest(h.Quote, http.MethodPost, "/checkout/quote", map[string]any{}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data breakdownResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.EqualValues(t, 80000, resp.Data.Subtotal)
	require.EqualValues(t, 16000, resp.Data.TaxExtracted)
	require.EqualValues(t, 80000, resp.Data.Total)
	require.Len(t, resp.Data.Lines, 1)
}

func TestValidateDiscountHappyPath(t *testing.T) {
	dq := &stubDiscountQuerier{code: dbgen.DiscountCode{
		Code:         "SOMMAR25",
		DiscountType: dbgen.DiscountTypePercentage,
		Value:        25,
		Active:       true,
	}}
	h := testHandlers(&fakeProvider{name: "stripe"}, dq, &stubStore{existing: map[string]dbgen.Order{}})

	rec := doRequest(h.ValidateDiscount, http.MethodPost, "/checkout/validate-discount",
		map[string]any{"code": "SOMMAR25", "subtotal": 80000}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Valid          bool  `json:"valid"`
		DiscountAmount int64 `json:"discountAmount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Valid)
	require.EqualValues(t, 20000, resp.DiscountAmount)
}

func TestValidateDiscountNotFound(t *testing.T) {
	h := testHandlers(&fakeProvider{name: "stripe"}, &stubDiscountQuerier{codeErr: pgx.ErrNoRows}, &stubStore{existing: map[string]dbgen.Order{}})

	rec := doRequest(h.ValidateDiscount, http.MethodPost, "/checkout/validate-discount",
		map[string]any{"code": "NOPE", "subtotal": 80000}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "CODE_NOT_FOUND")
}

func TestCreateIntentHappyPath(t *testing.T) {
	provider := &fakeProvider{
		name:   "stripe",
		intent: gateway.Intent{Provider: "stripe", Ref: "pi_123", ClientSecret: "pi_123_secret"},
	}
	h := testHandlers(provider, &stubDiscountQuerier{}, &stubStore{existing: map[string]dbgen.Order{}})

	rec := doRequest(h.CreateIntent, http.MethodPost, "/payments/stripe/create-intent",
		map[string]any{}, map[string]string{"provider": "stripe"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "pi_123_secret")
}

func TestCreateIntentEmptyCart(t *testing.T) {
	h := testHandlers(&fakeProvider{name: "stripe"}, &stubDiscountQuerier{}, &stubStore{existing: map[string]dbgen.Order{}})
	h.Cart = &fakeCart{}

	rec := doRequest(h.CreateIntent, http.MethodPost, "/payments/stripe/create-intent",
		map[string]any{}, map[string]string{"provider": "stripe"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "CART_EMPTY")
}

func TestCreateIntentGatewayUnavailable(t *testing.T) {
	provider := &fakeProvider{name: "stripe", intentErr: gateway.ErrUnavailable}
	h := testHandlers(provider, &stubDiscountQuerier{}, &stubStore{existing: map[string]dbgen.Order{}})

	rec := doRequest(h.CreateIntent, http.MethodPost, "/payments/stripe/create-intent",
		map[string]any{}, map[string]string{"provider": "stripe"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "GATEWAY_UNAVAILABLE")
}

func TestCreateIntentUnknownProvider(t *testing.T) {
	h := testHandlers(&fakeProvider{name: "stripe"}, &stubDiscountQuerier{}, &stubStore{existing: map[string]dbgen.Order{}})

	rec := doRequest(h.CreateIntent, http.MethodPost, "/payments/swish/create-intent",
		map[string]any{}, map[string]string{"provider": "swish"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func confirmBody() map[string]any {
	return map[string]any{
		"providerRef":     "pi_123",
		"email":           "kund@example.se",
		"shippingAddress": map[string]any{"street": "Storgatan 1", "city": "Stockholm"},
	}
}

func TestConfirmPaymentMaterializesOrder(t *testing.T) {
	provider := &fakeProvider{
		name:   "stripe",
		status: gateway.PaymentStatus{Ref: "pi_123", Raw: "succeeded", Succeeded: true, Amount: 80000, Currency: "SEK"},
	}
	store := &stubStore{existing: map[string]dbgen.Order{}}
	h := testHandlers(provider, &stubDiscountQuerier{}, store)

	rec := doRequest(h.ConfirmPayment, http.MethodPost, "/checkout/confirm-payment", confirmBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		OrderNumber string `json:"orderNumber"`
		Total       int64  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.OrderNumber)
	require.EqualValues(t, 80000, resp.Total)
	require.Equal(t, 1, store.cleared)
}

func TestConfirmPaymentIsRetrySafe(t *testing.T) {
	provider := &fakeProvider{
		name:   "stripe",
		status: gateway.PaymentStatus{Ref: "pi_123", Raw: "succeeded", Succeeded: true, Amount: 80000, Currency: "SEK"},
	}
	store := &stubStore{existing: map[string]dbgen.Order{}}
	h := testHandlers(provider, &stubDiscountQuerier{}, store)

	first := doRequest(h.ConfirmPayment, http.MethodPost, "/checkout/confirm-payment", confirmBody(), nil)
	second := doRequest(h.ConfirmPayment, http.MethodPost, "/checkout/confirm-payment", confirmBody(), nil)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, 1, store.cleared, "cart must be cleared exactly once")

	var a, b struct {
		OrderNumber string `json:"orderNumber"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	require.Equal(t, a.OrderNumber, b.OrderNumber)
}

func TestConfirmPaymentNotSucceeded(t *testing.T) {
	provider := &fakeProvider{
		name:   "stripe",
		status: gateway.PaymentStatus{Ref: "pi_123", Raw: "requires_payment_method"},
	}
	h := testHandlers(provider, &stubDiscountQuerier{}, &stubStore{existing: map[string]dbgen.Order{}})

	rec := doRequest(h.ConfirmPayment, http.MethodPost, "/checkout/confirm-payment", confirmBody(), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "PAYMENT_NOT_SUCCEEDED")
}

func TestConfirmPaymentValidation(t *testing.T) {
	h := testHandlers(&fakeProvider{name: "stripe"}, &stubDiscountQuerier{}, &stubStore{existing: map[string]dbgen.Order{}})

	rec := doRequest(h.ConfirmPayment, http.MethodPost, "/checkout/confirm-payment",
		map[string]any{"email": "kund@example.se"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestPayPalCapturePassthrough(t *testing.T) {
	provider := &fakeProvider{
		name:   "paypal",
		status: gateway.PaymentStatus{Ref: "PP123", Raw: "COMPLETED", Succeeded: true, Amount: 80000, Currency: "SEK"},
	}
	h := testHandlers(provider, &stubDiscountQuerier{}, &stubStore{existing: map[string]dbgen.Order{}})

	rec := doRequest(h.PayPalCapture, http.MethodPost, "/payments/paypal/capture",
		map[string]any{"orderId": "PP123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "COMPLETED")
	require.Equal(t, []string{"PP123"}, provider.captured)
}
