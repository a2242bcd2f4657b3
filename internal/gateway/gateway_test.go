package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/systock/kis/types"
)

const testSecret = "0123456789abcdef-gateway"

var testNow = time.Date(2024, 1, 2, 9, 0, 0, 0, types.KST)

type fakeBroker struct {
	intents   []types.OrderIntent
	overseas  []types.OverseasOrderIntent
	canceled  []types.OrderRef
	cancelSym []string
	err       error
}

func (f *fakeBroker) Quote(_ context.Context, symbol string) (*types.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Quote{Symbol: symbol, Price: 71000, Volume: 1200000, Change: 1.5}, nil
}

func (f *fakeBroker) PlaceOrder(_ context.Context, intent types.OrderIntent) (*types.OrderHandle, error) {
	f.intents = append(f.intents, intent)
	if f.err != nil {
		return nil, f.err
	}
	return &types.OrderHandle{OrderID: "0000117057", BranchNo: "06010", Symbol: intent.Symbol, Side: intent.Side, Quantity: intent.Quantity}, nil
}

func (f *fakeBroker) CancelOrder(_ context.Context, ref types.OrderRef) error {
	f.canceled = append(f.canceled, ref)
	return f.err
}

func (f *fakeBroker) CancelAll(_ context.Context, symbol string) ([]string, error) {
	f.cancelSym = append(f.cancelSym, symbol)
	if f.err != nil {
		return []string{"id1"}, f.err
	}
	return []string{"id1", "id3"}, nil
}

func (f *fakeBroker) Balance(context.Context) (*types.Balance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return types.NewBalance(1000000, 1500000, nil), nil
}

func (f *fakeBroker) OpenOrders(context.Context) ([]types.OpenOrderRecord, error) {
	return nil, f.err
}

func (f *fakeBroker) OverseasQuote(_ context.Context, exchange types.Exchange, symbol string) (*types.OverseasQuote, error) {
	return &types.OverseasQuote{Exchange: exchange, Symbol: symbol, Price: decimal.RequireFromString("189.25")}, f.err
}

func (f *fakeBroker) PlaceOverseasOrder(_ context.Context, intent types.OverseasOrderIntent) (*types.OverseasOrderHandle, error) {
	f.overseas = append(f.overseas, intent)
	return &types.OverseasOrderHandle{OrderID: "0030138295", Exchange: intent.Exchange, Symbol: intent.Symbol, Price: intent.Price}, f.err
}

func (f *fakeBroker) OverseasBalance(_ context.Context, _ types.Exchange, currency string) (*types.OverseasBalance, error) {
	return types.NewOverseasBalance(currency, nil), f.err
}

func newTestServer(t *testing.T, b *fakeBroker) http.Handler {
	t.Helper()
	s, err := New(b, Config{JWTSecret: testSecret, Now: func() time.Time { return testNow }})
	require.NoError(t, err)
	return s.Router()
}

func bearer(t *testing.T) string {
	t.Helper()
	tok, err := IssueToken(testSecret, "strategy-a", time.Hour, testNow)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, h http.Handler, method, path, body, auth string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *errorBody      `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New(&fakeBroker{}, Config{})
	assert.Error(t, err)
	_, err = New(nil, Config{JWTSecret: testSecret})
	assert.Error(t, err)
}

func TestHealthz_NoAuth(t *testing.T) {
	w := do(t, newTestServer(t, &fakeBroker{}), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
}

func TestAuth(t *testing.T) {
	h := newTestServer(t, &fakeBroker{})

	expired, err := IssueToken(testSecret, "strategy-a", time.Hour, testNow.Add(-2*time.Hour))
	require.NoError(t, err)
	forged, err := IssueToken("another-secret-entirely", "strategy-a", time.Hour, testNow)
	require.NoError(t, err)

	cases := map[string]string{
		"missing":   "",
		"no scheme": expired,
		"expired":   "Bearer " + expired,
		"forged":    "Bearer " + forged,
	}
	for name, auth := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/api/quotes/005930", "", auth)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", decode(t, w).Error.Code)
		})
	}

	w := do(t, h, http.MethodGet, "/api/quotes/005930", "", bearer(t))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQuote(t *testing.T) {
	w := do(t, newTestServer(t, &fakeBroker{}), http.MethodGet, "/api/quotes/005930", "", bearer(t))
	require.Equal(t, http.StatusOK, w.Code)

	var q types.Quote
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &q))
	assert.Equal(t, "005930", q.Symbol)
	assert.Equal(t, int64(71000), q.Price)
}

func TestPlaceOrder(t *testing.T) {
	b := &fakeBroker{}
	h := newTestServer(t, b)

	w := do(t, h, http.MethodPost, "/api/orders", `{"symbol":"005930","side":"b","quantity":10}`, bearer(t))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, b.intents, 1)
	assert.Equal(t, types.SideBuy, b.intents[0].Side)
	assert.Equal(t, int64(0), b.intents[0].Price)

	w = do(t, h, http.MethodPost, "/api/orders", `{"symbol":"005930","side":"buy","quantity":0}`, bearer(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, h, http.MethodPost, "/api/orders", `{"symbol":"005930","side":"hold","quantity":1}`, bearer(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, h, http.MethodPost, "/api/orders", `{"symbol":"005930","side":"buy","quantity":1,"price":100,"order_type":"stop"}`, bearer(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, b.intents, 1, "rejected requests never reach the broker")
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api", &types.ApiError{ResultCode: "1", Code: "APBK0919", Message: "주문가능금액 초과"}, http.StatusUnprocessableEntity, "APBK0919"},
		{"network", &types.NetworkError{Method: "GET", Path: "/x", StatusCode: 500}, http.StatusBadGateway, "upstream_unavailable"},
		{"auth", &types.AuthError{StatusCode: 403}, http.StatusBadGateway, "upstream_auth"},
		{"timeout", &types.NetworkError{Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "timeout"},
		{"config", &types.ConfigError{Field: "KIS_ACC_NO", Reason: "is required"}, http.StatusInternalServerError, "config"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, newTestServer(t, &fakeBroker{err: tc.err}), http.MethodGet, "/api/balance", "", bearer(t))
			assert.Equal(t, tc.status, w.Code)
			env := decode(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.NotEmpty(t, env.Error.RequestID)
		})
	}
}

func TestCancelOrder(t *testing.T) {
	b := &fakeBroker{}
	h := newTestServer(t, b)

	w := do(t, h, http.MethodDelete, "/api/orders/0000117057?branch_no=06010", "", bearer(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []types.OrderRef{{OrderID: "0000117057", BranchNo: "06010"}}, b.canceled)

	w = do(t, h, http.MethodDelete, "/api/orders/0000117057", "", bearer(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelAll(t *testing.T) {
	b := &fakeBroker{}
	h := newTestServer(t, b)

	w := do(t, h, http.MethodPost, "/api/orders/cancel-all", `{"symbol":" 005930 "}`, bearer(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"canceled":["id1","id3"]}`, string(decode(t, w).Data))

	w = do(t, h, http.MethodPost, "/api/orders/cancel-all", `{"all":true}`, bearer(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"005930", ""}, b.cancelSym)
}

func TestCancelAll_RequiresExplicitScope(t *testing.T) {
	b := &fakeBroker{}
	h := newTestServer(t, b)

	bodies := map[string]string{
		"no body":      "",
		"empty object": `{}`,
		"blank symbol": `{"symbol":"  "}`,
		"all false":    `{"all":false}`,
		"both":         `{"symbol":"005930","all":true}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/orders/cancel-all", body, bearer(t))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, b.cancelSym, "nothing reaches the broker without an explicit scope")
}

func TestCancelAll_PartialOnError(t *testing.T) {
	b := &fakeBroker{err: &types.NetworkError{Err: context.Canceled}}
	w := do(t, newTestServer(t, b), http.MethodPost, "/api/orders/cancel-all", `{"all":true}`, bearer(t))
	assert.Equal(t, statusClientClosed, w.Code)
	env := decode(t, w)
	assert.Equal(t, "canceled", env.Error.Code)
	assert.JSONEq(t, `{"canceled":["id1"]}`, string(env.Data))
}

func TestOpenOrders_EmptyIsArray(t *testing.T) {
	w := do(t, newTestServer(t, &fakeBroker{}), http.MethodGet, "/api/orders/open", "", bearer(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(decode(t, w).Data))
}

func TestOverseas(t *testing.T) {
	b := &fakeBroker{}
	h := newTestServer(t, b)

	w := do(t, h, http.MethodGet, "/api/overseas/quotes/nas/aapl", "", bearer(t))
	require.Equal(t, http.StatusOK, w.Code)
	var q types.OverseasQuote
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &q))
	assert.Equal(t, types.ExchangeNasdaq, q.Exchange)

	w = do(t, h, http.MethodGet, "/api/overseas/quotes/tse/7203", "", bearer(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := `{"exchange":"NASD","symbol":"AAPL","side":"buy","quantity":1,"price":"190.5"}`
	w = do(t, h, http.MethodPost, "/api/overseas/orders", body, bearer(t))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, b.overseas, 1)
	assert.True(t, decimal.RequireFromString("190.5").Equal(b.overseas[0].Price))

	w = do(t, h, http.MethodGet, "/api/overseas/balance?currency=usd", "", bearer(t))
	require.Equal(t, http.StatusOK, w.Code)
}
