package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wonny/dlmm-orders/internal/api/handlers"
	"github.com/wonny/dlmm-orders/internal/api/ws"
	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/events"
	"github.com/wonny/dlmm-orders/internal/execution"
	"github.com/wonny/dlmm-orders/internal/orders"
	"github.com/wonny/dlmm-orders/internal/pool"
	"github.com/wonny/dlmm-orders/internal/scheduler"
	"github.com/wonny/dlmm-orders/internal/wallet"
	"github.com/wonny/dlmm-orders/pkg/database"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

const testToken = "s3cret-token"

type fixedQuoter struct {
	price decimal.Decimal
}

func (q fixedQuoter) Quote(ctx context.Context, symbol string) contracts.PriceQuote {
	return contracts.PriceQuote{
		Symbol:            symbol,
		Price:             q.price,
		ConfidencePercent: decimal.NewFromInt(95),
		TimestampMs:       time.Now().UnixMilli(),
		Source:            "fixed",
	}
}

func (q fixedQuoter) Prices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(symbols))
	for _, s := range symbols {
		out[s] = q.price
	}
	return out
}

type fakeHealth struct {
	err error
}

func (f fakeHealth) HealthCheck(ctx context.Context) (*database.HealthStatus, error) {
	return &database.HealthStatus{Healthy: f.err == nil, Timestamp: time.Now()}, f.err
}

type testServer struct {
	handler http.Handler
	repo    *orders.MemoryRepository
	adapter *pool.MockAdapter
	hub     *ws.Hub
}

type serverOptions struct {
	tokenHash string
	noSigner  bool
	db        HealthChecker
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	log := logger.Nop()

	var signer wallet.Signer
	if !opts.noSigner {
		kp, _, err := wallet.GenerateKeypair()
		require.NoError(t, err)
		signer = kp
	}

	hub := ws.NewHub(log)
	go hub.Run()
	t.Cleanup(hub.Close)

	repo := orders.NewMemoryRepository()
	adapter := pool.NewMockAdapter()
	service := orders.NewService(repo, adapter, hub, log)
	quoter := fixedQuoter{price: decimal.NewFromInt(100)}

	executor := execution.NewExecutor(repo, adapter, signer, hub, log)
	monitor := execution.NewMonitor(repo, quoter, executor, hub, log)

	sched := scheduler.New(log)

	handler := NewRouter(RouterDeps{
		Orders:         handlers.NewOrderHandler(service, signer, log),
		Market:         handlers.NewMarketHandler(service, quoter, log),
		Monitor:        handlers.NewMonitorHandler(monitor, sched, log),
		Hub:            hub,
		DB:             opts.db,
		TokenHash:      opts.tokenHash,
		MetricsEnabled: true,
	}, log)

	return &testServer{handler: handler, repo: repo, adapter: adapter, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

const stopLossBody = `{"type":"stop-loss","pair":"SOL/USDC","side":"sell","price":"150","amount":"2"}`

func TestHealth(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	rec := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	s = newTestServer(t, serverOptions{db: fakeHealth{err: errors.New("connection refused")}})
	rec = s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

func TestPlaceAndListOrders(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec := s.do(t, http.MethodPost, "/api/orders", stopLossBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var placed orders.OrderResult
	decodeBody(t, rec, &placed)
	assert.True(t, placed.Success)
	assert.NotEmpty(t, placed.OrderID)

	rec = s.do(t, http.MethodGet, "/api/orders?type=stop-loss&status=pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Orders []contracts.Order `json:"orders"`
		Count  int               `json:"count"`
	}
	decodeBody(t, rec, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, placed.OrderID, list.Orders[0].ID)
	assert.True(t, list.Orders[0].Trigger().Equal(decimal.NewFromInt(150)))

	rec = s.do(t, http.MethodGet, "/api/orders/"+placed.OrderID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/positions?pair=SOL/USDC", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), placed.OrderID)
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		noSigner bool
		failOp   string
		status   int
		message  string
	}{
		{"zero price", `{"type":"limit","pair":"SOL/USDC","side":"buy","price":"0","amount":"1"}`, false, "", http.StatusBadRequest, "Please enter a valid price and amount"},
		{"unknown pair", `{"type":"limit","pair":"BONK/USDC","side":"buy","price":"1","amount":"1"}`, false, "", http.StatusBadRequest, "Unsupported trading pair"},
		{"not connected", stopLossBody, true, "", http.StatusUnauthorized, "Please connect your wallet"},
		{"network", stopLossBody, false, pool.OpPlace, http.StatusBadGateway, "Network error, please try again"},
		{"pool missing", stopLossBody, false, pool.OpResolve, http.StatusNotFound, "No pool found for this pair"},
		{"bad json", `{"type":`, false, "", http.StatusBadRequest, "Invalid request body"},
		{"unknown field", `{"type":"limit","bogus":1}`, false, "", http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, serverOptions{noSigner: tt.noSigner})
			switch tt.failOp {
			case pool.OpPlace:
				s.adapter.FailOn(tt.failOp, contracts.ErrNetwork)
			case pool.OpResolve:
				s.adapter.FailOn(tt.failOp, contracts.ErrPoolNotFound)
			}

			rec := s.do(t, http.MethodPost, "/api/orders", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body handlers.ErrorResponse
			decodeBody(t, rec, &body)
			assert.Equal(t, tt.message, body.Error)

			list, _ := s.repo.List(context.Background(), contracts.OrderFilter{})
			assert.Empty(t, list)
		})
	}
}

func TestCancelRerunRemove(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec := s.do(t, http.MethodPost, "/api/orders", stopLossBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed orders.OrderResult
	decodeBody(t, rec, &placed)

	rec = s.do(t, http.MethodPost, "/api/orders/"+placed.OrderID+"/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"canceled"`)

	rec = s.do(t, http.MethodPost, "/api/orders/"+placed.OrderID+"/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/orders/"+placed.OrderID+"/rerun", "")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/orders/"+placed.OrderID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/orders/"+placed.OrderID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/orders/missing/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarketEndpoints(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec := s.do(t, http.MethodGet, "/api/pairs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "USDC/USDT")

	rec = s.do(t, http.MethodGet, "/api/pools", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), pool.PaperAddress("SOL/USDC"))

	rec = s.do(t, http.MethodGet, "/api/pools/SOL/USDC/bin?price=150", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var preview orders.BinPreview
	decodeBody(t, rec, &preview)
	assert.Equal(t, "SOL/USDC", preview.Pair)
	assert.Equal(t, 10, preview.BinStep)

	rec = s.do(t, http.MethodGet, "/api/pools/SOL/USDC/bin?price=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/prices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var prices struct {
		Quotes []contracts.PriceQuote `json:"quotes"`
	}
	decodeBody(t, rec, &prices)
	require.Len(t, prices.Quotes, 2) // SOL/USD, USDC/USD
	assert.Equal(t, "SOL/USD", prices.Quotes[0].Symbol)

	rec = s.do(t, http.MethodGet, "/api/prices?symbols=usdt/usd", "")
	decodeBody(t, rec, &prices)
	require.Len(t, prices.Quotes, 1)
	assert.Equal(t, "USDT/USD", prices.Quotes[0].Symbol)
}

func TestMonitorEndpoints(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	rec := s.do(t, http.MethodGet, "/api/monitor", "")
	assert.Contains(t, rec.Body.String(), `"ticked":false`)

	// trigger 150 vs quoted 100: executes on the tick
	rec = s.do(t, http.MethodPost, "/api/orders", stopLossBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed orders.OrderResult
	decodeBody(t, rec, &placed)

	rec = s.do(t, http.MethodPost, "/api/monitor/tick", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report execution.TickReport
	decodeBody(t, rec, &report)
	assert.Equal(t, []string{placed.OrderID}, report.Executed)

	rec = s.do(t, http.MethodGet, "/api/monitor", "")
	assert.Contains(t, rec.Body.String(), `"ticked":true`)

	rec = s.do(t, http.MethodGet, "/api/jobs", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/jobs/missing/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTokenAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(testToken), bcrypt.MinCost)
	require.NoError(t, err)
	s := newTestServer(t, serverOptions{tokenHash: string(hash)})

	rec := s.do(t, http.MethodPost, "/api/orders", stopLossBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/orders", stopLossBody, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/orders", stopLossBody, "Authorization", "Bearer "+testToken)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// reads stay open
	rec = s.do(t, http.MethodGet, "/api/orders", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHashToken(t *testing.T) {
	_, err := HashToken("")
	assert.ErrorIs(t, err, ErrEmptyToken)

	_, err = HashToken(strings.Repeat("x", 73))
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	rec := s.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebsocketReceivesOrderEvents(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	server := httptest.NewServer(s.handler)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	rec := s.do(t, http.MethodPost, "/api/orders", stopLossBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var event events.Event
	require.NoError(t, json.Unmarshal(message, &event))
	assert.Equal(t, events.OrderPlaced, event.Type)
	assert.Equal(t, "SOL/USDC", event.Pair)
}
