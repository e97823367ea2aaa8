package execution

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/events"
	"github.com/wonny/dlmm-orders/internal/oracle"
	"github.com/wonny/dlmm-orders/internal/orders"
	"github.com/wonny/dlmm-orders/internal/pool"
	"github.com/wonny/dlmm-orders/internal/wallet"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

// scriptedPrices returns the next price of a fixed sequence on every call
type scriptedPrices struct {
	mu       sync.Mutex
	sequence []decimal.Decimal
	calls    [][]string
}

func (s *scriptedPrices) Prices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, append([]string(nil), symbols...))
	if len(s.sequence) == 0 {
		return map[string]decimal.Decimal{}
	}
	price := s.sequence[0]
	if len(s.sequence) > 1 {
		s.sequence = s.sequence[1:]
	}

	out := make(map[string]decimal.Decimal, len(symbols))
	for _, symbol := range symbols {
		out[symbol] = price
	}
	return out
}

func prices(values ...int64) *scriptedPrices {
	seq := make([]decimal.Decimal, len(values))
	for i, v := range values {
		seq[i] = decimal.NewFromInt(v)
	}
	return &scriptedPrices{sequence: seq}
}

// countingProvider is an oracle provider that counts calls per symbol
type countingProvider struct {
	mu    sync.Mutex
	calls map[string]int
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[symbol]++
	return decimal.NewFromInt(200), nil
}

type monitorFixture struct {
	repo     *orders.MemoryRepository
	service  *orders.Service
	adapter  *pool.MockAdapter
	signer   wallet.Signer
	recorder *events.Recorder
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()
	signer, _, err := wallet.GenerateKeypair()
	require.NoError(t, err)

	repo := orders.NewMemoryRepository()
	adapter := pool.NewMockAdapter()
	recorder := &events.Recorder{}

	return &monitorFixture{
		repo:     repo,
		service:  orders.NewService(repo, adapter, recorder, logger.Nop()),
		adapter:  adapter,
		signer:   signer,
		recorder: recorder,
	}
}

func (f *monitorFixture) placeStopLoss(t *testing.T, pair string, trigger int64) string {
	t.Helper()
	result, err := f.service.PlaceOrder(context.Background(), orders.PlaceParams{
		Type:   contracts.OrderTypeStopLoss,
		Pair:   pair,
		Side:   contracts.OrderSideSell,
		Price:  decimal.NewFromInt(trigger),
		Amount: decimal.NewFromInt(1),
	}, f.signer)
	require.NoError(t, err)
	return result.OrderID
}

func (f *monitorFixture) monitor(source PriceSource, signer wallet.Signer) *Monitor {
	executor := NewExecutor(f.repo, f.adapter, signer, f.recorder, logger.Nop())
	return NewMonitor(f.repo, source, executor, f.recorder, logger.Nop())
}

func (f *monitorFixture) status(t *testing.T, id string) contracts.Status {
	t.Helper()
	order, err := f.repo.Get(context.Background(), id)
	require.NoError(t, err)
	return order.Status
}

func TestMonitor_ExecutesOnlyWhenPriceReachesTrigger(t *testing.T) {
	f := newMonitorFixture(t)
	id := f.placeStopLoss(t, "SOL/USDC", 150)
	m := f.monitor(prices(160, 155, 148), f.signer)
	ctx := context.Background()

	report := m.Tick(ctx)
	assert.Empty(t, report.Triggered)
	assert.Equal(t, contracts.StatusPending, f.status(t, id))

	report = m.Tick(ctx)
	assert.Empty(t, report.Triggered)
	assert.Equal(t, contracts.StatusPending, f.status(t, id))

	report = m.Tick(ctx)
	assert.Equal(t, []string{id}, report.Triggered)
	assert.Equal(t, []string{id}, report.Executed)
	assert.Equal(t, contracts.StatusExecuted, f.status(t, id))
	assert.Equal(t, 1, f.adapter.Calls(pool.OpClose))

	assert.Len(t, f.recorder.OfType(events.StopLossTrigger), 1)
	assert.Len(t, f.recorder.OfType(events.OrderExecuted), 1)

	// executed orders drop out of later ticks
	report = m.Tick(ctx)
	assert.Equal(t, 0, report.Pending)
	assert.Equal(t, 1, f.adapter.Calls(pool.OpClose))
}

func TestMonitor_TriggerIsInclusive(t *testing.T) {
	order := contracts.Order{Type: contracts.OrderTypeStopLoss, Price: decimal.NewFromInt(150)}
	assert.True(t, Triggered(order, decimal.NewFromInt(150)))
	assert.True(t, Triggered(order, decimal.RequireFromString("149.99")))
	assert.False(t, Triggered(order, decimal.RequireFromString("150.01")))
}

func TestMonitor_DeduplicatesSymbols(t *testing.T) {
	f := newMonitorFixture(t)
	for i := 0; i < 3; i++ {
		f.placeStopLoss(t, "SOL/USDC", 100)
	}
	source := prices(200)
	report := f.monitor(source, f.signer).Tick(context.Background())

	assert.Equal(t, 3, report.Pending)
	require.Len(t, source.calls, 1)
	assert.Equal(t, []string{"SOL/USD"}, source.calls[0])
}

func TestMonitor_OneOracleFetchPerSymbol(t *testing.T) {
	f := newMonitorFixture(t)
	for i := 0; i < 3; i++ {
		f.placeStopLoss(t, "SOL/USDC", 100)
	}
	f.placeStopLoss(t, "SOL/USDT", 100)
	f.placeStopLoss(t, "USDC/USDT", 1)

	provider := &countingProvider{calls: map[string]int{}}
	aggregator := oracle.NewAggregator(oracle.NewIntervalThrottle(time.Millisecond), logger.Nop(),
		oracle.NewSyntheticProvider(), provider)

	f.monitor(aggregator, f.signer).Tick(context.Background())

	assert.Equal(t, map[string]int{"SOL/USD": 1, "USDC/USD": 1}, provider.calls)
}

func TestMonitor_ExecutionFailureCancels(t *testing.T) {
	f := newMonitorFixture(t)
	id := f.placeStopLoss(t, "SOL/USDC", 150)
	f.adapter.FailOn(pool.OpClose, contracts.ErrNetwork)

	report := f.monitor(prices(140), f.signer).Tick(context.Background())
	assert.Equal(t, []string{id}, report.Canceled)
	assert.Equal(t, contracts.StatusCanceled, f.status(t, id))

	failed := f.recorder.OfType(events.ExecutionFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "Network error, please try again", failed[0].Error)
}

func TestMonitor_MissingPoolAddressCancels(t *testing.T) {
	f := newMonitorFixture(t)
	trigger := decimal.NewFromInt(150)
	require.NoError(t, f.repo.Save(context.Background(), contracts.Order{
		ID:           "legacy",
		Pair:         "SOL/USDC",
		Type:         contracts.OrderTypeStopLoss,
		Side:         contracts.OrderSideSell,
		Price:        trigger,
		TriggerPrice: &trigger,
		Amount:       decimal.NewFromInt(1),
		Status:       contracts.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}))

	report := f.monitor(prices(100), f.signer).Tick(context.Background())
	assert.Equal(t, []string{"legacy"}, report.Canceled)
	assert.Equal(t, 0, f.adapter.Calls(pool.OpClose))
}

func TestMonitor_NoSignerLeavesPending(t *testing.T) {
	f := newMonitorFixture(t)
	id := f.placeStopLoss(t, "SOL/USDC", 150)

	report := f.monitor(prices(100), nil).Tick(context.Background())
	assert.Equal(t, []string{id}, report.Triggered)
	assert.Equal(t, []string{id}, report.Skipped)
	assert.Equal(t, contracts.StatusPending, f.status(t, id))
	assert.Equal(t, 0, f.adapter.Calls(pool.OpClose))
}

func TestMonitor_MissingPriceSkipsOrder(t *testing.T) {
	f := newMonitorFixture(t)
	id := f.placeStopLoss(t, "SOL/USDC", 150)

	report := f.monitor(&scriptedPrices{}, f.signer).Tick(context.Background())
	assert.Equal(t, []string{id}, report.Skipped)
	assert.Equal(t, contracts.StatusPending, f.status(t, id))
}

func TestMonitor_IgnoresLimitAndCanceledOrders(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()

	id := f.placeStopLoss(t, "SOL/USDC", 150)
	_, err := f.service.Cancel(ctx, id, f.signer)
	require.NoError(t, err)

	_, err = f.service.PlaceOrder(ctx, orders.PlaceParams{
		Type:   contracts.OrderTypeLimit,
		Pair:   "SOL/USDC",
		Side:   contracts.OrderSideBuy,
		Price:  decimal.NewFromInt(150),
		Amount: decimal.NewFromInt(1),
	}, f.signer)
	require.NoError(t, err)

	source := prices(100)
	report := f.monitor(source, f.signer).Tick(ctx)
	assert.Equal(t, 0, report.Pending)
	assert.Empty(t, source.calls)
	assert.Equal(t, contracts.StatusCanceled, f.status(t, id))
}

func TestExecutor_DoesNotOverwriteTerminalStatus(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()
	id := f.placeStopLoss(t, "SOL/USDC", 150)

	order, err := f.repo.Get(ctx, id)
	require.NoError(t, err)
	require.NoError(t, f.repo.Update(ctx, id, contracts.StatusPatch(contracts.StatusExecuted)))

	executor := NewExecutor(f.repo, f.adapter, f.signer, nil, logger.Nop())
	status, err := executor.Execute(ctx, order)
	assert.ErrorIs(t, err, contracts.ErrOrderNotPending)
	assert.Equal(t, contracts.StatusExecuted, status)
	assert.Equal(t, contracts.StatusExecuted, f.status(t, id))
	assert.Equal(t, 0, f.adapter.Calls(pool.OpClose))
}

func TestExecutor_StaleSnapshotSettlesOnce(t *testing.T) {
	f := newMonitorFixture(t)
	ctx := context.Background()
	id := f.placeStopLoss(t, "SOL/USDC", 150)

	snapshot, err := f.repo.Get(ctx, id)
	require.NoError(t, err)

	// two monitor sessions holding the same pending snapshot
	first := NewExecutor(f.repo, f.adapter, f.signer, f.recorder, logger.Nop())
	second := NewExecutor(f.repo, f.adapter, f.signer, f.recorder, logger.Nop())

	status, err := first.Execute(ctx, snapshot)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusExecuted, status)

	_, err = second.Execute(ctx, snapshot)
	assert.ErrorIs(t, err, contracts.ErrOrderNotPending)

	assert.Equal(t, 1, f.adapter.Calls(pool.OpClose))
	assert.Len(t, f.recorder.OfType(events.OrderExecuted), 1)
	assert.Empty(t, f.recorder.OfType(events.ExecutionFailed))
	assert.Equal(t, contracts.StatusExecuted, f.status(t, id))
}

func TestMonitor_StartStop(t *testing.T) {
	f := newMonitorFixture(t)
	f.placeStopLoss(t, "SOL/USDC", 150)

	var ticks int32
	source := &countingSource{calls: &ticks}
	m := f.monitor(source, f.signer)

	task := m.Start(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&ticks) >= 2
	}, time.Second, 5*time.Millisecond)
	task.Stop()

	seen := atomic.LoadInt32(&ticks)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, seen, atomic.LoadInt32(&ticks))

	last, ok := m.LastReport()
	require.True(t, ok)
	assert.Equal(t, 1, last.Pending)
}

type countingSource struct {
	calls *int32
}

func (s *countingSource) Prices(ctx context.Context, symbols []string) map[string]decimal.Decimal {
	atomic.AddInt32(s.calls, 1)
	out := map[string]decimal.Decimal{}
	for _, symbol := range symbols {
		out[symbol] = decimal.NewFromInt(1000)
	}
	return out
}
