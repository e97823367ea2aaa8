package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/events"
	"github.com/wonny/dlmm-orders/internal/pool"
	"github.com/wonny/dlmm-orders/internal/wallet"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

type serviceFixture struct {
	svc      *Service
	repo     *MemoryRepository
	adapter  *pool.MockAdapter
	recorder *events.Recorder
	signer   wallet.Signer
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	signer, _, err := wallet.GenerateKeypair()
	require.NoError(t, err)

	repo := NewMemoryRepository()
	adapter := pool.NewMockAdapter()
	recorder := &events.Recorder{}

	svc := NewService(repo, adapter, recorder, logger.Nop())
	svc.now = func() time.Time {
		return time.Date(2026, 5, 1, 12, 0, 0, 123456789, time.FixedZone("KST", 9*3600))
	}

	return &serviceFixture{svc: svc, repo: repo, adapter: adapter, recorder: recorder, signer: signer}
}

func stopLossParams() PlaceParams {
	return PlaceParams{
		Type:   contracts.OrderTypeStopLoss,
		Pair:   "SOL/USDC",
		Side:   contracts.OrderSideSell,
		Price:  decimal.NewFromInt(150),
		Amount: decimal.RequireFromString("2"),
	}
}

func TestPlaceOrder_StopLoss(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.PlaceOrder(ctx, stopLossParams(), f.signer)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.OrderID)
	assert.NotEmpty(t, result.TransactionID)

	stored, err := f.repo.Get(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusPending, stored.Status)
	assert.Equal(t, contracts.OrderTypeStopLoss, stored.Type)
	require.NotNil(t, stored.TriggerPrice)
	assert.True(t, stored.TriggerPrice.Equal(decimal.NewFromInt(150)))
	require.NotNil(t, stored.BinIndex)
	assert.Equal(t, pool.PaperAddress("SOL/USDC"), stored.PairAddress)
	assert.Equal(t, time.UTC, stored.CreatedAt.Location())
	assert.Equal(t, 123000000, stored.CreatedAt.Nanosecond())

	positions, err := f.svc.Positions(ctx, "SOL/USDC", f.signer)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, result.OrderID, positions[0].PositionID)
	assert.Equal(t, *stored.BinIndex, positions[0].BinIndex)

	placed := f.recorder.OfType(events.OrderPlaced)
	require.Len(t, placed, 1)
	assert.Equal(t, result.OrderID, placed[0].OrderID)
}

func TestPlaceOrder_LimitHasNoTrigger(t *testing.T) {
	f := newServiceFixture(t)
	p := stopLossParams()
	p.Type = contracts.OrderTypeLimit
	p.Side = contracts.OrderSideBuy

	result, err := f.svc.PlaceOrder(context.Background(), p, f.signer)
	require.NoError(t, err)
	assert.Nil(t, result.Order.TriggerPrice)
}

func TestPlaceOrder_ValidationHappensBeforeSideEffects(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *PlaceParams)
		noWallet bool
		wantErr  error
	}{
		{"zero price", func(p *PlaceParams) { p.Price = decimal.Zero }, false, contracts.ErrInvalidInput},
		{"negative amount", func(p *PlaceParams) { p.Amount = decimal.NewFromInt(-1) }, false, contracts.ErrInvalidInput},
		{"bad side", func(p *PlaceParams) { p.Side = "short" }, false, contracts.ErrInvalidInput},
		{"bad type", func(p *PlaceParams) { p.Type = "market" }, false, contracts.ErrInvalidInput},
		{"unknown pair", func(p *PlaceParams) { p.Pair = "BONK/USDC" }, false, contracts.ErrUnknownPair},
		{"no wallet", func(p *PlaceParams) {}, true, contracts.ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			p := stopLossParams()
			tt.mutate(&p)

			var signer wallet.Signer = f.signer
			if tt.noWallet {
				signer = nil
			}

			_, err := f.svc.PlaceOrder(context.Background(), p, signer)
			assert.ErrorIs(t, err, tt.wantErr)

			list, _ := f.repo.List(context.Background(), contracts.OrderFilter{})
			assert.Empty(t, list)
			assert.Equal(t, 0, f.adapter.Calls(pool.OpResolve))
			assert.Equal(t, 0, f.adapter.Calls(pool.OpPlace))
		})
	}
}

func TestPlaceOrder_AdapterFailurePersistsNothing(t *testing.T) {
	for _, op := range []string{pool.OpResolve, pool.OpParams, pool.OpPlace} {
		t.Run(op, func(t *testing.T) {
			f := newServiceFixture(t)
			f.adapter.FailOn(op, contracts.ErrNetwork)

			_, err := f.svc.PlaceOrder(context.Background(), stopLossParams(), f.signer)
			assert.ErrorIs(t, err, contracts.ErrNetwork)

			list, _ := f.repo.List(context.Background(), contracts.OrderFilter{})
			assert.Empty(t, list)
			assert.Empty(t, f.recorder.Events())
		})
	}
}

func TestCancel(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.PlaceOrder(ctx, stopLossParams(), f.signer)
	require.NoError(t, err)

	order, err := f.svc.Cancel(ctx, result.OrderID, f.signer)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusCanceled, order.Status)
	assert.Equal(t, 1, f.adapter.Calls(pool.OpClose))

	stored, err := f.repo.Get(ctx, result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusCanceled, stored.Status)
	assert.Len(t, f.recorder.OfType(events.OrderCanceled), 1)

	_, err = f.svc.Cancel(ctx, result.OrderID, f.signer)
	assert.ErrorIs(t, err, contracts.ErrOrderNotPending)
}

func TestCancel_ExecutedOrderIsRejected(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Save(ctx, sampleOrder("done", contracts.OrderTypeStopLoss, contracts.StatusExecuted)))

	_, err := f.svc.Cancel(ctx, "done", f.signer)
	assert.ErrorIs(t, err, contracts.ErrOrderNotPending)
	assert.Equal(t, 0, f.adapter.Calls(pool.OpClose))

	stored, _ := f.repo.Get(ctx, "done")
	assert.Equal(t, contracts.StatusExecuted, stored.Status)
}

func TestCancel_CloseFailureKeepsPending(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.PlaceOrder(ctx, stopLossParams(), f.signer)
	require.NoError(t, err)

	f.adapter.FailOn(pool.OpClose, contracts.ErrNetwork)
	_, err = f.svc.Cancel(ctx, result.OrderID, f.signer)
	assert.ErrorIs(t, err, contracts.ErrNetwork)

	stored, _ := f.repo.Get(ctx, result.OrderID)
	assert.Equal(t, contracts.StatusPending, stored.Status)
}

func TestCancel_WithoutPoolAddressCancelsLocally(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	o := sampleOrder("legacy", contracts.OrderTypeLimit, contracts.StatusPending)
	o.PairAddress = ""
	require.NoError(t, f.repo.Save(ctx, o))

	order, err := f.svc.Cancel(ctx, "legacy", f.signer)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatusCanceled, order.Status)
	assert.Equal(t, 0, f.adapter.Calls(pool.OpClose))
}

func TestCancel_Errors(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, "missing", f.signer)
	assert.ErrorIs(t, err, contracts.ErrOrderNotFound)

	require.NoError(t, f.repo.Save(ctx, sampleOrder("a", contracts.OrderTypeLimit, contracts.StatusPending)))
	_, err = f.svc.Cancel(ctx, "a", nil)
	assert.ErrorIs(t, err, contracts.ErrNotConnected)
}

func TestRerun(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.svc.PlaceOrder(ctx, stopLossParams(), f.signer)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, first.OrderID, f.signer)
	require.NoError(t, err)

	second, err := f.svc.Rerun(ctx, first.OrderID, f.signer)
	require.NoError(t, err)
	assert.NotEqual(t, first.OrderID, second.OrderID)
	assert.Equal(t, contracts.StatusPending, second.Order.Status)
	assert.True(t, second.Order.Trigger().Equal(decimal.NewFromInt(150)))

	list, err := f.svc.List(ctx, contracts.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRemove(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Save(ctx, sampleOrder("a", contracts.OrderTypeLimit, contracts.StatusCanceled)))

	require.NoError(t, f.svc.Remove(ctx, "a"))
	_, err := f.svc.Get(ctx, "a")
	assert.ErrorIs(t, err, contracts.ErrOrderNotFound)
	assert.Len(t, f.recorder.OfType(events.OrderRemoved), 1)
}

func TestPreviewBin(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	preview, err := f.svc.PreviewBin(ctx, "SOL/USDC", decimal.NewFromInt(150))
	require.NoError(t, err)
	assert.Equal(t, pool.PaperAddress("SOL/USDC"), preview.PoolAddress)
	assert.Equal(t, 10, preview.BinStep)

	// the bin's price sits within one bin width of the requested price
	ratio := preview.BinPrice.Div(preview.Price).InexactFloat64()
	assert.InDelta(t, 1.0, ratio, 0.0011)

	_, err = f.svc.PreviewBin(ctx, "SOL/USDC", decimal.Zero)
	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
	_, err = f.svc.PreviewBin(ctx, "DOGE/USDC", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, contracts.ErrUnknownPair)
}

func TestPools_ReportsPerPairErrors(t *testing.T) {
	f := newServiceFixture(t)
	f.svc.WithPairs(append(contracts.DefaultPairs, contracts.TradingPair{Symbol: "JUP/USDC", Base: "JUP", Quote: "USDC"}))

	overview := f.svc.Pools(context.Background())
	require.Len(t, overview, 4)
	for _, item := range overview[:3] {
		assert.Empty(t, item.Error, item.Pair)
		assert.NotEmpty(t, item.Address)
	}
	assert.Equal(t, "JUP/USDC", overview[3].Pair)
	assert.Equal(t, "No pool found for this pair", overview[3].Error)
}

func TestPurgeTerminal(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	old := sampleOrder("old-canceled", contracts.OrderTypeLimit, contracts.StatusCanceled)
	oldPending := sampleOrder("old-pending", contracts.OrderTypeLimit, contracts.StatusPending)
	fresh := sampleOrder("fresh-executed", contracts.OrderTypeStopLoss, contracts.StatusExecuted)
	fresh.CreatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, o := range []contracts.Order{old, oldPending, fresh} {
		require.NoError(t, f.repo.Save(ctx, o))
	}

	removed, err := f.svc.PurgeTerminal(ctx, time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	list, _ := f.repo.List(ctx, contracts.OrderFilter{})
	require.Len(t, list, 2)
	assert.Equal(t, "old-pending", list[0].ID)
}

func TestRejectReason(t *testing.T) {
	assert.Equal(t, "invalid_input", rejectReason(contracts.ErrInvalidInput))
	assert.Equal(t, "pool_not_found", rejectReason(contracts.ErrPoolNotFound))
	assert.Equal(t, "other", rejectReason(errors.New("boom")))
}
