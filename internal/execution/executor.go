package execution

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/events"
	"github.com/wonny/dlmm-orders/internal/orders"
	"github.com/wonny/dlmm-orders/internal/pool"
	"github.com/wonny/dlmm-orders/internal/wallet"
	"github.com/wonny/dlmm-orders/pkg/logger"
	"github.com/wonny/dlmm-orders/pkg/metrics"
)

// Executor closes the position behind a triggered stop-loss order
// ⭐ SSOT: 손절 실행 결과 → 상태 전이는 여기서만
type Executor struct {
	repo    orders.Repository
	adapter pool.Adapter
	signer  wallet.Signer
	sink    events.Sink
	logger  *logger.Logger
}

// NewExecutor creates an executor; signer may be nil (execution is then skipped)
func NewExecutor(repo orders.Repository, adapter pool.Adapter, signer wallet.Signer, sink events.Sink, log *logger.Logger) *Executor {
	if sink == nil {
		sink = events.Nop{}
	}
	return &Executor{
		repo:    repo,
		adapter: adapter,
		signer:  signer,
		sink:    sink,
		logger:  log.WithComponent("execution.executor"),
	}
}

// Execute closes order's position. Success marks it executed; any adapter
// failure marks it canceled with no retry. Without a connected signer the
// order is left pending and ErrNotConnected is returned. The stored record
// is re-read first: an order another session already settled returns
// ErrOrderNotPending and its position is not touched.
func (e *Executor) Execute(ctx context.Context, order contracts.Order) (contracts.Status, error) {
	if err := wallet.RequireConnected(e.signer); err != nil {
		return order.Status, err
	}

	log := e.logger.WithFields(map[string]interface{}{
		"order_id": order.ID,
		"pair":     order.Pair,
	})

	current, err := e.repo.Get(ctx, order.ID)
	if err != nil {
		log.WithError(err).Warn("Failed to reload order before execution")
		return order.Status, err
	}
	if !current.IsPending() {
		log.WithField("status", current.Status).Info("Order already settled, skipping execution")
		return current.Status, fmt.Errorf("%w: %s is %s", contracts.ErrOrderNotPending, current.ID, current.Status)
	}
	order = current

	closeErr := e.closePosition(ctx, order)

	status := contracts.StatusExecuted
	if closeErr != nil {
		status = contracts.StatusCanceled
		log.WithError(closeErr).Warn("Stop-loss execution failed, canceling order")
	}

	if err := e.repo.Update(ctx, order.ID, contracts.StatusPatch(status)); err != nil {
		// 사용자가 먼저 취소한 경우 등
		log.WithError(err).Warn("Failed to record execution result")
		return order.Status, err
	}

	metrics.StopLossTriggers.WithLabelValues(string(status)).Inc()

	event := events.Event{
		Type:    events.OrderExecuted,
		OrderID: order.ID,
		Pair:    order.Pair,
		Status:  string(status),
	}
	if closeErr != nil {
		event.Type = events.ExecutionFailed
		event.Error = contracts.UserMessage(closeErr)
	}
	e.sink.Publish(ctx, event)

	log.WithField("status", status).Info("Stop-loss order settled")
	return status, nil
}

func (e *Executor) closePosition(ctx context.Context, order contracts.Order) error {
	if order.PairAddress == "" {
		return fmt.Errorf("%w: order %s has no pool address", contracts.ErrPoolNotFound, order.ID)
	}
	_, err := e.adapter.ClosePosition(ctx, pool.CloseRequest{
		PoolAddress: order.PairAddress,
		PositionID:  order.ID,
		Signer:      e.signer,
	})
	return err
}

// isSkip reports errors that leave an order pending for the next tick
func isSkip(err error) bool {
	return errors.Is(err, contracts.ErrNotConnected)
}
