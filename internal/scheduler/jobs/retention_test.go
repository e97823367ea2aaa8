package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dlmm-orders/internal/contracts"
	"github.com/wonny/dlmm-orders/internal/orders"
	"github.com/wonny/dlmm-orders/internal/pool"
	"github.com/wonny/dlmm-orders/internal/scheduler"
	"github.com/wonny/dlmm-orders/pkg/logger"
)

type failingPurger struct{}

func (failingPurger) PurgeTerminal(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, errors.New("store offline")
}

func saveOrder(t *testing.T, repo orders.Repository, id string, status contracts.Status, created time.Time) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), contracts.Order{
		ID:        id,
		Pair:      "SOL/USDC",
		Type:      contracts.OrderTypeLimit,
		Side:      contracts.OrderSideBuy,
		Price:     decimal.NewFromInt(150),
		Amount:    decimal.NewFromInt(1),
		Status:    status,
		CreatedAt: created,
	}))
}

func TestOrderRetentionJob_Run(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	repo := orders.NewMemoryRepository()
	saveOrder(t, repo, "old-executed", contracts.StatusExecuted, now.Add(-40*24*time.Hour))
	saveOrder(t, repo, "old-pending", contracts.StatusPending, now.Add(-40*24*time.Hour))
	saveOrder(t, repo, "new-canceled", contracts.StatusCanceled, now.Add(-time.Hour))

	service := orders.NewService(repo, pool.NewMockAdapter(), nil, logger.Nop())
	job := NewOrderRetentionJob(service, 30*24*time.Hour, logger.Nop())
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	list, err := repo.List(context.Background(), contracts.OrderFilter{})
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, o := range list {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"old-pending", "new-canceled"}, ids)
}

func TestOrderRetentionJob_Errors(t *testing.T) {
	job := NewOrderRetentionJob(failingPurger{}, time.Hour, logger.Nop())
	assert.Error(t, job.Run(context.Background()))

	job = NewOrderRetentionJob(failingPurger{}, 0, logger.Nop())
	assert.Error(t, job.Run(context.Background()))
}

func TestOrderRetentionJob_RegistersWithScheduler(t *testing.T) {
	s := scheduler.New(logger.Nop())
	service := orders.NewService(orders.NewMemoryRepository(), pool.NewMockAdapter(), nil, logger.Nop())
	job := NewOrderRetentionJob(service, time.Hour, logger.Nop())

	require.NoError(t, s.AddJob(job))
	assert.Equal(t, []string{"order_retention"}, s.GetAllJobs())

	result, err := s.RunJob("order_retention")
	require.NoError(t, err)
	assert.True(t, result.Success)
}
