package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/dlmm-orders/pkg/logger"
)

// Purger removes terminal orders created before cutoff
type Purger interface {
	PurgeTerminal(ctx context.Context, cutoff time.Time) (int, error)
}

// OrderRetentionJob removes executed, filled and canceled orders past retention
type OrderRetentionJob struct {
	purger    Purger
	retention time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewOrderRetentionJob creates a new order retention job
func NewOrderRetentionJob(purger Purger, retention time.Duration, log *logger.Logger) *OrderRetentionJob {
	return &OrderRetentionJob{
		purger:    purger,
		retention: retention,
		logger:    log,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *OrderRetentionJob) Name() string {
	return "order_retention"
}

// Schedule returns the cron schedule (hourly)
func (j *OrderRetentionJob) Schedule() string {
	return "0 0 * * * *" // Every hour
}

// Run purges terminal orders older than the retention window
func (j *OrderRetentionJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		return fmt.Errorf("retention must be positive, got %s", j.retention)
	}

	cutoff := j.now().Add(-j.retention)
	j.logger.WithField("cutoff", cutoff.Format(time.RFC3339)).Debug("Starting order retention")

	removed, err := j.purger.PurgeTerminal(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge terminal orders: %w", err)
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Order retention completed")
	}

	return nil
}
