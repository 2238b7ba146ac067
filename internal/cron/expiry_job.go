package cron

import (
	"context"
	"fmt"

	"github.com/arunmurugan-dev/kadai-backend/internal/orders"
	"github.com/arunmurugan-dev/kadai-backend/pkg/logger"
	"github.com/arunmurugan-dev/kadai-backend/pkg/metrics"
)

const expiryJobName = "order_expiry_sweep"

// ExpiryJobParams configure the order expiry sweep job.
type ExpiryJobParams struct {
	Logger  *logger.Logger
	Orders  orders.Service
	Metrics *metrics.CronJobMetrics
}

// ExpiryJob cancels gateway orders that never saw a payment within the
// configured window.
type ExpiryJob struct {
	logg    *logger.Logger
	orders  orders.Service
	metrics *metrics.CronJobMetrics
}

// NewExpiryJob builds the expiry sweep job.
func NewExpiryJob(params ExpiryJobParams) (*ExpiryJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	return &ExpiryJob{
		logg:    params.Logger,
		orders:  params.Orders,
		metrics: params.Metrics,
	}, nil
}

// Name identifies the job in logs and metrics.
func (j *ExpiryJob) Name() string {
	return expiryJobName
}

// Run executes one sweep pass.
func (j *ExpiryJob) Run(ctx context.Context) error {
	count, err := j.orders.ExpireStale(ctx)
	if err != nil {
		return fmt.Errorf("expire stale orders: %w", err)
	}
	if j.metrics != nil {
		j.metrics.AddExpired(expiryJobName, int(count))
	}
	logCtx := j.logg.WithField(ctx, "expired", count)
	j.logg.Info(logCtx, "order expiry sweep finished")
	return nil
}
