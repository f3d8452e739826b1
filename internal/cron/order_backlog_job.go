package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/bakery-backend/internal/orders"
	"github.com/angelmondragon/bakery-backend/pkg/logger"
	"github.com/angelmondragon/bakery-backend/pkg/metrics"
)

type statsSource interface {
	Stats(ctx context.Context) (*orders.Stats, error)
}

const defaultBacklogEvery = 5 * time.Minute

type OrderBacklogJobParams struct {
	Logger  *logger.Logger
	Orders  statsSource
	Metrics *metrics.OrderMetrics
	// Every defaults to five minutes.
	Every time.Duration
}

// NewOrderBacklogJob refreshes the order backlog gauges from the admin
// dashboard aggregates.
func NewOrderBacklogJob(params OrderBacklogJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders stats source required")
	}
	every := params.Every
	if every <= 0 {
		every = defaultBacklogEvery
	}
	return &orderBacklogJob{
		logg:    params.Logger,
		orders:  params.Orders,
		metrics: params.Metrics,
		every:   every,
	}, nil
}

type orderBacklogJob struct {
	logg    *logger.Logger
	orders  statsSource
	metrics *metrics.OrderMetrics
	every   time.Duration
}

func (j *orderBacklogJob) Name() string { return "order-backlog" }

func (j *orderBacklogJob) Every() time.Duration { return j.every }

func (j *orderBacklogJob) Run(ctx context.Context) error {
	stats, err := j.orders.Stats(ctx)
	if err != nil {
		return fmt.Errorf("order backlog: %w", err)
	}
	j.metrics.SetBacklog(metrics.BacklogPending, stats.Pending)
	j.metrics.SetBacklog(metrics.BacklogNextDelivery, stats.NextDelivery)
	j.metrics.SetBacklog(metrics.BacklogNextDeliveryPending, stats.NextDeliveryPending)
	j.logg.Debug(j.logg.WithFields(ctx, map[string]any{
		"pending":            stats.Pending,
		"next_delivery":      stats.NextDelivery,
		"next_delivery_date": stats.NextDeliveryDate,
	}), "order.backlog.refreshed")
	return nil
}
