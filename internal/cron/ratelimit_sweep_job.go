package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/bakery-backend/pkg/logger"
)

type sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

type RateLimitSweepJobParams struct {
	Logger  *logger.Logger
	Limiter sweeper
}

// NewRateLimitSweepJob drops expired rate-limit windows. With the redis
// backend keys expire on their own and the sweep finds nothing.
func NewRateLimitSweepJob(params RateLimitSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Limiter == nil {
		return nil, fmt.Errorf("rate limiter required")
	}
	return &rateLimitSweepJob{logg: params.Logger, limiter: params.Limiter}, nil
}

type rateLimitSweepJob struct {
	logg    *logger.Logger
	limiter sweeper
}

func (j *rateLimitSweepJob) Name() string { return "ratelimit-sweep" }

func (j *rateLimitSweepJob) Run(ctx context.Context) error {
	removed, err := j.limiter.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("ratelimit sweep: %w", err)
	}
	if removed > 0 {
		j.logg.Info(j.logg.WithField(ctx, "removed", removed), "ratelimit.sweep")
	}
	return nil
}
