package reconciler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanvo/fraudgate/internal/infrastructure/metrics"
)

// TimeoutFailer is the slice of the timeout use case the reconciler drives.
type TimeoutFailer interface {
	FailStuck(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// Reconciler periodically fails transactions stuck in REQUESTED. It is the
// safety net for lost or never-produced score events.
type Reconciler struct {
	timeouts TimeoutFailer
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	age      time.Duration
	interval time.Duration
	batch    int
}

// Config for Reconciler.
type Config struct {
	Timeouts TimeoutFailer
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
	Age      time.Duration
	Interval time.Duration
	Batch    int
}

// New creates a new Reconciler.
func New(cfg Config) *Reconciler {
	if cfg.Age == 0 {
		cfg.Age = 2 * time.Minute
	}
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Batch == 0 {
		cfg.Batch = 500
	}

	return &Reconciler{
		timeouts: cfg.Timeouts,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		age:      cfg.Age,
		interval: cfg.Interval,
		batch:    cfg.Batch,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (r *Reconciler) Start(ctx context.Context) error {
	r.logger.Info().
		Dur("age", r.age).
		Dur("interval", r.interval).
		Msg("timeout reconciler started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("timeout reconciler shutting down")
			return ctx.Err()
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	failed, err := r.timeouts.FailStuck(ctx, r.age, r.batch)
	if err != nil {
		r.logger.Error().Err(err).Msg("timeout sweep failed")
		return
	}

	if failed > 0 {
		r.logger.Warn().Int("failed", failed).Msg("timed out stuck transactions")

		if r.metrics != nil {
			r.metrics.Timeouts.Add(float64(failed))
		}
	}
}
