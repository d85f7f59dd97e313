package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/citymarket/marketplace/internal/metrics"
	"github.com/robfig/cron/v3"
)

// Expirer is satisfied by the postgres listing repository.
type Expirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// Sweeper marks ACTIVE listings older than the TTL as EXPIRED on a cron
// schedule. Each run works in batches until a short batch comes back, so
// several sweepers can run against the same database.
type Sweeper struct {
	repo      Expirer
	logger    *slog.Logger
	schedule  cron.Schedule
	ttl       time.Duration
	batchSize int
	now       func() time.Time
}

// New parses expr as a standard cron expression or descriptor such as
// "@every 1h".
func New(repo Expirer, logger *slog.Logger, expr string, ttl time.Duration, batchSize int) (*Sweeper, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", expr, err)
	}
	return &Sweeper{
		repo:      repo,
		logger:    logger.With("component", "sweeper"),
		schedule:  sched,
		ttl:       ttl,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

// Start runs until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("sweeper started", "ttl", s.ttl, "batch_size", s.batchSize)

	for {
		next := s.schedule.Next(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("sweeper shut down")
			return
		case <-timer.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep", "error", err)
			}
		}
	}
}

// Sweep expires every stale listing and returns how many changed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	cutoff := s.now().Add(-s.ttl)
	total := 0
	for {
		n, err := s.repo.ExpireStale(ctx, cutoff, s.batchSize)
		if err != nil {
			return total, fmt.Errorf("expire stale listings: %w", err)
		}
		total += n
		metrics.ListingsExpiredTotal.Add(float64(n))
		if n < s.batchSize || ctx.Err() != nil {
			break
		}
	}

	if total > 0 {
		s.logger.Info("expired stale listings", "count", total, "cutoff", cutoff)
	}
	return total, nil
}
