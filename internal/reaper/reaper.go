// Package reaper clears reset tokens that expired without being used.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/charon/internal/clock"
	"github.com/ErlanBelekov/charon/internal/metrics"
	"github.com/ErlanBelekov/charon/internal/repository"
	"github.com/robfig/cron/v3"
	"github.com/samber/oops"
)

const defaultBatch = 500

// ParseSchedule accepts a standard 5-field cron expression or a descriptor
// such as "@hourly" or "@every 15m".
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, oops.Code("REAPER_SCHEDULE_INVALID").With("expr", expr).Wrap(err)
	}
	return sched, nil
}

type Reaper struct {
	users    repository.UserRepository
	schedule cron.Schedule
	batch    int
	clock    clock.Clock
	logger   *slog.Logger
}

func NewReaper(users repository.UserRepository, schedule cron.Schedule, batch int, clk clock.Clock, logger *slog.Logger) *Reaper {
	if batch <= 0 {
		batch = defaultBatch
	}
	return &Reaper{
		users:    users,
		schedule: schedule,
		batch:    batch,
		clock:    clk,
		logger:   logger.With("component", "reaper"),
	}
}

// Start runs a cycle at every schedule activation until ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	r.logger.Info("reaper started", "batch", r.batch)

	for {
		now := r.clock.Now()
		timer := time.NewTimer(r.schedule.Next(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			r.logger.Info("reaper shut down")
			return
		case <-timer.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("reaper cycle failed", "error", err)
			}
		}
	}
}

// RunOnce clears expired tokens in batches until a batch comes back short,
// and returns how many were cleared.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		metrics.ReaperCycleDuration.Observe(time.Since(start).Seconds())
	}()

	now := r.clock.Now()
	total := 0
	for {
		n, err := r.users.ClearExpiredResetTokens(ctx, now, r.batch)
		if err != nil {
			return total, err
		}
		total += n
		metrics.ResetTokensReapedTotal.Add(float64(n))

		if n < r.batch || ctx.Err() != nil {
			break
		}
	}

	if total > 0 {
		r.logger.Info("expired reset tokens cleared", "count", total)
	}
	return total, nil
}
