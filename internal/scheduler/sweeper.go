package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweepFunc is the engine's reminder sweep; the sweeper hands it the
// tick's clock reading.
type SweepFunc func(ctx context.Context, now time.Time) error

// Sweeper is the periodic trigger: it invokes the sweep on a fixed
// cadence until the context is cancelled.
type Sweeper struct {
	Logger   *zap.Logger
	Sweep    SweepFunc
	Interval time.Duration
}

func NewSweeper(logger *zap.Logger, sweep SweepFunc, interval time.Duration) *Sweeper {
	return &Sweeper{Logger: logger, Sweep: sweep, Interval: interval}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled. Interval 0 disables the loop.
func (s *Sweeper) Run(ctx context.Context) {
	if s.Interval <= 0 {
		s.Logger.Info("sweeper_disabled")
		return
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("sweeper_stopped")
			return
		case <-t.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	start := time.Now().UTC()
	if err := s.Sweep(ctx, start); err != nil {
		s.Logger.Warn("sweep_error", zap.Error(err))
		return
	}
	s.Logger.Debug("sweep_pass",
		zap.Duration("took", time.Since(start)),
	)
}
