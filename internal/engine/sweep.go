package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/alerthub/internal/channel"
	"github.com/hamed0406/alerthub/internal/domain"
)

// ReminderSweep re-sends every due alert to every still-eligible
// recipient. A recipient is due when they have a preference row (a
// baseline delivery happened), are not currently snoozed, and at least
// the alert's reminder interval has passed since the last SENT row.
// Per-recipient failures are recorded and skipped; they never abort the
// sweep.
func (e *Engine) ReminderSweep(ctx context.Context, now time.Time) error {
	due, err := e.alerts.ListDueForReminders(ctx, now)
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.MaxConcurrentSends)
	var scheduled int

	for _, a := range due {
		a := a
		ch, chErr := e.channels.For(a.Delivery)
		if chErr != nil {
			e.log.Warn("sweep_unsupported_channel",
				zap.String("alert_id", string(a.ID)),
				zap.String("delivery_type", string(a.Delivery)),
			)
			continue
		}
		users, rErr := e.resolver.Resolve(ctx, a)
		if rErr != nil {
			e.log.Warn("sweep_resolve_error", zap.String("alert_id", string(a.ID)), zap.Error(rErr))
			continue
		}
		for _, user := range users {
			user := user
			scheduled++
			g.Go(func() error {
				e.remindOne(ctx, ch, user, a, now)
				return nil
			})
		}
	}
	_ = g.Wait()

	e.log.Info("sweep_done",
		zap.Int("alerts", len(due)),
		zap.Int("candidates", scheduled),
		zap.Time("now", now),
	)
	return nil
}

func (e *Engine) remindOne(ctx context.Context, ch channel.Channel, user domain.UserID, a *domain.Alert, now time.Time) {
	// Short-lived per-pair guard: overlapping sweeps must not double-fire
	// the same reminder while one is in flight.
	key := pairKey{user: user, alert: a.ID}
	if !e.acquire(key) {
		return
	}
	defer e.release(key)

	pref, err := e.prefs.Find(ctx, user, a.ID)
	if err != nil {
		e.log.Warn("sweep_pref_error", zap.String("user_id", string(user)), zap.String("alert_id", string(a.ID)), zap.Error(err))
		return
	}
	if pref == nil {
		// Never delivered to; reminders need a baseline, not a first send.
		return
	}
	if pref.Status == domain.StatusRead {
		// READ is terminal: acknowledged recipients are done.
		return
	}
	if pref.IsSnoozed(now) {
		return
	}

	last, err := e.deliveries.LastSuccessful(ctx, user, a.ID)
	if err != nil {
		e.log.Warn("sweep_ledger_error", zap.String("user_id", string(user)), zap.String("alert_id", string(a.ID)), zap.Error(err))
		return
	}
	if last == nil || last.DeliveredAt == nil {
		return
	}
	if now.Sub(*last.DeliveredAt) < a.ReminderInterval() {
		return
	}

	_, _ = e.sendOne(ctx, ch, user, a, now)
}

func (e *Engine) acquire(key pairKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[key]; busy {
		return false
	}
	e.inflight[key] = struct{}{}
	return true
}

func (e *Engine) release(key pairKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, key)
}
