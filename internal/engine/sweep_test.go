package engine

import (
	"context"
	"testing"
	"time"

	"github.com/hamed0406/alerthub/internal/domain"
)

func TestReminderSweep_DueNess(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	t0 := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	in := orgInput(t0.Add(48 * time.Hour)) // interval 2h
	a, _ := buildAlert("admin", in, t0)
	_ = store.Create(ctx, a)
	if _, err := e.FanOut(ctx, a, t0); err != nil {
		t.Fatalf("FanOut: %v", err)
	}
	if n := sentCount(t, store, a.ID, "alice"); n != 1 {
		t.Fatalf("baseline: want 1 SENT for alice, got %d", n)
	}

	// 119 minutes: not due yet.
	if err := e.ReminderSweep(ctx, t0.Add(119*time.Minute)); err != nil {
		t.Fatalf("ReminderSweep: %v", err)
	}
	if n := sentCount(t, store, a.ID, "alice"); n != 1 {
		t.Fatalf("sweep at +119min must not re-send, got %d", n)
	}

	// 120 minutes: due.
	if err := e.ReminderSweep(ctx, t0.Add(120*time.Minute)); err != nil {
		t.Fatalf("ReminderSweep: %v", err)
	}
	if n := sentCount(t, store, a.ID, "alice"); n != 2 {
		t.Fatalf("sweep at +120min must re-send, got %d", n)
	}
}

func TestReminderSweep_SnoozeSuppressesUntilHorizon(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	t0 := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	a, _ := buildAlert("admin", orgInput(t0.Add(72*time.Hour)), t0)
	_ = store.Create(ctx, a)
	if _, err := e.FanOut(ctx, a, t0); err != nil {
		t.Fatalf("FanOut: %v", err)
	}
	if _, err := e.SnoozeAlert(ctx, "alice", a.ID, t0); err != nil {
		t.Fatalf("SnoozeAlert: %v", err)
	}

	// Well past the interval but inside the snooze window: skipped.
	if err := e.ReminderSweep(ctx, t0.Add(5*time.Hour)); err != nil {
		t.Fatalf("ReminderSweep: %v", err)
	}
	if n := sentCount(t, store, a.ID, "alice"); n != 1 {
		t.Fatalf("snoozed recipient was re-sent, got %d", n)
	}
	// Other recipients still get their reminder.
	if n := sentCount(t, store, a.ID, "bob"); n != 2 {
		t.Fatalf("unsnoozed recipient should be re-sent, got %d", n)
	}

	// Next day, past end-of-day: eligible again without any unsnooze call,
	// even though the stored status is still SNOOZED.
	nextDay := time.Date(2025, 8, 19, 0, 30, 0, 0, time.UTC)
	if err := e.ReminderSweep(ctx, nextDay); err != nil {
		t.Fatalf("ReminderSweep next day: %v", err)
	}
	if n := sentCount(t, store, a.ID, "alice"); n != 2 {
		t.Fatalf("snooze expiry should re-enable reminders, got %d", n)
	}
	pref, _ := store.Find(ctx, "alice", a.ID)
	if pref.Status != domain.StatusSnoozed {
		t.Fatalf("stored status should remain SNOOZED (informational), got %s", pref.Status)
	}
}

func TestReminderSweep_SkipsWithoutBaseline(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	t0 := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	a, _ := buildAlert("admin", orgInput(t0.Add(48*time.Hour)), t0)
	_ = store.Create(ctx, a)

	// No fan-out happened: nobody has a preference row, so the sweep
	// must not treat anyone as due.
	if err := e.ReminderSweep(ctx, t0.Add(3*time.Hour)); err != nil {
		t.Fatalf("ReminderSweep: %v", err)
	}
	rows, _ := store.ListByAlert(ctx, a.ID)
	if len(rows) != 0 {
		t.Fatalf("sweep without baseline must send nothing, got %d rows", len(rows))
	}

	// A preference row without any SENT ledger row (the only attempt
	// failed) is also not due: reminders need a successful baseline.
	if _, _, err := store.GetOrCreate(ctx, "alice", a.ID, t0); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	_ = store.Append(ctx, &domain.Delivery{
		UserID: "alice", AlertID: a.ID, Method: domain.DeliveryInApp,
		Status: domain.DeliveryFailed, ScheduledAt: t0, AttemptCount: 1, ErrorMessage: "relay down",
	})
	if err := e.ReminderSweep(ctx, t0.Add(3*time.Hour)); err != nil {
		t.Fatalf("ReminderSweep: %v", err)
	}
	if n := sentCount(t, store, a.ID, "alice"); n != 0 {
		t.Fatalf("failed-only history must not trigger a reminder, got %d", n)
	}
}

func TestReminderSweep_HonorsAlertFlags(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	t0 := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	in := orgInput(t0.Add(4 * time.Hour))
	in.RemindersEnabled = false
	silent, _ := buildAlert("admin", in, t0)
	_ = store.Create(ctx, silent)
	if _, err := e.FanOut(ctx, silent, t0); err != nil {
		t.Fatalf("FanOut: %v", err)
	}

	if err := e.ReminderSweep(ctx, t0.Add(3*time.Hour)); err != nil {
		t.Fatalf("ReminderSweep: %v", err)
	}
	if n := sentCount(t, store, silent.ID, "alice"); n != 1 {
		t.Fatalf("reminders-disabled alert was re-sent, got %d", n)
	}

	// Expired alerts are out too, even with reminders enabled.
	if err := e.ReminderSweep(ctx, t0.Add(6*time.Hour)); err != nil {
		t.Fatalf("ReminderSweep: %v", err)
	}
	if n := sentCount(t, store, silent.ID, "alice"); n != 1 {
		t.Fatalf("expired alert was re-sent, got %d", n)
	}
}

// End-to-end: org-wide alert, one recipient acknowledges, the rest keep
// getting reminders.
func TestReminderSweep_EndToEnd(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	t0 := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	in := orgInput(t0.Add(48 * time.Hour))
	in.ReminderIntervalHours = 1
	a, _ := buildAlert("admin", in, t0)
	_ = store.Create(ctx, a)
	if _, err := e.FanOut(ctx, a, t0); err != nil {
		t.Fatalf("FanOut: %v", err)
	}

	// Everyone got a SENT row and an UNREAD preference.
	for _, u := range []domain.UserID{"admin", "alice", "bob", "carol"} {
		if n := sentCount(t, store, a.ID, u); n != 1 {
			t.Fatalf("baseline for %s: want 1 SENT, got %d", u, n)
		}
		pref, _ := store.Find(ctx, u, a.ID)
		if pref == nil || pref.Status != domain.StatusUnread {
			t.Fatalf("baseline preference for %s: %+v", u, pref)
		}
	}

	if _, err := e.MarkAlertRead(ctx, "alice", a.ID, t0.Add(5*time.Minute)); err != nil {
		t.Fatalf("MarkAlertRead: %v", err)
	}

	if err := e.ReminderSweep(ctx, t0.Add(2*time.Hour)); err != nil {
		t.Fatalf("ReminderSweep: %v", err)
	}
	if n := sentCount(t, store, a.ID, "alice"); n != 1 {
		t.Fatalf("acknowledged recipient was re-sent, got %d", n)
	}
	for _, u := range []domain.UserID{"admin", "bob", "carol"} {
		if n := sentCount(t, store, a.ID, u); n != 2 {
			t.Fatalf("unread recipient %s should be re-sent, got %d", u, n)
		}
	}
}
