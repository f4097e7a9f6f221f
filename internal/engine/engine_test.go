package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/alerthub/internal/channel"
	"github.com/hamed0406/alerthub/internal/directory"
	"github.com/hamed0406/alerthub/internal/domain"
	"github.com/hamed0406/alerthub/internal/repo/memory"
)

// ---- shared helpers ----

func testDir() *directory.Static {
	return directory.NewStatic([]directory.Member{
		{ID: "admin", Admin: true},
		{ID: "alice", Team: "eng"},
		{ID: "bob", Team: "eng"},
		{ID: "carol", Team: "mkt"},
	})
}

func newTestEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	channels := channel.Registry{
		domain.DeliveryInApp: channel.NewInApp(store, store),
	}
	e := New(zap.NewNop(), store, store, store, store, testDir(), channels, Config{
		MaxConcurrentSends: 4,
		SendTimeout:        time.Second,
	})
	return e, store
}

func orgInput(expiry time.Time) CreateAlertInput {
	return CreateAlertInput{
		Title:                 "office move",
		Message:               "we are moving floors this weekend",
		Visibility:            domain.VisibilityOrganization,
		ExpiryTime:            expiry,
		ReminderIntervalHours: 2,
		RemindersEnabled:      true,
	}
}

func sentCount(t *testing.T, s *memory.Store, alert domain.AlertID, user domain.UserID) int {
	t.Helper()
	rows, err := s.ListByAlert(context.Background(), alert)
	if err != nil {
		t.Fatalf("ListByAlert: %v", err)
	}
	n := 0
	for _, d := range rows {
		if d.UserID == user && d.Status == domain.DeliverySent {
			n++
		}
	}
	return n
}

// ---- create ----

func TestCreateAlert_RequiresAdmin(t *testing.T) {
	e, _ := newTestEngine(t)
	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	_, err := e.CreateAlert(context.Background(), "alice", orgInput(now.Add(24*time.Hour)), now)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("want ErrPermissionDenied, got %v", err)
	}
}

func TestCreateAlert_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	in := orgInput(now.Add(-time.Hour)) // expiry before start
	_, err := e.CreateAlert(context.Background(), "admin", in, now)
	if !errors.Is(err, domain.ErrInvalidAlert) {
		t.Fatalf("want ErrInvalidAlert for bad expiry, got %v", err)
	}

	in = orgInput(now.Add(time.Hour))
	in.Title = ""
	_, err = e.CreateAlert(context.Background(), "admin", in, now)
	if !errors.Is(err, domain.ErrInvalidAlert) {
		t.Fatalf("want ErrInvalidAlert for missing title, got %v", err)
	}

	in = orgInput(now.Add(time.Hour))
	in.ReminderIntervalHours = -1
	_, err = e.CreateAlert(context.Background(), "admin", in, now)
	if !errors.Is(err, domain.ErrInvalidAlert) {
		t.Fatalf("want ErrInvalidAlert for negative interval, got %v", err)
	}
}

func TestCreateAlert_UnsupportedChannel(t *testing.T) {
	e, _ := newTestEngine(t)
	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	in := orgInput(now.Add(time.Hour))
	in.Delivery = domain.DeliverySMS // not registered in the test engine
	_, err := e.CreateAlert(context.Background(), "admin", in, now)
	if !errors.Is(err, domain.ErrUnsupportedChannel) {
		t.Fatalf("want ErrUnsupportedChannel, got %v", err)
	}
}

func TestCreateAlert_AsyncFanOutLands(t *testing.T) {
	e, store := newTestEngine(t)
	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	a, err := e.CreateAlert(context.Background(), "admin", orgInput(now.Add(24*time.Hour)), now)
	if err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}
	if a.ID == "" || !a.Active || a.CreatedBy != "admin" {
		t.Fatalf("unexpected alert: %+v", a)
	}

	// Fan-out runs on its own goroutine; wait for it to land.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rows, _ := store.ListByAlert(context.Background(), a.ID)
		if len(rows) == 4 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("fan-out never landed, got %d rows", len(rows))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ---- fan-out ----

// flakyChannel fails for one user and delegates the rest.
type flakyChannel struct {
	inner   channel.Channel
	failFor domain.UserID
}

func (f *flakyChannel) Send(ctx context.Context, user domain.UserID, a *domain.Alert, now time.Time) (*domain.Delivery, error) {
	if user == f.failFor {
		return nil, fmt.Errorf("smtp relay down")
	}
	return f.inner.Send(ctx, user, a, now)
}

func TestFanOut_PartialFailureDoesNotBlockOthers(t *testing.T) {
	store := memory.New()
	channels := channel.Registry{
		domain.DeliveryInApp: &flakyChannel{inner: channel.NewInApp(store, store), failFor: "bob"},
	}
	e := New(zap.NewNop(), store, store, store, store, testDir(), channels, Config{
		MaxConcurrentSends: 2,
		SendTimeout:        time.Second,
	})

	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)
	a, err := buildAlert("admin", orgInput(now.Add(24*time.Hour)), now)
	if err != nil {
		t.Fatalf("buildAlert: %v", err)
	}
	if err := store.Create(context.Background(), a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	out, err := e.FanOut(context.Background(), a, now)
	if err != nil {
		t.Fatalf("FanOut must not fail wholesale: %v", err)
	}
	if len(out) != 3 { // admin, alice, carol
		t.Fatalf("want 3 successful deliveries, got %d", len(out))
	}

	rows, _ := store.ListByAlert(context.Background(), a.ID)
	var failed *domain.Delivery
	for _, d := range rows {
		if d.Status == domain.DeliveryFailed {
			failed = d
		}
	}
	if failed == nil || failed.UserID != "bob" {
		t.Fatalf("expected a FAILED row for bob, got %+v", rows)
	}
	if failed.ErrorMessage == "" || failed.AttemptCount != 1 {
		t.Fatalf("failure row missing metadata: %+v", failed)
	}
}

func TestFanOut_UnknownKindSurfaces(t *testing.T) {
	e, store := newTestEngine(t)
	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	a, _ := buildAlert("admin", orgInput(now.Add(time.Hour)), now)
	a.Delivery = "CARRIER_PIGEON"
	_ = store.Create(context.Background(), a)

	_, err := e.FanOut(context.Background(), a, now)
	if !errors.Is(err, domain.ErrUnsupportedChannel) {
		t.Fatalf("want ErrUnsupportedChannel, got %v", err)
	}
}

// ---- recipient actions ----

func TestSnoozeAndRead_NotFoundUnified(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	// Unknown alert.
	if _, err := e.SnoozeAlert(ctx, "alice", "nope", now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("snooze unknown alert: want ErrNotFound, got %v", err)
	}
	if _, err := e.MarkAlertRead(ctx, "alice", "nope", now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("read unknown alert: want ErrNotFound, got %v", err)
	}

	// Existing alert, but no preference row for carol (never delivered).
	a, _ := buildAlert("admin", orgInput(now.Add(24*time.Hour)), now)
	_ = store.Create(ctx, a)
	if _, err := e.SnoozeAlert(ctx, "carol", a.ID, now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("snooze without preference: want ErrNotFound, got %v", err)
	}

	// Archived alert with a preference row: same unified error.
	if _, _, err := store.GetOrCreate(ctx, "alice", a.ID, now); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	a.Active = false
	_ = store.Update(ctx, a)
	if _, err := e.MarkAlertRead(ctx, "alice", a.ID, now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("read archived alert: want ErrNotFound, got %v", err)
	}
}

func TestSnoozeAlert_SetsEndOfDay(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 18, 9, 17, 0, 0, time.UTC)

	a, _ := buildAlert("admin", orgInput(now.Add(48*time.Hour)), now)
	_ = store.Create(ctx, a)
	if _, err := e.FanOut(ctx, a, now); err != nil {
		t.Fatalf("FanOut: %v", err)
	}

	p, err := e.SnoozeAlert(ctx, "alice", a.ID, now)
	if err != nil {
		t.Fatalf("SnoozeAlert: %v", err)
	}
	want := time.Date(2025, 8, 18, 23, 59, 59, 999999000, time.UTC)
	if p.Status != domain.StatusSnoozed || p.SnoozedUntil == nil || !p.SnoozedUntil.Equal(want) {
		t.Fatalf("unexpected snooze state: %+v", p)
	}
}

func TestMarkAlertRead(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	a, _ := buildAlert("admin", orgInput(now.Add(24*time.Hour)), now)
	_ = store.Create(ctx, a)
	if _, err := e.FanOut(ctx, a, now); err != nil {
		t.Fatalf("FanOut: %v", err)
	}

	read := now.Add(10 * time.Minute)
	p, err := e.MarkAlertRead(ctx, "bob", a.ID, read)
	if err != nil {
		t.Fatalf("MarkAlertRead: %v", err)
	}
	if p.Status != domain.StatusRead || p.LastReadAt == nil || !p.LastReadAt.Equal(read) {
		t.Fatalf("unexpected read state: %+v", p)
	}
}

// ---- user listing ----

func TestAlertsForUser_TargetingAndStatus(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	org, _ := buildAlert("admin", orgInput(now.Add(24*time.Hour)), now)
	_ = store.Create(ctx, org)

	engOnly, _ := buildAlert("admin", CreateAlertInput{
		Title:      "deploy freeze",
		Visibility: domain.VisibilityTeam,
		TargetTeams: []domain.TeamID{
			"eng",
		},
		ExpiryTime:       now.Add(24 * time.Hour),
		RemindersEnabled: true,
	}, now)
	_ = store.Create(ctx, engOnly)

	carolOnly, _ := buildAlert("admin", CreateAlertInput{
		Title:            "badge renewal",
		Visibility:       domain.VisibilityUser,
		TargetUsers:      []domain.UserID{"carol"},
		ExpiryTime:       now.Add(24 * time.Hour),
		RemindersEnabled: true,
	}, now)
	_ = store.Create(ctx, carolOnly)

	if _, err := e.FanOut(ctx, org, now); err != nil {
		t.Fatalf("FanOut: %v", err)
	}

	got, err := e.AlertsForUser(ctx, "alice", now)
	if err != nil {
		t.Fatalf("AlertsForUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("alice should see org + eng alerts, got %d", len(got))
	}
	for _, ua := range got {
		if ua.Alert.ID == org.ID && (ua.Preference == nil || ua.Preference.Status != domain.StatusUnread) {
			t.Fatalf("org alert should carry alice's UNREAD preference: %+v", ua.Preference)
		}
		if ua.Alert.ID == engOnly.ID && ua.Preference != nil {
			t.Fatalf("undelivered alert should have nil preference")
		}
	}

	carol, err := e.AlertsForUser(ctx, "carol", now)
	if err != nil {
		t.Fatalf("AlertsForUser carol: %v", err)
	}
	if len(carol) != 2 {
		t.Fatalf("carol should see org + her own alert, got %d", len(carol))
	}
}

// ---- analytics ----

func TestDashboard(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	now := time.Date(2025, 8, 18, 9, 0, 0, 0, time.UTC)

	if _, err := e.Dashboard(ctx, "alice", now); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("dashboard must be admin-only")
	}

	a, _ := buildAlert("admin", orgInput(now.Add(24*time.Hour)), now)
	_ = store.Create(ctx, a)
	if _, err := e.FanOut(ctx, a, now); err != nil {
		t.Fatalf("FanOut: %v", err)
	}
	if _, err := e.MarkAlertRead(ctx, "alice", a.ID, now.Add(time.Minute)); err != nil {
		t.Fatalf("MarkAlertRead: %v", err)
	}

	d, err := e.Dashboard(ctx, "admin", now)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Summary.TotalAlerts != 1 || d.Summary.SentDeliveries != 4 {
		t.Fatalf("unexpected summary: %+v", d.Summary)
	}
	if d.Summary.DeliverySuccessRate != 100 {
		t.Fatalf("want 100%% success rate, got %v", d.Summary.DeliverySuccessRate)
	}
	if d.Summary.ReadRate != 25 {
		t.Fatalf("want 25%% read rate, got %v", d.Summary.ReadRate)
	}
	if len(d.TopAlerts) != 1 || d.TopAlerts[0].TotalSent != 4 || d.TopAlerts[0].ReadRate != 25 {
		t.Fatalf("unexpected top alerts: %+v", d.TopAlerts)
	}
}
