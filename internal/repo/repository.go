package repo

import (
	"context"
	"time"

	"github.com/hamed0406/alerthub/internal/domain"
)

// Ports (interfaces) — swap in any DB adapter later. Lookups return
// (nil, nil) for "no row" so callers decide what absence means.

// AlertFilter narrows admin listings. Status is "active", "expired" or
// empty; Now anchors the expiry comparison.
type AlertFilter struct {
	Severity domain.Severity
	Status   string
	Now      time.Time
}

type AlertStore interface {
	Create(ctx context.Context, a *domain.Alert) error
	Get(ctx context.Context, id domain.AlertID) (*domain.Alert, error)
	Update(ctx context.Context, a *domain.Alert) error
	List(ctx context.Context, f AlertFilter) ([]*domain.Alert, error)
	// ListDueForReminders returns alerts that are active, have reminders
	// enabled and have not expired at now.
	ListDueForReminders(ctx context.Context, now time.Time) ([]*domain.Alert, error)
}

type PreferenceStore interface {
	// GetOrCreate inserts an UNREAD row for (user, alert) only if none
	// exists, atomically against the unique pair key, and reports whether
	// this call created it. An existing row is returned untouched.
	GetOrCreate(ctx context.Context, user domain.UserID, alert domain.AlertID, now time.Time) (*domain.Preference, bool, error)
	Find(ctx context.Context, user domain.UserID, alert domain.AlertID) (*domain.Preference, error)
	Save(ctx context.Context, p *domain.Preference) error
	ListByUser(ctx context.Context, user domain.UserID) ([]*domain.Preference, error)
}

type DeliveryStore interface {
	Append(ctx context.Context, d *domain.Delivery) error
	// LastSuccessful returns the newest SENT delivery for the pair by
	// delivered_at, or (nil, nil) if the pair has no baseline yet.
	LastSuccessful(ctx context.Context, user domain.UserID, alert domain.AlertID) (*domain.Delivery, error)
	ListByAlert(ctx context.Context, alert domain.AlertID) ([]*domain.Delivery, error)
}

// Stats is the aggregate snapshot behind the analytics dashboard.
type Stats struct {
	TotalAlerts       int                     `json:"total_alerts_created"`
	ActiveAlerts      int                     `json:"active_alerts"`
	TotalDeliveries   int                     `json:"total_deliveries"`
	SentDeliveries    int                     `json:"successful_deliveries"`
	TotalPreferences  int                     `json:"total_preferences"`
	ReadCount         int                     `json:"total_read"`
	SnoozedCount      int                     `json:"total_snoozed"`
	SeverityBreakdown map[domain.Severity]int `json:"severity_breakdown"`
}

// AlertEngagement ranks one alert by how much traffic it generated.
type AlertEngagement struct {
	AlertID      domain.AlertID  `json:"id"`
	Title        string          `json:"title"`
	Severity     domain.Severity `json:"severity"`
	TotalSent    int             `json:"total_sent"`
	TotalRead    int             `json:"total_read"`
	TotalSnoozed int             `json:"total_snoozed"`
}

type StatsStore interface {
	Stats(ctx context.Context, now time.Time) (*Stats, error)
	TopAlerts(ctx context.Context, limit int) ([]AlertEngagement, error)
}
