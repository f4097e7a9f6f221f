package domain

import "time"

type PreferenceStatus string

const (
	StatusUnread  PreferenceStatus = "UNREAD"
	StatusRead    PreferenceStatus = "READ"
	StatusSnoozed PreferenceStatus = "SNOOZED"
)

// Preference tracks one recipient's interaction with one alert. There is
// exactly one row per (user, alert) pair, created on first delivery.
type Preference struct {
	UserID  UserID           `json:"user_id"`
	AlertID AlertID          `json:"alert_id"`
	Status  PreferenceStatus `json:"status"`

	FirstDeliveredAt time.Time  `json:"first_delivered_at"`
	LastReadAt       *time.Time `json:"last_read_at,omitempty"`
	SnoozedUntil     *time.Time `json:"snoozed_until,omitempty"`
}

// IsSnoozed is the live check: the stored SNOOZED status alone does not
// suppress reminders once the snooze horizon has passed.
func (p *Preference) IsSnoozed(now time.Time) bool {
	return p.SnoozedUntil != nil && now.Before(*p.SnoozedUntil)
}

// EndOfDay returns 23:59:59.999999 UTC of now's calendar day, the horizon
// used by snooze-for-remainder-of-day.
func EndOfDay(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, 999999000, time.UTC)
}
