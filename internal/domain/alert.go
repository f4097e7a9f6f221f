package domain

import "time"

type AlertID string

type UserID string

type TeamID string

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// DeliveryKind selects which channel carries an alert.
type DeliveryKind string

const (
	DeliveryInApp DeliveryKind = "IN_APP"
	DeliveryEmail DeliveryKind = "EMAIL"
	DeliverySMS   DeliveryKind = "SMS"
)

func (k DeliveryKind) Valid() bool {
	switch k {
	case DeliveryInApp, DeliveryEmail, DeliverySMS:
		return true
	}
	return false
}

type VisibilityKind string

const (
	VisibilityOrganization VisibilityKind = "ORGANIZATION"
	VisibilityTeam         VisibilityKind = "TEAM"
	VisibilityUser         VisibilityKind = "USER"
)

func (v VisibilityKind) Valid() bool {
	switch v {
	case VisibilityOrganization, VisibilityTeam, VisibilityUser:
		return true
	}
	return false
}

// Alert is an announcement pushed to a slice of the organization and
// re-delivered on an interval until each recipient reads or snoozes it.
type Alert struct {
	ID       AlertID      `json:"id"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Severity Severity     `json:"severity"`
	Delivery DeliveryKind `json:"delivery_type"`

	Visibility  VisibilityKind `json:"visibility_type"`
	TargetTeams []TeamID       `json:"target_teams,omitempty"`
	TargetUsers []UserID       `json:"target_users,omitempty"`

	StartTime             time.Time `json:"start_time"`
	ExpiryTime            time.Time `json:"expiry_time"`
	ReminderIntervalHours int       `json:"reminder_frequency_hours"`

	RemindersEnabled bool `json:"reminders_enabled"`
	Active           bool `json:"is_active"`

	CreatedBy UserID    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Alert) IsExpired(now time.Time) bool {
	return now.After(a.ExpiryTime)
}

// IsCurrentlyActive reports whether the alert should reach anyone at all:
// not archived and not past its expiry.
func (a *Alert) IsCurrentlyActive(now time.Time) bool {
	return a.Active && !a.IsExpired(now)
}

// ReminderInterval converts the stored hour count to a duration.
func (a *Alert) ReminderInterval() time.Duration {
	return time.Duration(a.ReminderIntervalHours) * time.Hour
}
