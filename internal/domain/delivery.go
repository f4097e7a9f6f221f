package domain

import "time"

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "PENDING"
	DeliverySent    DeliveryStatus = "SENT"
	DeliveryFailed  DeliveryStatus = "FAILED"
	DeliveryRead    DeliveryStatus = "READ"
)

// Delivery is one attempt to put an alert in front of a user. The ledger
// keeps every attempt; rows are never rewritten after the sending channel
// settles them to SENT or FAILED.
type Delivery struct {
	ID      string       `json:"id"`
	UserID  UserID       `json:"user_id"`
	AlertID AlertID      `json:"alert_id"`
	Method  DeliveryKind `json:"delivery_method"`

	Status      DeliveryStatus `json:"status"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`

	AttemptCount int    `json:"attempt_count"`
	ErrorMessage string `json:"error_message,omitempty"`
}
