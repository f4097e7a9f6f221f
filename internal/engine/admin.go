package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/alerthub/internal/domain"
	"github.com/hamed0406/alerthub/internal/repo"
)

func (e *Engine) requireAdmin(ctx context.Context, user domain.UserID) error {
	admin, err := e.dir.IsAdmin(ctx, user)
	if err != nil {
		return fmt.Errorf("admin lookup: %w", err)
	}
	if !admin {
		return domain.ErrPermissionDenied
	}
	return nil
}

// ListAlerts is the admin listing with optional severity/status filters.
func (e *Engine) ListAlerts(ctx context.Context, caller domain.UserID, f repo.AlertFilter) ([]*domain.Alert, error) {
	if err := e.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	return e.alerts.List(ctx, f)
}

func (e *Engine) GetAlert(ctx context.Context, caller domain.UserID, id domain.AlertID) (*domain.Alert, error) {
	if err := e.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	a, err := e.alerts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// UpdateAlertInput holds the admin-editable fields; nil means unchanged.
type UpdateAlertInput struct {
	Title                 *string
	Message               *string
	Severity              *domain.Severity
	ExpiryTime            *time.Time
	ReminderIntervalHours *int
	RemindersEnabled      *bool
	Active                *bool
}

func (e *Engine) UpdateAlert(ctx context.Context, caller domain.UserID, id domain.AlertID, in UpdateAlertInput, now time.Time) (*domain.Alert, error) {
	if err := e.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	a, err := e.alerts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	if in.Title != nil {
		a.Title = *in.Title
	}
	if in.Message != nil {
		a.Message = *in.Message
	}
	if in.Severity != nil {
		if !in.Severity.Valid() {
			return nil, fmt.Errorf("%w: severity %q", domain.ErrInvalidAlert, *in.Severity)
		}
		a.Severity = *in.Severity
	}
	if in.ExpiryTime != nil {
		if !in.ExpiryTime.After(a.StartTime) {
			return nil, fmt.Errorf("%w: expiry must be after start", domain.ErrInvalidAlert)
		}
		a.ExpiryTime = *in.ExpiryTime
	}
	if in.ReminderIntervalHours != nil {
		if *in.ReminderIntervalHours < 1 {
			return nil, fmt.Errorf("%w: reminder interval must be >= 1h", domain.ErrInvalidAlert)
		}
		a.ReminderIntervalHours = *in.ReminderIntervalHours
	}
	if in.RemindersEnabled != nil {
		a.RemindersEnabled = *in.RemindersEnabled
	}
	if in.Active != nil {
		a.Active = *in.Active
	}
	a.UpdatedAt = now
	if err := e.alerts.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}
	return a, nil
}

// ArchiveAlert is the delete action: alerts are never hard-deleted, so
// ledger and preference history survive.
func (e *Engine) ArchiveAlert(ctx context.Context, caller domain.UserID, id domain.AlertID, now time.Time) error {
	inactive := false
	_, err := e.UpdateAlert(ctx, caller, id, UpdateAlertInput{Active: &inactive}, now)
	return err
}

// TriggerReminders is the on-demand sweep for operational testing.
func (e *Engine) TriggerReminders(ctx context.Context, caller domain.UserID, now time.Time) error {
	if err := e.requireAdmin(ctx, caller); err != nil {
		return err
	}
	return e.ReminderSweep(ctx, now)
}
