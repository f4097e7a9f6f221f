package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/alerthub/internal/domain"
	"github.com/hamed0406/alerthub/internal/repo"
)

// loadPair fetches the (active alert, preference) pair behind the
// recipient actions. Either half missing collapses into a single
// ErrNotFound so callers cannot tell which lookup failed.
func (e *Engine) loadPair(ctx context.Context, user domain.UserID, id domain.AlertID) (*domain.Alert, *domain.Preference, error) {
	a, err := e.alerts.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get alert: %w", err)
	}
	if a == nil || !a.Active {
		return nil, nil, domain.ErrNotFound
	}
	pref, err := e.prefs.Find(ctx, user, id)
	if err != nil {
		return nil, nil, fmt.Errorf("find preference: %w", err)
	}
	if pref == nil {
		return nil, nil, domain.ErrNotFound
	}
	return a, pref, nil
}

// SnoozeAlert suppresses reminders for the rest of the calendar day.
func (e *Engine) SnoozeAlert(ctx context.Context, user domain.UserID, id domain.AlertID, now time.Time) (*domain.Preference, error) {
	_, pref, err := e.loadPair(ctx, user, id)
	if err != nil {
		return nil, err
	}
	until := domain.EndOfDay(now)
	pref.SnoozedUntil = &until
	pref.Status = domain.StatusSnoozed
	if err := e.prefs.Save(ctx, pref); err != nil {
		return nil, fmt.Errorf("save preference: %w", err)
	}
	return pref, nil
}

// MarkAlertRead is the recipient's acknowledge action; READ is terminal
// for the pair's state machine.
func (e *Engine) MarkAlertRead(ctx context.Context, user domain.UserID, id domain.AlertID, now time.Time) (*domain.Preference, error) {
	_, pref, err := e.loadPair(ctx, user, id)
	if err != nil {
		return nil, err
	}
	pref.Status = domain.StatusRead
	pref.LastReadAt = &now
	if err := e.prefs.Save(ctx, pref); err != nil {
		return nil, fmt.Errorf("save preference: %w", err)
	}
	return pref, nil
}

// UserAlert pairs an alert with the recipient's own preference, which is
// nil until the first delivery lands.
type UserAlert struct {
	Alert      *domain.Alert      `json:"alert"`
	Preference *domain.Preference `json:"preference,omitempty"`
}

// AlertsForUser lists the active, unexpired alerts whose visibility rule
// targets the user, each with that user's preference state.
func (e *Engine) AlertsForUser(ctx context.Context, user domain.UserID, now time.Time) ([]UserAlert, error) {
	active, err := e.alerts.List(ctx, repo.AlertFilter{Status: "active", Now: now})
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	team, hasTeam, err := e.dir.UserTeam(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("user team: %w", err)
	}

	var out []UserAlert
	for _, a := range active {
		if !targets(a, user, team, hasTeam) {
			continue
		}
		pref, err := e.prefs.Find(ctx, user, a.ID)
		if err != nil {
			return nil, fmt.Errorf("find preference: %w", err)
		}
		out = append(out, UserAlert{Alert: a, Preference: pref})
	}
	return out, nil
}

func targets(a *domain.Alert, user domain.UserID, team domain.TeamID, hasTeam bool) bool {
	switch a.Visibility {
	case domain.VisibilityOrganization:
		return true
	case domain.VisibilityTeam:
		if !hasTeam {
			return false
		}
		for _, t := range a.TargetTeams {
			if t == team {
				return true
			}
		}
	case domain.VisibilityUser:
		for _, u := range a.TargetUsers {
			if u == user {
				return true
			}
		}
	}
	return false
}

// PreferencesForUser returns the user's full interaction history.
func (e *Engine) PreferencesForUser(ctx context.Context, user domain.UserID) ([]*domain.Preference, error) {
	return e.prefs.ListByUser(ctx, user)
}
