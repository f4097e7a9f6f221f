package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hamed0406/alerthub/internal/domain"
	"github.com/hamed0406/alerthub/internal/engine"
	apimw "github.com/hamed0406/alerthub/internal/httpapi/middleware"
	"github.com/hamed0406/alerthub/internal/repo"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": domain.ErrNotFound.Error()})
	case errors.Is(err, domain.ErrInvalidAlert), errors.Is(err, domain.ErrUnsupportedChannel):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// ---- admin ----

type createAlertPayload struct {
	Title                 string                `json:"title"`
	Message               string                `json:"message"`
	Severity              domain.Severity       `json:"severity"`
	Delivery              domain.DeliveryKind   `json:"delivery_type"`
	Visibility            domain.VisibilityKind `json:"visibility_type"`
	TargetTeams           []domain.TeamID       `json:"target_teams"`
	TargetUsers           []domain.UserID       `json:"target_users"`
	StartTime             time.Time             `json:"start_time"`
	ExpiryTime            time.Time             `json:"expiry_time"`
	ReminderIntervalHours int                   `json:"reminder_frequency_hours"`
	RemindersEnabled      *bool                 `json:"reminders_enabled"`
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var p createAlertPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	remind := true
	if p.RemindersEnabled != nil {
		remind = *p.RemindersEnabled
	}
	caller := apimw.UserFrom(r.Context())
	a, err := s.Engine.CreateAlert(r.Context(), caller, engine.CreateAlertInput{
		Title:                 p.Title,
		Message:               p.Message,
		Severity:              p.Severity,
		Delivery:              p.Delivery,
		Visibility:            p.Visibility,
		TargetTeams:           p.TargetTeams,
		TargetUsers:           p.TargetUsers,
		StartTime:             p.StartTime,
		ExpiryTime:            p.ExpiryTime,
		ReminderIntervalHours: p.ReminderIntervalHours,
		RemindersEnabled:      remind,
	}, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	s.Logger.Info("alert_created",
		zap.String("alert_id", string(a.ID)),
		zap.String("created_by", string(caller)),
		zap.String("severity", string(a.Severity)),
		zap.String("visibility", string(a.Visibility)),
	)
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	f := repo.AlertFilter{
		Severity: domain.Severity(r.URL.Query().Get("severity")),
		Status:   r.URL.Query().Get("status"),
		Now:      time.Now().UTC(),
	}
	out, err := s.Engine.ListAlerts(r.Context(), apimw.UserFrom(r.Context()), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id := domain.AlertID(chi.URLParam(r, "id"))
	a, err := s.Engine.GetAlert(r.Context(), apimw.UserFrom(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type updateAlertPayload struct {
	Title                 *string          `json:"title"`
	Message               *string          `json:"message"`
	Severity              *domain.Severity `json:"severity"`
	ExpiryTime            *time.Time       `json:"expiry_time"`
	ReminderIntervalHours *int             `json:"reminder_frequency_hours"`
	RemindersEnabled      *bool            `json:"reminders_enabled"`
	Active                *bool            `json:"is_active"`
}

func (s *Server) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	var p updateAlertPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	id := domain.AlertID(chi.URLParam(r, "id"))
	a, err := s.Engine.UpdateAlert(r.Context(), apimw.UserFrom(r.Context()), id, engine.UpdateAlertInput{
		Title:                 p.Title,
		Message:               p.Message,
		Severity:              p.Severity,
		ExpiryTime:            p.ExpiryTime,
		ReminderIntervalHours: p.ReminderIntervalHours,
		RemindersEnabled:      p.RemindersEnabled,
		Active:                p.Active,
	}, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleArchiveAlert(w http.ResponseWriter, r *http.Request) {
	id := domain.AlertID(chi.URLParam(r, "id"))
	if err := s.Engine.ArchiveAlert(r.Context(), apimw.UserFrom(r.Context()), id, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

func (s *Server) handleTriggerReminders(w http.ResponseWriter, r *http.Request) {
	caller := apimw.UserFrom(r.Context())
	if err := s.Engine.TriggerReminders(r.Context(), caller, time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}
	s.Logger.Info("reminders_triggered", zap.String("by", string(caller)))
	writeJSON(w, http.StatusOK, map[string]string{"message": "reminders triggered"})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	d, err := s.Engine.Dashboard(r.Context(), apimw.UserFrom(r.Context()), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ---- user ----

func (s *Server) handleUserAlerts(w http.ResponseWriter, r *http.Request) {
	out, err := s.Engine.AlertsForUser(r.Context(), apimw.UserFrom(r.Context()), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []engine.UserAlert{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSnoozeAlert(w http.ResponseWriter, r *http.Request) {
	id := domain.AlertID(chi.URLParam(r, "id"))
	p, err := s.Engine.SnoozeAlert(r.Context(), apimw.UserFrom(r.Context()), id, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id := domain.AlertID(chi.URLParam(r, "id"))
	p, err := s.Engine.MarkAlertRead(r.Context(), apimw.UserFrom(r.Context()), id, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUserPreferences(w http.ResponseWriter, r *http.Request) {
	out, err := s.Engine.PreferencesForUser(r.Context(), apimw.UserFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []*domain.Preference{}
	}
	writeJSON(w, http.StatusOK, out)
}
