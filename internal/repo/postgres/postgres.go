package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/alerthub/internal/domain"
	"github.com/hamed0406/alerthub/internal/repo"
)

var (
	_ repo.AlertStore      = (*Store)(nil)
	_ repo.PreferenceStore = (*Store)(nil)
	_ repo.DeliveryStore   = (*Store)(nil)
	_ repo.StatsStore      = (*Store)(nil)
)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- AlertStore ----

const alertColumns = `id, title, message, severity, delivery_type, visibility_type,
       target_teams, target_users, start_time, expiry_time,
       reminder_frequency_hours, reminders_enabled, is_active,
       created_by, created_at, updated_at`

func (s *Store) Create(ctx context.Context, a *domain.Alert) error {
	if a.ID == "" {
		a.ID = domain.AlertID(uuid.NewString())
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO alerts (`+alertColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		string(a.ID), a.Title, a.Message, string(a.Severity), string(a.Delivery),
		string(a.Visibility), teamStrings(a.TargetTeams), userStrings(a.TargetUsers),
		a.StartTime, a.ExpiryTime, a.ReminderIntervalHours, a.RemindersEnabled,
		a.Active, string(a.CreatedBy), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.AlertID) (*domain.Alert, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE id = $1`, string(id))
	a, err := scanAlert(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

func (s *Store) Update(ctx context.Context, a *domain.Alert) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE alerts
		    SET title=$2, message=$3, severity=$4, delivery_type=$5,
		        visibility_type=$6, target_teams=$7, target_users=$8,
		        start_time=$9, expiry_time=$10, reminder_frequency_hours=$11,
		        reminders_enabled=$12, is_active=$13, updated_at=$14
		  WHERE id=$1`,
		string(a.ID), a.Title, a.Message, string(a.Severity), string(a.Delivery),
		string(a.Visibility), teamStrings(a.TargetTeams), userStrings(a.TargetUsers),
		a.StartTime, a.ExpiryTime, a.ReminderIntervalHours, a.RemindersEnabled,
		a.Active, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, f repo.AlertFilter) ([]*domain.Alert, error) {
	q := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`
	args := []any{}
	if f.Severity != "" {
		args = append(args, string(f.Severity))
		q += fmt.Sprintf(" AND severity=$%d", len(args))
	}
	switch f.Status {
	case "active":
		args = append(args, f.Now)
		q += fmt.Sprintf(" AND is_active AND expiry_time > $%d", len(args))
	case "expired":
		args = append(args, f.Now)
		q += fmt.Sprintf(" AND expiry_time <= $%d", len(args))
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

func (s *Store) ListDueForReminders(ctx context.Context, now time.Time) ([]*domain.Alert, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+alertColumns+`
		   FROM alerts
		  WHERE is_active AND reminders_enabled AND expiry_time > $1`, now)
	if err != nil {
		return nil, fmt.Errorf("list due alerts: %w", err)
	}
	defer rows.Close()
	return scanAlerts(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*domain.Alert, error) {
	var (
		a            domain.Alert
		id           string
		sev, del     string
		vis          string
		teams, users []string
		createdBy    string
	)
	err := row.Scan(&id, &a.Title, &a.Message, &sev, &del, &vis,
		&teams, &users, &a.StartTime, &a.ExpiryTime,
		&a.ReminderIntervalHours, &a.RemindersEnabled, &a.Active,
		&createdBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ID = domain.AlertID(id)
	a.Severity = domain.Severity(sev)
	a.Delivery = domain.DeliveryKind(del)
	a.Visibility = domain.VisibilityKind(vis)
	a.CreatedBy = domain.UserID(createdBy)
	for _, t := range teams {
		a.TargetTeams = append(a.TargetTeams, domain.TeamID(t))
	}
	for _, u := range users {
		a.TargetUsers = append(a.TargetUsers, domain.UserID(u))
	}
	return &a, nil
}

func scanAlerts(rows pgx.Rows) ([]*domain.Alert, error) {
	var out []*domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func teamStrings(in []domain.TeamID) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		out = append(out, string(t))
	}
	return out
}

func userStrings(in []domain.UserID) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		out = append(out, string(u))
	}
	return out
}
