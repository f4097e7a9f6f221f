package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/alerthub/internal/domain"
)

// ---- PreferenceStore ----

// GetOrCreate leans on the unique (user_id, alert_id) key: the insert is
// ON CONFLICT DO NOTHING, so racing fan-outs agree on one row and an
// already-READ or SNOOZED row is never reset.
func (s *Store) GetOrCreate(ctx context.Context, user domain.UserID, alert domain.AlertID, now time.Time) (*domain.Preference, bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO preferences (user_id, alert_id, status, first_delivered_at)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (user_id, alert_id) DO NOTHING`,
		string(user), string(alert), string(domain.StatusUnread), now)
	if err != nil {
		return nil, false, fmt.Errorf("insert preference: %w", err)
	}
	created := tag.RowsAffected() > 0

	p, err := s.Find(ctx, user, alert)
	if err != nil {
		return nil, false, err
	}
	if p == nil {
		return nil, false, fmt.Errorf("preference vanished after upsert: %s/%s", user, alert)
	}
	return p, created, nil
}

func (s *Store) Find(ctx context.Context, user domain.UserID, alert domain.AlertID) (*domain.Preference, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT status, first_delivered_at, last_read_at, snoozed_until
		   FROM preferences
		  WHERE user_id=$1 AND alert_id=$2`,
		string(user), string(alert))

	p := domain.Preference{UserID: user, AlertID: alert}
	var status string
	err := row.Scan(&status, &p.FirstDeliveredAt, &p.LastReadAt, &p.SnoozedUntil)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find preference: %w", err)
	}
	p.Status = domain.PreferenceStatus(status)
	return &p, nil
}

func (s *Store) Save(ctx context.Context, p *domain.Preference) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE preferences
		    SET status=$3, last_read_at=$4, snoozed_until=$5
		  WHERE user_id=$1 AND alert_id=$2`,
		string(p.UserID), string(p.AlertID), string(p.Status), p.LastReadAt, p.SnoozedUntil)
	if err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, user domain.UserID) ([]*domain.Preference, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT alert_id, status, first_delivered_at, last_read_at, snoozed_until
		   FROM preferences
		  WHERE user_id=$1
		  ORDER BY first_delivered_at DESC`,
		string(user))
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	var out []*domain.Preference
	for rows.Next() {
		p := domain.Preference{UserID: user}
		var alertID, status string
		if err := rows.Scan(&alertID, &status, &p.FirstDeliveredAt, &p.LastReadAt, &p.SnoozedUntil); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		p.AlertID = domain.AlertID(alertID)
		p.Status = domain.PreferenceStatus(status)
		out = append(out, &p)
	}
	return out, rows.Err()
}
