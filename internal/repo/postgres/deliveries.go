package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/alerthub/internal/domain"
)

// ---- DeliveryStore ----

func (s *Store) Append(ctx context.Context, d *domain.Delivery) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO deliveries
		   (id, user_id, alert_id, delivery_method, status,
		    scheduled_at, delivered_at, attempt_count, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		d.ID, string(d.UserID), string(d.AlertID), string(d.Method), string(d.Status),
		d.ScheduledAt, d.DeliveredAt, d.AttemptCount, d.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

func (s *Store) LastSuccessful(ctx context.Context, user domain.UserID, alert domain.AlertID) (*domain.Delivery, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, delivery_method, status, scheduled_at, delivered_at, attempt_count, error_message
		   FROM deliveries
		  WHERE user_id=$1 AND alert_id=$2 AND status=$3 AND delivered_at IS NOT NULL
		  ORDER BY delivered_at DESC
		  LIMIT 1`,
		string(user), string(alert), string(domain.DeliverySent))

	d := domain.Delivery{UserID: user, AlertID: alert}
	var method, status string
	err := row.Scan(&d.ID, &method, &status, &d.ScheduledAt, &d.DeliveredAt, &d.AttemptCount, &d.ErrorMessage)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last successful delivery: %w", err)
	}
	d.Method = domain.DeliveryKind(method)
	d.Status = domain.DeliveryStatus(status)
	return &d, nil
}

func (s *Store) ListByAlert(ctx context.Context, alert domain.AlertID) ([]*domain.Delivery, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, delivery_method, status, scheduled_at, delivered_at, attempt_count, error_message
		   FROM deliveries
		  WHERE alert_id=$1
		  ORDER BY scheduled_at DESC`,
		string(alert))
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []*domain.Delivery
	for rows.Next() {
		d := domain.Delivery{AlertID: alert}
		var userID, method, status string
		if err := rows.Scan(&d.ID, &userID, &method, &status, &d.ScheduledAt, &d.DeliveredAt, &d.AttemptCount, &d.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		d.UserID = domain.UserID(userID)
		d.Method = domain.DeliveryKind(method)
		d.Status = domain.DeliveryStatus(status)
		out = append(out, &d)
	}
	return out, rows.Err()
}
