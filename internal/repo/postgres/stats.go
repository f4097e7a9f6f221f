package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/alerthub/internal/domain"
	"github.com/hamed0406/alerthub/internal/repo"
)

// ---- StatsStore ----

func (s *Store) Stats(ctx context.Context, now time.Time) (*repo.Stats, error) {
	out := &repo.Stats{SeverityBreakdown: make(map[domain.Severity]int)}

	row := s.pool.QueryRow(ctx, `
SELECT (SELECT count(*) FROM alerts),
       (SELECT count(*) FROM alerts WHERE is_active AND expiry_time > $1),
       (SELECT count(*) FROM deliveries),
       (SELECT count(*) FROM deliveries WHERE status = 'SENT'),
       (SELECT count(*) FROM preferences),
       (SELECT count(*) FROM preferences WHERE status = 'READ'),
       (SELECT count(*) FROM preferences WHERE status = 'SNOOZED')`, now)
	if err := row.Scan(&out.TotalAlerts, &out.ActiveAlerts,
		&out.TotalDeliveries, &out.SentDeliveries,
		&out.TotalPreferences, &out.ReadCount, &out.SnoozedCount); err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT severity, count(*) FROM alerts GROUP BY severity`)
	if err != nil {
		return nil, fmt.Errorf("severity breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sev string
		var n int
		if err := rows.Scan(&sev, &n); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		out.SeverityBreakdown[domain.Severity(sev)] = n
	}
	return out, rows.Err()
}

func (s *Store) TopAlerts(ctx context.Context, limit int) ([]repo.AlertEngagement, error) {
	rows, err := s.pool.Query(ctx, `
SELECT a.id, a.title, a.severity,
       (SELECT count(*) FROM deliveries d WHERE d.alert_id = a.id AND d.status = 'SENT'),
       (SELECT count(*) FROM preferences p WHERE p.alert_id = a.id AND p.status = 'READ'),
       (SELECT count(*) FROM preferences p WHERE p.alert_id = a.id AND p.status = 'SNOOZED')
  FROM alerts a
 ORDER BY 4 DESC
 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("top alerts: %w", err)
	}
	defer rows.Close()

	var out []repo.AlertEngagement
	for rows.Next() {
		var e repo.AlertEngagement
		var id, sev string
		if err := rows.Scan(&id, &e.Title, &sev, &e.TotalSent, &e.TotalRead, &e.TotalSnoozed); err != nil {
			return nil, fmt.Errorf("scan top alert: %w", err)
		}
		e.AlertID = domain.AlertID(id)
		e.Severity = domain.Severity(sev)
		out = append(out, e)
	}
	return out, rows.Err()
}
