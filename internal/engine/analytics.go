package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/alerthub/internal/domain"
	"github.com/hamed0406/alerthub/internal/repo"
)

type Summary struct {
	repo.Stats
	DeliverySuccessRate float64 `json:"delivery_success_rate"`
	ReadRate            float64 `json:"read_rate"`
}

type TopAlert struct {
	repo.AlertEngagement
	ReadRate float64 `json:"read_rate"`
}

type Dashboard struct {
	Summary           Summary                 `json:"summary"`
	SeverityBreakdown map[domain.Severity]int `json:"severity_breakdown"`
	TopAlerts         []TopAlert              `json:"top_performing_alerts"`
}

// Dashboard aggregates delivery and engagement metrics for admins.
func (e *Engine) Dashboard(ctx context.Context, caller domain.UserID, now time.Time) (*Dashboard, error) {
	if err := e.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	stats, err := e.stats.Stats(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	top, err := e.stats.TopAlerts(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("top alerts: %w", err)
	}

	sum := Summary{Stats: *stats}
	if stats.TotalDeliveries > 0 {
		sum.DeliverySuccessRate = float64(stats.SentDeliveries) / float64(stats.TotalDeliveries) * 100
	}
	if stats.TotalPreferences > 0 {
		sum.ReadRate = float64(stats.ReadCount) / float64(stats.TotalPreferences) * 100
	}

	out := &Dashboard{
		Summary:           sum,
		SeverityBreakdown: stats.SeverityBreakdown,
		TopAlerts:         make([]TopAlert, 0, len(top)),
	}
	for _, t := range top {
		ta := TopAlert{AlertEngagement: t}
		if t.TotalSent > 0 {
			ta.ReadRate = float64(t.TotalRead) / float64(t.TotalSent) * 100
		}
		out.TopAlerts = append(out.TopAlerts, ta)
	}
	return out, nil
}
