package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/alerthub/internal/domain"
	"github.com/hamed0406/alerthub/internal/repo"
)

// InApp is the only channel with real side effects: it ensures the
// recipient has a preference row and appends a SENT row to the ledger.
type InApp struct {
	Prefs      repo.PreferenceStore
	Deliveries repo.DeliveryStore
}

func NewInApp(prefs repo.PreferenceStore, deliveries repo.DeliveryStore) *InApp {
	return &InApp{Prefs: prefs, Deliveries: deliveries}
}

func (c *InApp) Send(ctx context.Context, user domain.UserID, a *domain.Alert, now time.Time) (*domain.Delivery, error) {
	// Insert-if-absent: a recipient who already read or snoozed must not
	// be flipped back to UNREAD by a reminder send.
	if _, _, err := c.Prefs.GetOrCreate(ctx, user, a.ID, now); err != nil {
		return nil, fmt.Errorf("preference get_or_create: %w", err)
	}

	delivered := now
	d := &domain.Delivery{
		UserID:       user,
		AlertID:      a.ID,
		Method:       domain.DeliveryInApp,
		Status:       domain.DeliverySent,
		ScheduledAt:  now,
		DeliveredAt:  &delivered,
		AttemptCount: 1,
	}
	if err := c.Deliveries.Append(ctx, d); err != nil {
		return nil, fmt.Errorf("delivery append: %w", err)
	}
	return d, nil
}
