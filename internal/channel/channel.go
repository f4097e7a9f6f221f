package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/alerthub/internal/domain"
)

// Channel carries one alert to one recipient. Implementations may return
// a nil record when they log intent without writing to the ledger (the
// email and SMS stubs do).
type Channel interface {
	Send(ctx context.Context, user domain.UserID, a *domain.Alert, now time.Time) (*domain.Delivery, error)
}

// Registry dispatches on the alert's delivery kind.
type Registry map[domain.DeliveryKind]Channel

// For returns the channel registered for kind. An alert carrying a kind
// nobody registered is a configuration error, not something to drop.
func (r Registry) For(kind domain.DeliveryKind) (Channel, error) {
	c, ok := r[kind]
	if c == nil || !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedChannel, kind)
	}
	return c, nil
}
