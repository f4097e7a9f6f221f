package channel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/alerthub/internal/domain"
)

// Email and SMS are future scope: they log the intent and write nothing
// to the ledger, and they never fail a fan-out.

type Email struct {
	Log *zap.Logger
}

func (c *Email) Send(ctx context.Context, user domain.UserID, a *domain.Alert, now time.Time) (*domain.Delivery, error) {
	c.Log.Info("email_send_intent",
		zap.String("user_id", string(user)),
		zap.String("alert_id", string(a.ID)),
		zap.String("title", a.Title),
	)
	return nil, nil
}

type SMS struct {
	Log *zap.Logger
}

func (c *SMS) Send(ctx context.Context, user domain.UserID, a *domain.Alert, now time.Time) (*domain.Delivery, error) {
	c.Log.Info("sms_send_intent",
		zap.String("user_id", string(user)),
		zap.String("alert_id", string(a.ID)),
		zap.String("title", a.Title),
	)
	return nil, nil
}
