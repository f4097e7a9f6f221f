package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/alerthub/internal/audience"
	"github.com/hamed0406/alerthub/internal/channel"
	"github.com/hamed0406/alerthub/internal/directory"
	"github.com/hamed0406/alerthub/internal/domain"
	"github.com/hamed0406/alerthub/internal/repo"
)

type Config struct {
	// MaxConcurrentSends bounds the worker pool shared by fan-out and the
	// reminder sweep.
	MaxConcurrentSends int
	// SendTimeout bounds one channel call; a hung channel counts as a
	// failed delivery after this long.
	SendTimeout time.Duration
	// FanOutTimeout bounds the detached fan-out launched by CreateAlert.
	FanOutTimeout time.Duration
}

// Engine composes the audience resolver, the channel registry and the
// stores into the operations the API layer calls. Every operation takes
// its clock reading as an argument so behavior is reproducible in tests.
type Engine struct {
	log        *zap.Logger
	alerts     repo.AlertStore
	prefs      repo.PreferenceStore
	deliveries repo.DeliveryStore
	stats      repo.StatsStore
	dir        directory.Directory
	resolver   *audience.Resolver
	channels   channel.Registry
	cfg        Config

	mu       sync.Mutex
	inflight map[pairKey]struct{}
}

type pairKey struct {
	user  domain.UserID
	alert domain.AlertID
}

func New(
	log *zap.Logger,
	alerts repo.AlertStore,
	prefs repo.PreferenceStore,
	deliveries repo.DeliveryStore,
	stats repo.StatsStore,
	dir directory.Directory,
	channels channel.Registry,
	cfg Config,
) *Engine {
	if cfg.MaxConcurrentSends < 1 {
		cfg.MaxConcurrentSends = 8
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if cfg.FanOutTimeout <= 0 {
		cfg.FanOutTimeout = 2 * time.Minute
	}
	return &Engine{
		log:        log,
		alerts:     alerts,
		prefs:      prefs,
		deliveries: deliveries,
		stats:      stats,
		dir:        dir,
		resolver:   audience.NewResolver(dir),
		channels:   channels,
		cfg:        cfg,
		inflight:   make(map[pairKey]struct{}),
	}
}

// CreateAlertInput carries the admin-supplied fields. Zero values fall
// back to the product defaults (INFO, IN_APP, 2h reminder interval,
// start=now).
type CreateAlertInput struct {
	Title       string
	Message     string
	Severity    domain.Severity
	Delivery    domain.DeliveryKind
	Visibility  domain.VisibilityKind
	TargetTeams []domain.TeamID
	TargetUsers []domain.UserID

	StartTime             time.Time
	ExpiryTime            time.Time
	ReminderIntervalHours int
	RemindersEnabled      bool
}

// CreateAlert persists a new alert and kicks off the initial fan-out on
// a detached goroutine: audience size is unbounded and the creator must
// not block on the full batch.
func (e *Engine) CreateAlert(ctx context.Context, creator domain.UserID, in CreateAlertInput, now time.Time) (*domain.Alert, error) {
	admin, err := e.dir.IsAdmin(ctx, creator)
	if err != nil {
		return nil, fmt.Errorf("admin lookup: %w", err)
	}
	if !admin {
		return nil, domain.ErrPermissionDenied
	}

	a, err := buildAlert(creator, in, now)
	if err != nil {
		return nil, err
	}
	// Fail fast on a delivery kind nobody can serve.
	if _, err := e.channels.For(a.Delivery); err != nil {
		return nil, err
	}
	if err := e.alerts.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}

	// Fire-and-continue: the fan-out outlives the request context.
	bg := context.WithoutCancel(ctx)
	go func() {
		fctx, cancel := context.WithTimeout(bg, e.cfg.FanOutTimeout)
		defer cancel()
		if _, err := e.FanOut(fctx, a, now); err != nil {
			e.log.Warn("fanout_error",
				zap.String("alert_id", string(a.ID)),
				zap.Error(err),
			)
		}
	}()

	return a, nil
}

func buildAlert(creator domain.UserID, in CreateAlertInput, now time.Time) (*domain.Alert, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title required", domain.ErrInvalidAlert)
	}
	if in.Severity == "" {
		in.Severity = domain.SeverityInfo
	}
	if in.Delivery == "" {
		in.Delivery = domain.DeliveryInApp
	}
	if !in.Severity.Valid() {
		return nil, fmt.Errorf("%w: severity %q", domain.ErrInvalidAlert, in.Severity)
	}
	if !in.Delivery.Valid() {
		return nil, fmt.Errorf("%w: delivery type %q", domain.ErrInvalidAlert, in.Delivery)
	}
	if !in.Visibility.Valid() {
		return nil, fmt.Errorf("%w: visibility %q", domain.ErrInvalidAlert, in.Visibility)
	}
	if in.StartTime.IsZero() {
		in.StartTime = now
	}
	if !in.ExpiryTime.After(in.StartTime) {
		return nil, fmt.Errorf("%w: expiry must be after start", domain.ErrInvalidAlert)
	}
	if in.ReminderIntervalHours == 0 {
		in.ReminderIntervalHours = 2
	}
	if in.ReminderIntervalHours < 1 {
		return nil, fmt.Errorf("%w: reminder interval must be >= 1h", domain.ErrInvalidAlert)
	}
	return &domain.Alert{
		ID:                    domain.AlertID(uuid.NewString()),
		Title:                 in.Title,
		Message:               in.Message,
		Severity:              in.Severity,
		Delivery:              in.Delivery,
		Visibility:            in.Visibility,
		TargetTeams:           in.TargetTeams,
		TargetUsers:           in.TargetUsers,
		StartTime:             in.StartTime,
		ExpiryTime:            in.ExpiryTime,
		ReminderIntervalHours: in.ReminderIntervalHours,
		RemindersEnabled:      in.RemindersEnabled,
		Active:                true,
		CreatedBy:             creator,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// FanOut delivers one alert to every resolved recipient. One bad
// recipient never blocks the rest: per-recipient failures are recorded
// in the ledger and logged, and the batch still returns the successes.
func (e *Engine) FanOut(ctx context.Context, a *domain.Alert, now time.Time) ([]*domain.Delivery, error) {
	ch, err := e.channels.For(a.Delivery)
	if err != nil {
		return nil, err
	}
	users, err := e.resolver.Resolve(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("resolve audience: %w", err)
	}

	var (
		mu   sync.Mutex
		out  []*domain.Delivery
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(e.cfg.MaxConcurrentSends)
	for _, user := range users {
		user := user
		g.Go(func() error {
			d, sendErr := e.sendOne(ctx, ch, user, a, now)
			mu.Lock()
			if d != nil {
				out = append(out, d)
			}
			if sendErr != nil {
				errs = append(errs, sendErr)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if combined := multierr.Combine(errs...); combined != nil {
		e.log.Warn("fanout_partial_failure",
			zap.String("alert_id", string(a.ID)),
			zap.Int("failed", len(errs)),
			zap.Int("sent", len(out)),
			zap.Error(combined),
		)
	}
	e.log.Info("fanout_done",
		zap.String("alert_id", string(a.ID)),
		zap.Int("recipients", len(users)),
		zap.Int("deliveries", len(out)),
	)
	return out, nil
}

// sendOne runs a single bounded channel call. On failure it appends a
// FAILED ledger row so the miss is visible, and returns the error for
// aggregate logging only.
func (e *Engine) sendOne(ctx context.Context, ch channel.Channel, user domain.UserID, a *domain.Alert, now time.Time) (*domain.Delivery, error) {
	sctx, cancel := context.WithTimeout(ctx, e.cfg.SendTimeout)
	defer cancel()

	d, err := ch.Send(sctx, user, a, now)
	if err == nil {
		return d, nil
	}

	failed := &domain.Delivery{
		UserID:       user,
		AlertID:      a.ID,
		Method:       a.Delivery,
		Status:       domain.DeliveryFailed,
		ScheduledAt:  now,
		AttemptCount: 1,
		ErrorMessage: err.Error(),
	}
	if appendErr := e.deliveries.Append(ctx, failed); appendErr != nil {
		e.log.Warn("failed_delivery_record_error",
			zap.String("user_id", string(user)),
			zap.String("alert_id", string(a.ID)),
			zap.Error(appendErr),
		)
	}
	e.log.Warn("send_failed",
		zap.String("user_id", string(user)),
		zap.String("alert_id", string(a.ID)),
		zap.Error(err),
	)
	return nil, err
}
