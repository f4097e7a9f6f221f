package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/alerthub/internal/domain"
	"github.com/hamed0406/alerthub/internal/repo"
)

var (
	_ repo.AlertStore      = (*Store)(nil)
	_ repo.PreferenceStore = (*Store)(nil)
	_ repo.DeliveryStore   = (*Store)(nil)
	_ repo.StatsStore      = (*Store)(nil)
)

type pairKey struct {
	user  domain.UserID
	alert domain.AlertID
}

type Store struct {
	mu         sync.RWMutex
	alerts     map[domain.AlertID]*domain.Alert
	prefs      map[pairKey]*domain.Preference
	deliveries []*domain.Delivery
}

func New() *Store {
	return &Store{
		alerts:     make(map[domain.AlertID]*domain.Alert),
		prefs:      make(map[pairKey]*domain.Preference),
		deliveries: make([]*domain.Delivery, 0, 128),
	}
}

// ---- AlertStore ----

func (m *Store) Create(ctx context.Context, a *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = domain.AlertID(uuid.NewString())
	}
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *Store) Get(ctx context.Context, id domain.AlertID) (*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *Store) Update(ctx context.Context, a *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[a.ID]; !ok {
		return nil
	}
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *Store) List(ctx context.Context, f repo.AlertFilter) ([]*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		if f.Severity != "" && a.Severity != f.Severity {
			continue
		}
		switch f.Status {
		case "active":
			if !a.IsCurrentlyActive(f.Now) {
				continue
			}
		case "expired":
			if !a.IsExpired(f.Now) {
				continue
			}
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) ListDueForReminders(ctx context.Context, now time.Time) ([]*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Alert
	for _, a := range m.alerts {
		if a.Active && a.RemindersEnabled && a.ExpiryTime.After(now) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- PreferenceStore ----

// GetOrCreate is insert-if-absent under the write lock, which gives the
// same exactly-once guarantee the SQL adapter gets from its unique key.
func (m *Store) GetOrCreate(ctx context.Context, user domain.UserID, alert domain.AlertID, now time.Time) (*domain.Preference, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := pairKey{user: user, alert: alert}
	if p, ok := m.prefs[k]; ok {
		cp := *p
		return &cp, false, nil
	}
	p := &domain.Preference{
		UserID:           user,
		AlertID:          alert,
		Status:           domain.StatusUnread,
		FirstDeliveredAt: now,
	}
	m.prefs[k] = p
	cp := *p
	return &cp, true, nil
}

func (m *Store) Find(ctx context.Context, user domain.UserID, alert domain.AlertID) (*domain.Preference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prefs[pairKey{user: user, alert: alert}]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *Store) Save(ctx context.Context, p *domain.Preference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.prefs[pairKey{user: p.UserID, alert: p.AlertID}] = &cp
	return nil
}

func (m *Store) ListByUser(ctx context.Context, user domain.UserID) ([]*domain.Preference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Preference
	for _, p := range m.prefs {
		if p.UserID == user {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FirstDeliveredAt.After(out[j].FirstDeliveredAt) })
	return out, nil
}

// ---- DeliveryStore ----

func (m *Store) Append(ctx context.Context, d *domain.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	cp := *d
	m.deliveries = append(m.deliveries, &cp)
	return nil
}

func (m *Store) LastSuccessful(ctx context.Context, user domain.UserID, alert domain.AlertID) (*domain.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *domain.Delivery
	for _, d := range m.deliveries {
		if d.UserID != user || d.AlertID != alert || d.Status != domain.DeliverySent || d.DeliveredAt == nil {
			continue
		}
		if best == nil || d.DeliveredAt.After(*best.DeliveredAt) {
			best = d
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *Store) ListByAlert(ctx context.Context, alert domain.AlertID) ([]*domain.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Delivery
	for _, d := range m.deliveries {
		if d.AlertID == alert {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- StatsStore ----

func (m *Store) Stats(ctx context.Context, now time.Time) (*repo.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := &repo.Stats{SeverityBreakdown: make(map[domain.Severity]int)}
	for _, a := range m.alerts {
		s.TotalAlerts++
		s.SeverityBreakdown[a.Severity]++
		if a.IsCurrentlyActive(now) {
			s.ActiveAlerts++
		}
	}
	for _, d := range m.deliveries {
		s.TotalDeliveries++
		if d.Status == domain.DeliverySent {
			s.SentDeliveries++
		}
	}
	for _, p := range m.prefs {
		s.TotalPreferences++
		switch p.Status {
		case domain.StatusRead:
			s.ReadCount++
		case domain.StatusSnoozed:
			s.SnoozedCount++
		}
	}
	return s, nil
}

func (m *Store) TopAlerts(ctx context.Context, limit int) ([]repo.AlertEngagement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byAlert := make(map[domain.AlertID]*repo.AlertEngagement)
	for _, a := range m.alerts {
		byAlert[a.ID] = &repo.AlertEngagement{AlertID: a.ID, Title: a.Title, Severity: a.Severity}
	}
	for _, d := range m.deliveries {
		if e := byAlert[d.AlertID]; e != nil && d.Status == domain.DeliverySent {
			e.TotalSent++
		}
	}
	for _, p := range m.prefs {
		e := byAlert[p.AlertID]
		if e == nil {
			continue
		}
		switch p.Status {
		case domain.StatusRead:
			e.TotalRead++
		case domain.StatusSnoozed:
			e.TotalSnoozed++
		}
	}
	out := make([]repo.AlertEngagement, 0, len(byAlert))
	for _, e := range byAlert {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalSent > out[j].TotalSent })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
