package directory

import (
	"context"
	"sync"

	"github.com/hamed0406/alerthub/internal/domain"
)

// Directory is the identity collaborator: who exists, who is on which
// team, and who may administer alerts. Backed in production by the org's
// user service; the Static implementation below serves dev and tests.
type Directory interface {
	IsAdmin(ctx context.Context, user domain.UserID) (bool, error)
	AllUsers(ctx context.Context) ([]domain.UserID, error)
	TeamMembers(ctx context.Context, team domain.TeamID) ([]domain.UserID, error)
	UserTeam(ctx context.Context, user domain.UserID) (domain.TeamID, bool, error)
}

type Member struct {
	ID    domain.UserID
	Team  domain.TeamID // empty means no team
	Admin bool
}

type Static struct {
	mu      sync.RWMutex
	members map[domain.UserID]Member
}

func NewStatic(members []Member) *Static {
	s := &Static{members: make(map[domain.UserID]Member, len(members))}
	for _, m := range members {
		s.members[m.ID] = m
	}
	return s
}

// Add registers or replaces a member. Handy for tests and the dev fixture.
func (s *Static) Add(m Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
}

func (s *Static) IsAdmin(ctx context.Context, user domain.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[user]
	return ok && m.Admin, nil
}

func (s *Static) AllUsers(ctx context.Context) ([]domain.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserID, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	return out, nil
}

func (s *Static) TeamMembers(ctx context.Context, team domain.TeamID) ([]domain.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.UserID
	for id, m := range s.members {
		if m.Team == team {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *Static) UserTeam(ctx context.Context, user domain.UserID) (domain.TeamID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[user]
	if !ok || m.Team == "" {
		return "", false, nil
	}
	return m.Team, true, nil
}
