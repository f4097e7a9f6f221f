package audience

import (
	"context"

	"github.com/hamed0406/alerthub/internal/directory"
	"github.com/hamed0406/alerthub/internal/domain"
)

// Resolver turns an alert's visibility rule into the set of recipients.
// Read-only; an empty result just means the alert reaches nobody.
type Resolver struct {
	Dir directory.Directory
}

func NewResolver(dir directory.Directory) *Resolver {
	return &Resolver{Dir: dir}
}

// Resolve returns the deduplicated recipient set. Order is unspecified.
func (r *Resolver) Resolve(ctx context.Context, a *domain.Alert) ([]domain.UserID, error) {
	seen := make(map[domain.UserID]struct{})
	add := func(ids []domain.UserID) {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	switch a.Visibility {
	case domain.VisibilityOrganization:
		all, err := r.Dir.AllUsers(ctx)
		if err != nil {
			return nil, err
		}
		add(all)
	case domain.VisibilityTeam:
		for _, team := range a.TargetTeams {
			members, err := r.Dir.TeamMembers(ctx, team)
			if err != nil {
				return nil, err
			}
			add(members)
		}
	case domain.VisibilityUser:
		add(a.TargetUsers)
	}

	out := make([]domain.UserID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out, nil
}
