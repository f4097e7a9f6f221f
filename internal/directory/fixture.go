package directory

import "github.com/hamed0406/alerthub/internal/domain"

const (
	TeamEngineering domain.TeamID = "engineering"
	TeamMarketing   domain.TeamID = "marketing"
	TeamSales       domain.TeamID = "sales"
)

// DevFixture is a small built-in org used when no directory backend is
// configured: one admin plus two members per team.
func DevFixture() *Static {
	return NewStatic([]Member{
		{ID: "admin", Admin: true},
		{ID: "alice", Team: TeamEngineering},
		{ID: "bob", Team: TeamEngineering},
		{ID: "carol", Team: TeamMarketing},
		{ID: "dave", Team: TeamMarketing},
		{ID: "erin", Team: TeamSales},
		{ID: "frank", Team: TeamSales},
	})
}
