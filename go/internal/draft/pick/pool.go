package pick

import (
	"fmt"
	"sort"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// Pool is the fixed team catalog for one draft plus the taken flag per team.
// A Pool is owned by a single draft goroutine and is not safe for concurrent use.
type Pool struct {
	teams map[string]models.Team
	ids   []string // sorted
	taken map[string]bool
}

// NewPool builds a pool from the catalog. Team ids must be unique and non-empty.
func NewPool(teams []models.Team) (*Pool, error) {
	p := &Pool{
		teams: make(map[string]models.Team, len(teams)),
		ids:   make([]string, 0, len(teams)),
		taken: make(map[string]bool, len(teams)),
	}
	for _, t := range teams {
		if t.ID == "" {
			return nil, fmt.Errorf("team %q has no id", t.Name)
		}
		if _, ok := p.teams[t.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTeam, t.ID)
		}
		p.teams[t.ID] = t
		p.ids = append(p.ids, t.ID)
	}
	sort.Strings(p.ids)
	return p, nil
}

// Size returns the number of teams in the catalog.
func (p *Pool) Size() int { return len(p.ids) }

// Has reports whether id belongs to the catalog.
func (p *Pool) Has(id string) bool {
	_, ok := p.teams[id]
	return ok
}

// Team looks up a catalog entry.
func (p *Pool) Team(id string) (models.Team, bool) {
	t, ok := p.teams[id]
	return t, ok
}

// IsTaken reports whether id has been marked taken.
func (p *Pool) IsTaken(id string) bool { return p.taken[id] }

// MarkTaken flags a team as drafted.
func (p *Pool) MarkTaken(id string) error {
	if !p.Has(id) {
		return fmt.Errorf("%w: %s", ErrUnknownTeam, id)
	}
	if p.taken[id] {
		return fmt.Errorf("%w: %s", ErrTeamAlreadyTaken, id)
	}
	p.taken[id] = true
	return nil
}

// Teams returns the full catalog ordered by id.
func (p *Pool) Teams() []models.Team {
	out := make([]models.Team, 0, len(p.ids))
	for _, id := range p.ids {
		out = append(out, p.teams[id])
	}
	return out
}
