package pick

import (
	"fmt"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// Ledger is the append-only record of accepted picks for one draft.
// Pick numbers are contiguous from 1 and each team appears at most once.
type Ledger struct {
	picks  []models.DraftPick
	byTeam map[string]int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{byTeam: make(map[string]int)}
}

// Len returns the number of accepted picks.
func (l *Ledger) Len() int { return len(l.picks) }

// NextPickNumber is the pick number the next append must carry.
func (l *Ledger) NextPickNumber() int { return len(l.picks) + 1 }

// Append records p. It fails without side effects when p would break
// contiguity or draft a team twice.
func (l *Ledger) Append(p models.DraftPick) error {
	if p.PickNumber != l.NextPickNumber() {
		return fmt.Errorf("%w: got %d, want %d", ErrOutOfSequence, p.PickNumber, l.NextPickNumber())
	}
	if n, ok := l.byTeam[p.TeamID]; ok {
		return fmt.Errorf("%w: %s at pick %d", ErrTeamAlreadyTaken, p.TeamID, n)
	}
	l.picks = append(l.picks, p)
	l.byTeam[p.TeamID] = p.PickNumber
	return nil
}

// Contains reports whether teamID has already been drafted.
func (l *Ledger) Contains(teamID string) bool {
	_, ok := l.byTeam[teamID]
	return ok
}

// Last returns the most recent pick.
func (l *Ledger) Last() (models.DraftPick, bool) {
	if len(l.picks) == 0 {
		return models.DraftPick{}, false
	}
	return l.picks[len(l.picks)-1], true
}

// Picks returns a copy of the ledger in pick order.
func (l *Ledger) Picks() []models.DraftPick {
	out := make([]models.DraftPick, len(l.picks))
	copy(out, l.picks)
	return out
}

// Available returns the pool's teams not present in the ledger, ordered by id.
func (l *Ledger) Available(pool *Pool) []models.Team {
	out := make([]models.Team, 0, pool.Size()-len(l.picks))
	for _, t := range pool.Teams() {
		if !l.Contains(t.ID) {
			out = append(out, t)
		}
	}
	return out
}

// Verify checks that every pick references a pool team and that the pool's
// taken flags agree with the ledger.
func (l *Ledger) Verify(pool *Pool) error {
	for i, p := range l.picks {
		if p.PickNumber != i+1 {
			return fmt.Errorf("%w: index %d holds pick %d", ErrOutOfSequence, i, p.PickNumber)
		}
		if !pool.Has(p.TeamID) {
			return fmt.Errorf("%w: pick %d references %s", ErrUnknownTeam, p.PickNumber, p.TeamID)
		}
		if !pool.IsTaken(p.TeamID) {
			return fmt.Errorf("team %s drafted at pick %d is not marked taken", p.TeamID, p.PickNumber)
		}
	}
	if taken := len(pool.taken); taken != len(l.picks) {
		return fmt.Errorf("pool marks %d teams taken, ledger holds %d picks", taken, len(l.picks))
	}
	return nil
}
