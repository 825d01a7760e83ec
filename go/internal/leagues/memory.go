package leagues

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// MemoryRepository keeps leagues in process. It backs tests and the
// database-less mode of the server.
type MemoryRepository struct {
	mu      sync.Mutex
	leagues map[string]models.League
	members map[string][]models.Participant
}

// NewMemoryRepository returns an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		leagues: make(map[string]models.League),
		members: make(map[string][]models.Participant),
	}
}

func (r *MemoryRepository) CreateLeague(_ context.Context, l models.League) (models.League, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.leagues[l.ID]; ok {
		return existing, nil
	}
	r.leagues[l.ID] = l
	return l, nil
}

func (r *MemoryRepository) GetLeague(_ context.Context, id string) (models.League, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leagues[id]
	if !ok {
		return models.League{}, fmt.Errorf("league %s: %w", id, models.ErrNotFound)
	}
	return l, nil
}

func (r *MemoryRepository) ListMembers(_ context.Context, leagueID string) ([]models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Participant(nil), r.members[leagueID]...), nil
}

func (r *MemoryRepository) AddMember(_ context.Context, leagueID string, p models.Participant) (models.Participant, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leagues[leagueID]
	if !ok {
		return models.Participant{}, false, fmt.Errorf("league %s: %w", leagueID, models.ErrNotFound)
	}
	members := r.members[leagueID]
	for _, m := range members {
		if m.ID == p.ID {
			return m, false, nil
		}
	}
	if l.Size > 0 && len(members) >= l.Size {
		return models.Participant{}, false, fmt.Errorf("league %s has %d of %d members: %w", leagueID, len(members), l.Size, ErrLeagueFull)
	}
	members = append(members, p)
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].ID < members[j].ID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	r.members[leagueID] = members
	return p, true, nil
}
