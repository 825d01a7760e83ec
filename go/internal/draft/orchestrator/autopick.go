package orchestrator

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/mcdev12/draftroom/go/internal/models"
)

var ErrNoTeamsAvailable = errors.New("no teams available")

// AutoPickStrategy chooses a team when a turn times out or a robot is up.
// available is ordered by team id. Implementations must not retain the slice.
type AutoPickStrategy interface {
	SelectTeam(available []models.Team, turn models.TurnPointer) (models.Team, error)
}

// Strategy names accepted by StrategyByName.
const (
	StrategyBestRanked = "best_ranked"
	StrategyLowestID   = "lowest_id"
	StrategyRandom     = "random"
)

// StrategyByName builds a strategy from configuration.
func StrategyByName(name string, seed int64) (AutoPickStrategy, error) {
	switch name {
	case "", StrategyBestRanked:
		return BestRankedStrategy{}, nil
	case StrategyLowestID:
		return LowestIDStrategy{}, nil
	case StrategyRandom:
		return NewRandomStrategy(seed), nil
	default:
		return nil, fmt.Errorf("unknown auto-pick strategy %q", name)
	}
}

// LowestIDStrategy takes the available team with the smallest id.
type LowestIDStrategy struct{}

func (LowestIDStrategy) SelectTeam(available []models.Team, _ models.TurnPointer) (models.Team, error) {
	if len(available) == 0 {
		return models.Team{}, ErrNoTeamsAvailable
	}
	best := available[0]
	for _, t := range available[1:] {
		if t.ID < best.ID {
			best = t
		}
	}
	return best, nil
}

// BestRankedStrategy takes the best ranked team. Unranked teams come last and
// ties fall back to the lowest id.
type BestRankedStrategy struct{}

func (BestRankedStrategy) SelectTeam(available []models.Team, _ models.TurnPointer) (models.Team, error) {
	if len(available) == 0 {
		return models.Team{}, ErrNoTeamsAvailable
	}
	ranked := make([]models.Team, len(available))
	copy(ranked, available)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch {
		case a.Rank == b.Rank:
			return a.ID < b.ID
		case a.Rank == 0:
			return false
		case b.Rank == 0:
			return true
		default:
			return a.Rank < b.Rank
		}
	})
	return ranked[0], nil
}

// RandomStrategy uses random choice for the team.
type RandomStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomStrategy constructs a RandomStrategy with its own source. A zero
// seed draws one from the wall clock.
func NewRandomStrategy(seed int64) *RandomStrategy {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomStrategy{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomStrategy) SelectTeam(available []models.Team, _ models.TurnPointer) (models.Team, error) {
	if len(available) == 0 {
		return models.Team{}, ErrNoTeamsAvailable
	}
	s.mu.Lock()
	i := s.rng.Intn(len(available))
	s.mu.Unlock()
	return available[i], nil
}
