package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/models"
)

func TestStrategies(t *testing.T) {
	available := []models.Team{
		{ID: "ARI", Rank: 0},
		{ID: "BUF", Rank: 2},
		{ID: "DAL", Rank: 0},
		{ID: "KC", Rank: 1},
	}

	tests := []struct {
		name     string
		strategy AutoPickStrategy
		want     string
	}{
		{name: "lowest id", strategy: LowestIDStrategy{}, want: "ARI"},
		{name: "best ranked", strategy: BestRankedStrategy{}, want: "KC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.strategy.SelectTeam(available, models.TurnPointer{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)

			_, err = tt.strategy.SelectTeam(nil, models.TurnPointer{})
			assert.ErrorIs(t, err, ErrNoTeamsAvailable)
		})
	}
}

func TestBestRankedFallsBackToLowestIDWhenUnranked(t *testing.T) {
	got, err := BestRankedStrategy{}.SelectTeam([]models.Team{{ID: "NYJ"}, {ID: "MIA"}}, models.TurnPointer{})
	require.NoError(t, err)
	assert.Equal(t, "MIA", got.ID)
}

func TestRandomStrategyIsSeeded(t *testing.T) {
	available := []models.Team{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}, {ID: "E"}}

	pick := func(s AutoPickStrategy) []string {
		var ids []string
		for i := 0; i < 10; i++ {
			team, err := s.SelectTeam(available, models.TurnPointer{})
			require.NoError(t, err)
			ids = append(ids, team.ID)
		}
		return ids
	}

	assert.Equal(t, pick(NewRandomStrategy(7)), pick(NewRandomStrategy(7)))
}

func TestStrategyByName(t *testing.T) {
	for _, name := range []string{"", StrategyBestRanked, StrategyLowestID, StrategyRandom} {
		s, err := StrategyByName(name, 1)
		require.NoError(t, err, name)
		assert.NotNil(t, s)
	}
	_, err := StrategyByName("alphabetical-by-mascot", 1)
	assert.Error(t, err)
}
