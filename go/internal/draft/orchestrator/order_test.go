package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/models"
)

func sequence(t *testing.T, order []string, policy models.OrderPolicy, picks int) []string {
	t.Helper()
	out := make([]string, 0, picks)
	for pn := 1; pn <= picks; pn++ {
		turn, err := TurnAt(order, policy, pn)
		require.NoError(t, err)
		out = append(out, turn.ParticipantID)
	}
	return out
}

func TestTurnAtPolicies(t *testing.T) {
	order := []string{"A", "B", "C"}

	tests := []struct {
		name   string
		policy models.OrderPolicy
		want   []string
	}{
		{
			name:   "static",
			policy: models.OrderPolicyStatic,
			want:   []string{"A", "B", "C", "A", "B", "C", "A", "B", "C", "A", "B", "C"},
		},
		{
			name:   "empty policy behaves as static",
			policy: "",
			want:   []string{"A", "B", "C", "A", "B", "C", "A", "B", "C", "A", "B", "C"},
		},
		{
			name:   "snake",
			policy: models.OrderPolicySnake,
			want:   []string{"A", "B", "C", "C", "B", "A", "A", "B", "C", "C", "B", "A"},
		},
		{
			name:   "third round reversal",
			policy: models.OrderPolicyThirdRoundReversal,
			want:   []string{"A", "B", "C", "C", "B", "A", "C", "B", "A", "A", "B", "C"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sequence(t, order, tt.policy, 12))
		})
	}
}

func TestTurnAtPointer(t *testing.T) {
	turn, err := TurnAt([]string{"A", "B"}, models.OrderPolicyStatic, 3)
	require.NoError(t, err)
	assert.Equal(t, models.TurnPointer{Round: 2, PickNumber: 3, PickInRound: 1, ParticipantID: "A"}, turn)

	_, err = TurnAt(nil, models.OrderPolicyStatic, 1)
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = TurnAt([]string{"A"}, models.OrderPolicyStatic, 0)
	assert.Error(t, err)
}

func TestComputeOrder(t *testing.T) {
	base := time.Date(2025, 8, 1, 18, 0, 0, 0, time.UTC)
	roster := []models.Participant{
		{ID: "C", JoinedAt: base.Add(2 * time.Minute)},
		{ID: "A", JoinedAt: base},
		{ID: "B", JoinedAt: base.Add(time.Minute)},
		{ID: "D", JoinedAt: base.Add(2 * time.Minute)},
	}

	assert.Equal(t, []string{"A", "B", "C", "D"}, ComputeOrder(roster, 0))

	shuffled := ComputeOrder(roster, 42)
	assert.Equal(t, shuffled, ComputeOrder(roster, 42), "same seed must give the same order")
	assert.ElementsMatch(t, []string{"A", "B", "C", "D"}, shuffled)
}
