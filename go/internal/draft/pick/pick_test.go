package pick

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/models"
)

func testTeams() []models.Team {
	return []models.Team{
		{ID: "T3", Name: "Three", Rank: 3},
		{ID: "T1", Name: "One", Rank: 1},
		{ID: "T2", Name: "Two", Rank: 2},
	}
}

func TestNewPool(t *testing.T) {
	tests := []struct {
		name    string
		teams   []models.Team
		wantErr error
	}{
		{name: "valid catalog", teams: testTeams()},
		{name: "empty catalog", teams: nil},
		{
			name:    "duplicate id",
			teams:   []models.Team{{ID: "T1"}, {ID: "T1"}},
			wantErr: ErrDuplicateTeam,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPool(tt.teams)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.teams), p.Size())
		})
	}

	_, err := NewPool([]models.Team{{Name: "nameless"}})
	assert.Error(t, err)
}

func TestPoolTeamsSortedByID(t *testing.T) {
	p, err := NewPool(testTeams())
	require.NoError(t, err)

	var ids []string
	for _, team := range p.Teams() {
		ids = append(ids, team.ID)
	}
	assert.Equal(t, []string{"T1", "T2", "T3"}, ids)
}

func TestPoolMarkTaken(t *testing.T) {
	p, err := NewPool(testTeams())
	require.NoError(t, err)

	require.NoError(t, p.MarkTaken("T2"))
	assert.True(t, p.IsTaken("T2"))
	assert.False(t, p.IsTaken("T1"))

	assert.ErrorIs(t, p.MarkTaken("T2"), ErrTeamAlreadyTaken)
	assert.ErrorIs(t, p.MarkTaken("nope"), ErrUnknownTeam)
}

func TestLedgerAppend(t *testing.T) {
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	l := NewLedger()
	assert.Equal(t, 1, l.NextPickNumber())

	require.NoError(t, l.Append(models.DraftPick{PickNumber: 1, TeamID: "T1", ParticipantID: "A", Timestamp: now}))

	tests := []struct {
		name    string
		pick    models.DraftPick
		wantErr error
	}{
		{name: "gap", pick: models.DraftPick{PickNumber: 3, TeamID: "T2"}, wantErr: ErrOutOfSequence},
		{name: "repeat number", pick: models.DraftPick{PickNumber: 1, TeamID: "T2"}, wantErr: ErrOutOfSequence},
		{name: "double draft", pick: models.DraftPick{PickNumber: 2, TeamID: "T1"}, wantErr: ErrTeamAlreadyTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, l.Append(tt.pick), tt.wantErr)
			assert.Equal(t, 1, l.Len(), "failed append must not change the ledger")
		})
	}

	require.NoError(t, l.Append(models.DraftPick{PickNumber: 2, TeamID: "T3", ParticipantID: "B", Timestamp: now}))
	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, "T3", last.TeamID)

	want := []models.DraftPick{
		{PickNumber: 1, TeamID: "T1", ParticipantID: "A", Timestamp: now},
		{PickNumber: 2, TeamID: "T3", ParticipantID: "B", Timestamp: now},
	}
	if diff := cmp.Diff(want, l.Picks()); diff != "" {
		t.Errorf("ledger mismatch (-want +got):\n%s", diff)
	}
}

func TestLedgerPicksIsACopy(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Append(models.DraftPick{PickNumber: 1, TeamID: "T1"}))

	picks := l.Picks()
	picks[0].TeamID = "mutated"

	last, _ := l.Last()
	assert.Equal(t, "T1", last.TeamID)
}

func TestLedgerAvailable(t *testing.T) {
	p, err := NewPool(testTeams())
	require.NoError(t, err)
	l := NewLedger()

	assert.Len(t, l.Available(p), 3)

	require.NoError(t, l.Append(models.DraftPick{PickNumber: 1, TeamID: "T2"}))
	var ids []string
	for _, team := range l.Available(p) {
		ids = append(ids, team.ID)
	}
	assert.Equal(t, []string{"T1", "T3"}, ids)
}

func TestLedgerVerify(t *testing.T) {
	p, err := NewPool(testTeams())
	require.NoError(t, err)
	l := NewLedger()
	require.NoError(t, l.Append(models.DraftPick{PickNumber: 1, TeamID: "T1"}))

	assert.Error(t, l.Verify(p), "pool not yet marked")

	require.NoError(t, p.MarkTaken("T1"))
	assert.NoError(t, l.Verify(p))

	require.NoError(t, l.Append(models.DraftPick{PickNumber: 2, TeamID: "ghost"}))
	assert.ErrorIs(t, l.Verify(p), ErrUnknownTeam)
}
