//go:build integration

package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("draftroom"),
		postgres.WithUsername("draftroom"),
		postgres.WithPassword("draftroom"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	// Second run must be a no-op.
	require.NoError(t, Migrate(ctx, db))
	return db
}

func TestStoreLifecycle(t *testing.T) {
	db := newTestDB(t)
	s := NewStore(db)
	ctx := context.Background()
	created := time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC)

	draft := models.Draft{
		ID:       "d1",
		LeagueID: "L1",
		Status:   models.DraftStatusNotStarted,
		Settings: models.DraftSettings{
			TotalRounds:          2,
			PickTimeLimitSeconds: 30,
			OrderPolicy:          models.OrderPolicySnake,
		},
		CreatedAt: created,
	}
	on := func(eventType events.EventType, payload any) {
		t.Helper()
		require.NoError(t, s.Handle(ctx, events.NewDomainEvent(eventType, draft.ID, created, payload)))
	}

	on(events.EventTypeDraftCreated, events.DraftCreatedPayload{Draft: draft, PoolTeamIDs: []string{"T1", "T2", "T3", "T4"}})

	got, err := s.GetDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, draft, got)

	pool, err := s.PoolTeamIDs(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2", "T3", "T4"}, pool)

	started := created.Add(time.Minute)
	draft.Status = models.DraftStatusActive
	draft.StartedAt = &started
	draft.DraftOrder = []string{"B", "A"}
	participants := []models.Participant{
		{ID: "B", DisplayName: "Robot 1", IsRobot: true, JoinedAt: created},
		{ID: "A", DisplayName: "Alice", JoinedAt: created.Add(time.Second)},
	}
	on(events.EventTypeDraftStarted, events.DraftStartedPayload{Draft: draft, StartedAt: started, Participants: participants})
	// Replays are absorbed.
	on(events.EventTypeDraftStarted, events.DraftStartedPayload{Draft: draft, StartedAt: started, Participants: participants})

	gotParticipants, err := s.ListParticipants(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, participants, gotParticipants)

	got, err = s.GetDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, got.DraftOrder)
	assert.Equal(t, models.DraftStatusActive, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.True(t, started.Equal(*got.StartedAt))

	pick := models.DraftPick{Round: 1, PickNumber: 1, PickInRound: 1, ParticipantID: "B", TeamID: "T3", Timestamp: started.Add(5 * time.Second)}
	on(events.EventTypePickMade, events.PickMadePayload{Pick: pick})
	// Replays are absorbed.
	on(events.EventTypePickMade, events.PickMadePayload{Pick: pick})

	picks, err := s.ListPicks(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []models.DraftPick{pick}, picks)

	on(events.EventTypeDraftCompleted, events.DraftCompletedPayload{DraftID: "d1", CompletedAt: started.Add(time.Hour)})
	got, err = s.GetDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	on(events.EventTypeDraftReset, events.DraftResetPayload{DraftID: "d1", NewDraftID: "d2"})
	_, err = s.GetDraft(ctx, "d1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	picks, err = s.ListPicks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, picks)
	gotParticipants, err = s.ListParticipants(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, gotParticipants)
}

func TestStoreCompleteUnknownDraft(t *testing.T) {
	s := NewStore(newTestDB(t))
	err := s.CompleteDraft(context.Background(), "missing", events.DraftCompletedPayload{CompletedAt: time.Now()})
	assert.ErrorIs(t, err, models.ErrNotFound)
}
