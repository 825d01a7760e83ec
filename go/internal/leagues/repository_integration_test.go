//go:build integration

package leagues

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/mcdev12/draftroom/go/internal/draft/store"
	"github.com/mcdev12/draftroom/go/internal/models"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
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
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, store.Migrate(ctx, stdlib.OpenDBFromPool(pool)))
	return pool
}

func TestRepositoryRoster(t *testing.T) {
	pool := newTestPool(t)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC))
	app := NewApp(NewRepository(pool), clock)
	ctx := context.Background()

	_, err := app.CreateLeague(ctx, CreateLeagueRequest{ID: "L1", Name: "Sunday", Size: 4})
	require.NoError(t, err)

	_, err = app.Join(ctx, JoinRequest{LeagueID: "L1", ParticipantID: "bob"})
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = app.Join(ctx, JoinRequest{LeagueID: "L1", ParticipantID: "alice"})
	require.NoError(t, err)

	roster, err := app.Roster(ctx, "L1")
	require.NoError(t, err)
	require.Len(t, roster.Participants, 2)
	assert.Equal(t, "bob", roster.Participants[0].ID)
	assert.Equal(t, "alice", roster.Participants[1].ID)
	assert.True(t, roster.Participants[0].JoinedAt.Equal(clock.Now().Add(-time.Second)))

	_, err = app.Roster(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRepositoryEnforcesSizeUnderConcurrency(t *testing.T) {
	pool := newTestPool(t)
	app := NewApp(NewRepository(pool), nil)
	ctx := context.Background()

	_, err := app.CreateLeague(ctx, CreateLeagueRequest{ID: "L1", Name: "Tiny", Size: 3})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = app.AddRobot(ctx, AddRobotRequest{LeagueID: "L1"})
		}()
	}
	wg.Wait()

	roster, err := app.Roster(ctx, "L1")
	require.NoError(t, err)
	assert.Len(t, roster.Participants, 3)
}
