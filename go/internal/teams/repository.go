package teams

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository implements team data access operations
type Repository struct {
	db DBTX
}

// NewRepository creates a new teams repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

const upsertTeam = `
INSERT INTO teams (id, name, conference, division, rank, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW())
ON CONFLICT (id) DO UPDATE SET
    name       = EXCLUDED.name,
    conference = EXCLUDED.conference,
    division   = EXCLUDED.division,
    rank       = EXCLUDED.rank,
    updated_at = NOW()
WHERE (teams.name, teams.conference, teams.division, teams.rank)
   IS DISTINCT FROM (EXCLUDED.name, EXCLUDED.conference, EXCLUDED.division, EXCLUDED.rank)
RETURNING (xmax = 0) AS inserted
`

// UpsertTeam writes a team. It reports whether the row was new and whether
// anything changed at all.
func (r *Repository) UpsertTeam(ctx context.Context, t models.Team) (inserted, changed bool, err error) {
	rows, err := r.db.Query(ctx, upsertTeam, t.ID, t.Name, t.Conference, t.Division, t.Rank)
	if err != nil {
		return false, false, fmt.Errorf("failed to upsert team %s: %w", t.ID, err)
	}
	ins, err := pgx.CollectRows(rows, pgx.RowTo[bool])
	if err != nil {
		return false, false, fmt.Errorf("failed to upsert team %s: %w", t.ID, err)
	}
	if len(ins) == 0 {
		return false, false, nil
	}
	return ins[0], true, nil
}

const listTeams = `
SELECT id, name, conference, division, rank FROM teams ORDER BY id
`

// Teams retrieves all teams
func (r *Repository) Teams(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db.Query(ctx, listTeams)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	teams, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Team, error) {
		var t models.Team
		err := row.Scan(&t.ID, &t.Name, &t.Conference, &t.Division, &t.Rank)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan teams: %w", err)
	}
	return teams, nil
}

// DeleteTeam removes a team by id.
func (r *Repository) DeleteTeam(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("team %s: %w", id, models.ErrNotFound)
	}
	return nil
}
