package leagues

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// DBTX is satisfied by *pgxpool.Pool and *pgx.Conn.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements league data access operations on Postgres.
type Repository struct {
	db DBTX
}

// NewRepository creates a new leagues repository
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

const createLeague = `
INSERT INTO leagues (id, name, size, created_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING
`

// CreateLeague creates a league, or returns the existing one with that id.
func (r *Repository) CreateLeague(ctx context.Context, l models.League) (models.League, error) {
	if _, err := r.db.Exec(ctx, createLeague, l.ID, l.Name, l.Size, l.CreatedAt); err != nil {
		return models.League{}, fmt.Errorf("failed to create league: %w", err)
	}
	return r.GetLeague(ctx, l.ID)
}

const getLeague = `SELECT id, name, size, created_at FROM leagues WHERE id = $1`

// GetLeague retrieves a league by ID
func (r *Repository) GetLeague(ctx context.Context, id string) (models.League, error) {
	var l models.League
	err := r.db.QueryRow(ctx, getLeague, id).Scan(&l.ID, &l.Name, &l.Size, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.League{}, fmt.Errorf("league %s: %w", id, models.ErrNotFound)
		}
		return models.League{}, fmt.Errorf("failed to get league: %w", err)
	}
	l.CreatedAt = l.CreatedAt.UTC()
	return l, nil
}

const listMembers = `
SELECT participant_id, display_name, is_robot, joined_at
FROM league_members WHERE league_id = $1
ORDER BY joined_at, participant_id
`

// ListMembers returns the members of a league in join order.
func (r *Repository) ListMembers(ctx context.Context, leagueID string) ([]models.Participant, error) {
	return listMembersOn(ctx, r.db, leagueID)
}

func listMembersOn(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, leagueID string) ([]models.Participant, error) {
	rows, err := q.Query(ctx, listMembers, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Participant, error) {
		var p models.Participant
		err := row.Scan(&p.ID, &p.DisplayName, &p.IsRobot, &p.JoinedAt)
		p.JoinedAt = p.JoinedAt.UTC()
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan members: %w", err)
	}
	return members, nil
}

const lockLeague = `SELECT size FROM leagues WHERE id = $1 FOR UPDATE`

const insertMember = `
INSERT INTO league_members (league_id, participant_id, display_name, is_robot, joined_at)
VALUES ($1, $2, $3, $4, $5)
`

// AddMember adds p to the league unless it is already a member, in which case
// the stored member is returned and created is false.
func (r *Repository) AddMember(ctx context.Context, leagueID string, p models.Participant) (member models.Participant, created bool, err error) {
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var size int
		if err := tx.QueryRow(ctx, lockLeague, leagueID).Scan(&size); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("league %s: %w", leagueID, models.ErrNotFound)
			}
			return fmt.Errorf("failed to lock league: %w", err)
		}

		members, err := listMembersOn(ctx, tx, leagueID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.ID == p.ID {
				member = m
				return nil
			}
		}
		if size > 0 && len(members) >= size {
			return fmt.Errorf("league %s has %d of %d members: %w", leagueID, len(members), size, ErrLeagueFull)
		}

		if _, err := tx.Exec(ctx, insertMember, leagueID, p.ID, p.DisplayName, p.IsRobot, p.JoinedAt); err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
		member, created = p, true
		return nil
	})
	return member, created, err
}
