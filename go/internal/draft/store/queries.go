package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/sqlc-dev/pqtype"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the statements of the draft store.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Draft is a row of the drafts table.
type Draft struct {
	ID                   string
	LeagueID             string
	Status               string
	TotalRounds          int32
	PickTimeLimitSeconds int32
	OrderPolicy          string
	ShuffleSeed          int64
	DraftOrder           pqtype.NullRawMessage
	CreatedAt            sql.NullTime
	StartedAt            sql.NullTime
	CompletedAt          sql.NullTime
}

// DraftPick is a row of the draft_picks table.
type DraftPick struct {
	DraftID       string
	PickNumber    int32
	Round         int32
	PickInRound   int32
	ParticipantID string
	TeamID        string
	IsAutoPick    bool
	PickedAt      sql.NullTime
}

// DraftParticipant is a row of the draft_participants table.
type DraftParticipant struct {
	DraftID       string
	Slot          int32
	ParticipantID string
	DisplayName   string
	IsRobot       bool
	JoinedAt      sql.NullTime
}

const upsertDraft = `
INSERT INTO drafts (
    id, league_id, status, total_rounds, pick_time_limit_seconds,
    order_policy, shuffle_seed, draft_order, created_at, started_at, completed_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    status       = EXCLUDED.status,
    draft_order  = EXCLUDED.draft_order,
    started_at   = EXCLUDED.started_at,
    completed_at = EXCLUDED.completed_at
`

func (q *Queries) UpsertDraft(ctx context.Context, d Draft) error {
	_, err := q.db.ExecContext(ctx, upsertDraft,
		d.ID, d.LeagueID, d.Status, d.TotalRounds, d.PickTimeLimitSeconds,
		d.OrderPolicy, d.ShuffleSeed, d.DraftOrder, d.CreatedAt, d.StartedAt, d.CompletedAt,
	)
	return err
}

const completeDraft = `
UPDATE drafts SET status = 'completed', completed_at = $2 WHERE id = $1
`

func (q *Queries) CompleteDraft(ctx context.Context, id string, completedAt sql.NullTime) (int64, error) {
	res, err := q.db.ExecContext(ctx, completeDraft, id, completedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getDraft = `
SELECT id, league_id, status, total_rounds, pick_time_limit_seconds,
       order_policy, shuffle_seed, draft_order, created_at, started_at, completed_at
FROM drafts WHERE id = $1
`

func (q *Queries) GetDraft(ctx context.Context, id string) (Draft, error) {
	row := q.db.QueryRowContext(ctx, getDraft, id)
	var d Draft
	err := row.Scan(
		&d.ID, &d.LeagueID, &d.Status, &d.TotalRounds, &d.PickTimeLimitSeconds,
		&d.OrderPolicy, &d.ShuffleSeed, &d.DraftOrder, &d.CreatedAt, &d.StartedAt, &d.CompletedAt,
	)
	return d, err
}

const deleteDraft = `DELETE FROM drafts WHERE id = $1`

func (q *Queries) DeleteDraft(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteDraft, id)
	return err
}

const insertPoolTeam = `
INSERT INTO draft_team_pool (draft_id, team_id) VALUES ($1, $2)
ON CONFLICT (draft_id, team_id) DO NOTHING
`

func (q *Queries) InsertPoolTeam(ctx context.Context, draftID, teamID string) error {
	_, err := q.db.ExecContext(ctx, insertPoolTeam, draftID, teamID)
	return err
}

const markPoolTeamTaken = `
UPDATE draft_team_pool SET taken = TRUE WHERE draft_id = $1 AND team_id = $2
`

func (q *Queries) MarkPoolTeamTaken(ctx context.Context, draftID, teamID string) error {
	_, err := q.db.ExecContext(ctx, markPoolTeamTaken, draftID, teamID)
	return err
}

const listPoolTeamIDs = `
SELECT team_id FROM draft_team_pool WHERE draft_id = $1 ORDER BY team_id
`

func (q *Queries) ListPoolTeamIDs(ctx context.Context, draftID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listPoolTeamIDs, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertParticipant = `
INSERT INTO draft_participants (draft_id, slot, participant_id, display_name, is_robot, joined_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (draft_id, participant_id) DO UPDATE SET
    slot         = EXCLUDED.slot,
    display_name = EXCLUDED.display_name,
    is_robot     = EXCLUDED.is_robot
`

func (q *Queries) UpsertParticipant(ctx context.Context, p DraftParticipant) error {
	_, err := q.db.ExecContext(ctx, upsertParticipant,
		p.DraftID, p.Slot, p.ParticipantID, p.DisplayName, p.IsRobot, p.JoinedAt,
	)
	return err
}

const listParticipants = `
SELECT draft_id, slot, participant_id, display_name, is_robot, joined_at
FROM draft_participants WHERE draft_id = $1 ORDER BY slot
`

func (q *Queries) ListParticipants(ctx context.Context, draftID string) ([]DraftParticipant, error) {
	rows, err := q.db.QueryContext(ctx, listParticipants, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DraftParticipant
	for rows.Next() {
		var p DraftParticipant
		if err := rows.Scan(
			&p.DraftID, &p.Slot, &p.ParticipantID, &p.DisplayName, &p.IsRobot, &p.JoinedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertPick = `
INSERT INTO draft_picks (
    draft_id, pick_number, round, pick_in_round, participant_id, team_id, is_auto_pick, picked_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (draft_id, pick_number) DO NOTHING
`

func (q *Queries) InsertPick(ctx context.Context, p DraftPick) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertPick,
		p.DraftID, p.PickNumber, p.Round, p.PickInRound, p.ParticipantID, p.TeamID, p.IsAutoPick, p.PickedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listPicks = `
SELECT draft_id, pick_number, round, pick_in_round, participant_id, team_id, is_auto_pick, picked_at
FROM draft_picks WHERE draft_id = $1 ORDER BY pick_number
`

func (q *Queries) ListPicks(ctx context.Context, draftID string) ([]DraftPick, error) {
	rows, err := q.db.QueryContext(ctx, listPicks, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DraftPick
	for rows.Next() {
		var p DraftPick
		if err := rows.Scan(
			&p.DraftID, &p.PickNumber, &p.Round, &p.PickInRound,
			&p.ParticipantID, &p.TeamID, &p.IsAutoPick, &p.PickedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func marshalOrder(order []string) (pqtype.NullRawMessage, error) {
	if len(order) == 0 {
		return pqtype.NullRawMessage{}, nil
	}
	raw, err := json.Marshal(order)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}
