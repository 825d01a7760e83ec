package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sqlutil"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables the service needs. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Open connects to Postgres through lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Store persists drafts, their pools, and their picks. It is fed by domain
// events and read back when a draft is restored.
type Store struct {
	db      *sql.DB
	queries *Queries
}

// NewStore creates a new draft store
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:      db,
		queries: New(db),
	}
}

// SaveDraft writes the draft row and its team pool.
func (s *Store) SaveDraft(ctx context.Context, draft models.Draft, poolTeamIDs []string) error {
	row, err := draftToRow(draft)
	if err != nil {
		return err
	}
	err = sqlutil.Run(ctx, s.db, s.queries.WithTx, func(q *Queries) error {
		if err := q.UpsertDraft(ctx, row); err != nil {
			return fmt.Errorf("failed to save draft: %w", err)
		}
		for _, id := range poolTeamIDs {
			if err := q.InsertPoolTeam(ctx, draft.ID, id); err != nil {
				return fmt.Errorf("failed to save pool team %s: %w", id, err)
			}
		}
		return nil
	})
	return err
}

// UpdateDraft writes the mutable columns of a draft.
func (s *Store) UpdateDraft(ctx context.Context, draft models.Draft) error {
	row, err := draftToRow(draft)
	if err != nil {
		return err
	}
	if err := s.queries.UpsertDraft(ctx, row); err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	return nil
}

// StartDraft writes the started draft with the participants it was started
// with, in draft order.
func (s *Store) StartDraft(ctx context.Context, draft models.Draft, participants []models.Participant) error {
	row, err := draftToRow(draft)
	if err != nil {
		return err
	}
	return sqlutil.Run(ctx, s.db, s.queries.WithTx, func(q *Queries) error {
		if err := q.UpsertDraft(ctx, row); err != nil {
			return fmt.Errorf("failed to update draft: %w", err)
		}
		for i, p := range participants {
			if err := q.UpsertParticipant(ctx, DraftParticipant{
				DraftID:       draft.ID,
				Slot:          int32(i),
				ParticipantID: p.ID,
				DisplayName:   p.DisplayName,
				IsRobot:       p.IsRobot,
				JoinedAt:      sqlutil.ToNullTimeValue(p.JoinedAt),
			}); err != nil {
				return fmt.Errorf("failed to save participant %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

// ListParticipants returns the participants a draft was started with, in
// draft order.
func (s *Store) ListParticipants(ctx context.Context, draftID string) ([]models.Participant, error) {
	rows, err := s.queries.ListParticipants(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	out := make([]models.Participant, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Participant{
			ID:          r.ParticipantID,
			DisplayName: r.DisplayName,
			IsRobot:     r.IsRobot,
			JoinedAt:    sqlutil.FromNullTimeValue(r.JoinedAt),
		})
	}
	return out, nil
}

// AppendPick records a pick and marks its team taken. Replaying the same
// pick is a no-op.
func (s *Store) AppendPick(ctx context.Context, draftID string, pick models.DraftPick) error {
	return sqlutil.Run(ctx, s.db, s.queries.WithTx, func(q *Queries) error {
		n, err := q.InsertPick(ctx, DraftPick{
			DraftID:       draftID,
			PickNumber:    int32(pick.PickNumber),
			Round:         int32(pick.Round),
			PickInRound:   int32(pick.PickInRound),
			ParticipantID: pick.ParticipantID,
			TeamID:        pick.TeamID,
			IsAutoPick:    pick.IsAutoPick,
			PickedAt:      sqlutil.ToNullTimeValue(pick.Timestamp),
		})
		if err != nil {
			return fmt.Errorf("failed to insert pick %d: %w", pick.PickNumber, err)
		}
		if n == 0 {
			return nil
		}
		if err := q.MarkPoolTeamTaken(ctx, draftID, pick.TeamID); err != nil {
			return fmt.Errorf("failed to mark team %s taken: %w", pick.TeamID, err)
		}
		return nil
	})
}

// CompleteDraft marks a draft completed.
func (s *Store) CompleteDraft(ctx context.Context, draftID string, payload events.DraftCompletedPayload) error {
	n, err := s.queries.CompleteDraft(ctx, draftID, sqlutil.ToNullTimeValue(payload.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to complete draft: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("complete draft %s: %w", draftID, models.ErrNotFound)
	}
	return nil
}

// GetDraft loads a draft. Unknown ids yield models.ErrNotFound.
func (s *Store) GetDraft(ctx context.Context, draftID string) (models.Draft, error) {
	row, err := s.queries.GetDraft(ctx, draftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Draft{}, fmt.Errorf("draft %s: %w", draftID, models.ErrNotFound)
		}
		return models.Draft{}, fmt.Errorf("failed to get draft: %w", err)
	}
	return rowToDraft(row)
}

// ListPicks returns a draft's picks in pick order.
func (s *Store) ListPicks(ctx context.Context, draftID string) ([]models.DraftPick, error) {
	rows, err := s.queries.ListPicks(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	picks := make([]models.DraftPick, 0, len(rows))
	for _, r := range rows {
		picks = append(picks, models.DraftPick{
			Round:         int(r.Round),
			PickNumber:    int(r.PickNumber),
			PickInRound:   int(r.PickInRound),
			ParticipantID: r.ParticipantID,
			TeamID:        r.TeamID,
			IsAutoPick:    r.IsAutoPick,
			Timestamp:     sqlutil.FromNullTimeValue(r.PickedAt),
		})
	}
	return picks, nil
}

// PoolTeamIDs returns the ids of a draft's team pool.
func (s *Store) PoolTeamIDs(ctx context.Context, draftID string) ([]string, error) {
	ids, err := s.queries.ListPoolTeamIDs(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool: %w", err)
	}
	return ids, nil
}

// DeleteDraft removes a draft with its picks and pool.
func (s *Store) DeleteDraft(ctx context.Context, draftID string) error {
	if err := s.queries.DeleteDraft(ctx, draftID); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// Handle implements events.Handler.
func (s *Store) Handle(ctx context.Context, event events.DomainEvent) error {
	var err error
	switch p := event.Payload.(type) {
	case events.DraftCreatedPayload:
		err = s.SaveDraft(ctx, p.Draft, p.PoolTeamIDs)
	case events.DraftStartedPayload:
		err = s.StartDraft(ctx, p.Draft, p.Participants)
	case events.PickMadePayload:
		err = s.AppendPick(ctx, event.DraftID, p.Pick)
	case events.DraftCompletedPayload:
		err = s.CompleteDraft(ctx, event.DraftID, p)
	case events.DraftResetPayload:
		err = s.DeleteDraft(ctx, p.DraftID)
	default:
		log.Debug().Str("event_type", string(event.Type)).Msg("store ignoring event")
		return nil
	}
	if err != nil {
		return fmt.Errorf("store %s for draft %s: %w", event.Type, event.DraftID, err)
	}
	return nil
}

func draftToRow(d models.Draft) (Draft, error) {
	order, err := marshalOrder(d.DraftOrder)
	if err != nil {
		return Draft{}, fmt.Errorf("failed to marshal draft order: %w", err)
	}
	policy := d.Settings.OrderPolicy
	if policy == "" {
		policy = models.OrderPolicyStatic
	}
	return Draft{
		ID:                   d.ID,
		LeagueID:             d.LeagueID,
		Status:               string(d.Status),
		TotalRounds:          int32(d.Settings.TotalRounds),
		PickTimeLimitSeconds: int32(d.Settings.PickTimeLimitSeconds),
		OrderPolicy:          string(policy),
		ShuffleSeed:          d.Settings.ShuffleSeed,
		DraftOrder:           order,
		CreatedAt:            sqlutil.ToNullTimeValue(d.CreatedAt),
		StartedAt:            sqlutil.ToNullTime(d.StartedAt),
		CompletedAt:          sqlutil.ToNullTime(d.CompletedAt),
	}, nil
}

func rowToDraft(r Draft) (models.Draft, error) {
	var order []string
	if r.DraftOrder.Valid {
		if err := json.Unmarshal(r.DraftOrder.RawMessage, &order); err != nil {
			return models.Draft{}, fmt.Errorf("failed to unmarshal draft order: %w", err)
		}
	}
	return models.Draft{
		ID:       r.ID,
		LeagueID: r.LeagueID,
		Status:   models.DraftStatus(r.Status),
		Settings: models.DraftSettings{
			TotalRounds:          int(r.TotalRounds),
			PickTimeLimitSeconds: int(r.PickTimeLimitSeconds),
			OrderPolicy:          models.OrderPolicy(r.OrderPolicy),
			ShuffleSeed:          r.ShuffleSeed,
		},
		DraftOrder:  order,
		CreatedAt:   sqlutil.FromNullTimeValue(r.CreatedAt),
		StartedAt:   sqlutil.FromNullTime(r.StartedAt),
		CompletedAt: sqlutil.FromNullTime(r.CompletedAt),
	}, nil
}
