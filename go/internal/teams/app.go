package teams

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// TeamsRepository defines what the app layer needs from the repository
type TeamsRepository interface {
	UpsertTeam(ctx context.Context, t models.Team) (inserted, changed bool, err error)
	Teams(ctx context.Context) ([]models.Team, error)
}

// Source provides the teams to load into the repository.
type Source interface {
	Teams(ctx context.Context) ([]models.Team, error)
}

// SyncResult represents the result of seeding teams into the repository
type SyncResult struct {
	TotalProcessed int     `json:"total_processed"`
	Created        int     `json:"created"`
	Updated        int     `json:"updated"`
	Unchanged      int     `json:"unchanged"`
	Errors         []error `json:"errors,omitempty"`
}

// App handles teams business logic
type App struct {
	repo TeamsRepository
}

// NewApp creates a new teams App
func NewApp(repo TeamsRepository) *App {
	return &App{repo: repo}
}

// Teams returns the stored catalog. An empty catalog is an error since no
// draft can open on it.
func (a *App) Teams(ctx context.Context) ([]models.Team, error) {
	teams, err := a.repo.Teams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("team catalog is empty: %w", models.ErrNotFound)
	}
	return teams, nil
}

// Seed upserts every team from src. Invalid or failing teams are collected in
// the result and do not stop the run.
func (a *App) Seed(ctx context.Context, src Source) (SyncResult, error) {
	teams, err := src.Teams(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to read team source: %w", err)
	}

	result := SyncResult{TotalProcessed: len(teams)}
	for _, t := range teams {
		if err := validateTeam(t); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		inserted, changed, err := a.repo.UpsertTeam(ctx, t)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, err)
		case inserted:
			result.Created++
		case changed:
			result.Updated++
		default:
			result.Unchanged++
		}
	}

	log.Info().
		Int("total", result.TotalProcessed).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("unchanged", result.Unchanged).
		Int("errors", len(result.Errors)).
		Msg("team seed complete")
	return result, nil
}

// WithRanks fills in Rank for unranked teams from ranks, matching by id.
// Teams unknown to ranks stay unranked.
func WithRanks(src, ranks Source) Source {
	return rankedSource{src: src, ranks: ranks}
}

type rankedSource struct {
	src, ranks Source
}

func (s rankedSource) Teams(ctx context.Context) ([]models.Team, error) {
	teams, err := s.src.Teams(ctx)
	if err != nil {
		return nil, err
	}
	ranked, err := s.ranks.Teams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ranks: %w", err)
	}
	byID := make(map[string]int, len(ranked))
	for _, t := range ranked {
		byID[t.ID] = t.Rank
	}
	for i := range teams {
		if teams[i].Rank == 0 {
			teams[i].Rank = byID[teams[i].ID]
		}
	}
	return teams, nil
}
