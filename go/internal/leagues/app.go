package leagues

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// LeaguesRepository defines what the app layer needs from the repository
type LeaguesRepository interface {
	CreateLeague(ctx context.Context, l models.League) (models.League, error)
	GetLeague(ctx context.Context, id string) (models.League, error)
	ListMembers(ctx context.Context, leagueID string) ([]models.Participant, error)
	AddMember(ctx context.Context, leagueID string, p models.Participant) (models.Participant, bool, error)
}

// App handles leagues business logic. It is the roster source drafts start from.
type App struct {
	repo  LeaguesRepository
	clock clockwork.Clock
}

// NewApp creates a new leagues App
func NewApp(repo LeaguesRepository, clock clockwork.Clock) *App {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{repo: repo, clock: clock}
}

// CreateLeague creates a new league with validation. Creating an existing id
// returns the stored league.
func (a *App) CreateLeague(ctx context.Context, req CreateLeagueRequest) (models.League, error) {
	if err := a.validateCreateLeagueRequest(req); err != nil {
		return models.League{}, fmt.Errorf("validation failed: %w", err)
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	league, err := a.repo.CreateLeague(ctx, models.League{
		ID:        id,
		Name:      strings.TrimSpace(req.Name),
		Size:      req.Size,
		CreatedAt: a.clock.Now().UTC(),
	})
	if err != nil {
		return models.League{}, fmt.Errorf("failed to create league: %w", err)
	}

	log.Info().Str("league_id", league.ID).Str("name", league.Name).Int("size", league.Size).Msg("league created")
	return league, nil
}

// Roster returns the league's members in join order along with its size.
func (a *App) Roster(ctx context.Context, leagueID string) (models.Roster, error) {
	league, err := a.repo.GetLeague(ctx, leagueID)
	if err != nil {
		return models.Roster{}, err
	}
	members, err := a.repo.ListMembers(ctx, leagueID)
	if err != nil {
		return models.Roster{}, fmt.Errorf("failed to load roster: %w", err)
	}
	return models.Roster{
		LeagueID:     league.ID,
		Size:         league.Size,
		Participants: members,
	}, nil
}

// Join adds a human to the league. Joining twice is harmless and keeps the
// original join time.
func (a *App) Join(ctx context.Context, req JoinRequest) (models.Participant, error) {
	if err := a.validateJoinRequest(req); err != nil {
		return models.Participant{}, fmt.Errorf("validation failed: %w", err)
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = req.ParticipantID
	}

	p, created, err := a.repo.AddMember(ctx, req.LeagueID, models.Participant{
		ID:          req.ParticipantID,
		DisplayName: name,
		JoinedAt:    a.clock.Now().UTC(),
	})
	if err != nil {
		return models.Participant{}, fmt.Errorf("failed to join league: %w", err)
	}
	if created {
		log.Info().Str("league_id", req.LeagueID).Str("participant_id", p.ID).Msg("participant joined league")
	}
	return p, nil
}

// AddRobot fills a seat with an automated participant.
func (a *App) AddRobot(ctx context.Context, req AddRobotRequest) (models.Participant, error) {
	if strings.TrimSpace(req.LeagueID) == "" {
		return models.Participant{}, fmt.Errorf("validation failed: %w: league id is required", ErrInvalidRequest)
	}
	id := "robot-" + uuid.NewString()[:8]
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = "Robot " + strings.ToUpper(id[len("robot-"):len("robot-")+4])
	}

	p, _, err := a.repo.AddMember(ctx, req.LeagueID, models.Participant{
		ID:          id,
		DisplayName: name,
		IsRobot:     true,
		JoinedAt:    a.clock.Now().UTC(),
	})
	if err != nil {
		return models.Participant{}, fmt.Errorf("failed to add robot: %w", err)
	}
	log.Info().Str("league_id", req.LeagueID).Str("participant_id", p.ID).Msg("robot added to league")
	return p, nil
}

func (a *App) validateCreateLeagueRequest(req CreateLeagueRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: league name is required", ErrInvalidRequest)
	}
	if req.Size < 0 {
		return fmt.Errorf("%w: league size cannot be negative", ErrInvalidRequest)
	}
	return nil
}

func (a *App) validateJoinRequest(req JoinRequest) error {
	if strings.TrimSpace(req.LeagueID) == "" {
		return fmt.Errorf("%w: league id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(req.ParticipantID) == "" {
		return fmt.Errorf("%w: participant id is required", ErrInvalidRequest)
	}
	if strings.HasPrefix(req.ParticipantID, "robot-") {
		return fmt.Errorf("%w: participant ids starting with robot- are reserved", ErrInvalidRequest)
	}
	return nil
}
