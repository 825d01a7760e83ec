package machine

import (
	"context"
	"errors"

	"github.com/mcdev12/draftroom/go/internal/draft/pick"
)

var (
	ErrNotYourTurn       = errors.New("not your turn")
	ErrTeamAlreadyTaken  = pick.ErrTeamAlreadyTaken
	ErrUnknownTeam       = pick.ErrUnknownTeam
	ErrDraftNotActive    = errors.New("draft is not active")
	ErrAlreadyStarted    = errors.New("draft already started")
	ErrIncompleteRoster  = errors.New("league roster is incomplete")
	ErrInsufficientTeams = errors.New("team pool is too small for the draft")
	ErrInvalidSettings   = errors.New("invalid draft settings")
	ErrLeagueMismatch    = errors.New("draft belongs to a different league")
	ErrCorruptState      = errors.New("draft state is corrupt")
	ErrStopped           = errors.New("draft machine stopped")
)

// ErrorCode maps an error to the code sent to clients.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrTeamAlreadyTaken):
		return "team_already_taken"
	case errors.Is(err, ErrUnknownTeam):
		return "unknown_team"
	case errors.Is(err, ErrDraftNotActive):
		return "draft_not_active"
	case errors.Is(err, ErrAlreadyStarted):
		return "already_started"
	case errors.Is(err, ErrIncompleteRoster):
		return "incomplete_roster"
	case errors.Is(err, ErrInsufficientTeams):
		return "insufficient_teams"
	case errors.Is(err, ErrInvalidSettings):
		return "invalid_settings"
	case errors.Is(err, ErrLeagueMismatch):
		return "league_mismatch"
	case errors.Is(err, ErrCorruptState):
		return "corrupt_state"
	case errors.Is(err, ErrStopped):
		return "draft_closed"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}
