package leagues

import "errors"

var (
	// ErrLeagueFull is returned when a join would exceed the league size.
	ErrLeagueFull = errors.New("league is full")
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")
)

// CreateLeagueRequest represents the data needed to create a new league
type CreateLeagueRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

// JoinRequest adds a human member to a league.
type JoinRequest struct {
	LeagueID      string `json:"leagueId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

// AddRobotRequest adds an automated member to a league.
type AddRobotRequest struct {
	LeagueID    string `json:"leagueId"`
	DisplayName string `json:"displayName,omitempty"`
}
