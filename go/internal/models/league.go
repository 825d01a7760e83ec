package models

import (
	"time"
)

// Participant is a league member taking part in a draft.
type Participant struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	IsRobot     bool      `json:"isRobot"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Roster is the league membership a draft is started from.
type Roster struct {
	LeagueID string `json:"leagueId"`
	// Size is the expected member count; 0 means the league declares none.
	Size         int           `json:"size"`
	Participants []Participant `json:"participants"`
}

// League is the group a draft is run for.
type League struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Size is the member count the league expects; 0 means unbounded.
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}
