package models

import "time"

// DraftState is the read model a client needs to render the draft room.
type DraftState struct {
	Draft          Draft         `json:"draft"`
	Participants   []Participant `json:"participants"`
	Picks          []DraftPick   `json:"picks"`
	AvailableTeams []Team        `json:"availableTeams"`
	Turn           *TurnPointer  `json:"turn"`
	TimeRemaining  int           `json:"timeRemaining"`
	IsUserTurn     bool          `json:"isUserTurn"`
	CanMakePick    bool          `json:"canMakePick"`
}

// ForParticipant personalises the state for one viewer.
func (s DraftState) ForParticipant(participantID string) DraftState {
	s.IsUserTurn = false
	s.CanMakePick = false
	if s.Turn == nil || participantID == "" {
		return s
	}
	s.IsUserTurn = s.Draft.Status == DraftStatusActive && s.Turn.ParticipantID == participantID
	s.CanMakePick = s.IsUserTurn && len(s.AvailableTeams) > 0 && !s.isRobot(participantID)
	return s
}

func (s DraftState) isRobot(participantID string) bool {
	for _, p := range s.Participants {
		if p.ID == participantID {
			return p.IsRobot
		}
	}
	return false
}

// DraftSummary is the row shown in the active drafts listing.
type DraftSummary struct {
	DraftID      string      `json:"draftId"`
	LeagueID     string      `json:"leagueId"`
	Status       DraftStatus `json:"status"`
	StartedAt    *time.Time  `json:"startedAt,omitempty"`
	CurrentRound int         `json:"currentRound"`
	CurrentPick  int         `json:"currentPick"`
	TotalRounds  int         `json:"totalRounds"`
	Participants int         `json:"participants"`
	Sessions     int         `json:"sessions"`
}
