package models

import (
	"time"
)

// DraftPick represents a single accepted pick in a draft.
type DraftPick struct {
	Round         int       `json:"round"`
	PickNumber    int       `json:"pickNumber"` // overall, 1-based
	PickInRound   int       `json:"pickInRound"`
	ParticipantID string    `json:"participantId"`
	TeamID        string    `json:"teamId"`
	IsAutoPick    bool      `json:"isAutoPick"`
	Timestamp     time.Time `json:"timestamp"`
}

// TurnPointer identifies who acts next.
type TurnPointer struct {
	Round         int    `json:"round"`
	PickNumber    int    `json:"pickNumber"`
	PickInRound   int    `json:"pickInRound"`
	ParticipantID string `json:"participantId"`
}
