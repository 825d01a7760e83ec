package events

import (
	"time"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// Event payload types shared between the draft machine and its sinks.

// DraftCreatedPayload is the payload for a DraftCreated event
type DraftCreatedPayload struct {
	Draft models.Draft `json:"draft"`
	// PoolTeamIDs is the catalog the draft was opened with.
	PoolTeamIDs []string `json:"poolTeamIds"`
}

// DraftStartedPayload is the payload for a DraftStarted event
type DraftStartedPayload struct {
	Draft       models.Draft `json:"draft"`
	StartedAt   time.Time    `json:"startedAt"`
	TotalRounds int          `json:"totalRounds"`
	TotalPicks  int          `json:"totalPicks"`

	// Participants in draft order, robot flags included.
	Participants []models.Participant `json:"participants,omitempty"`
}

// PickMadePayload is the payload for a PickMade event
type PickMadePayload struct {
	Pick              models.DraftPick `json:"pick"`
	TeamName          string           `json:"teamName"`
	NextParticipantID *string          `json:"nextParticipantId"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event
type DraftCompletedPayload struct {
	DraftID     string    `json:"draftId"`
	CompletedAt time.Time `json:"completedAt"`
	Duration    string    `json:"duration"`
	TotalPicks  int       `json:"totalPicks"`
}

// DraftResetPayload is the payload for a DraftReset event
type DraftResetPayload struct {
	DraftID    string    `json:"draftId"`
	NewDraftID string    `json:"newDraftId"`
	ResetAt    time.Time `json:"resetAt"`
}
