package api

import "github.com/mcdev12/draftroom/go/internal/models"

// ServiceName is the fully-qualified name of the admin service.
const ServiceName = "draft.v1.DraftAdmin"

// Procedure paths served under ServiceName.
const (
	CreateDraftProcedure   = "/" + ServiceName + "/CreateDraft"
	StartDraftProcedure    = "/" + ServiceName + "/StartDraft"
	ResetDraftProcedure    = "/" + ServiceName + "/ResetDraft"
	GetDraftStateProcedure = "/" + ServiceName + "/GetDraftState"
	CreateLeagueProcedure  = "/" + ServiceName + "/CreateLeague"
	JoinLeagueProcedure    = "/" + ServiceName + "/JoinLeague"
	AddRobotProcedure      = "/" + ServiceName + "/AddRobot"
	GetRosterProcedure     = "/" + ServiceName + "/GetRoster"
)

type CreateDraftRequest struct {
	LeagueID string               `json:"leagueId"`
	Settings models.DraftSettings `json:"settings"`
}

type CreateDraftResponse struct {
	Draft models.Draft `json:"draft"`
}

type StartDraftRequest struct {
	DraftID string `json:"draftId"`
}

type StartDraftResponse struct {
	Draft models.Draft `json:"draft"`
}

type ResetDraftRequest struct {
	DraftID string `json:"draftId"`
}

type ResetDraftResponse struct {
	PreviousDraftID string       `json:"previousDraftId"`
	Draft           models.Draft `json:"draft"`
}

type GetDraftStateRequest struct {
	DraftID       string `json:"draftId"`
	ParticipantID string `json:"participantId,omitempty"`
}

type GetDraftStateResponse struct {
	State models.DraftState `json:"state"`
}

type CreateLeagueRequest struct {
	LeagueID string `json:"leagueId,omitempty"`
	Name     string `json:"name"`
	Size     int    `json:"size"`
}

type CreateLeagueResponse struct {
	League models.League `json:"league"`
}

type JoinLeagueRequest struct {
	LeagueID      string `json:"leagueId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName,omitempty"`
}

type JoinLeagueResponse struct {
	Participant models.Participant `json:"participant"`
}

type AddRobotRequest struct {
	LeagueID    string `json:"leagueId"`
	DisplayName string `json:"displayName,omitempty"`
}

type AddRobotResponse struct {
	Participant models.Participant `json:"participant"`
}

type GetRosterRequest struct {
	LeagueID string `json:"leagueId"`
}

type GetRosterResponse struct {
	Roster models.Roster `json:"roster"`
}
