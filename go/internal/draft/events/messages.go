package events

import (
	"encoding/json"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// MessageType tags every websocket message.
type MessageType string

const (
	MessageTypeDraftStateUpdate MessageType = "draft_state_update"
	MessageTypeTimerUpdate      MessageType = "timer_update"
	MessageTypePickMade         MessageType = "pick_made"
	MessageTypeDraftCompleted   MessageType = "draft_completed"
	MessageTypePing             MessageType = "ping"
	MessageTypePong             MessageType = "pong"
	MessageTypeMakePick         MessageType = "make_pick"
	MessageTypeError            MessageType = "error"
)

// Message is the server to client envelope.
type Message struct {
	Type MessageType `json:"type"`
	Data any         `json:"data,omitempty"`
}

// Encode marshals the message for the wire.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// ClientMessage is what a client sends. The pick target may be given at the
// top level or inside data.
type ClientMessage struct {
	Type      MessageType     `json:"type"`
	TeamID    string          `json:"teamId,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// PickTeamID returns the team a make_pick message targets.
func (m ClientMessage) PickTeamID() string {
	if m.TeamID != "" || len(m.Data) == 0 {
		return m.TeamID
	}
	var data MakePickData
	if err := json.Unmarshal(m.Data, &data); err != nil {
		return ""
	}
	return data.TeamID
}

// Outbound is a broadcast that may differ per receiving participant.
type Outbound interface {
	MessageType() MessageType
	For(participantID string) Message
}

// StateUpdate carries the full draft state; each receiver gets its own view.
type StateUpdate struct {
	State models.DraftState
}

func (u StateUpdate) MessageType() MessageType { return MessageTypeDraftStateUpdate }

func (u StateUpdate) For(participantID string) Message {
	return Message{Type: MessageTypeDraftStateUpdate, Data: u.State.ForParticipant(participantID)}
}

// TimerUpdate carries the countdown for the acting participant.
type TimerUpdate struct {
	TimeRemaining       int
	ActingParticipantID string
}

// TimerUpdateData is the timer_update payload.
type TimerUpdateData struct {
	TimeRemaining int  `json:"timeRemaining"`
	IsUserTurn    bool `json:"isUserTurn"`
}

func (u TimerUpdate) MessageType() MessageType { return MessageTypeTimerUpdate }

func (u TimerUpdate) For(participantID string) Message {
	return Message{Type: MessageTypeTimerUpdate, Data: TimerUpdateData{
		TimeRemaining: u.TimeRemaining,
		IsUserTurn:    participantID != "" && participantID == u.ActingParticipantID,
	}}
}

// PickMadeData is the pick_made payload. NextParticipantID is null once the
// draft is full.
type PickMadeData struct {
	Pick              models.DraftPick `json:"pick"`
	NextParticipantID *string          `json:"nextParticipantId"`
}

func (d PickMadeData) MessageType() MessageType { return MessageTypePickMade }

func (d PickMadeData) For(string) Message {
	return Message{Type: MessageTypePickMade, Data: d}
}

// DraftCompletedData is the draft_completed payload.
type DraftCompletedData struct {
	DraftID string `json:"draftId"`
}

func (d DraftCompletedData) MessageType() MessageType { return MessageTypeDraftCompleted }

func (d DraftCompletedData) For(string) Message {
	return Message{Type: MessageTypeDraftCompleted, Data: d}
}

// MakePickData is the make_pick payload.
type MakePickData struct {
	TeamID string `json:"teamId"`
}

// HeartbeatData is the ping and pong payload.
type HeartbeatData struct {
	Timestamp int64 `json:"timestamp"`
}

// ErrorData is sent only to the client whose request failed.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewError builds an error message.
func NewError(code, message string) Message {
	return Message{Type: MessageTypeError, Data: ErrorData{Code: code, Message: message}}
}
