package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of a domain event
type EventType string

const (
	EventTypeDraftCreated   EventType = "DraftCreated"
	EventTypeDraftStarted   EventType = "DraftStarted"
	EventTypePickMade       EventType = "PickMade"
	EventTypeDraftCompleted EventType = "DraftCompleted"
	EventTypeDraftReset     EventType = "DraftReset"
)

// DomainEvent is a fact about a draft, emitted after the state change it
// describes has been applied.
type DomainEvent struct {
	ID        string
	Type      EventType
	DraftID   string
	Timestamp time.Time
	Payload   any
}

// NewDomainEvent stamps a payload with a fresh event id.
func NewDomainEvent(eventType EventType, draftID string, at time.Time, payload any) DomainEvent {
	return DomainEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		DraftID:   draftID,
		Timestamp: at,
		Payload:   payload,
	}
}

// envelope is the wire form published to the event bus.
type envelope struct {
	EventID   string          `json:"eventId"`
	EventType EventType       `json:"eventType"`
	DraftID   string          `json:"draftId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalEnvelope encodes the event in its bus envelope.
func (e DomainEvent) MarshalEnvelope() ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
	}
	return json.Marshal(envelope{
		EventID:   e.ID,
		EventType: e.Type,
		DraftID:   e.DraftID,
		Timestamp: e.Timestamp,
		Payload:   payload,
	})
}

// UnmarshalEnvelope decodes a bus envelope back into a typed event.
func UnmarshalEnvelope(data []byte) (DomainEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return DomainEvent{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	var payload any
	switch env.EventType {
	case EventTypeDraftCreated:
		payload = &DraftCreatedPayload{}
	case EventTypeDraftStarted:
		payload = &DraftStartedPayload{}
	case EventTypePickMade:
		payload = &PickMadePayload{}
	case EventTypeDraftCompleted:
		payload = &DraftCompletedPayload{}
	case EventTypeDraftReset:
		payload = &DraftResetPayload{}
	default:
		return DomainEvent{}, fmt.Errorf("unknown event type: %s", env.EventType)
	}
	if err := json.Unmarshal(env.Payload, payload); err != nil {
		return DomainEvent{}, fmt.Errorf("unmarshal %s payload: %w", env.EventType, err)
	}

	return DomainEvent{
		ID:        env.EventID,
		Type:      env.EventType,
		DraftID:   env.DraftID,
		Timestamp: env.Timestamp,
		Payload:   derefPayload(payload),
	}, nil
}

func derefPayload(p any) any {
	switch v := p.(type) {
	case *DraftCreatedPayload:
		return *v
	case *DraftStartedPayload:
		return *v
	case *PickMadePayload:
		return *v
	case *DraftCompletedPayload:
		return *v
	case *DraftResetPayload:
		return *v
	}
	return p
}
