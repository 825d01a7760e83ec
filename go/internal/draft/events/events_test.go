package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/models"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	at := time.Date(2025, 9, 7, 17, 0, 0, 0, time.UTC)
	next := "B"
	ev := NewDomainEvent(EventTypePickMade, "d1", at, PickMadePayload{
		Pick:              models.DraftPick{Round: 1, PickNumber: 1, PickInRound: 1, ParticipantID: "A", TeamID: "KC", Timestamp: at},
		TeamName:          "Kansas City Chiefs",
		NextParticipantID: &next,
	})

	data, err := ev.MarshalEnvelope()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "PickMade", raw["eventType"])
	assert.Equal(t, ev.ID, raw["eventId"])

	got, err := UnmarshalEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	_, err = UnmarshalEnvelope([]byte(`{"eventType":"Nope","payload":{}}`))
	assert.Error(t, err)
}

func TestOutboundPersonalisation(t *testing.T) {
	timer := TimerUpdate{TimeRemaining: 12, ActingParticipantID: "A"}

	assert.Equal(t, TimerUpdateData{TimeRemaining: 12, IsUserTurn: true}, timer.For("A").Data)
	assert.Equal(t, TimerUpdateData{TimeRemaining: 12, IsUserTurn: false}, timer.For("B").Data)
	assert.Equal(t, TimerUpdateData{TimeRemaining: 12, IsUserTurn: false}, timer.For("").Data)

	state := StateUpdate{State: models.DraftState{
		Draft:          models.Draft{Status: models.DraftStatusActive},
		AvailableTeams: []models.Team{{ID: "KC"}},
		Turn:           &models.TurnPointer{PickNumber: 1, ParticipantID: "A"},
	}}
	forA := state.For("A").Data.(models.DraftState)
	forB := state.For("B").Data.(models.DraftState)
	assert.True(t, forA.IsUserTurn)
	assert.True(t, forA.CanMakePick)
	assert.False(t, forB.IsUserTurn)
	assert.False(t, forB.CanMakePick)
}

func TestMessageEncoding(t *testing.T) {
	data, err := PickMadeData{Pick: models.DraftPick{PickNumber: 4, TeamID: "SF"}}.For("A").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "pick_made",
		"data": {
			"pick": {"round":0,"pickNumber":4,"pickInRound":0,"participantId":"","teamId":"SF","isAutoPick":false,"timestamp":"0001-01-01T00:00:00Z"},
			"nextParticipantId": null
		}
	}`, string(data))

	data, err = NewError("not_your_turn", "it is not your turn").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","data":{"code":"not_your_turn","message":"it is not your turn"}}`, string(data))
}

func TestClientMessagePickTeamID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "flat", raw: `{"type":"make_pick","teamId":"KC"}`, want: "KC"},
		{name: "nested", raw: `{"type":"make_pick","data":{"teamId":"BUF"}}`, want: "BUF"},
		{name: "missing", raw: `{"type":"make_pick"}`, want: ""},
		{name: "bad data", raw: `{"type":"make_pick","data":"KC"}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg ClientMessage
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &msg))
			assert.Equal(t, MessageTypeMakePick, msg.Type)
			assert.Equal(t, tt.want, msg.PickTeamID())
		})
	}
}
