package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/machine"
	"github.com/mcdev12/draftroom/go/internal/models"
)

type rooms map[string]*machine.Machine

func (r rooms) Room(_ context.Context, draftID string) (DraftRoom, error) {
	m, ok := r[draftID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, draftID)
	}
	return m, nil
}

type fixedRoster models.Roster

func (f fixedRoster) Roster(context.Context, string) (models.Roster, error) {
	return models.Roster(f), nil
}

type wireMessage struct {
	Type events.MessageType `json:"type"`
	Data json.RawMessage    `json:"data"`
}

type testEnv struct {
	hub    *Hub
	server *httptest.Server
	draft  *machine.Machine
	clock  *clockwork.FakeClock
}

func newTestEnv(t *testing.T, cfg ConnectionConfig) *testEnv {
	t.Helper()
	hub := NewHub(cfg, nil)

	teams := make([]models.Team, 4)
	for i := range teams {
		teams[i] = models.Team{ID: fmt.Sprintf("T%d", i+1), Name: fmt.Sprintf("Team %d", i+1)}
	}
	base := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(base)
	m, err := machine.New(models.Draft{
		ID:       "d1",
		LeagueID: "L1",
		Settings: models.DraftSettings{TotalRounds: 2, PickTimeLimitSeconds: 60},
	}, teams, machine.Deps{
		Clock: clock,
		Roster: fixedRoster{LeagueID: "L1", Participants: []models.Participant{
			{ID: "A", JoinedAt: base},
			{ID: "B", JoinedAt: base.Add(time.Second)},
		}},
		Notifier: hub,
	}, machine.Config{})
	require.NoError(t, err)

	router := chi.NewRouter()
	NewWebSocketHandler(hub, rooms{"d1": m}).RegisterRoutes(router)
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		hub.Close()
		server.Close()
		m.Stop()
	})
	return &testEnv{hub: hub, server: server, draft: m, clock: clock}
}

func (e *testEnv) dial(t *testing.T, participantID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws/draft?draft_id=d1&participant_id=" + participantID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil reads until a message of type want arrives and returns it along
// with the types skipped on the way.
func readUntil(t *testing.T, conn *websocket.Conn, want events.MessageType) (wireMessage, []events.MessageType) {
	t.Helper()
	var skipped []events.MessageType
	for {
		msg := read(t, conn)
		if msg.Type == want {
			return msg, skipped
		}
		skipped = append(skipped, msg.Type)
	}
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func decode[T any](t *testing.T, msg wireMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(msg.Data, &out))
	return out
}

func quietConfig() ConnectionConfig {
	cfg := DefaultConnectionConfig()
	cfg.HeartbeatInterval = 0
	return cfg
}

func TestJoinSendsPersonalisedSnapshot(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	_, err := env.draft.Start(context.Background(), "L1")
	require.NoError(t, err)

	a := env.dial(t, "A")
	msg := read(t, a)
	require.Equal(t, events.MessageTypeDraftStateUpdate, msg.Type)
	st := decode[models.DraftState](t, msg)
	assert.Equal(t, models.DraftStatusActive, st.Draft.Status)
	assert.True(t, st.IsUserTurn)
	assert.True(t, st.CanMakePick)
	assert.Len(t, st.AvailableTeams, 4)

	b := env.dial(t, "B")
	st = decode[models.DraftState](t, read(t, b))
	assert.False(t, st.IsUserTurn)
	assert.False(t, st.CanMakePick)

	assert.Equal(t, 2, env.hub.SessionCount("d1"))
}

func TestPickIsBroadcastAndErrorsStayPrivate(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	a := env.dial(t, "A")
	b := env.dial(t, "B")
	read(t, a)
	read(t, b)

	_, err := env.draft.Start(context.Background(), "L1")
	require.NoError(t, err)

	send(t, b, map[string]any{"type": "make_pick", "teamId": "T1"})
	errMsg, _ := readUntil(t, b, events.MessageTypeError)
	assert.Equal(t, events.ErrorData{Code: "not_your_turn", Message: "not your turn"}, decode[events.ErrorData](t, errMsg))

	send(t, a, map[string]any{"type": "make_pick", "data": map[string]string{"teamId": "T3"}})

	for name, conn := range map[string]*websocket.Conn{"A": a, "B": b} {
		msg, skipped := readUntil(t, conn, events.MessageTypePickMade)
		if name == "A" {
			assert.NotContains(t, skipped, events.MessageTypeError)
		}
		made := decode[events.PickMadeData](t, msg)
		assert.Equal(t, "T3", made.Pick.TeamID)
		assert.Equal(t, "A", made.Pick.ParticipantID)
		require.NotNil(t, made.NextParticipantID)
		assert.Equal(t, "B", *made.NextParticipantID)
	}

	timer, _ := readUntil(t, b, events.MessageTypeTimerUpdate)
	assert.Equal(t, events.TimerUpdateData{TimeRemaining: 60, IsUserTurn: true}, decode[events.TimerUpdateData](t, timer))
	timer, _ = readUntil(t, a, events.MessageTypeTimerUpdate)
	assert.False(t, decode[events.TimerUpdateData](t, timer).IsUserTurn)
}

func TestReconnectKeepsDraftState(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	ctx := context.Background()
	_, err := env.draft.Start(ctx, "L1")
	require.NoError(t, err)
	env.clock.Advance(7 * time.Second)
	_, err = env.draft.SubmitPick(ctx, "A", "T2")
	require.NoError(t, err)
	env.clock.Advance(12 * time.Second)

	b := env.dial(t, "B")
	st := decode[models.DraftState](t, read(t, b))
	assert.Equal(t, 48, st.TimeRemaining)
	require.NoError(t, b.Close())
	require.Eventually(t, func() bool { return env.hub.SessionCount("d1") == 0 }, 2*time.Second, 10*time.Millisecond)

	env.clock.Advance(5 * time.Second)
	b = env.dial(t, "B")
	st = decode[models.DraftState](t, read(t, b))
	require.Len(t, st.Picks, 1)
	assert.Equal(t, "T2", st.Picks[0].TeamID)
	assert.True(t, st.IsUserTurn)
	assert.Equal(t, 43, st.TimeRemaining, "the countdown keeps running while nobody is connected")
}

func TestClientPingGetsPong(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	a := env.dial(t, "A")
	read(t, a)

	send(t, a, events.ClientMessage{Type: events.MessageTypePing, Timestamp: 1})
	msg := read(t, a)
	assert.Equal(t, events.MessageTypePong, msg.Type)
	assert.NotZero(t, decode[events.HeartbeatData](t, msg).Timestamp)
}

func TestMalformedAndUnknownMessages(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	a := env.dial(t, "A")
	read(t, a)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "invalid_message", decode[events.ErrorData](t, read(t, a)).Code)

	send(t, a, map[string]any{"type": "make_pick"})
	assert.Equal(t, "invalid_message", decode[events.ErrorData](t, read(t, a)).Code)

	send(t, a, map[string]any{"type": "dance"})
	assert.Equal(t, "unknown_message_type", decode[events.ErrorData](t, read(t, a)).Code)
}

func TestPickAttemptsAreRateLimited(t *testing.T) {
	cfg := quietConfig()
	cfg.PickRate = rate.Every(time.Hour)
	cfg.PickBurst = 1
	env := newTestEnv(t, cfg)
	a := env.dial(t, "A")
	read(t, a)

	send(t, a, map[string]any{"type": "make_pick", "teamId": "T1"})
	assert.Equal(t, "draft_not_active", decode[events.ErrorData](t, read(t, a)).Code)

	send(t, a, map[string]any{"type": "make_pick", "teamId": "T1"})
	assert.Equal(t, "rate_limited", decode[events.ErrorData](t, read(t, a)).Code)
}

func TestMissedHeartbeatsDropSession(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.HeartbeatInterval = 50 * time.Millisecond
	cfg.MaxMissedPongs = 3
	env := newTestEnv(t, cfg)

	env.dial(t, "A")
	responsive := env.dial(t, "B")

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			responsive.SetReadDeadline(time.Now().Add(time.Second))
			var msg wireMessage
			if err := responsive.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == events.MessageTypePing {
				responsive.WriteJSON(events.ClientMessage{Type: events.MessageTypePong})
			}
		}
	}()

	require.Eventually(t, func() bool {
		return env.hub.SessionCount("d1") == 1
	}, 2*time.Second, 10*time.Millisecond, "silent session should be removed")

	time.Sleep(300 * time.Millisecond)
	stats := env.hub.GetConnectionStats()
	assert.Equal(t, 1, stats.TotalConnections, "responsive session should survive")
}

func TestCloseRoomDisconnectsSessions(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	a := env.dial(t, "A")
	read(t, a)

	assert.Equal(t, 1, env.hub.CloseRoom("d1"))
	assert.Equal(t, 0, env.hub.SessionCount("d1"))

	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := a.ReadMessage()
	assert.Error(t, err)
}

func TestHandlerRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t, quietConfig())

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{name: "missing draft", query: "participant_id=A", status: http.StatusBadRequest},
		{name: "missing participant", query: "draft_id=d1", status: http.StatusBadRequest},
		{name: "unknown draft", query: "draft_id=nope&participant_id=A", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(env.server.URL + "/ws/draft?" + tt.query)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t, quietConfig())
	a := env.dial(t, "A")
	read(t, a)

	resp, err := http.Get(env.server.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats ConnectionStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, ConnectionStats{
		TotalConnections: 1,
		ActiveDrafts:     1,
		DraftConnections: map[string]int{"d1": 1},
	}, stats)
}
