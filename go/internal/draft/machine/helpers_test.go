package machine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/orchestrator"
	"github.com/mcdev12/draftroom/go/internal/models"
)

var base = time.Date(2025, 9, 4, 19, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []events.Outbound
}

func (n *fakeNotifier) Broadcast(_ string, msg events.Outbound) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *fakeNotifier) ofType(t events.MessageType) []events.Outbound {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []events.Outbound
	for _, m := range n.msgs {
		if m.MessageType() == t {
			out = append(out, m)
		}
	}
	return out
}

type captureRecorder struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (r *captureRecorder) Record(ev events.DomainEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

func (r *captureRecorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type staticRoster map[string]models.Roster

func (r staticRoster) Roster(_ context.Context, leagueID string) (models.Roster, error) {
	roster, ok := r[leagueID]
	if !ok {
		return models.Roster{}, errors.New("league not found")
	}
	return roster, nil
}

func numberedTeams(n int) []models.Team {
	teams := make([]models.Team, n)
	for i := range teams {
		teams[i] = models.Team{ID: fmt.Sprintf("T%d", i+1), Name: fmt.Sprintf("Team %d", i+1)}
	}
	return teams
}

func participants(ids ...string) []models.Participant {
	out := make([]models.Participant, len(ids))
	for i, id := range ids {
		out[i] = models.Participant{ID: id, DisplayName: id, JoinedAt: base.Add(time.Duration(i) * time.Minute)}
	}
	return out
}

type harness struct {
	clock    *clockwork.FakeClock
	sched    *orchestrator.Scheduler
	notifier *fakeNotifier
	recorder *captureRecorder
	roster   staticRoster
	m        *Machine
}

type harnessOpt func(*harnessConfig)

type harnessConfig struct {
	settings models.DraftSettings
	teams    []models.Team
	roster   models.Roster
	cfg      Config
}

func withRoster(r models.Roster) harnessOpt {
	return func(c *harnessConfig) { c.roster = r }
}

func withSettings(s models.DraftSettings) harnessOpt {
	return func(c *harnessConfig) { c.settings = s }
}

func newHarness(t *testing.T, opts ...harnessOpt) *harness {
	t.Helper()
	hc := harnessConfig{
		settings: models.DraftSettings{TotalRounds: 2, PickTimeLimitSeconds: 30},
		teams:    numberedTeams(4),
		roster:   models.Roster{LeagueID: "L1", Participants: participants("A", "B")},
		cfg:      Config{MinParticipants: 2, RobotPickDelay: 3 * time.Second, TimerTickInterval: time.Second},
	}
	for _, opt := range opts {
		opt(&hc)
	}

	clock := clockwork.NewFakeClockAt(base)
	sched := orchestrator.NewScheduler(clock)
	h := &harness{
		clock:    clock,
		sched:    sched,
		notifier: &fakeNotifier{},
		recorder: &captureRecorder{},
		roster:   staticRoster{hc.roster.LeagueID: hc.roster},
	}

	m, err := New(models.Draft{ID: "d1", LeagueID: "L1", Settings: hc.settings, CreatedAt: base}, hc.teams, Deps{
		Clock:     clock,
		Scheduler: sched,
		Strategy:  orchestrator.LowestIDStrategy{},
		Roster:    h.roster,
		Notifier:  h.notifier,
		Recorder:  h.recorder,
	}, hc.cfg)
	require.NoError(t, err)
	h.m = m
	t.Cleanup(func() {
		m.Stop()
		sched.Stop()
	})
	return h
}

func (h *harness) snapshot(t *testing.T, participantID string) models.DraftState {
	t.Helper()
	st, err := h.m.Snapshot(context.Background(), participantID)
	require.NoError(t, err)
	return st
}

func (h *harness) waitForPicks(t *testing.T, n int) models.DraftState {
	t.Helper()
	var st models.DraftState
	require.Eventually(t, func() bool {
		st = h.snapshot(t, "")
		return len(st.Picks) == n
	}, 2*time.Second, 5*time.Millisecond, "expected %d picks", n)
	return st
}
