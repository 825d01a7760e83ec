package machine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/orchestrator"
	"github.com/mcdev12/draftroom/go/internal/metrics"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// Notifier fans messages out to the sessions of a draft. Broadcast is called
// from the draft goroutine and must not block.
type Notifier interface {
	Broadcast(draftID string, msg events.Outbound)
}

// Recorder accepts domain events for asynchronous persistence and publishing.
type Recorder interface {
	Record(event events.DomainEvent) bool
}

// RosterSource returns the members of a league.
type RosterSource interface {
	Roster(ctx context.Context, leagueID string) (models.Roster, error)
}

type Config struct {
	// MinParticipants is the smallest roster a draft starts with.
	MinParticipants int
	// RobotPickDelay is the countdown used for robots, capped at the human limit.
	RobotPickDelay time.Duration
	// TimerTickInterval paces timer_update broadcasts; zero disables them.
	TimerTickInterval time.Duration
	InboxSize         int
}

func DefaultConfig() Config {
	return Config{
		MinParticipants:   2,
		RobotPickDelay:    3 * time.Second,
		TimerTickInterval: time.Second,
		InboxSize:         64,
	}
}

type Deps struct {
	Clock     clockwork.Clock
	Scheduler *orchestrator.Scheduler
	Strategy  orchestrator.AutoPickStrategy
	Roster    RosterSource
	Notifier  Notifier
	Recorder  Recorder
	Metrics   metrics.Collector
}

type msg interface{ isMachineMsg() }

type reserveStart struct {
	token    uint64
	leagueID string
	reply    chan error
}

type commitStart struct {
	token  uint64
	roster models.Roster
	reply  chan startResult
}

type abortStart struct {
	token uint64
}

type submitPick struct {
	participantID string
	teamID        string
	reply         chan pickResult
}

type timerFired struct {
	pickNumber int
}

type syncState struct {
	fn    func(models.DraftState)
	reply chan struct{}
}

func (reserveStart) isMachineMsg() {}
func (commitStart) isMachineMsg()  {}
func (abortStart) isMachineMsg()   {}
func (submitPick) isMachineMsg()   {}
func (timerFired) isMachineMsg()   {}
func (syncState) isMachineMsg()    {}

type startResult struct {
	draft models.Draft
	err   error
}

type pickResult struct {
	pick models.DraftPick
	err  error
}

// Machine runs one draft. All state lives on a single goroutine; every public
// method is a message into its inbox, so picks are applied strictly one at a
// time.
type Machine struct {
	id   string
	cfg  Config
	deps Deps

	state    *State
	deadline time.Time
	ticker   clockwork.Ticker
	halted   error

	// startToken identifies the Start call holding the starting reservation.
	startToken uint64
	nextToken  atomic.Uint64

	inbox    chan msg
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// New opens a not-started draft over teams and starts its goroutine.
func New(draft models.Draft, teams []models.Team, deps Deps, cfg Config) (*Machine, error) {
	if draft.ID == "" {
		return nil, fmt.Errorf("%w: draft id is required", ErrInvalidSettings)
	}
	draft.Status = models.DraftStatusNotStarted
	state, err := NewState(draft, teams)
	if err != nil {
		return nil, err
	}
	m := newMachine(state, deps, cfg)
	go m.loop()
	return m, nil
}

// Restore rebuilds a draft from persisted picks. An active draft gets a fresh
// countdown for its current pick.
func Restore(draft models.Draft, teams []models.Team, participants []models.Participant, picks []models.DraftPick, deps Deps, cfg Config) (*Machine, error) {
	state, err := NewState(draft, teams)
	if err != nil {
		return nil, err
	}
	for _, p := range participants {
		state.Participants[p.ID] = p
	}
	if err := Replay(state, picks); err != nil {
		return nil, err
	}

	switch state.Draft.Status {
	case models.DraftStatusStarting:
		state.Draft.Status = models.DraftStatusNotStarted
	case models.DraftStatusActive:
		if state.Ledger.Len() >= state.Draft.TotalPicks() {
			state.Draft.Status = models.DraftStatusCompleted
		}
	}

	m := newMachine(state, deps, cfg)
	if turn, ok := state.Turn(); ok {
		m.arm(turn)
	}
	go m.loop()

	log.Info().
		Str("draft_id", m.id).
		Str("status", string(state.Draft.Status)).
		Int("picks", state.Ledger.Len()).
		Msg("draft restored")
	return m, nil
}

func newMachine(state *State, deps Deps, cfg Config) *Machine {
	def := DefaultConfig()
	if cfg.MinParticipants <= 0 {
		cfg.MinParticipants = def.MinParticipants
	}
	if cfg.RobotPickDelay <= 0 {
		cfg.RobotPickDelay = def.RobotPickDelay
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = def.InboxSize
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = orchestrator.NewScheduler(deps.Clock)
	}
	if deps.Strategy == nil {
		deps.Strategy = orchestrator.BestRankedStrategy{}
	}
	deps.Metrics = metrics.OrNoOp(deps.Metrics)

	return &Machine{
		id:      state.Draft.ID,
		cfg:     cfg,
		deps:    deps,
		state:   state,
		inbox:   make(chan msg, cfg.InboxSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// ID returns the draft id.
func (m *Machine) ID() string { return m.id }

// Done is closed once Stop has been called.
func (m *Machine) Done() <-chan struct{} { return m.done }

// Stop terminates the goroutine and cancels the live countdown. Pending
// callers receive ErrStopped.
func (m *Machine) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
	<-m.stopped
}

// Start moves the draft to active using the league's current roster. The
// roster is fetched on the caller's goroutine; the draft sits in starting
// meanwhile so concurrent starts fail with ErrAlreadyStarted.
func (m *Machine) Start(ctx context.Context, leagueID string) (models.Draft, error) {
	token := m.nextToken.Add(1)
	reserved := make(chan error, 1)
	if err := m.request(ctx, reserveStart{token: token, leagueID: leagueID, reply: reserved}); err != nil {
		return models.Draft{}, err
	}
	select {
	case err := <-reserved:
		if err != nil {
			return models.Draft{}, err
		}
	case <-m.done:
		return models.Draft{}, ErrStopped
	case <-ctx.Done():
		// The reservation may still land; release it.
		m.abortStart(token)
		return models.Draft{}, ctx.Err()
	}

	if m.deps.Roster == nil {
		m.abortStart(token)
		return models.Draft{}, fmt.Errorf("%w: no roster source configured", ErrIncompleteRoster)
	}
	roster, err := m.deps.Roster.Roster(ctx, leagueID)
	if err != nil {
		m.abortStart(token)
		return models.Draft{}, fmt.Errorf("load roster for league %s: %w", leagueID, err)
	}

	reply := make(chan startResult, 1)
	if err := m.request(ctx, commitStart{token: token, roster: roster, reply: reply}); err != nil {
		m.abortStart(token)
		return models.Draft{}, err
	}
	select {
	case res := <-reply:
		return res.draft, res.err
	case <-m.done:
		return models.Draft{}, ErrStopped
	case <-ctx.Done():
		return models.Draft{}, ctx.Err()
	}
}

// SubmitPick applies a participant's pick if it is their turn and the team is
// still available.
func (m *Machine) SubmitPick(ctx context.Context, participantID, teamID string) (models.DraftPick, error) {
	reply := make(chan pickResult, 1)
	if err := m.request(ctx, submitPick{participantID: participantID, teamID: teamID, reply: reply}); err != nil {
		return models.DraftPick{}, err
	}
	select {
	case res := <-reply:
		return res.pick, res.err
	case <-m.done:
		return models.DraftPick{}, ErrStopped
	case <-ctx.Done():
		return models.DraftPick{}, ctx.Err()
	}
}

// OnTimerExpired reports that the countdown armed for pickNumber ran out.
// Stale and repeated expiries are ignored.
func (m *Machine) OnTimerExpired(pickNumber int) {
	select {
	case m.inbox <- timerFired{pickNumber: pickNumber}:
	case <-m.done:
	}
}

// Snapshot returns the state as seen by participantID.
func (m *Machine) Snapshot(ctx context.Context, participantID string) (models.DraftState, error) {
	var out models.DraftState
	err := m.Sync(ctx, func(st models.DraftState) {
		out = st.ForParticipant(participantID)
	})
	return out, err
}

// Sync runs fn on the draft goroutine with the current state. Nothing else
// happens in the draft while fn runs, so fn must be quick and must not call
// back into the machine.
func (m *Machine) Sync(ctx context.Context, fn func(models.DraftState)) error {
	reply := make(chan struct{}, 1)
	if err := m.request(ctx, syncState{fn: fn, reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Machine) request(ctx context.Context, cmd msg) error {
	select {
	case <-m.done:
		return ErrStopped
	default:
	}
	select {
	case m.inbox <- cmd:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Machine) abortStart(token uint64) {
	select {
	case m.inbox <- abortStart{token: token}:
	case <-m.done:
	}
}

func (m *Machine) loop() {
	defer close(m.stopped)
	defer m.stopTicker()

	for {
		select {
		case <-m.done:
			m.deps.Scheduler.Cancel(m.id)
			log.Debug().Str("draft_id", m.id).Msg("draft machine stopped")
			return
		case cmd := <-m.inbox:
			m.handle(cmd)
		case <-m.tick():
			m.broadcastTimer()
		}
	}
}

func (m *Machine) handle(cmd msg) {
	switch c := cmd.(type) {
	case reserveStart:
		c.reply <- m.reserve(c.token, c.leagueID)
	case abortStart:
		if m.state.Draft.Status == models.DraftStatusStarting && m.startToken == c.token {
			m.startToken = 0
			m.state.Draft.Status = models.DraftStatusNotStarted
			m.broadcastState()
		}
	case commitStart:
		draft, err := m.commit(c.token, c.roster)
		c.reply <- startResult{draft: draft, err: err}
	case submitPick:
		p, err := m.pick(c.participantID, c.teamID)
		c.reply <- pickResult{pick: p, err: err}
	case timerFired:
		m.expire(c.pickNumber)
	case syncState:
		c.fn(m.snapshot())
		c.reply <- struct{}{}
	}
}

func (m *Machine) reserve(token uint64, leagueID string) error {
	if m.halted != nil {
		return m.halted
	}
	if leagueID != m.state.Draft.LeagueID {
		return fmt.Errorf("%w: %s", ErrLeagueMismatch, leagueID)
	}
	if m.state.Draft.Status != models.DraftStatusNotStarted {
		return ErrAlreadyStarted
	}
	m.state.Draft.Status = models.DraftStatusStarting
	m.startToken = token
	m.broadcastState()
	return nil
}

func (m *Machine) commit(token uint64, roster models.Roster) (models.Draft, error) {
	if m.state.Draft.Status != models.DraftStatusStarting || m.startToken != token {
		return models.Draft{}, ErrAlreadyStarted
	}
	m.startToken = 0
	tr, err := Reduce(m.state, StartDraft{Roster: roster, MinParticipants: m.cfg.MinParticipants}, m.deps.Clock.Now(), m.deps.Strategy)
	if err != nil {
		m.state.Draft.Status = models.DraftStatusNotStarted
		m.broadcastState()
		log.Warn().Err(err).Str("draft_id", m.id).Msg("draft start rejected")
		return models.Draft{}, err
	}
	m.apply(tr)
	return m.state.Draft.Clone(), nil
}

func (m *Machine) pick(participantID, teamID string) (models.DraftPick, error) {
	if m.halted != nil {
		return models.DraftPick{}, m.halted
	}
	tr, err := Reduce(m.state, HumanPick{ParticipantID: participantID, TeamID: teamID}, m.deps.Clock.Now(), m.deps.Strategy)
	if err != nil {
		if errors.Is(err, ErrCorruptState) {
			m.halt(err)
		}
		m.deps.Metrics.RecordPickRejected(ErrorCode(err))
		log.Debug().Err(err).
			Str("draft_id", m.id).
			Str("participant_id", participantID).
			Str("team_id", teamID).
			Msg("pick rejected")
		return models.DraftPick{}, err
	}
	m.apply(tr)
	return *tr.Pick, nil
}

func (m *Machine) expire(pickNumber int) {
	if m.halted != nil {
		return
	}
	tr, err := Reduce(m.state, TimerExpired{PickNumber: pickNumber}, m.deps.Clock.Now(), m.deps.Strategy)
	if err != nil {
		m.halt(err)
		return
	}
	if tr == nil {
		log.Debug().Str("draft_id", m.id).Int("pick_number", pickNumber).Msg("ignoring stale timer expiry")
		return
	}
	m.apply(tr)
}

// apply carries out the side effects of a transition: countdowns, broadcasts,
// domain events. Broadcasts leave in pick order because only this goroutine
// produces them.
func (m *Machine) apply(tr *Transition) {
	now := m.deps.Clock.Now()
	draft := m.state.Draft

	if tr.Started {
		m.deps.Metrics.RecordDraftStarted()
		m.record(events.EventTypeDraftStarted, events.DraftStartedPayload{
			Draft:       draft.Clone(),
			StartedAt:   *draft.StartedAt,
			TotalRounds: draft.Settings.TotalRounds,
			TotalPicks:  draft.TotalPicks(),

			Participants: m.state.OrderedParticipants(),
		})
		log.Info().
			Str("draft_id", m.id).
			Strs("draft_order", draft.DraftOrder).
			Int("total_picks", draft.TotalPicks()).
			Msg("draft started")
	}

	if tr.Pick != nil {
		var next *string
		if tr.Next != nil {
			id := tr.Next.ParticipantID
			next = &id
		}
		team, _ := m.state.Pool.Team(tr.Pick.TeamID)

		m.deps.Metrics.RecordPick(tr.Pick.IsAutoPick)
		m.broadcast(events.PickMadeData{Pick: *tr.Pick, NextParticipantID: next})
		m.record(events.EventTypePickMade, events.PickMadePayload{
			Pick:              *tr.Pick,
			TeamName:          team.Name,
			NextParticipantID: next,
		})
		log.Info().
			Str("draft_id", m.id).
			Int("pick_number", tr.Pick.PickNumber).
			Str("participant_id", tr.Pick.ParticipantID).
			Str("team_id", tr.Pick.TeamID).
			Bool("auto", tr.Pick.IsAutoPick).
			Msg("pick made")
	}

	if tr.Completed {
		m.deps.Scheduler.Cancel(m.id)
		m.deadline = time.Time{}
		m.stopTicker()

		var elapsed time.Duration
		if draft.StartedAt != nil {
			elapsed = now.Sub(*draft.StartedAt)
		}
		m.deps.Metrics.RecordDraftCompleted(elapsed)
		m.broadcast(events.DraftCompletedData{DraftID: m.id})
		m.record(events.EventTypeDraftCompleted, events.DraftCompletedPayload{
			DraftID:     m.id,
			CompletedAt: now,
			Duration:    elapsed.String(),
			TotalPicks:  m.state.Ledger.Len(),
		})
		log.Info().Str("draft_id", m.id).Dur("duration", elapsed).Msg("draft completed")
		return
	}

	if tr.Next != nil {
		m.arm(*tr.Next)
	}
	if tr.Started {
		m.broadcastState()
	}
}

func (m *Machine) arm(turn models.TurnPointer) {
	d := m.state.Draft.Settings.PickTimeLimit()
	if m.state.IsRobot(turn.ParticipantID) && m.cfg.RobotPickDelay < d {
		d = m.cfg.RobotPickDelay
	}
	entry := m.deps.Scheduler.Arm(m.id, turn.PickNumber, d, func(_ string, pickNumber int) {
		m.OnTimerExpired(pickNumber)
	})
	m.deadline = entry.Deadline
	m.startTicker()
	m.broadcastTimer()
}

func (m *Machine) halt(err error) {
	m.halted = err
	m.deps.Scheduler.Cancel(m.id)
	m.deadline = time.Time{}
	m.stopTicker()
	log.Error().Err(err).Str("draft_id", m.id).Msg("draft halted until reset")
}

func (m *Machine) snapshot() models.DraftState {
	st := models.DraftState{
		Draft:          m.state.Draft.Clone(),
		Participants:   m.state.OrderedParticipants(),
		Picks:          m.state.Ledger.Picks(),
		AvailableTeams: m.state.Ledger.Available(m.state.Pool),
	}
	if turn, ok := m.state.Turn(); ok && m.halted == nil {
		st.Turn = &turn
		st.TimeRemaining = orchestrator.Seconds(orchestrator.RemainingUntil(m.deadline, m.deps.Clock.Now()))
	}
	return st
}

func (m *Machine) broadcast(out events.Outbound) {
	if m.deps.Notifier != nil {
		m.deps.Notifier.Broadcast(m.id, out)
	}
}

func (m *Machine) broadcastState() {
	m.broadcast(events.StateUpdate{State: m.snapshot()})
}

func (m *Machine) broadcastTimer() {
	turn, ok := m.state.Turn()
	if !ok || m.halted != nil {
		return
	}
	remaining := orchestrator.RemainingUntil(m.deadline, m.deps.Clock.Now())
	m.broadcast(events.TimerUpdate{
		TimeRemaining:       orchestrator.Seconds(remaining),
		ActingParticipantID: turn.ParticipantID,
	})
}

func (m *Machine) record(eventType events.EventType, payload any) {
	if m.deps.Recorder == nil {
		return
	}
	m.deps.Recorder.Record(events.NewDomainEvent(eventType, m.id, m.deps.Clock.Now(), payload))
}

func (m *Machine) startTicker() {
	if m.ticker != nil || m.cfg.TimerTickInterval <= 0 {
		return
	}
	m.ticker = m.deps.Clock.NewTicker(m.cfg.TimerTickInterval)
}

func (m *Machine) stopTicker() {
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
}

func (m *Machine) tick() <-chan time.Time {
	if m.ticker == nil {
		return nil
	}
	return m.ticker.Chan()
}
