package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/gateway"
	"github.com/mcdev12/draftroom/go/internal/draft/machine"
	"github.com/mcdev12/draftroom/go/internal/draft/orchestrator"
	"github.com/mcdev12/draftroom/go/internal/metrics"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// ErrDraftNotFound is returned for draft ids that are neither live nor stored.
var ErrDraftNotFound = gateway.ErrDraftNotFound

// TeamCatalog supplies the teams a new draft's pool is built from.
type TeamCatalog interface {
	Teams(ctx context.Context) ([]models.Team, error)
}

// DraftStore reads persisted drafts back after a restart.
type DraftStore interface {
	GetDraft(ctx context.Context, draftID string) (models.Draft, error)
	ListPicks(ctx context.Context, draftID string) ([]models.DraftPick, error)
	ListParticipants(ctx context.Context, draftID string) ([]models.Participant, error)
	PoolTeamIDs(ctx context.Context, draftID string) ([]string, error)
	DeleteDraft(ctx context.Context, draftID string) error
}

// Sessions is the view of the connection hub the manager needs.
type Sessions interface {
	machine.Notifier
	SessionCount(draftID string) int
	CloseRoom(draftID string) int
}

type Config struct {
	Machine machine.Config
	// SweepInterval paces eviction of finished drafts; zero disables the sweeper.
	SweepInterval time.Duration
	// CallTimeout bounds reads of a draft's state from the sweeper and listings.
	CallTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Machine:       machine.DefaultConfig(),
		SweepInterval: time.Minute,
		CallTimeout:   2 * time.Second,
	}
}

type Deps struct {
	Clock     clockwork.Clock
	Scheduler *orchestrator.Scheduler
	Strategy  orchestrator.AutoPickStrategy
	Roster    machine.RosterSource
	Teams     TeamCatalog
	Store     DraftStore
	Sessions  Sessions
	Recorder  machine.Recorder
	Metrics   metrics.Collector
}

// Manager is the process-wide registry of live drafts. Drafts are created on
// demand, loaded from the store when first touched after a restart, and
// evicted once they are finished and nobody is watching.
type Manager struct {
	cfg  Config
	deps Deps

	drafts map[string]*machine.Machine
	// discarded holds ids of reset drafts; they are never loaded again.
	discarded map[string]struct{}
	draftsMu  sync.Mutex
	loadMu    sync.Mutex

	cron gocron.Scheduler
}

// New creates a manager.
func New(deps Deps, cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = def.CallTimeout
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Scheduler == nil {
		deps.Scheduler = orchestrator.NewScheduler(deps.Clock)
	}
	deps.Metrics = metrics.OrNoOp(deps.Metrics)

	return &Manager{
		cfg:       cfg,
		deps:      deps,
		drafts:    make(map[string]*machine.Machine),
		discarded: make(map[string]struct{}),
	}
}

func (m *Manager) machineDeps() machine.Deps {
	var notifier machine.Notifier
	if m.deps.Sessions != nil {
		notifier = m.deps.Sessions
	}
	return machine.Deps{
		Clock:     m.deps.Clock,
		Scheduler: m.deps.Scheduler,
		Strategy:  m.deps.Strategy,
		Roster:    m.deps.Roster,
		Notifier:  notifier,
		Recorder:  m.deps.Recorder,
		Metrics:   m.deps.Metrics,
	}
}

// Create opens a new not-started draft for a league over the full catalog.
func (m *Manager) Create(ctx context.Context, leagueID string, settings models.DraftSettings) (models.Draft, error) {
	if leagueID == "" {
		return models.Draft{}, fmt.Errorf("%w: league id is required", machine.ErrInvalidSettings)
	}
	if settings.OrderPolicy == "" {
		settings.OrderPolicy = models.OrderPolicyStatic
	}
	if err := machine.ValidateSettings(settings); err != nil {
		return models.Draft{}, err
	}
	if m.deps.Teams == nil {
		return models.Draft{}, errors.New("no team catalog configured")
	}
	teams, err := m.deps.Teams.Teams(ctx)
	if err != nil {
		return models.Draft{}, fmt.Errorf("load team catalog: %w", err)
	}

	draft := models.Draft{
		ID:        uuid.NewString(),
		LeagueID:  leagueID,
		Status:    models.DraftStatusNotStarted,
		Settings:  settings,
		CreatedAt: m.deps.Clock.Now(),
	}
	dm, err := machine.New(draft, teams, m.machineDeps(), m.cfg.Machine)
	if err != nil {
		return models.Draft{}, err
	}

	m.draftsMu.Lock()
	m.drafts[draft.ID] = dm
	count := len(m.drafts)
	m.draftsMu.Unlock()

	poolIDs := make([]string, 0, len(teams))
	for _, t := range teams {
		poolIDs = append(poolIDs, t.ID)
	}
	m.record(events.EventTypeDraftCreated, draft.ID, events.DraftCreatedPayload{Draft: draft, PoolTeamIDs: poolIDs})
	m.deps.Metrics.RecordDraftCreated()
	m.deps.Metrics.SetActiveDrafts(count)

	log.Info().
		Str("draft_id", draft.ID).
		Str("league_id", leagueID).
		Int("total_rounds", settings.TotalRounds).
		Int("pick_time_limit_seconds", settings.PickTimeLimitSeconds).
		Str("order_policy", string(settings.OrderPolicy)).
		Int("pool_size", len(teams)).
		Msg("draft created")
	return draft, nil
}

// Machine returns the live machine of a draft, restoring it from the store if
// it is not loaded.
func (m *Manager) Machine(ctx context.Context, draftID string) (*machine.Machine, error) {
	dm, ok, err := m.lookup(draftID)
	if ok || err != nil {
		return dm, err
	}

	// Loads are serialized so two restores of one draft never share its
	// scheduler entry.
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	dm, ok, err = m.lookup(draftID)
	if ok || err != nil {
		return dm, err
	}

	loaded, err := m.load(ctx, draftID)
	if err != nil {
		return nil, err
	}

	m.draftsMu.Lock()
	if _, gone := m.discarded[draftID]; gone {
		m.draftsMu.Unlock()
		loaded.Stop()
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, draftID)
	}
	m.drafts[draftID] = loaded
	count := len(m.drafts)
	m.draftsMu.Unlock()

	m.deps.Metrics.SetActiveDrafts(count)
	return loaded, nil
}

// lookup finds a loaded draft. Reset drafts report ErrDraftNotFound.
func (m *Manager) lookup(draftID string) (*machine.Machine, bool, error) {
	m.draftsMu.Lock()
	defer m.draftsMu.Unlock()
	if _, gone := m.discarded[draftID]; gone {
		return nil, false, fmt.Errorf("%w: %s", ErrDraftNotFound, draftID)
	}
	dm, ok := m.drafts[draftID]
	return dm, ok, nil
}

// Room implements gateway.RoomResolver.
func (m *Manager) Room(ctx context.Context, draftID string) (gateway.DraftRoom, error) {
	dm, err := m.Machine(ctx, draftID)
	if err != nil {
		return nil, err
	}
	return dm, nil
}

func (m *Manager) load(ctx context.Context, draftID string) (*machine.Machine, error) {
	if m.deps.Store == nil {
		return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, draftID)
	}
	draft, err := m.deps.Store.GetDraft(ctx, draftID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDraftNotFound, draftID)
		}
		return nil, fmt.Errorf("load draft %s: %w", draftID, err)
	}
	picks, err := m.deps.Store.ListPicks(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("load picks for draft %s: %w", draftID, err)
	}
	teams, err := m.poolTeams(ctx, draftID)
	if err != nil {
		return nil, err
	}

	participants, err := m.participants(ctx, draft)
	if err != nil {
		return nil, err
	}

	return machine.Restore(draft, teams, participants, picks, m.machineDeps(), m.cfg.Machine)
}

// participants returns who a started draft was started with. The stored list
// carries robot flags; the league roster is used only when nothing was stored.
func (m *Manager) participants(ctx context.Context, draft models.Draft) ([]models.Participant, error) {
	if draft.Status == models.DraftStatusNotStarted {
		return nil, nil
	}
	stored, err := m.deps.Store.ListParticipants(ctx, draft.ID)
	if err != nil {
		return nil, fmt.Errorf("load participants for draft %s: %w", draft.ID, err)
	}
	if len(stored) > 0 {
		return stored, nil
	}
	if m.deps.Roster == nil {
		return nil, fmt.Errorf("load draft %s: no participants stored and no roster configured", draft.ID)
	}
	roster, err := m.deps.Roster.Roster(ctx, draft.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("load roster for draft %s: %w", draft.ID, err)
	}
	return roster.Participants, nil
}

func (m *Manager) poolTeams(ctx context.Context, draftID string) ([]models.Team, error) {
	if m.deps.Teams == nil {
		return nil, errors.New("no team catalog configured")
	}
	catalog, err := m.deps.Teams.Teams(ctx)
	if err != nil {
		return nil, fmt.Errorf("load team catalog: %w", err)
	}
	ids, err := m.deps.Store.PoolTeamIDs(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("load team pool for draft %s: %w", draftID, err)
	}
	if len(ids) == 0 {
		return catalog, nil
	}

	byID := make(map[string]models.Team, len(catalog))
	for _, t := range catalog {
		byID[t.ID] = t
	}
	teams := make([]models.Team, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			// Keep the id so replay can flag picks of teams that left the catalog.
			t = models.Team{ID: id, Name: id}
		}
		teams = append(teams, t)
	}
	return teams, nil
}

// Start starts a draft with its league's current roster.
func (m *Manager) Start(ctx context.Context, draftID string) (models.Draft, error) {
	dm, err := m.Machine(ctx, draftID)
	if err != nil {
		return models.Draft{}, err
	}
	st, err := dm.Snapshot(ctx, "")
	if err != nil {
		return models.Draft{}, err
	}
	return dm.Start(ctx, st.Draft.LeagueID)
}

// Reset discards a draft and opens a fresh one with the same league and
// settings under a new id. Connected clients are disconnected and the old id
// is gone for good, in memory and in the store.
func (m *Manager) Reset(ctx context.Context, draftID string) (models.Draft, error) {
	dm, err := m.Machine(ctx, draftID)
	if err != nil {
		return models.Draft{}, err
	}
	st, err := dm.Snapshot(ctx, "")
	if err != nil {
		return models.Draft{}, err
	}
	old := st.Draft

	if !m.discard(draftID, dm) {
		return models.Draft{}, fmt.Errorf("%w: %s", ErrDraftNotFound, draftID)
	}
	dm.Stop()
	if m.deps.Sessions != nil {
		m.deps.Sessions.CloseRoom(draftID)
	}
	if m.deps.Store != nil {
		if err := m.deps.Store.DeleteDraft(ctx, draftID); err != nil {
			log.Warn().Err(err).Str("draft_id", draftID).Msg("failed to delete reset draft")
		}
	}

	fresh, err := m.Create(ctx, old.LeagueID, old.Settings)
	if err != nil {
		return models.Draft{}, fmt.Errorf("recreate draft %s: %w", draftID, err)
	}
	m.record(events.EventTypeDraftReset, draftID, events.DraftResetPayload{
		DraftID:    draftID,
		NewDraftID: fresh.ID,
		ResetAt:    m.deps.Clock.Now(),
	})

	log.Info().
		Str("draft_id", draftID).
		Str("new_draft_id", fresh.ID).
		Str("previous_status", string(old.Status)).
		Msg("draft reset")
	return fresh, nil
}

// DraftState implements gateway.StateProvider.
func (m *Manager) DraftState(ctx context.Context, draftID, participantID string) (models.DraftState, error) {
	dm, err := m.Machine(ctx, draftID)
	if err != nil {
		return models.DraftState{}, err
	}
	return dm.Snapshot(ctx, participantID)
}

// ActiveDrafts lists every loaded draft, ordered by id.
func (m *Manager) ActiveDrafts(ctx context.Context) []models.DraftSummary {
	live := m.snapshotRegistry()
	out := make([]models.DraftSummary, 0, len(live))
	for id, dm := range live {
		st, err := m.snapshot(ctx, dm)
		if err != nil {
			continue
		}
		summary := models.DraftSummary{
			DraftID:      id,
			LeagueID:     st.Draft.LeagueID,
			Status:       st.Draft.Status,
			StartedAt:    st.Draft.StartedAt,
			TotalRounds:  st.Draft.Settings.TotalRounds,
			Participants: len(st.Participants),
		}
		if st.Turn != nil {
			summary.CurrentRound = st.Turn.Round
			summary.CurrentPick = st.Turn.PickNumber
		}
		if m.deps.Sessions != nil {
			summary.Sessions = m.deps.Sessions.SessionCount(id)
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DraftID < out[j].DraftID })
	return out
}

// Count returns the number of loaded drafts.
func (m *Manager) Count() int {
	m.draftsMu.Lock()
	defer m.draftsMu.Unlock()
	return len(m.drafts)
}

// Sweep evicts completed drafts that have no sessions. It returns how many
// were evicted.
func (m *Manager) Sweep(ctx context.Context) int {
	evicted := 0
	for id, dm := range m.snapshotRegistry() {
		if m.deps.Sessions != nil && m.deps.Sessions.SessionCount(id) > 0 {
			continue
		}
		st, err := m.snapshot(ctx, dm)
		if err != nil {
			if errors.Is(err, machine.ErrStopped) {
				m.remove(id, dm)
			}
			continue
		}
		if st.Draft.Status != models.DraftStatusCompleted {
			continue
		}
		if !m.remove(id, dm) {
			continue
		}
		// A client that joined after the session check would otherwise be
		// left on a stopped machine; it reconnects and reloads the draft.
		if m.deps.Sessions != nil {
			m.deps.Sessions.CloseRoom(id)
		}
		dm.Stop()
		evicted++
		m.deps.Metrics.RecordDraftEvicted("completed_idle")
		log.Info().Str("draft_id", id).Msg("evicted completed draft")
	}
	if evicted > 0 {
		m.deps.Metrics.SetActiveDrafts(m.Count())
	}
	return evicted
}

// StartSweeper runs Sweep on a gocron duration job until Close.
func (m *Manager) StartSweeper(ctx context.Context) error {
	if m.cfg.SweepInterval <= 0 {
		return nil
	}
	s, err := gocron.NewScheduler(gocron.WithClock(m.deps.Clock))
	if err != nil {
		return fmt.Errorf("failed to create sweeper: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(m.cfg.SweepInterval),
		gocron.NewTask(func() {
			if n := m.Sweep(ctx); n > 0 {
				log.Debug().Int("evicted", n).Msg("draft sweep finished")
			}
		}),
		gocron.WithName("draft-sweeper"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule sweeper: %w", err)
	}
	s.Start()
	m.cron = s

	log.Info().Dur("interval", m.cfg.SweepInterval).Msg("draft sweeper started")
	return nil
}

// Close stops the sweeper and every live draft.
func (m *Manager) Close() {
	if m.cron != nil {
		if err := m.cron.Shutdown(); err != nil {
			log.Warn().Err(err).Msg("failed to stop draft sweeper")
		}
	}

	m.draftsMu.Lock()
	live := m.drafts
	m.drafts = make(map[string]*machine.Machine)
	m.draftsMu.Unlock()

	for _, dm := range live {
		dm.Stop()
	}
	m.deps.Metrics.SetActiveDrafts(0)
	log.Info().Int("drafts", len(live)).Msg("draft manager closed")
}

func (m *Manager) snapshotRegistry() map[string]*machine.Machine {
	m.draftsMu.Lock()
	defer m.draftsMu.Unlock()
	out := make(map[string]*machine.Machine, len(m.drafts))
	for id, dm := range m.drafts {
		out[id] = dm
	}
	return out
}

func (m *Manager) snapshot(ctx context.Context, dm *machine.Machine) (models.DraftState, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	defer cancel()
	return dm.Snapshot(ctx, "")
}

// remove deletes id from the registry if it still maps to dm.
func (m *Manager) remove(id string, dm *machine.Machine) bool {
	m.draftsMu.Lock()
	defer m.draftsMu.Unlock()
	if m.drafts[id] != dm {
		return false
	}
	delete(m.drafts, id)
	return true
}

// discard removes id from the registry if it still maps to dm and marks it so
// it is never loaded again.
func (m *Manager) discard(id string, dm *machine.Machine) bool {
	m.draftsMu.Lock()
	defer m.draftsMu.Unlock()
	if m.drafts[id] != dm {
		return false
	}
	delete(m.drafts, id)
	m.discarded[id] = struct{}{}
	return true
}

func (m *Manager) record(eventType events.EventType, draftID string, payload any) {
	if m.deps.Recorder == nil {
		return
	}
	m.deps.Recorder.Record(events.NewDomainEvent(eventType, draftID, m.deps.Clock.Now(), payload))
}
