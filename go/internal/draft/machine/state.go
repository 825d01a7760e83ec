package machine

import (
	"fmt"
	"time"

	"github.com/mcdev12/draftroom/go/internal/draft/orchestrator"
	"github.com/mcdev12/draftroom/go/internal/draft/pick"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// State is everything one draft owns. Only the draft's goroutine touches it.
type State struct {
	Draft        models.Draft
	Participants map[string]models.Participant
	Pool         *pick.Pool
	Ledger       *pick.Ledger
}

// NewState opens a draft over the given catalog.
func NewState(draft models.Draft, teams []models.Team) (*State, error) {
	if err := ValidateSettings(draft.Settings); err != nil {
		return nil, err
	}
	pool, err := pick.NewPool(teams)
	if err != nil {
		return nil, fmt.Errorf("build team pool: %w", err)
	}
	return &State{
		Draft:        draft,
		Participants: make(map[string]models.Participant),
		Pool:         pool,
		Ledger:       pick.NewLedger(),
	}, nil
}

// ValidateSettings checks the values a draft is created with.
func ValidateSettings(s models.DraftSettings) error {
	if s.TotalRounds <= 0 {
		return fmt.Errorf("%w: total rounds must be positive", ErrInvalidSettings)
	}
	if s.PickTimeLimitSeconds <= 0 {
		return fmt.Errorf("%w: pick time limit must be positive", ErrInvalidSettings)
	}
	if !s.OrderPolicy.Valid() {
		return fmt.Errorf("%w: unknown order policy %q", ErrInvalidSettings, s.OrderPolicy)
	}
	return nil
}

// Turn returns the pointer for the next pick while the draft is active.
func (s *State) Turn() (models.TurnPointer, bool) {
	if s.Draft.Status != models.DraftStatusActive || s.Ledger.Len() >= s.Draft.TotalPicks() {
		return models.TurnPointer{}, false
	}
	turn, err := orchestrator.TurnAt(s.Draft.DraftOrder, s.Draft.Settings.OrderPolicy, s.Ledger.NextPickNumber())
	if err != nil {
		return models.TurnPointer{}, false
	}
	return turn, true
}

// IsRobot reports whether participantID is a robot in this draft.
func (s *State) IsRobot(participantID string) bool {
	return s.Participants[participantID].IsRobot
}

// OrderedParticipants lists participants in draft order.
func (s *State) OrderedParticipants() []models.Participant {
	out := make([]models.Participant, 0, len(s.Draft.DraftOrder))
	for _, id := range s.Draft.DraftOrder {
		out = append(out, s.Participants[id])
	}
	return out
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// StartDraft moves a draft from not_started (or starting) to active.
type StartDraft struct {
	Roster          models.Roster
	MinParticipants int
}

// HumanPick is a pick submitted by a participant.
type HumanPick struct {
	ParticipantID string
	TeamID        string
}

// TimerExpired is the scheduler reporting that the countdown armed for
// PickNumber ran out.
type TimerExpired struct {
	PickNumber int
}

func (StartDraft) isEvent()   {}
func (HumanPick) isEvent()    {}
func (TimerExpired) isEvent() {}

// Transition describes what changed so the caller can arm timers, broadcast
// and persist. A nil Transition with a nil error means the event was a no-op.
type Transition struct {
	Started   bool
	Pick      *models.DraftPick
	Next      *models.TurnPointer
	Completed bool
}

// Reduce applies ev to s at time now. It performs no I/O. When it returns an
// error s is unchanged, except for ErrCorruptState which means s can no longer
// be trusted.
func Reduce(s *State, ev Event, now time.Time, strategy orchestrator.AutoPickStrategy) (*Transition, error) {
	switch e := ev.(type) {
	case StartDraft:
		return reduceStart(s, e, now)
	case HumanPick:
		return reduceHumanPick(s, e, now)
	case TimerExpired:
		return reduceTimerExpired(s, e, now, strategy)
	default:
		return nil, fmt.Errorf("unknown event %T", ev)
	}
}

func reduceStart(s *State, e StartDraft, now time.Time) (*Transition, error) {
	switch s.Draft.Status {
	case models.DraftStatusNotStarted, models.DraftStatusStarting:
	default:
		return nil, ErrAlreadyStarted
	}
	if e.Roster.LeagueID != "" && e.Roster.LeagueID != s.Draft.LeagueID {
		return nil, fmt.Errorf("%w: roster for %s, draft for %s", ErrLeagueMismatch, e.Roster.LeagueID, s.Draft.LeagueID)
	}

	required := e.MinParticipants
	if e.Roster.Size > required {
		required = e.Roster.Size
	}
	if required < 1 {
		required = 1
	}
	n := len(e.Roster.Participants)
	if n < required {
		return nil, fmt.Errorf("%w: %d of %d participants", ErrIncompleteRoster, n, required)
	}

	participants := make(map[string]models.Participant, n)
	for _, p := range e.Roster.Participants {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: participant without id", ErrIncompleteRoster)
		}
		if _, dup := participants[p.ID]; dup {
			return nil, fmt.Errorf("%w: participant %s listed twice", ErrIncompleteRoster, p.ID)
		}
		participants[p.ID] = p
	}

	if need := s.Draft.Settings.TotalRounds * n; s.Pool.Size() < need {
		return nil, fmt.Errorf("%w: %d teams for %d picks", ErrInsufficientTeams, s.Pool.Size(), need)
	}

	startedAt := now
	s.Participants = participants
	s.Draft.DraftOrder = orchestrator.ComputeOrder(e.Roster.Participants, s.Draft.Settings.ShuffleSeed)
	s.Draft.StartedAt = &startedAt
	s.Draft.CompletedAt = nil
	s.Ledger = pick.NewLedger()
	s.Draft.Status = models.DraftStatusActive

	turn, ok := s.Turn()
	if !ok {
		return nil, fmt.Errorf("%w: no first turn", ErrCorruptState)
	}
	return &Transition{Started: true, Next: &turn}, nil
}

func reduceHumanPick(s *State, e HumanPick, now time.Time) (*Transition, error) {
	if s.Draft.Status != models.DraftStatusActive {
		return nil, ErrDraftNotActive
	}
	turn, ok := s.Turn()
	if !ok {
		return nil, ErrDraftNotActive
	}
	if e.ParticipantID != turn.ParticipantID {
		return nil, ErrNotYourTurn
	}
	if !s.Pool.Has(e.TeamID) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, e.TeamID)
	}
	if s.Ledger.Contains(e.TeamID) || s.Pool.IsTaken(e.TeamID) {
		return nil, fmt.Errorf("%w: %s", ErrTeamAlreadyTaken, e.TeamID)
	}
	return applyPick(s, turn, e.TeamID, false, now)
}

func reduceTimerExpired(s *State, e TimerExpired, now time.Time, strategy orchestrator.AutoPickStrategy) (*Transition, error) {
	if s.Draft.Status != models.DraftStatusActive || e.PickNumber != s.Ledger.NextPickNumber() {
		// Stale or repeated expiry.
		return nil, nil
	}
	turn, ok := s.Turn()
	if !ok {
		return nil, nil
	}
	if strategy == nil {
		strategy = orchestrator.BestRankedStrategy{}
	}
	team, err := strategy.SelectTeam(s.Ledger.Available(s.Pool), turn)
	if err != nil {
		return nil, fmt.Errorf("%w: auto-pick for pick %d: %v", ErrCorruptState, turn.PickNumber, err)
	}
	if !s.Pool.Has(team.ID) || s.Ledger.Contains(team.ID) {
		return nil, fmt.Errorf("%w: strategy chose unavailable team %s", ErrCorruptState, team.ID)
	}
	return applyPick(s, turn, team.ID, true, now)
}

func applyPick(s *State, turn models.TurnPointer, teamID string, auto bool, now time.Time) (*Transition, error) {
	p := models.DraftPick{
		Round:         turn.Round,
		PickNumber:    turn.PickNumber,
		PickInRound:   turn.PickInRound,
		ParticipantID: turn.ParticipantID,
		TeamID:        teamID,
		IsAutoPick:    auto,
		Timestamp:     now,
	}
	if err := s.Ledger.Append(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if err := s.Pool.MarkTaken(teamID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}

	tr := &Transition{Pick: &p}
	if s.Ledger.Len() >= s.Draft.TotalPicks() {
		completedAt := now
		s.Draft.Status = models.DraftStatusCompleted
		s.Draft.CompletedAt = &completedAt
		tr.Completed = true
		return tr, nil
	}

	next, ok := s.Turn()
	if !ok {
		return nil, fmt.Errorf("%w: no turn after pick %d", ErrCorruptState, p.PickNumber)
	}
	tr.Next = &next
	return tr, nil
}

// Replay rebuilds ledger and pool from persisted picks, checking each pick
// against the turn order it should have followed.
func Replay(s *State, picks []models.DraftPick) error {
	if len(picks) > 0 && len(s.Draft.DraftOrder) == 0 {
		return fmt.Errorf("%w: picks recorded without a draft order", ErrCorruptState)
	}
	for _, p := range picks {
		if p.PickNumber > s.Draft.TotalPicks() {
			return fmt.Errorf("%w: pick %d beyond %d total picks", ErrCorruptState, p.PickNumber, s.Draft.TotalPicks())
		}
		turn, err := orchestrator.TurnAt(s.Draft.DraftOrder, s.Draft.Settings.OrderPolicy, p.PickNumber)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptState, err)
		}
		if turn.ParticipantID != p.ParticipantID {
			return fmt.Errorf("%w: pick %d by %s, order says %s", ErrCorruptState, p.PickNumber, p.ParticipantID, turn.ParticipantID)
		}
		if err := s.Ledger.Append(p); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptState, err)
		}
		if err := s.Pool.MarkTaken(p.TeamID); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptState, err)
		}
	}
	if err := s.Ledger.Verify(s.Pool); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return nil
}
