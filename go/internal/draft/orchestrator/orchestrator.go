package orchestrator

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// TimerEntry is the live countdown for one draft's current pick.
type TimerEntry struct {
	DraftID    string    `json:"draftId"`
	PickNumber int       `json:"pickNumber"`
	Deadline   time.Time `json:"deadline"`
}

// ExpiryFunc is called once when an armed entry fires without being
// cancelled or replaced. It runs on the timer's goroutine.
type ExpiryFunc func(draftID string, pickNumber int)

type timerEntry struct {
	TimerEntry
	timer clockwork.Timer
	done  chan struct{}
}

// Scheduler owns the pick countdowns of every draft in the process. Each draft
// has at most one live entry; arming a new one replaces the previous.
type Scheduler struct {
	clock Clock

	activeTimers   map[string]*timerEntry
	activeTimersMu sync.Mutex

	wg sync.WaitGroup
}

// NewScheduler creates a scheduler on the given clock. A nil clock means the real one.
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		clock:        clock,
		activeTimers: make(map[string]*timerEntry),
	}
}

// Now reads the scheduler's clock.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}
