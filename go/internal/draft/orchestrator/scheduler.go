package orchestrator

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Arm starts a countdown of d for pickNumber, atomically replacing any entry
// the draft already has. onExpire receives the pick number the entry was armed
// for; callers decide whether that pick is still current.
func (s *Scheduler) Arm(draftID string, pickNumber int, d time.Duration, onExpire ExpiryFunc) TimerEntry {
	if d < 0 {
		d = 0
	}
	e := &timerEntry{
		TimerEntry: TimerEntry{
			DraftID:    draftID,
			PickNumber: pickNumber,
			Deadline:   s.clock.Now().Add(d),
		},
		timer: s.clock.NewTimer(d),
		done:  make(chan struct{}),
	}

	s.replaceTimer(e)

	s.wg.Add(1)
	go s.wait(e, onExpire)

	log.Debug().
		Str("draft_id", draftID).
		Int("pick_number", pickNumber).
		Time("deadline", e.Deadline).
		Dur("duration", d).
		Msg("armed pick timer")

	return e.TimerEntry
}

func (s *Scheduler) wait(e *timerEntry, onExpire ExpiryFunc) {
	defer s.wg.Done()
	select {
	case <-e.timer.Chan():
		if !s.removeTimer(e) {
			// Replaced or cancelled while firing.
			return
		}
		log.Debug().Str("draft_id", e.DraftID).Int("pick_number", e.PickNumber).Msg("pick timer fired")
		if onExpire != nil {
			onExpire(e.DraftID, e.PickNumber)
		}
	case <-e.done:
		stopAndDrainTimer(e.timer)
	}
}

// Cancel stops the draft's live entry. It reports whether one existed.
func (s *Scheduler) Cancel(draftID string) bool {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()

	e, exists := s.activeTimers[draftID]
	if !exists {
		return false
	}
	stopAndDrainTimer(e.timer)
	close(e.done)
	delete(s.activeTimers, draftID)
	log.Debug().Str("draft_id", draftID).Int("pick_number", e.PickNumber).Msg("cancelled pick timer")
	return true
}

// Entry returns the draft's live entry.
func (s *Scheduler) Entry(draftID string) (TimerEntry, bool) {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()

	e, ok := s.activeTimers[draftID]
	if !ok {
		return TimerEntry{}, false
	}
	return e.TimerEntry, true
}

// Remaining is the time left on the draft's live entry, never negative.
func (s *Scheduler) Remaining(draftID string) time.Duration {
	e, ok := s.Entry(draftID)
	if !ok {
		return 0
	}
	return RemainingUntil(e.Deadline, s.clock.Now())
}

// ActiveCount returns the number of live entries.
func (s *Scheduler) ActiveCount() int {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()
	return len(s.activeTimers)
}

// Stop cancels every live entry and waits for timer goroutines to exit.
func (s *Scheduler) Stop() {
	s.activeTimersMu.Lock()
	n := len(s.activeTimers)
	for id, e := range s.activeTimers {
		stopAndDrainTimer(e.timer)
		close(e.done)
		delete(s.activeTimers, id)
	}
	s.activeTimersMu.Unlock()

	s.wg.Wait()
	log.Info().Int("cancelled", n).Msg("scheduler stopped")
}

// replaceTimer atomically replaces the draft's entry, cancelling any existing one.
// This prevents a new entry from slipping in between Stop() and delete().
func (s *Scheduler) replaceTimer(e *timerEntry) {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()

	if existing, exists := s.activeTimers[e.DraftID]; exists {
		stopAndDrainTimer(existing.timer)
		close(existing.done)
		log.Debug().Str("draft_id", e.DraftID).Int("pick_number", existing.PickNumber).Msg("replaced existing timer")
	}
	s.activeTimers[e.DraftID] = e
}

// removeTimer drops e if it is still the draft's live entry.
func (s *Scheduler) removeTimer(e *timerEntry) bool {
	s.activeTimersMu.Lock()
	defer s.activeTimersMu.Unlock()

	if cur, ok := s.activeTimers[e.DraftID]; !ok || cur != e {
		return false
	}
	delete(s.activeTimers, e.DraftID)
	return true
}

// stopAndDrainTimer safely stops a timer and drains its channel.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

// RemainingUntil returns deadline-now clamped at zero.
func RemainingUntil(deadline, now time.Time) time.Duration {
	if d := deadline.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Seconds rounds a remaining duration up to whole seconds for display.
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
