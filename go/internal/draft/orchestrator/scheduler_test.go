package orchestrator

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expiry struct {
	draftID    string
	pickNumber int
}

func recorder() (ExpiryFunc, <-chan expiry) {
	ch := make(chan expiry, 8)
	return func(draftID string, pickNumber int) {
		ch <- expiry{draftID: draftID, pickNumber: pickNumber}
	}, ch
}

func expectNoExpiry(t *testing.T, ch <-chan expiry) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected expiry %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func expectExpiry(t *testing.T, ch <-chan expiry, want expiry) {
	t.Helper()
	select {
	case got := <-ch:
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for expiry %+v", want)
	}
}

func TestSchedulerFiresAtDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)
	defer s.Stop()
	onExpire, fired := recorder()

	entry := s.Arm("d1", 1, 30*time.Second, onExpire)
	assert.Equal(t, clock.Now().Add(30*time.Second), entry.Deadline)
	assert.Equal(t, 1, s.ActiveCount())

	clock.Advance(29 * time.Second)
	expectNoExpiry(t, fired)
	assert.Equal(t, time.Second, s.Remaining("d1"))

	clock.Advance(time.Second)
	expectExpiry(t, fired, expiry{draftID: "d1", pickNumber: 1})

	require.Eventually(t, func() bool { return s.ActiveCount() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, time.Duration(0), s.Remaining("d1"))
}

func TestSchedulerArmReplacesEntry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)
	defer s.Stop()
	onExpire, fired := recorder()

	s.Arm("d1", 1, 30*time.Second, onExpire)
	clock.Advance(10 * time.Second)
	s.Arm("d1", 2, 30*time.Second, onExpire)

	clock.Advance(20 * time.Second)
	expectNoExpiry(t, fired)

	entry, ok := s.Entry("d1")
	require.True(t, ok)
	assert.Equal(t, 2, entry.PickNumber)

	clock.Advance(10 * time.Second)
	expectExpiry(t, fired, expiry{draftID: "d1", pickNumber: 2})
}

func TestSchedulerCancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)
	defer s.Stop()
	onExpire, fired := recorder()

	s.Arm("d1", 1, 5*time.Second, onExpire)
	assert.True(t, s.Cancel("d1"))
	assert.False(t, s.Cancel("d1"))

	clock.Advance(time.Minute)
	expectNoExpiry(t, fired)
	_, ok := s.Entry("d1")
	assert.False(t, ok)
}

func TestSchedulerDraftsAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)
	defer s.Stop()
	onExpire, fired := recorder()

	s.Arm("d1", 4, 10*time.Second, onExpire)
	s.Arm("d2", 7, 20*time.Second, onExpire)
	s.Cancel("d2")

	clock.Advance(30 * time.Second)
	expectExpiry(t, fired, expiry{draftID: "d1", pickNumber: 4})
	expectNoExpiry(t, fired)
}

func TestSchedulerStop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewScheduler(clock)
	onExpire, fired := recorder()

	s.Arm("d1", 1, time.Second, onExpire)
	s.Arm("d2", 1, time.Second, onExpire)
	s.Stop()

	assert.Equal(t, 0, s.ActiveCount())
	clock.Advance(time.Minute)
	expectNoExpiry(t, fired)
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 0, Seconds(-time.Second))
	assert.Equal(t, 0, Seconds(0))
	assert.Equal(t, 1, Seconds(10*time.Millisecond))
	assert.Equal(t, 20, Seconds(20*time.Second))
	assert.Equal(t, 21, Seconds(20*time.Second+time.Millisecond))
}
