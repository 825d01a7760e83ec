package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureHandler struct {
	mu    sync.Mutex
	seen  []DomainEvent
	failN int
	calls int
	block chan struct{}
}

func (h *captureHandler) Handle(_ context.Context, event DomainEvent) error {
	if h.block != nil {
		<-h.block
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.failN {
		return errors.New("sink unavailable")
	}
	h.seen = append(h.seen, event)
	return nil
}

func (h *captureHandler) events() []DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]DomainEvent(nil), h.seen...)
}

func testEvent(draftID string, eventType EventType) DomainEvent {
	return NewDomainEvent(eventType, draftID, time.Now(), DraftCompletedPayload{DraftID: draftID})
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	first, second := &captureHandler{}, &captureHandler{}
	d := NewDispatcher(Config{BufferSize: 16}, nil, first, second)
	require.NoError(t, d.Start(context.Background()))

	want := []EventType{EventTypeDraftStarted, EventTypePickMade, EventTypePickMade, EventTypeDraftCompleted}
	for _, et := range want {
		require.True(t, d.Record(testEvent("d1", et)))
	}
	require.NoError(t, d.Stop())

	for _, h := range []*captureHandler{first, second} {
		got := h.events()
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i], got[i].Type)
		}
	}
}

func TestDispatcherRetries(t *testing.T) {
	h := &captureHandler{failN: 2}
	d := NewDispatcher(Config{BufferSize: 4, MaxRetries: 3, RetryDelay: time.Millisecond}, nil, h)
	require.NoError(t, d.Start(context.Background()))

	d.Record(testEvent("d1", EventTypePickMade))
	require.NoError(t, d.Stop())

	assert.Len(t, h.events(), 1)
	assert.Equal(t, 3, h.calls)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	h := &captureHandler{block: make(chan struct{})}
	d := NewDispatcher(Config{BufferSize: 1}, nil, h)
	require.NoError(t, d.Start(context.Background()))

	// The first event is taken by the worker and blocks in the handler; the
	// second fills the queue.
	require.True(t, d.Record(testEvent("d1", EventTypePickMade)))
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, time.Millisecond)
	require.True(t, d.Record(testEvent("d1", EventTypePickMade)))
	assert.False(t, d.Record(testEvent("d1", EventTypePickMade)))

	close(h.block)
	require.NoError(t, d.Stop())
	assert.Len(t, h.events(), 2)
}

func TestDispatcherStartStop(t *testing.T) {
	d := NewDispatcher(DefaultConfig(), nil)
	assert.Error(t, d.Stop())
	require.NoError(t, d.Start(context.Background()))
	assert.Error(t, d.Start(context.Background()))
	require.NoError(t, d.Stop())
}
