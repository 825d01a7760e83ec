package metrics

import (
	"time"
)

// Collector defines the metrics the draft service records.
type Collector interface {
	// Draft lifecycle.
	RecordDraftCreated()
	RecordDraftStarted()
	RecordDraftCompleted(duration time.Duration)
	RecordDraftEvicted(reason string)
	SetActiveDrafts(n int)

	// Picks.
	RecordPick(auto bool)
	RecordPickRejected(code string)

	// Connections.
	RecordConnectionOpened()
	RecordConnectionClosed(reason string)
	RecordBroadcastDropped()

	// Domain event dispatch.
	RecordEventProcessed(eventType string, success bool, duration time.Duration)
	RecordPublishAttempt(eventType string, attempt int, success bool)
	RecordEventDropped(eventType string)
}

// NoOp is a no-op implementation for when metrics aren't needed.
type NoOp struct{}

var _ Collector = NoOp{}

func (NoOp) RecordDraftCreated()                              {}
func (NoOp) RecordDraftStarted()                              {}
func (NoOp) RecordDraftCompleted(time.Duration)               {}
func (NoOp) RecordDraftEvicted(string)                        {}
func (NoOp) SetActiveDrafts(int)                              {}
func (NoOp) RecordPick(bool)                                  {}
func (NoOp) RecordPickRejected(string)                        {}
func (NoOp) RecordConnectionOpened()                          {}
func (NoOp) RecordConnectionClosed(string)                    {}
func (NoOp) RecordBroadcastDropped()                          {}
func (NoOp) RecordEventProcessed(string, bool, time.Duration) {}
func (NoOp) RecordPublishAttempt(string, int, bool)           {}
func (NoOp) RecordEventDropped(string)                        {}

// OrNoOp returns c, or NoOp when c is nil.
func OrNoOp(c Collector) Collector {
	if c == nil {
		return NoOp{}
	}
	return c
}
