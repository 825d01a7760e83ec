package models

import (
	"time"
)

// DraftStatus defines the status of a draft.
type DraftStatus string

const (
	DraftStatusNotStarted DraftStatus = "not_started"
	DraftStatusStarting   DraftStatus = "starting"
	DraftStatusActive     DraftStatus = "active"
	DraftStatusCompleted  DraftStatus = "completed"
)

// OrderPolicy decides which slot of the draft order acts at a given pick.
type OrderPolicy string

const (
	// OrderPolicyStatic repeats the same order every round.
	OrderPolicyStatic OrderPolicy = "static"
	// OrderPolicySnake reverses the order on even rounds.
	OrderPolicySnake OrderPolicy = "snake"
	// OrderPolicyThirdRoundReversal snakes, but round 3 repeats round 2's order.
	OrderPolicyThirdRoundReversal OrderPolicy = "third_round_reversal"
)

// Valid reports whether p is a known policy. The empty policy is treated as static.
func (p OrderPolicy) Valid() bool {
	switch p {
	case "", OrderPolicyStatic, OrderPolicySnake, OrderPolicyThirdRoundReversal:
		return true
	}
	return false
}

// DraftSettings holds the knobs chosen when the draft is created.
type DraftSettings struct {
	TotalRounds          int         `json:"totalRounds" yaml:"total_rounds"`
	PickTimeLimitSeconds int         `json:"pickTimeLimitSeconds" yaml:"pick_time_limit_seconds"`
	OrderPolicy          OrderPolicy `json:"orderPolicy,omitempty" yaml:"order_policy"`
	// ShuffleSeed, when non-zero, shuffles the join order reproducibly at start.
	ShuffleSeed int64 `json:"shuffleSeed,omitempty" yaml:"shuffle_seed"`
}

// PickTimeLimit returns the human countdown as a duration.
func (s DraftSettings) PickTimeLimit() time.Duration {
	return time.Duration(s.PickTimeLimitSeconds) * time.Second
}

// Draft represents a draft instance.
type Draft struct {
	ID          string        `json:"id"`
	LeagueID    string        `json:"leagueId"`
	Status      DraftStatus   `json:"status"`
	Settings    DraftSettings `json:"settings"`
	DraftOrder  []string      `json:"draftOrder"`
	CreatedAt   time.Time     `json:"createdAt"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
}

// TotalPicks is the number of picks a full draft holds.
func (d Draft) TotalPicks() int {
	return d.Settings.TotalRounds * len(d.DraftOrder)
}

// Clone returns a copy that shares no mutable memory with d.
func (d Draft) Clone() Draft {
	c := d
	if d.DraftOrder != nil {
		c.DraftOrder = append([]string(nil), d.DraftOrder...)
	}
	if d.StartedAt != nil {
		t := *d.StartedAt
		c.StartedAt = &t
	}
	if d.CompletedAt != nil {
		t := *d.CompletedAt
		c.CompletedAt = &t
	}
	return c
}
