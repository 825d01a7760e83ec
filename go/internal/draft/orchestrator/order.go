package orchestrator

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/mcdev12/draftroom/go/internal/models"
)

var ErrEmptyOrder = errors.New("draft order is empty")

// TurnAt derives the turn pointer for pickNumber. The round and the slot within
// the round come from arithmetic on the pick number; the policy only decides
// whether a round walks the order forwards or backwards.
func TurnAt(order []string, policy models.OrderPolicy, pickNumber int) (models.TurnPointer, error) {
	n := len(order)
	if n == 0 {
		return models.TurnPointer{}, ErrEmptyOrder
	}
	if pickNumber < 1 {
		return models.TurnPointer{}, fmt.Errorf("pick number must be positive, got %d", pickNumber)
	}

	round := (pickNumber-1)/n + 1
	slot := (pickNumber - 1) % n
	if isReversed(policy, round) {
		slot = n - 1 - slot
	}

	return models.TurnPointer{
		Round:         round,
		PickNumber:    pickNumber,
		PickInRound:   (pickNumber-1)%n + 1,
		ParticipantID: order[slot],
	}, nil
}

// isReversed reports whether round walks the order backwards.
func isReversed(policy models.OrderPolicy, round int) bool {
	switch policy {
	case models.OrderPolicySnake:
		return round%2 == 0
	case models.OrderPolicyThirdRoundReversal:
		// 1 forward, 2 and 3 reversed, then alternating from there.
		if round < 2 {
			return false
		}
		if round <= 3 {
			return true
		}
		return round%2 == 1
	default:
		return false
	}
}

// ComputeOrder fixes the draft order from the roster. Participants are taken in
// join order; a non-zero seed shuffles that order reproducibly.
func ComputeOrder(participants []models.Participant, seed int64) []string {
	sorted := make([]models.Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].JoinedAt.Equal(sorted[j].JoinedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].JoinedAt.Before(sorted[j].JoinedAt)
	})

	order := make([]string, len(sorted))
	for i, p := range sorted {
		order[i] = p.ID
	}
	if seed != 0 {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return order
}
