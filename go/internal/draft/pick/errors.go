package pick

import "errors"

var (
	// ErrUnknownTeam is returned when a team id is not part of the pool.
	ErrUnknownTeam = errors.New("unknown team")
	// ErrTeamAlreadyTaken is returned when a team already appears in the ledger.
	ErrTeamAlreadyTaken = errors.New("team already taken")
	// ErrOutOfSequence is returned when a pick number would leave a gap in the ledger.
	ErrOutOfSequence = errors.New("pick number out of sequence")
	// ErrDuplicateTeam is returned when a catalog lists the same team id twice.
	ErrDuplicateTeam = errors.New("duplicate team in catalog")
)
