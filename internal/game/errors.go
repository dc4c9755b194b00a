package game

import "errors"

var (
	ErrMissingRoomID     = errors.New("room id is required")
	ErrNoSession         = errors.New("no game in progress for this room")
	ErrRoomClosed        = errors.New("room is closed")
	ErrGameInProgress    = errors.New("a game is already running in this room")
	ErrNotEnoughPlayers  = errors.New("at least two players are needed to start")
	ErrNotEnoughTeams    = errors.New("players must be split across at least two teams")
	ErrDuplicatePlayer   = errors.New("player listed twice")
	ErrInvalidRounds     = errors.New("total rounds out of range")
	ErrInvalidDuration   = errors.New("round duration out of range")
	ErrInvalidDifficulty = errors.New("unknown difficulty")
	ErrRoundNotActive    = errors.New("no round is active")
	ErrNotInGame         = errors.New("player is not part of this game")
	ErrEmptyGuess        = errors.New("guess is empty")
	ErrIneligibleDrawer  = errors.New("the drawer cannot guess their own prompt")
	ErrIneligibleTeam    = errors.New("only the opposing team can guess this round")
	ErrAdvanceInFlight   = errors.New("the round is already advancing")
	ErrCorruptSession    = errors.New("session invariant violated")
	ErrNoFlashcard       = errors.New("no flashcard for the next round")
)

// IsIneligible reports errors that are answered privately with a reason
// rather than treated as bad input.
func IsIneligible(err error) bool {
	return errors.Is(err, ErrIneligibleDrawer) ||
		errors.Is(err, ErrIneligibleTeam) ||
		errors.Is(err, ErrNotInGame) ||
		errors.Is(err, ErrAdvanceInFlight)
}
