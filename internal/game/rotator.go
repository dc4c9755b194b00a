package game

import (
	"context"
	"fmt"
	"time"

	"github.com/scythe504/skribblr-teams/internal"
	"github.com/scythe504/skribblr-teams/internal/flashcard"
)

type TurnResult struct {
	NextPlayer       *internal.Player
	PreviousDrawerID string
	IsGameOver       bool
}

// AdvanceTurn starts the next round: currentRound goes up by one and the
// drawer becomes players[(currentRound-1) mod len(players)]. Past the last
// round the session turns terminal and nothing else changes. The flashcard is
// fetched before any mutation so a failed lookup leaves the session as it was.
func AdvanceTurn(ctx context.Context, s *internal.GameSession, cards flashcard.Supplier, now time.Time) (TurnResult, error) {
	if len(s.Players) == 0 {
		return TurnResult{}, fmt.Errorf("%w: room %s has no players", ErrCorruptSession, s.RoomID)
	}

	var result TurnResult
	if prev := s.Drawer(); prev != nil {
		result.PreviousDrawerID = prev.UserID
	}

	nextRound := s.CurrentRound + 1
	if nextRound > s.TotalRounds {
		s.CurrentRound = nextRound
		s.Phase = internal.PhaseGameOver
		s.CurrentFlashcard = nil
		result.IsGameOver = true
		return result, nil
	}

	card, err := cards.GetFlashcard(ctx, s.Difficulty)
	if err != nil {
		return TurnResult{}, fmt.Errorf("%w: round %d: %w", ErrNoFlashcard, nextRound, err)
	}

	s.CurrentRound = nextRound
	s.CurrentPlayerIndex = (nextRound - 1) % len(s.Players)
	s.CurrentFlashcard = &card
	s.Phase = internal.PhaseRoundActive
	s.RoundStartedAt = now
	s.ResetRoundState()

	drawer := s.Players[s.CurrentPlayerIndex]
	drawer.TimesDrawn++
	result.NextPlayer = drawer

	return result, nil
}
