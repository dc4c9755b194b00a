package game

import (
	"strings"
	"time"

	"github.com/scythe504/skribblr-teams/internal"
	"github.com/scythe504/skribblr-teams/internal/textnorm"
)

type SubmitResult struct {
	Accepted      bool
	Correct       bool
	Duplicate     bool
	RoundComplete bool
	Points        int
	Score         int
	Position      int
}

// SubmitAnswer validates and scores one guess. Rejections leave the session
// untouched; a repeat from someone already in RoundSubmissions is accepted
// but never scored again.
func SubmitAnswer(s *internal.GameSession, submitterID, text string, pointsPerCorrect int, now time.Time) (SubmitResult, error) {
	if !s.IsActive() || s.CurrentFlashcard == nil {
		return SubmitResult{}, ErrRoundNotActive
	}
	drawer := s.Drawer()
	if drawer == nil {
		return SubmitResult{}, ErrCorruptSession
	}

	player := s.GetPlayer(submitterID)
	if player == nil {
		return SubmitResult{}, ErrNotInGame
	}
	if drawer.UserID == submitterID {
		return SubmitResult{}, ErrIneligibleDrawer
	}
	if !s.IsEligibleGuesser(submitterID) {
		return SubmitResult{}, ErrIneligibleTeam
	}
	if strings.TrimSpace(text) == "" {
		return SubmitResult{}, ErrEmptyGuess
	}

	card := s.CurrentFlashcard
	correct := textnorm.Match(text, card.Word, card.Variants...)

	if s.HasSubmitted(submitterID) {
		return SubmitResult{
			Accepted:      true,
			Correct:       correct,
			Duplicate:     true,
			Score:         s.Scores[submitterID],
			RoundComplete: s.HasEveryoneSubmitted(),
		}, nil
	}

	player.TotalGuesses++
	if !correct {
		return SubmitResult{Accepted: true, Score: s.Scores[submitterID]}, nil
	}

	score := s.AddPoints(submitterID, pointsPerCorrect)
	s.RoundSubmissions[submitterID] = struct{}{}
	player.CorrectGuesses++
	s.CorrectGuessers = append(s.CorrectGuessers, internal.CorrectGuess{
		PlayerID:    submitterID,
		Username:    player.DisplayName,
		GuessTimeMs: now.Sub(s.RoundStartedAt).Milliseconds(),
		Points:      pointsPerCorrect,
	})

	return SubmitResult{
		Accepted:      true,
		Correct:       true,
		Points:        pointsPerCorrect,
		Score:         score,
		Position:      len(s.CorrectGuessers),
		RoundComplete: s.HasEveryoneSubmitted(),
	}, nil
}

// Reason is the user-facing text for a rejected action.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
