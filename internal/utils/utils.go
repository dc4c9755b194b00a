package utils

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/scythe504/skribblr-teams/internal"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// GetMaskedWord hides letters and digits behind underscores and keeps spaces
// and punctuation, e.g. "ice cream" becomes "_ _ _   _ _ _ _ _".
func GetMaskedWord(word string) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return ""
	}

	runes := []rune(word)
	masked := make([]string, 0, len(runes))
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			masked = append(masked, "_")
		case unicode.IsSpace(r):
			masked = append(masked, " ")
		default:
			masked = append(masked, string(r))
		}
	}
	return strings.Join(masked, " ")
}

func GenerateID() string {
	return uuid.NewString()
}

// GetPlayerStats returns accuracy figures for the end-of-game summary.
func GetPlayerStats(player *internal.Player) map[string]any {
	if player == nil {
		return map[string]any{}
	}
	accuracy := 0.0
	if player.TotalGuesses > 0 {
		accuracy = float64(player.CorrectGuesses) / float64(player.TotalGuesses)
	}
	return map[string]any{
		"total_guesses":   player.TotalGuesses,
		"correct_guesses": player.CorrectGuesses,
		"times_drawn":     player.TimesDrawn,
		"accuracy":        accuracy,
	}
}
