package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/scythe504/skribblr-teams/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMaskedWord(t *testing.T) {
	tests := []struct {
		name string
		word string
		want string
	}{
		{"empty", "", ""},
		{"single word", "cat", "_ _ _"},
		{"two words", "ice cream", "_ _ _   _ _ _ _ _"},
		{"punctuation kept", "t-shirt", "_ - _ _ _ _ _"},
		{"accented letters", "café", "_ _ _ _"},
		{"surrounding space trimmed", "  dog ", "_ _ _"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetMaskedWord(tt.word))
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestGetPlayerStats(t *testing.T) {
	stats := GetPlayerStats(&internal.Player{TotalGuesses: 4, CorrectGuesses: 1, TimesDrawn: 2})
	assert.Equal(t, 0.25, stats["accuracy"])
	assert.Equal(t, 2, stats["times_drawn"])

	assert.Empty(t, GetPlayerStats(nil))
	assert.Equal(t, 0.0, GetPlayerStats(&internal.Player{})["accuracy"])
}
