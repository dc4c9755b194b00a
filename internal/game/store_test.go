package game

import (
	"testing"

	"github.com/scythe504/skribblr-teams/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreCreate(t *testing.T) {
	store := NewSessionStore()
	players := teamPlayers()
	players[1].Points = 99

	s, err := store.Create(testRoom, players, 3, 60, internal.DifficultyMedium)
	require.NoError(t, err)

	assert.Equal(t, 0, s.CurrentRound)
	assert.Equal(t, internal.PhaseWaiting, s.Phase)
	assert.Nil(t, s.Drawer())
	assert.Equal(t, map[string]int{"A": 0, "B": 0, "C": 0}, s.Scores)
	assert.Equal(t, 0, s.Players[1].Points, "scores start fresh")
	assert.NotSame(t, players[0], s.Players[0], "roster is copied")

	got, ok := store.Get(testRoom)
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestSessionStoreCreateRejects(t *testing.T) {
	tests := []struct {
		name    string
		roomID  string
		players []*internal.Player
		rounds  int
		seconds int
		diff    internal.Difficulty
		wantErr error
	}{
		{"missing room", "", teamPlayers(), 3, 60, "", ErrMissingRoomID},
		{"one player", testRoom, teamPlayers()[:1], 3, 60, "", ErrNotEnoughPlayers},
		{"one team", testRoom, teamPlayers()[1:], 3, 60, "", ErrNotEnoughTeams},
		{"zero rounds", testRoom, teamPlayers(), 0, 60, "", ErrInvalidRounds},
		{"zero seconds", testRoom, teamPlayers(), 3, 0, "", ErrInvalidDuration},
		{"bad difficulty", testRoom, teamPlayers(), 3, 60, "extreme", ErrInvalidDifficulty},
		{"duplicate player", testRoom, append(teamPlayers(), &internal.Player{UserID: "A", Team: "red"}), 3, 60, "", ErrDuplicatePlayer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewSessionStore()
			_, err := store.Create(tt.roomID, tt.players, tt.rounds, tt.seconds, tt.diff)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, store.Len())
		})
	}
}

func TestSessionStoreReplaceAndRemove(t *testing.T) {
	store := NewSessionStore()
	first, err := store.Create(testRoom, teamPlayers(), 3, 60, "")
	require.NoError(t, err)
	second, err := store.Create(testRoom, teamPlayers(), 5, 30, "")
	require.NoError(t, err)

	got, _ := store.Get(testRoom)
	assert.Same(t, second, got)

	store.Remove(testRoom, first)
	_, ok := store.Get(testRoom)
	assert.True(t, ok, "stale remove must not drop the newer session")

	store.Remove(testRoom, second)
	_, ok = store.Get(testRoom)
	assert.False(t, ok)
}
