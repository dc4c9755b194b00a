package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/scythe504/skribblr-teams/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFinalResults(t *testing.T) {
	s := newTestSession(t, 2)
	s.AddPoints("B", 10)
	s.AddPoints("C", 20)
	s.AddPoints("A", 10)
	s.RoundStats = []internal.RoundStats{
		{RoundNumber: 1, DrawerID: "A", CorrectGuessers: []internal.CorrectGuess{
			{PlayerID: "B", Username: "bob", GuessTimeMs: 4000, Points: 10},
			{PlayerID: "C", Username: "carol", GuessTimeMs: 2500, Points: 10},
		}},
		{RoundNumber: 2, DrawerID: "B", CorrectGuessers: []internal.CorrectGuess{
			{PlayerID: "A", Username: "alice", GuessTimeMs: 9000, Points: 10},
		}},
	}

	got := CalculateFinalResults(s)

	want := internal.FinalResults{
		RoomID: testRoom,
		Leaderboard: []internal.GameResultData{
			{PlayerID: "C", Username: "carol", Team: "blue", Score: 20, Position: 1},
			{PlayerID: "A", Username: "alice", Team: "red", Score: 10, Position: 2},
			{PlayerID: "B", Username: "bob", Team: "blue", Score: 10, Position: 3},
		},
		Teams: []internal.TeamResult{
			{Team: "blue", Score: 30, Winner: true},
			{Team: "red", Score: 10},
		},
		MVP:          &internal.GameResultData{PlayerID: "C", Username: "carol", Team: "blue", Score: 20, Position: 1},
		FastestGuess: &internal.GameResultData{PlayerID: "C", Username: "carol", Team: "blue", Score: 20, TimeToGuess: 2500},
		RoundsPlayed: 2,
		TotalPlayers: 3,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CalculateFinalResults mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateFinalResultsNoGuesses(t *testing.T) {
	s := newTestSession(t, 1)

	got := CalculateFinalResults(s)

	assert.Nil(t, got.FastestGuess)
	require.NotNil(t, got.MVP)
	assert.Equal(t, "A", got.MVP.PlayerID, "ties keep rotation order")
	for _, team := range got.Teams {
		assert.False(t, team.Winner, "nobody wins a scoreless game")
	}
}
