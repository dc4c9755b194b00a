package game

import (
	"cmp"
	"slices"

	"github.com/scythe504/skribblr-teams/internal"
)

// CalculateFinalResults compiles leaderboard, team totals and awards from a
// finished session. Ties keep rotation order.
func CalculateFinalResults(s *internal.GameSession) internal.FinalResults {
	results := internal.FinalResults{
		RoomID:       s.RoomID,
		RoundsPlayed: len(s.RoundStats),
		TotalPlayers: len(s.Players),
	}

	leaderboard := make([]internal.GameResultData, 0, len(s.Players))
	teamScores := make(map[string]int)
	teamOrder := make([]string, 0, 2)
	for _, p := range s.Players {
		score := s.Scores[p.UserID]
		leaderboard = append(leaderboard, internal.GameResultData{
			PlayerID: p.UserID,
			Username: p.DisplayName,
			Team:     p.Team,
			Score:    score,
		})
		if _, seen := teamScores[p.Team]; !seen {
			teamOrder = append(teamOrder, p.Team)
		}
		teamScores[p.Team] += score
	}

	slices.SortStableFunc(leaderboard, func(a, b internal.GameResultData) int {
		return cmp.Compare(b.Score, a.Score)
	})
	for i := range leaderboard {
		leaderboard[i].Position = i + 1
	}
	results.Leaderboard = leaderboard
	if len(leaderboard) > 0 {
		mvp := leaderboard[0]
		results.MVP = &mvp
	}

	best := 0
	for _, team := range teamOrder {
		best = max(best, teamScores[team])
	}
	results.Teams = make([]internal.TeamResult, 0, len(teamOrder))
	for _, team := range teamOrder {
		results.Teams = append(results.Teams, internal.TeamResult{
			Team:   team,
			Score:  teamScores[team],
			Winner: best > 0 && teamScores[team] == best,
		})
	}
	slices.SortStableFunc(results.Teams, func(a, b internal.TeamResult) int {
		return cmp.Compare(b.Score, a.Score)
	})

	var fastest *internal.CorrectGuess
	for i := range s.RoundStats {
		for j := range s.RoundStats[i].CorrectGuessers {
			g := &s.RoundStats[i].CorrectGuessers[j]
			if fastest == nil || g.GuessTimeMs < fastest.GuessTimeMs {
				fastest = g
			}
		}
	}
	if fastest != nil {
		results.FastestGuess = &internal.GameResultData{
			PlayerID:    fastest.PlayerID,
			Username:    fastest.Username,
			Team:        s.TeamOf[fastest.PlayerID],
			Score:       s.Scores[fastest.PlayerID],
			TimeToGuess: fastest.GuessTimeMs,
		}
	}

	return results
}
