package internal

import (
	"strings"
	"time"
)

const (
	MinPlayersToStart       = 2
	MinTeamsToStart         = 2
	DefaultPointsPerCorrect = 10
	DefaultTotalRounds      = 3
	DefaultRoundSeconds     = 60
)

type GamePhase string

const (
	PhaseWaiting     GamePhase = "waiting"
	PhaseRoundActive GamePhase = "round_active"
	PhaseGameOver    GamePhase = "game_over"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts a tier name in any case. An empty string maps to easy.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case "", DifficultyEasy:
		return DifficultyEasy, true
	case DifficultyMedium:
		return DifficultyMedium, true
	case DifficultyHard:
		return DifficultyHard, true
	}
	return "", false
}

type Flashcard struct {
	ID         int64      `json:"id"`
	Word       string     `json:"word"`
	Hint       string     `json:"hint"`
	ImageRef   string     `json:"image_ref"`
	Difficulty Difficulty `json:"difficulty"`
	// Accepted alternate spellings of Word.
	Variants []string `json:"-"`
}

type RoundEndCause string

const (
	EndedByTimer        RoundEndCause = "timer"
	EndedByAllSubmitted RoundEndCause = "all_submitted"
	EndedByHost         RoundEndCause = "host"
)

type CorrectGuess struct {
	PlayerID    string `json:"player_id"`
	Username    string `json:"username"`
	GuessTimeMs int64  `json:"guess_time_ms"`
	Points      int    `json:"points"`
}

type RoundStats struct {
	RoundNumber     int            `json:"round_number"`
	DrawerID        string         `json:"drawer_id"`
	Word            string         `json:"word"`
	CorrectGuessers []CorrectGuess `json:"correct_guessers"`
	StartedAt       time.Time      `json:"started_at"`
	EndedAt         time.Time      `json:"ended_at"`
	EndedBy         RoundEndCause  `json:"ended_by"`
}

// GameSession is the live state of one room's game. It is only touched from
// the room's worker goroutine.
type GameSession struct {
	RoomID string `json:"room_id"`

	// Join order at game start; also the drawing rotation order.
	Players            []*Player `json:"players"`
	CurrentPlayerIndex int       `json:"current_player_index"`

	// Round Management
	CurrentRound int          `json:"current_round"`
	TotalRounds  int          `json:"total_rounds"`
	TimerSeconds int          `json:"timer_seconds"`
	RoundStats   []RoundStats `json:"round_stats"`

	Difficulty       Difficulty `json:"difficulty"`
	CurrentFlashcard *Flashcard `json:"-"`
	Phase            GamePhase  `json:"phase"`

	// Guessing State
	RoundSubmissions map[string]struct{} `json:"-"`
	CorrectGuessers  []CorrectGuess      `json:"correct_guessers"`
	RoundStartedAt   time.Time           `json:"round_started_at"`

	Scores map[string]int    `json:"scores"`
	TeamOf map[string]string `json:"team_of"`

	StartedAt time.Time `json:"started_at"`
}

// Response wraps every HTTP reply with its timing.
type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}
