package internal

type Player struct {
	UserID      string `json:"id"`
	DisplayName string `json:"username"`
	SocketID    string `json:"-"`
	Team        string `json:"team"`
	// Mirrors GameSession.Scores[UserID].
	Points int `json:"points"`

	// Statistics
	TotalGuesses   int `json:"total_guesses"`
	CorrectGuesses int `json:"correct_guesses"`
	TimesDrawn     int `json:"times_drawn"`
}

type PlayerSnapshot struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Team           string `json:"team"`
	Points         int    `json:"points"`
	IsDrawer       bool   `json:"is_drawer"`
	HasSubmitted   bool   `json:"has_submitted"`
	IsConnected    bool   `json:"is_connected"`
	TotalGuesses   int    `json:"total_guesses"`
	CorrectGuesses int    `json:"correct_guesses"`
	TimesDrawn     int    `json:"times_drawn"`
}

func CreatePlayerSnapshot(p *Player) PlayerSnapshot {
	return PlayerSnapshot{
		ID:             p.UserID,
		Username:       p.DisplayName,
		Team:           p.Team,
		Points:         p.Points,
		IsConnected:    true,
		TotalGuesses:   p.TotalGuesses,
		CorrectGuesses: p.CorrectGuesses,
		TimesDrawn:     p.TimesDrawn,
	}
}
