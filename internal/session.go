package internal

// Methods (GameSession Struct)

func (s *GameSession) GetPlayerByIndex(index int) *Player {
	if index < 0 || index >= len(s.Players) {
		return nil
	}
	return s.Players[index]
}

func (s *GameSession) GetPlayer(userID string) *Player {
	for _, p := range s.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// Drawer returns nil before the first round or when the index is corrupt.
func (s *GameSession) Drawer() *Player {
	if s.CurrentRound < 1 {
		return nil
	}
	return s.GetPlayerByIndex(s.CurrentPlayerIndex)
}

func (s *GameSession) IsDrawer(userID string) bool {
	d := s.Drawer()
	return d != nil && d.UserID == userID
}

// IsEligibleGuesser reports whether userID sits on a different team than the
// current drawer.
func (s *GameSession) IsEligibleGuesser(userID string) bool {
	drawer := s.Drawer()
	if drawer == nil || drawer.UserID == userID {
		return false
	}
	team, ok := s.TeamOf[userID]
	if !ok {
		return false
	}
	return team != s.TeamOf[drawer.UserID]
}

func (s *GameSession) EligibleGuessers() []*Player {
	guessers := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if s.IsEligibleGuesser(p.UserID) {
			guessers = append(guessers, p)
		}
	}
	return guessers
}

func (s *GameSession) HasSubmitted(userID string) bool {
	_, ok := s.RoundSubmissions[userID]
	return ok
}

// HasEveryoneSubmitted is false when the drawer has no eligible guessers, so
// such a round only ends on the timer.
func (s *GameSession) HasEveryoneSubmitted() bool {
	guessers := s.EligibleGuessers()
	if len(guessers) == 0 {
		return false
	}
	for _, p := range guessers {
		if !s.HasSubmitted(p.UserID) {
			return false
		}
	}
	return true
}

func (s *GameSession) ResetRoundState() {
	s.RoundSubmissions = make(map[string]struct{})
	s.CorrectGuessers = make([]CorrectGuess, 0)
}

// AddPoints keeps Scores and Player.Points in step.
func (s *GameSession) AddPoints(userID string, points int) int {
	if points < 0 {
		points = 0
	}
	s.Scores[userID] += points
	if p := s.GetPlayer(userID); p != nil {
		p.Points = s.Scores[userID]
	}
	return s.Scores[userID]
}

func (s *GameSession) IsActive() bool {
	return s.Phase == PhaseRoundActive && s.CurrentRound >= 1 && s.CurrentRound <= s.TotalRounds
}

// Roster snapshots players in rotation order. connected may be nil, in which
// case every player is reported as connected.
func (s *GameSession) Roster(connected func(userID string) bool) []PlayerSnapshot {
	roster := make([]PlayerSnapshot, 0, len(s.Players))
	for _, p := range s.Players {
		snap := CreatePlayerSnapshot(p)
		snap.IsDrawer = s.IsDrawer(p.UserID)
		snap.HasSubmitted = s.HasSubmitted(p.UserID)
		if connected != nil {
			snap.IsConnected = connected(p.UserID)
		}
		roster = append(roster, snap)
	}
	return roster
}
