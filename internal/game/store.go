package game

import (
	"fmt"
	"sync"

	"github.com/scythe504/skribblr-teams/internal"
)

// SessionStore maps room ids to live sessions. It only guards the map; the
// session behind an entry is serialized by that room's worker.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*internal.GameSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*internal.GameSession)}
}

// Create validates the roster and replaces any session already stored for
// roomID. Players are copied with their scores reset.
func (s *SessionStore) Create(roomID string, players []*internal.Player, totalRounds, timerSeconds int, difficulty internal.Difficulty) (*internal.GameSession, error) {
	if roomID == "" {
		return nil, ErrMissingRoomID
	}
	if len(players) < internal.MinPlayersToStart {
		return nil, fmt.Errorf("%w: have %d", ErrNotEnoughPlayers, len(players))
	}
	if totalRounds < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRounds, totalRounds)
	}
	if timerSeconds < 1 {
		return nil, fmt.Errorf("%w: %ds", ErrInvalidDuration, timerSeconds)
	}
	if _, ok := internal.ParseDifficulty(string(difficulty)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDifficulty, difficulty)
	}

	session := &internal.GameSession{
		RoomID:       roomID,
		Players:      make([]*internal.Player, 0, len(players)),
		TotalRounds:  totalRounds,
		TimerSeconds: timerSeconds,
		Difficulty:   difficulty,
		Phase:        internal.PhaseWaiting,
		RoundStats:   make([]internal.RoundStats, 0, totalRounds),
		Scores:       make(map[string]int, len(players)),
		TeamOf:       make(map[string]string, len(players)),
	}
	session.ResetRoundState()

	teams := make(map[string]struct{})
	for _, p := range players {
		if p == nil || p.UserID == "" {
			return nil, fmt.Errorf("%w: player without id", ErrNotInGame)
		}
		if _, dup := session.Scores[p.UserID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.UserID)
		}
		session.Players = append(session.Players, &internal.Player{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			SocketID:    p.SocketID,
			Team:        p.Team,
		})
		session.Scores[p.UserID] = 0
		session.TeamOf[p.UserID] = p.Team
		teams[p.Team] = struct{}{}
	}
	if len(teams) < internal.MinTeamsToStart {
		return nil, fmt.Errorf("%w: have %d", ErrNotEnoughTeams, len(teams))
	}

	s.mu.Lock()
	s.sessions[roomID] = session
	s.mu.Unlock()

	return session, nil
}

func (s *SessionStore) Get(roomID string) (*internal.GameSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[roomID]
	return session, ok
}

// Remove only deletes the entry if it still points at session, so a stale
// teardown cannot drop a newer game. A nil session removes unconditionally.
func (s *SessionStore) Remove(roomID string, session *internal.GameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.sessions[roomID]; ok && (session == nil || current == session) {
		delete(s.sessions, roomID)
	}
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
