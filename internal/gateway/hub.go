package gateway

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-teams/internal"
)

const (
	TeamRed  = "red"
	TeamBlue = "blue"

	MaxPlayersPerRoom = 8
)

var (
	ErrRoomFull   = errors.New("room is full")
	ErrBadTeam    = errors.New("unknown team")
	ErrMissingIDs = errors.New("room id and player id are required")
)

type member struct {
	id       string
	username string
	team     string
	client   *Client
}

type room struct {
	id      string
	members []*member
}

func (r *room) find(playerID string) *member {
	for _, m := range r.members {
		if m.id == playerID {
			return m
		}
	}
	return nil
}

// prune drops members without a connection and reports how many went.
func (r *room) prune() int {
	before := len(r.members)
	kept := r.members[:0]
	for _, m := range r.members {
		if m.client != nil {
			kept = append(kept, m)
		}
	}
	clear(r.members[len(kept):])
	r.members = kept
	return before - len(kept)
}

func (r *room) connected() int {
	n := 0
	for _, m := range r.members {
		if m.client != nil {
			n++
		}
	}
	return n
}

// Hub tracks room membership and fans events out to live connections. It is
// the engine's Emitter and Presence.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room

	// keepDisconnected reports whether a leaving player should stay listed,
	// which is the case while their room has a game running.
	keepDisconnected func(roomID string) bool
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

// KeepWhile sets the check consulted when a player disconnects.
func (h *Hub) KeepWhile(fn func(roomID string) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keepDisconnected = fn
}

type JoinResult struct {
	PlayerID    string
	Username    string
	Team        string
	Reconnected bool
	Members     int
	// Replaced is the connection that this join superseded, if any.
	Replaced *Client
}

// Join adds c to the room, or swaps it in for an earlier connection that used
// the same player id. team may be empty to auto-balance. Disconnected members
// only hold a seat while their room has a game running.
func (h *Hub) Join(roomID, playerID, username, team string, c *Client) (JoinResult, error) {
	if roomID == "" || playerID == "" {
		return JoinResult{}, ErrMissingIDs
	}
	if team != "" && team != TeamRed && team != TeamBlue {
		return JoinResult{}, ErrBadTeam
	}
	keep := h.keeping(roomID)

	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		r = &room{id: roomID}
		h.rooms[roomID] = r
	}

	if m := r.find(playerID); m != nil {
		prev := m.client
		m.client = c
		if username != "" {
			m.username = username
		}
		return JoinResult{
			PlayerID:    m.id,
			Username:    m.username,
			Team:        m.team,
			Reconnected: true,
			Members:     r.connected(),
			Replaced:    prev,
		}, nil
	}

	if !keep {
		r.prune()
	}
	if len(r.members) >= MaxPlayersPerRoom {
		return JoinResult{}, ErrRoomFull
	}
	if team == "" {
		team = smallerTeam(r)
	}
	m := &member{id: playerID, username: username, team: team, client: c}
	r.members = append(r.members, m)

	return JoinResult{
		PlayerID: m.id,
		Username: m.username,
		Team:     m.team,
		Members:  r.connected(),
	}, nil
}

func smallerTeam(r *room) string {
	red, blue := 0, 0
	for _, m := range r.members {
		switch m.team {
		case TeamRed:
			red++
		case TeamBlue:
			blue++
		}
	}
	if blue < red {
		return TeamBlue
	}
	return TeamRed
}

type LeaveResult struct {
	Username string
	Team     string
	Members  int
	// Stale is set when c had already been replaced by a newer connection.
	Stale bool
	// Emptied is set when nobody is connected to the room anymore.
	Emptied bool
}

// Leave detaches c. The member stays listed as disconnected while their room
// has a game running; otherwise they are dropped.
func (h *Hub) Leave(roomID, playerID string, c *Client) LeaveResult {
	keep := h.keeping(roomID)

	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		return LeaveResult{Stale: true}
	}
	m := r.find(playerID)
	if m == nil || m.client != c {
		return LeaveResult{Stale: true}
	}

	res := LeaveResult{Username: m.username, Team: m.team}
	m.client = nil
	if !keep {
		r.members = removeMember(r.members, playerID)
	}
	res.Members = r.connected()
	if res.Members == 0 {
		delete(h.rooms, roomID)
		res.Emptied = true
	}
	return res
}

// keeping asks the KeepWhile check outside the hub lock.
func (h *Hub) keeping(roomID string) bool {
	h.mu.RLock()
	keepWhile := h.keepDisconnected
	h.mu.RUnlock()
	return keepWhile != nil && keepWhile(roomID)
}

// Prune forgets members who dropped out while a game was running. The engine
// calls it once the room's game is torn down.
func (h *Hub) Prune(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		return
	}
	if n := r.prune(); n > 0 {
		log.Debug().Str("room", roomID).Int("pruned", n).Msg("[Prune] dropped disconnected members")
	}
	if len(r.members) == 0 {
		delete(h.rooms, roomID)
	}
}

func removeMember(members []*member, playerID string) []*member {
	out := members[:0]
	for _, m := range members {
		if m.id != playerID {
			out = append(out, m)
		}
	}
	return out
}

// Host is the earliest-joined member still connected.
func (h *Hub) Host(roomID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[roomID]
	if !ok {
		return ""
	}
	for _, m := range r.members {
		if m.client != nil {
			return m.id
		}
	}
	return ""
}

// Players lists the room's connected members in join order, ready to seed a
// game.
func (h *Hub) Players(roomID string) []*internal.Player {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[roomID]
	if !ok {
		return nil
	}
	players := make([]*internal.Player, 0, len(r.members))
	for _, m := range r.members {
		if m.client == nil {
			continue
		}
		players = append(players, &internal.Player{
			UserID:      m.id,
			DisplayName: m.username,
			SocketID:    m.client.id,
			Team:        m.team,
		})
	}
	return players
}

// Roster is the lobby view used when no game is running.
func (h *Hub) Roster(roomID string) []internal.PlayerSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[roomID]
	if !ok {
		return nil
	}
	roster := make([]internal.PlayerSnapshot, 0, len(r.members))
	for _, m := range r.members {
		roster = append(roster, internal.PlayerSnapshot{
			ID:          m.id,
			Username:    m.username,
			Team:        m.team,
			IsConnected: m.client != nil,
		})
	}
	return roster
}

func (h *Hub) HasRoom(roomID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[roomID]
	return ok
}

func (h *Hub) IsConnected(roomID, playerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[roomID]
	if !ok {
		return false
	}
	m := r.find(playerID)
	return m != nil && m.client != nil
}

// =============================================================================
// BROADCASTING & MESSAGING
// =============================================================================

func (h *Hub) Broadcast(roomID string, msg internal.Envelope) {
	h.fanOut(roomID, "", msg)
}

func (h *Hub) BroadcastExcept(roomID, exceptPlayerID string, msg internal.Envelope) {
	h.fanOut(roomID, exceptPlayerID, msg)
}

func (h *Hub) SendTo(roomID, playerID string, msg internal.Envelope) {
	h.mu.RLock()
	var target *Client
	if r, ok := h.rooms[roomID]; ok {
		if m := r.find(playerID); m != nil {
			target = m.client
		}
	}
	h.mu.RUnlock()

	if target == nil {
		log.Debug().Str("room", roomID).Str("player", playerID).Str("type", msg.Type).Msg("[SendTo] player not connected")
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("[SendTo] marshal failed")
		return
	}
	target.enqueue(data)
}

func (h *Hub) fanOut(roomID, exceptPlayerID string, msg internal.Envelope) {
	h.mu.RLock()
	targets := make([]*Client, 0, MaxPlayersPerRoom)
	if r, ok := h.rooms[roomID]; ok {
		for _, m := range r.members {
			if m.client != nil && m.id != exceptPlayerID {
				targets = append(targets, m.client)
			}
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", msg.Type).Msg("[Broadcast] marshal failed")
		return
	}

	sent := 0
	for _, c := range targets {
		if c.enqueue(data) {
			sent++
		}
	}
	if msg.Type != internal.EventTimerTick {
		log.Debug().Str("room", roomID).Str("type", msg.Type).Int("sent", sent).Int("targets", len(targets)).Msg("[Broadcast]")
	}
}
