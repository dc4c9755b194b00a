package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/scythe504/skribblr-teams/internal"
	"github.com/scythe504/skribblr-teams/internal/game"
	"github.com/scythe504/skribblr-teams/internal/utils"
)

const requestTimeout = 5 * time.Second

type HandlerOptions struct {
	AllowedOrigins []string
	MessageRate    float64
	MessageBurst   int
}

// Handler upgrades /ws/{roomId} and routes client messages to the engine.
type Handler struct {
	hub      *Hub
	engine   *game.Engine
	upgrader websocket.Upgrader
	rate     rate.Limit
	burst    int
}

func NewHandler(hub *Hub, engine *game.Engine, opts HandlerOptions) *Handler {
	if opts.MessageRate <= 0 {
		opts.MessageRate = 5
	}
	if opts.MessageBurst <= 0 {
		opts.MessageBurst = 10
	}
	hub.KeepWhile(engine.HasGame)
	engine.OnTeardown(hub.Prune)
	return &Handler{
		hub:    hub,
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		rate:  rate.Limit(opts.MessageRate),
		burst: opts.MessageBurst,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.Contains(allowed, origin) || slices.Contains(allowed, u.Host)
	}
}

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

// HandleWebSocket joins the caller to a room and serves their connection
// until it drops.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// 1. Identify the room and player
	roomID := mux.Vars(r)["roomId"]
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	username := strings.TrimSpace(q.Get("username"))
	if username == "" {
		username = "Anonymous"
	}
	playerID := strings.TrimSpace(q.Get("player_id"))
	if playerID == "" {
		playerID = utils.GenerateID()
	}
	team := strings.ToLower(strings.TrimSpace(q.Get("team")))
	if team != "" && team != TeamRed && team != TeamBlue {
		http.Error(w, ErrBadTeam.Error(), http.StatusBadRequest)
		return
	}
	width, _ := strconv.Atoi(q.Get("w"))
	height, _ := strconv.Atoi(q.Get("h"))

	// 2. Upgrade
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("[HandleWebSocket] upgrade failed")
		return
	}

	client := newClient(utils.GenerateID(), conn, rate.NewLimiter(h.rate, h.burst))
	client.roomID = roomID
	client.playerID = playerID
	client.canvasWidth, client.canvasHeight = width, height

	// 3. Join the room
	joined, err := h.hub.Join(roomID, playerID, username, team, client)
	if err != nil {
		log.Info().Err(err).Str("room", roomID).Str("player", playerID).Msg("[HandleWebSocket] join refused")
		_ = conn.WriteJSON(internal.NewEnvelope(internal.EventError, internal.ErrorData{Message: err.Error()}))
		_ = conn.Close()
		return
	}
	go client.writePump()
	if joined.Replaced != nil {
		joined.Replaced.Close()
	}

	log.Info().
		Str("room", roomID).
		Str("player", playerID).
		Str("team", joined.Team).
		Bool("reconnected", joined.Reconnected).
		Msg("[HandleWebSocket] player joined")

	h.hub.Broadcast(roomID, internal.NewEnvelope(internal.EventPresenceChanged, internal.PresenceData{
		PlayerID:  playerID,
		Username:  joined.Username,
		Team:      joined.Team,
		Connected: true,
		Members:   joined.Members,
	}))
	h.catchUp(client)

	// 4. Serve until the socket drops
	client.readPump(func(raw []byte) { h.handleMessage(client, raw) })
	h.disconnect(client)
}

// catchUp brings a mid-game joiner up to date.
func (h *Handler) catchUp(c *Client) {
	if !h.engine.HasGame(c.roomID) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	err := h.engine.Resync(ctx, c.roomID, c.playerID)
	if errors.Is(err, game.ErrNotInGame) {
		// Joined after the start: they watch, so send the public view.
		state, stateErr := h.engine.State(ctx, c.roomID, c.playerID)
		if stateErr == nil {
			h.reply(c, internal.EventStateSync, state)
		}
		return
	}
	if err != nil && !errors.Is(err, game.ErrNoSession) {
		log.Warn().Err(err).Str("room", c.roomID).Str("player", c.playerID).Msg("[HandleWebSocket] resync failed")
	}
}

func (h *Handler) disconnect(c *Client) {
	c.Close()

	left := h.hub.Leave(c.roomID, c.playerID, c)
	if left.Stale {
		return
	}
	log.Info().Str("room", c.roomID).Str("player", c.playerID).Int("members", left.Members).Msg("[HandleWebSocket] player left")

	h.hub.Broadcast(c.roomID, internal.NewEnvelope(internal.EventPresenceChanged, internal.PresenceData{
		PlayerID:  c.playerID,
		Username:  left.Username,
		Team:      left.Team,
		Connected: false,
		Members:   left.Members,
	}))

	if left.Emptied {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := h.engine.CloseRoom(ctx, c.roomID); err != nil {
			log.Warn().Err(err).Str("room", c.roomID).Msg("[HandleWebSocket] closing empty room failed")
		}
	}
}

// =============================================================================
// MESSAGE ROUTING
// =============================================================================

func (h *Handler) handleMessage(c *Client, raw []byte) {
	var msg internal.Message[json.RawMessage]
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Debug().Err(err).Str("room", c.roomID).Str("player", c.playerID).Msg("[HandleMessage] malformed message")
		h.replyError(c, "malformed message")
		return
	}

	// Strokes arrive in bursts while drawing and are not rate limited.
	if msg.Type != internal.MsgDraw && !c.allow() {
		h.replyError(c, "too many messages, slow down")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	switch msg.Type {
	case internal.MsgStartGame:
		h.handleStartGame(ctx, c, msg.Data)
	case internal.MsgSubmitAnswer, internal.MsgGuessMessage:
		h.handleGuess(ctx, c, msg.Type, msg.Data)
	case internal.MsgNextRound:
		h.handleNextRound(ctx, c, msg.Data)
	case internal.MsgGetState:
		h.handleGetState(ctx, c)
	case internal.MsgGetPlayers:
		h.handleGetPlayers(ctx, c)
	case internal.MsgDraw:
		h.handleDraw(c, msg.Data)
	case internal.MsgClearCanvas:
		h.handleClearCanvas(c)
	default:
		h.replyError(c, "unknown message type: "+msg.Type)
	}
}

func (h *Handler) handleStartGame(ctx context.Context, c *Client, data json.RawMessage) {
	if h.hub.Host(c.roomID) != c.playerID {
		h.replyError(c, "only the host can start the game")
		return
	}
	var req internal.StartGameData
	if !decode(data, &req) {
		h.replyError(c, "malformed start_game data")
		return
	}

	_, err := h.engine.StartGame(ctx, game.StartRequest{
		RoomID:       c.roomID,
		Players:      h.hub.Players(c.roomID),
		TotalRounds:  req.TotalRounds,
		RoundSeconds: req.RoundSeconds,
		Difficulty:   req.Difficulty,
	})
	if err != nil {
		log.Info().Err(err).Str("room", c.roomID).Str("player", c.playerID).Msg("[StartGame] refused")
		h.replyError(c, game.Reason(err))
	}
}

func (h *Handler) handleGuess(ctx context.Context, c *Client, msgType string, data json.RawMessage) {
	text, ok := decodeText(data)
	if !ok {
		h.replyError(c, "malformed guess")
		return
	}

	if msgType == internal.MsgGuessMessage && !h.engine.HasGame(c.roomID) {
		h.lobbyChat(c, text)
		return
	}

	_, err := h.engine.SubmitAnswer(ctx, c.roomID, c.playerID, text)
	if err != nil && !game.IsIneligible(err) {
		h.replyError(c, game.Reason(err))
	}
}

// lobbyChat relays chat while no game is running.
func (h *Handler) lobbyChat(c *Client, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	username := c.playerID
	for _, p := range h.hub.Roster(c.roomID) {
		if p.ID == c.playerID {
			username = p.Username
			break
		}
	}
	h.hub.Broadcast(c.roomID, internal.NewEnvelope(internal.EventGuessMessage, internal.GuessMessageData{
		PlayerID: c.playerID,
		Username: username,
		Text:     text,
	}))
}

func (h *Handler) handleNextRound(ctx context.Context, c *Client, data json.RawMessage) {
	if h.hub.Host(c.roomID) != c.playerID {
		h.replyError(c, "only the host can skip the round")
		return
	}
	var req internal.NextRoundData
	if !decode(data, &req) {
		h.replyError(c, "malformed next_round data")
		return
	}
	if err := h.engine.NextRound(ctx, c.roomID, req.Round); err != nil {
		h.replyError(c, game.Reason(err))
	}
}

func (h *Handler) handleGetState(ctx context.Context, c *Client) {
	state, err := h.engine.State(ctx, c.roomID, c.playerID)
	if errors.Is(err, game.ErrNoSession) {
		state = internal.GameStateData{
			RoomID:  c.roomID,
			Phase:   internal.PhaseWaiting,
			Players: h.hub.Roster(c.roomID),
		}
	} else if err != nil {
		h.replyError(c, game.Reason(err))
		return
	}
	h.reply(c, internal.EventStateSync, state)
}

func (h *Handler) handleGetPlayers(ctx context.Context, c *Client) {
	players, err := h.engine.Players(ctx, c.roomID)
	if errors.Is(err, game.ErrNoSession) {
		players = h.hub.Roster(c.roomID)
	} else if err != nil {
		h.replyError(c, game.Reason(err))
		return
	}
	h.reply(c, internal.EventPlayersUpdate, internal.PlayersUpdateData{RoomID: c.roomID, Players: players})
}

// =============================================================================
// DRAWING RELAY
// =============================================================================

func (h *Handler) handleDraw(c *Client, data json.RawMessage) {
	if !h.engine.IsDrawer(c.roomID, c.playerID) {
		h.replyError(c, "only the drawer can draw")
		return
	}
	var stroke internal.Stroke
	if err := json.Unmarshal(data, &stroke); err != nil {
		h.replyError(c, "malformed stroke")
		return
	}
	if stroke.CanvasWidth <= 0 || stroke.CanvasHeight <= 0 {
		stroke.CanvasWidth, stroke.CanvasHeight = c.canvasWidth, c.canvasHeight
	}
	if !stroke.Normalize() {
		return
	}
	h.hub.BroadcastExcept(c.roomID, c.playerID, internal.NewEnvelope(internal.MsgDraw, stroke))
}

func (h *Handler) handleClearCanvas(c *Client) {
	if !h.engine.IsDrawer(c.roomID, c.playerID) {
		h.replyError(c, "only the drawer can clear the canvas")
		return
	}
	h.hub.Broadcast(c.roomID, internal.NewEnvelope(internal.EventCanvasCleared, internal.CanvasClearedData{ClearedBy: c.playerID}))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) reply(c *Client, msgType string, data any) {
	raw, err := json.Marshal(internal.NewEnvelope(msgType, data))
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("[Reply] marshal failed")
		return
	}
	c.enqueue(raw)
}

func (h *Handler) replyError(c *Client, message string) {
	h.reply(c, internal.EventError, internal.ErrorData{Message: message})
}

// decode accepts a missing or null payload as the zero value.
func decode(data json.RawMessage, v any) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true
	}
	return json.Unmarshal(trimmed, v) == nil
}

// decodeText takes a guess sent either as a bare string or as {"text": ...}.
func decodeText(data json.RawMessage) (string, bool) {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return text, true
	}
	var obj struct {
		Text   string `json:"text"`
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", false
	}
	if obj.Text == "" {
		return obj.Answer, true
	}
	return obj.Text, true
}
