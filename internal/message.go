package internal

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Envelope is the untyped form handed to broadcasters.
type Envelope = Message[any]

func NewEnvelope(msgType string, data any) Envelope {
	return Envelope{Type: msgType, Data: data}
}

// Inbound message types.
const (
	MsgStartGame    = "start_game"
	MsgSubmitAnswer = "submit_answer"
	MsgGuessMessage = "guess_message"
	MsgNextRound    = "next_round"
	MsgGetState     = "get_state"
	MsgGetPlayers   = "get_players"
	MsgDraw         = "draw"
	MsgClearCanvas  = "clear_canvas"
)

// Outbound message types.
const (
	EventGameStarted     = "game_started"
	EventDrawerChanged   = "drawer_changed"
	EventRoundStarted    = "round_started"
	EventTimerTick       = "timer_tick"
	EventNewPrompt       = "new_prompt"
	EventPromptHint      = "prompt_hint"
	EventAnswerAccepted  = "answer_accepted"
	EventAnswerRejected  = "answer_rejected"
	EventCorrectAnswer   = "correct_answer"
	EventGuessMessage    = "guess_message"
	EventPlayersUpdate   = "players_update"
	EventGameEnded       = "game_ended"
	EventGameError       = "game_error"
	EventPresenceChanged = "presence_changed"
	EventStateSync       = "state_sync"
	EventCanvasCleared   = "canvas_cleared"
	EventError           = "error"
)

type StartGameData struct {
	TotalRounds  int    `json:"total_rounds"`
	RoundSeconds int    `json:"round_seconds"`
	Difficulty   string `json:"difficulty"`
}

type NextRoundData struct {
	Round int `json:"round,omitempty"`
}

type GameStartedData struct {
	RoomID       string           `json:"room_id"`
	TotalRounds  int              `json:"total_rounds"`
	RoundSeconds int              `json:"round_seconds"`
	Difficulty   Difficulty       `json:"difficulty"`
	Players      []PlayerSnapshot `json:"players"`
}

type DrawerInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Team     string `json:"team,omitempty"`
}

type RoundStartedData struct {
	RoundNumber   int        `json:"round_number"`
	TotalRounds   int        `json:"total_rounds"`
	CurrentDrawer DrawerInfo `json:"current_drawer"`
	RoundSeconds  int        `json:"round_seconds"`
}

type DrawerChangedData struct {
	DrawerID string `json:"drawer_id"`
	Username string `json:"username"`
	Team     string `json:"team"`
}

type TimerTickData struct {
	SecondsLeft int `json:"seconds_left"`
	RoundNumber int `json:"round_number"`
}

type PromptData struct {
	RoomID   string `json:"room_id"`
	Word     string `json:"word"`
	Hint     string `json:"hint"`
	ImageRef string `json:"image_ref,omitempty"`
}

type MaskedPromptData struct {
	RoomID     string `json:"room_id"`
	MaskedWord string `json:"masked_word"`
	Hint       string `json:"hint"`
}

type AnswerAcceptedData struct {
	Correct   bool `json:"correct"`
	Duplicate bool `json:"duplicate,omitempty"`
	Points    int  `json:"points"`
	Score     int  `json:"score"`
}

type AnswerRejectedData struct {
	Reason string `json:"reason"`
}

type CorrectAnswerData struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Position int    `json:"position"`
}

type GuessMessageData struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

type PlayersUpdateData struct {
	RoomID  string           `json:"room_id"`
	Players []PlayerSnapshot `json:"players"`
}

type PresenceData struct {
	PlayerID  string `json:"player_id"`
	Username  string `json:"username"`
	Team      string `json:"team"`
	Connected bool   `json:"connected"`
	Members   int    `json:"members"`
}

type GameErrorData struct {
	RoomID  string `json:"room_id"`
	Message string `json:"message"`
}

type CanvasClearedData struct {
	ClearedBy string `json:"cleared_by"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// GameStateData is the read-only view returned by get_state and state_sync.
type GameStateData struct {
	RoomID        string           `json:"room_id"`
	Phase         GamePhase        `json:"phase"`
	RoundNumber   int              `json:"round_number"`
	TotalRounds   int              `json:"total_rounds"`
	CurrentDrawer *DrawerInfo      `json:"current_drawer,omitempty"`
	SecondsLeft   int              `json:"seconds_left"`
	Players       []PlayerSnapshot `json:"players"`
	Scores        map[string]int   `json:"scores"`
	MaskedWord    string           `json:"masked_word,omitempty"`
	Hint          string           `json:"hint,omitempty"`
	Word          string           `json:"word,omitempty"`
}

type GameResultData struct {
	PlayerID    string `json:"player_id"`
	Username    string `json:"username"`
	Team        string `json:"team"`
	Score       int    `json:"score"`
	Position    int    `json:"position"`
	TimeToGuess int64  `json:"time_to_guess_ms,omitempty"`
}

type TeamResult struct {
	Team   string `json:"team"`
	Score  int    `json:"score"`
	Winner bool   `json:"winner"`
}

type FinalResults struct {
	RoomID       string           `json:"room_id"`
	Leaderboard  []GameResultData `json:"leaderboard"`
	Teams        []TeamResult     `json:"teams"`
	MVP          *GameResultData  `json:"mvp,omitempty"`
	FastestGuess *GameResultData  `json:"fastest_guess,omitempty"`
	RoundsPlayed int              `json:"rounds_played"`
	TotalPlayers int              `json:"total_players"`
}
