package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-teams/internal"
	"github.com/scythe504/skribblr-teams/internal/flashcard"
)

// Emitter delivers events to room members. Implementations must be safe for
// concurrent use and must not block on slow clients.
type Emitter interface {
	Broadcast(roomID string, msg internal.Envelope)
	BroadcastExcept(roomID, exceptPlayerID string, msg internal.Envelope)
	SendTo(roomID, playerID string, msg internal.Envelope)
}

// Presence reports whether a player currently holds a live connection.
type Presence interface {
	IsConnected(roomID, playerID string) bool
}

type Options struct {
	PointsPerCorrect    int
	DefaultRounds       int
	MaxRounds           int
	DefaultRoundSeconds int
	MaxRoundSeconds     int
	FlashcardTimeout    time.Duration
	InboxSize           int
	Presence            Presence
	Now                 func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PointsPerCorrect <= 0 {
		o.PointsPerCorrect = internal.DefaultPointsPerCorrect
	}
	if o.DefaultRounds <= 0 {
		o.DefaultRounds = internal.DefaultTotalRounds
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = 20
	}
	if o.DefaultRoundSeconds <= 0 {
		o.DefaultRoundSeconds = internal.DefaultRoundSeconds
	}
	if o.MaxRoundSeconds <= 0 {
		o.MaxRoundSeconds = 300
	}
	if o.FlashcardTimeout <= 0 {
		o.FlashcardTimeout = 5 * time.Second
	}
	if o.InboxSize <= 0 {
		o.InboxSize = 64
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Engine runs one worker goroutine per room. Every session mutation for a
// room happens on that worker, so rooms never contend with each other.
type Engine struct {
	opts    Options
	store   *SessionStore
	timers  *TimerRegistry
	cards   flashcard.Supplier
	emitter Emitter

	mu         sync.Mutex
	workers    map[string]*roomWorker
	onTeardown func(roomID string)
}

func NewEngine(store *SessionStore, timers *TimerRegistry, cards flashcard.Supplier, emitter Emitter, opts Options) *Engine {
	if store == nil {
		store = NewSessionStore()
	}
	if timers == nil {
		timers = NewTimerRegistry(nil)
	}
	return &Engine{
		opts:    opts.withDefaults(),
		store:   store,
		timers:  timers,
		cards:   cards,
		emitter: emitter,
		workers: make(map[string]*roomWorker),
	}
}

type StartRequest struct {
	RoomID       string
	Players      []*internal.Player
	TotalRounds  int
	RoundSeconds int
	Difficulty   string
}

// resolve fills defaults and bounds-checks the host's settings.
func (e *Engine) resolve(req StartRequest) (StartRequest, internal.Difficulty, error) {
	if req.RoomID == "" {
		return req, "", ErrMissingRoomID
	}
	if req.TotalRounds == 0 {
		req.TotalRounds = e.opts.DefaultRounds
	}
	if req.RoundSeconds == 0 {
		req.RoundSeconds = e.opts.DefaultRoundSeconds
	}
	if req.TotalRounds < 1 || req.TotalRounds > e.opts.MaxRounds {
		return req, "", ErrInvalidRounds
	}
	if req.RoundSeconds < 1 || req.RoundSeconds > e.opts.MaxRoundSeconds {
		return req, "", ErrInvalidDuration
	}
	difficulty, ok := internal.ParseDifficulty(req.Difficulty)
	if !ok {
		return req, "", ErrInvalidDifficulty
	}
	return req, difficulty, nil
}

// StartGame creates the room's session and seeds round one. It fails with
// ErrGameInProgress while an earlier game is still running.
func (e *Engine) StartGame(ctx context.Context, req StartRequest) (internal.GameStateData, error) {
	req, difficulty, err := e.resolve(req)
	if err != nil {
		return internal.GameStateData{}, err
	}

	var state internal.GameStateData
	for attempt := 0; attempt < 2; attempt++ {
		w := e.worker(req.RoomID, true)
		err = w.do(ctx, func() error {
			var startErr error
			state, startErr = w.start(req, difficulty)
			return startErr
		})
		if !errors.Is(err, ErrRoomClosed) {
			break
		}
	}
	return state, err
}

// SubmitAnswer scores a guess and, when it completes the round, advances
// before returning.
func (e *Engine) SubmitAnswer(ctx context.Context, roomID, playerID, text string) (SubmitResult, error) {
	w := e.worker(roomID, false)
	if w == nil {
		return SubmitResult{}, ErrNoSession
	}
	var res SubmitResult
	err := w.do(ctx, func() error {
		var submitErr error
		res, submitErr = w.submit(playerID, text)
		return submitErr
	})
	return res, gone(err)
}

// NextRound is the host override. round names the round to end; zero means
// whichever round is current when the request is processed. A request made
// while another advance is pending is dropped with ErrAdvanceInFlight.
func (e *Engine) NextRound(ctx context.Context, roomID string, round int) error {
	w := e.worker(roomID, false)
	if w == nil {
		return ErrNoSession
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !w.requestAdvance(round, internal.EndedByHost) {
		return ErrAdvanceInFlight
	}
	return nil
}

// State is the read-only view for viewerID. The word is only filled in for
// the current drawer.
func (e *Engine) State(ctx context.Context, roomID, viewerID string) (internal.GameStateData, error) {
	w := e.worker(roomID, false)
	if w == nil {
		return internal.GameStateData{}, ErrNoSession
	}
	var state internal.GameStateData
	err := w.do(ctx, func() error {
		if w.session == nil {
			return ErrNoSession
		}
		state = w.state(viewerID)
		return nil
	})
	return state, gone(err)
}

func (e *Engine) Players(ctx context.Context, roomID string) ([]internal.PlayerSnapshot, error) {
	state, err := e.State(ctx, roomID, "")
	if err != nil {
		return nil, err
	}
	return state.Players, nil
}

// Resync privately replays the current state to a reconnected player, plus
// the prompt when they are drawing. The session itself is not touched.
func (e *Engine) Resync(ctx context.Context, roomID, playerID string) error {
	w := e.worker(roomID, false)
	if w == nil {
		return ErrNoSession
	}
	return gone(w.do(ctx, func() error {
		return w.resync(playerID)
	}))
}

// CloseRoom tears the room's game down without results, e.g. when its last
// member has left.
func (e *Engine) CloseRoom(ctx context.Context, roomID string) error {
	w := e.worker(roomID, false)
	if w == nil {
		return nil
	}
	err := w.do(ctx, func() error {
		log.Info().Str("room", roomID).Msg("[CloseRoom] room emptied, tearing game down")
		w.teardown()
		return nil
	})
	if errors.Is(err, ErrRoomClosed) {
		return nil
	}
	return err
}

// IsDrawer answers without queueing behind the room worker, so the drawing
// relay stays cheap.
func (e *Engine) IsDrawer(roomID, playerID string) bool {
	w := e.worker(roomID, false)
	if w == nil {
		return false
	}
	id, _ := w.drawerID.Load().(string)
	return id != "" && id == playerID
}

// OnTeardown registers fn to run after a room's game is removed, whether it
// finished, failed or was closed. fn runs on the room worker and must not call
// back into the engine.
func (e *Engine) OnTeardown(fn func(roomID string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTeardown = fn
}

func (e *Engine) tornDown(roomID string) {
	e.mu.Lock()
	fn := e.onTeardown
	e.mu.Unlock()
	if fn != nil {
		fn(roomID)
	}
}

func (e *Engine) HasGame(roomID string) bool {
	_, ok := e.store.Get(roomID)
	return ok
}

// Shutdown closes every room worker and stops their timers.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	workers := make([]*roomWorker, 0, len(e.workers))
	for _, w := range e.workers {
		workers = append(workers, w)
	}
	e.mu.Unlock()

	for _, w := range workers {
		if err := w.do(ctx, func() error { w.teardown(); return nil }); err != nil && !errors.Is(err, ErrRoomClosed) {
			log.Warn().Err(err).Str("room", w.roomID).Msg("[Shutdown] room did not close cleanly")
		}
	}
	e.timers.CancelAll()
}

func (e *Engine) worker(roomID string, create bool) *roomWorker {
	e.mu.Lock()
	defer e.mu.Unlock()

	if w, ok := e.workers[roomID]; ok && !w.closed() {
		return w
	}
	if !create {
		return nil
	}
	w := newRoomWorker(e, roomID)
	e.workers[roomID] = w
	go w.loop()
	return w
}

func (e *Engine) dropWorker(w *roomWorker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.workers[w.roomID] == w {
		delete(e.workers, w.roomID)
	}
}

func (e *Engine) connected(roomID string) func(string) bool {
	if e.opts.Presence == nil {
		return nil
	}
	return func(playerID string) bool {
		return e.opts.Presence.IsConnected(roomID, playerID)
	}
}

// gone reports a room that closed mid-request as having no game.
func gone(err error) error {
	if errors.Is(err, ErrRoomClosed) {
		return ErrNoSession
	}
	return err
}
