package game

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/scythe504/skribblr-teams/internal"
	"github.com/scythe504/skribblr-teams/internal/flashcard"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testRoom = "room-1"

type sent struct {
	Room   string
	To     string
	Except string
	Msg    internal.Envelope
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []sent
}

func (r *recordingEmitter) Broadcast(roomID string, msg internal.Envelope) {
	r.record(sent{Room: roomID, Msg: msg})
}

func (r *recordingEmitter) BroadcastExcept(roomID, exceptID string, msg internal.Envelope) {
	r.record(sent{Room: roomID, Except: exceptID, Msg: msg})
}

func (r *recordingEmitter) SendTo(roomID, playerID string, msg internal.Envelope) {
	r.record(sent{Room: roomID, To: playerID, Msg: msg})
}

func (r *recordingEmitter) record(s sent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recordingEmitter) ofType(msgType string) []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sent
	for _, e := range r.events {
		if e.Msg.Type == msgType {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingEmitter) count(msgType string) int {
	return len(r.ofType(msgType))
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Msg.Type)
	}
	return out
}

// roundsStarted lists round numbers in the order they were announced.
func (r *recordingEmitter) roundsStarted() []int {
	var rounds []int
	for _, e := range r.ofType(internal.EventRoundStarted) {
		rounds = append(rounds, e.Msg.Data.(internal.RoundStartedData).RoundNumber)
	}
	return rounds
}

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

func (m *manualTicker) tick() {
	m.ch <- time.Now()
}

type manualTickers struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (f *manualTickers) NewTicker(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time, 16)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *manualTickers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

func (f *manualTickers) get(t *testing.T, i int) *manualTicker {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Greater(t, len(f.tickers), i, "ticker %d was never created", i)
	return f.tickers[i]
}

type MockSupplier struct {
	mock.Mock
}

func (m *MockSupplier) GetFlashcard(ctx context.Context, difficulty internal.Difficulty) (internal.Flashcard, error) {
	args := m.Called(ctx, difficulty)
	return args.Get(0).(internal.Flashcard), args.Error(1)
}

var appleCard = internal.Flashcard{
	ID:         7,
	Word:       "Apple",
	Hint:       "a fruit",
	Difficulty: internal.DifficultyEasy,
	Variants:   []string{"apples"},
}

func appleSupplier() flashcard.Supplier {
	return flashcard.SupplierFunc(func(context.Context, internal.Difficulty) (internal.Flashcard, error) {
		return appleCard, nil
	})
}

// teamPlayers is the standard roster: A on red, B and C on blue.
func teamPlayers() []*internal.Player {
	return []*internal.Player{
		{UserID: "A", DisplayName: "alice", Team: "red"},
		{UserID: "B", DisplayName: "bob", Team: "blue"},
		{UserID: "C", DisplayName: "carol", Team: "blue"},
	}
}

func newTestSession(t *testing.T, totalRounds int) *internal.GameSession {
	t.Helper()
	s, err := NewSessionStore().Create(testRoom, teamPlayers(), totalRounds, 60, internal.DifficultyEasy)
	require.NoError(t, err)
	return s
}

type testEngine struct {
	*Engine
	emitter *recordingEmitter
	tickers *manualTickers
}

func newTestEngine(t *testing.T, cards flashcard.Supplier) *testEngine {
	t.Helper()
	if cards == nil {
		cards = appleSupplier()
	}
	emitter := &recordingEmitter{}
	tickers := &manualTickers{}
	e := NewEngine(NewSessionStore(), NewTimerRegistry(tickers), cards, emitter, Options{})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		e.Shutdown(ctx)
	})
	return &testEngine{Engine: e, emitter: emitter, tickers: tickers}
}

func (te *testEngine) start(t *testing.T, rounds, seconds int) internal.GameStateData {
	t.Helper()
	state, err := te.StartGame(context.Background(), StartRequest{
		RoomID:       testRoom,
		Players:      teamPlayers(),
		TotalRounds:  rounds,
		RoundSeconds: seconds,
	})
	require.NoError(t, err)
	return state
}

// sync waits until everything queued on the room worker so far has run.
func (te *testEngine) sync(t *testing.T) {
	t.Helper()
	_, _ = te.State(context.Background(), testRoom, "")
}
