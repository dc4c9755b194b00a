package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Ticker is the slice of time.Ticker the round timer needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory lets tests drive countdowns by hand.
type TickerFactory interface {
	NewTicker(d time.Duration) Ticker
}

type wallTicker struct{ t *time.Ticker }

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

type wallTickers struct{}

func (wallTickers) NewTicker(d time.Duration) Ticker {
	return wallTicker{t: time.NewTicker(d)}
}

// WallClock ticks on real time.
var WallClock TickerFactory = wallTickers{}

type roundTimer struct {
	roomID string
	round  int

	mu          sync.Mutex
	secondsLeft int
	active      bool

	cancel context.CancelFunc
}

// stop returns once no tick for this timer can be emitted anymore.
func (t *roundTimer) stop() {
	t.mu.Lock()
	t.active = false
	t.mu.Unlock()
	t.cancel()
}

// TimerRegistry keeps at most one countdown per room.
type TimerRegistry struct {
	mu       sync.Mutex
	timers   map[string]*roundTimer
	tickers  TickerFactory
	interval time.Duration
}

func NewTimerRegistry(tickers TickerFactory) *TimerRegistry {
	if tickers == nil {
		tickers = WallClock
	}
	return &TimerRegistry{
		timers:   make(map[string]*roundTimer),
		tickers:  tickers,
		interval: time.Second,
	}
}

// Start replaces any countdown running for roomID. onTick runs with the new
// remaining seconds on every tick, including the final zero; onExpire runs
// once afterwards, outside the timer's lock.
func (r *TimerRegistry) Start(roomID string, round, seconds int, onTick func(secondsLeft int), onExpire func()) {
	ctx, cancel := context.WithCancel(context.Background())
	t := &roundTimer{
		roomID:      roomID,
		round:       round,
		secondsLeft: seconds,
		active:      true,
		cancel:      cancel,
	}

	r.mu.Lock()
	if prev, ok := r.timers[roomID]; ok {
		prev.stop()
	}
	r.timers[roomID] = t
	ticker := r.tickers.NewTicker(r.interval)
	r.mu.Unlock()

	log.Debug().Str("room", roomID).Int("round", round).Int("seconds", seconds).Msg("[Timer] started")

	go r.run(ctx, t, ticker, onTick, onExpire)
}

func (r *TimerRegistry) run(ctx context.Context, t *roundTimer, ticker Ticker, onTick func(int), onExpire func()) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			t.mu.Lock()
			if !t.active {
				t.mu.Unlock()
				return
			}
			t.secondsLeft--
			left := max(t.secondsLeft, 0)
			if left == 0 {
				t.active = false
			}
			if onTick != nil {
				onTick(left)
			}
			t.mu.Unlock()

			if left == 0 {
				r.forget(t)
				log.Debug().Str("room", t.roomID).Int("round", t.round).Msg("[Timer] expired")
				if onExpire != nil {
					onExpire()
				}
				return
			}
		}
	}
}

func (r *TimerRegistry) forget(t *roundTimer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timers[t.roomID] == t {
		delete(r.timers, t.roomID)
	}
	t.cancel()
}

// Cancel stops the room's countdown. No tick from it is emitted after Cancel
// returns. It reports whether a countdown was running.
func (r *TimerRegistry) Cancel(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.timers[roomID]
	if !ok {
		return false
	}
	delete(r.timers, roomID)
	t.stop()
	log.Debug().Str("room", roomID).Int("round", t.round).Msg("[Timer] cancelled")
	return true
}

func (r *TimerRegistry) SecondsLeft(roomID string) (int, bool) {
	r.mu.Lock()
	t, ok := r.timers[roomID]
	r.mu.Unlock()
	if !ok {
		return 0, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.secondsLeft, t.active
}

func (r *TimerRegistry) Active(roomID string) bool {
	_, ok := r.SecondsLeft(roomID)
	return ok
}

func (r *TimerRegistry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.timers {
		t.stop()
		delete(r.timers, id)
	}
}
