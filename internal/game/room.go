package game

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/skribblr-teams/internal"
)

// =============================================================================
// ROOM WORKER
// =============================================================================

// roomWorker owns one room's session. Only the loop goroutine touches session;
// everything else posts closures to inbox.
type roomWorker struct {
	roomID string
	engine *Engine

	session *internal.GameSession

	inbox     chan func()
	done      chan struct{}
	stopping  bool
	closeOnce sync.Once

	// advancing is set from the moment an advance is requested until it has
	// been applied, so competing triggers collapse into one.
	advancing atomic.Bool
	drawerID  atomic.Value
}

func newRoomWorker(e *Engine, roomID string) *roomWorker {
	w := &roomWorker{
		roomID: roomID,
		engine: e,
		inbox:  make(chan func(), e.opts.InboxSize),
		done:   make(chan struct{}),
	}
	w.drawerID.Store("")
	return w
}

func (w *roomWorker) loop() {
	log.Debug().Str("room", w.roomID).Msg("[RoomWorker] started")
	for fn := range w.inbox {
		w.safeRun(fn)
		if w.stopping {
			w.finish()
			return
		}
	}
}

// safeRun turns a panic into a room-scoped failure so other rooms keep going.
func (w *roomWorker) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("room", w.roomID).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("[RoomWorker] recovered from panic")
			w.fail(fmt.Errorf("%w: panic: %v", ErrCorruptSession, r))
		}
	}()
	fn()
}

func (w *roomWorker) closed() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// do runs fn on the worker and waits for its result.
func (w *roomWorker) do(ctx context.Context, fn func() error) error {
	reply := make(chan error, 1)
	job := func() { reply <- fn() }

	select {
	case w.inbox <- job:
	case <-w.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-w.done:
		// The job may have been the one that closed the room.
		select {
		case err := <-reply:
			return err
		default:
			return ErrRoomClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestAdvance is the entry point for triggers outside the worker: timer
// expiry and the host override. It reports whether the request was queued.
func (w *roomWorker) requestAdvance(round int, cause internal.RoundEndCause) bool {
	if !w.advancing.CompareAndSwap(false, true) {
		log.Debug().Str("room", w.roomID).Int("round", round).Str("cause", string(cause)).Msg("[Advance] dropped, already advancing")
		return false
	}
	select {
	case w.inbox <- func() { w.advance(round, cause) }:
		return true
	case <-w.done:
		w.advancing.Store(false)
		return false
	}
}

// advanceInline is used when the worker itself decides the round is over.
func (w *roomWorker) advanceInline(round int, cause internal.RoundEndCause) {
	if !w.advancing.CompareAndSwap(false, true) {
		log.Debug().Str("room", w.roomID).Int("round", round).Str("cause", string(cause)).Msg("[Advance] dropped, already advancing")
		return
	}
	w.advance(round, cause)
}

// teardown removes the session and stops the timer. The worker closes once
// the current job has replied. It must run on the worker.
func (w *roomWorker) teardown() {
	w.engine.timers.Cancel(w.roomID)
	w.engine.store.Remove(w.roomID, w.session)
	w.session = nil
	w.drawerID.Store("")
	w.stopping = true
	w.engine.tornDown(w.roomID)
}

func (w *roomWorker) finish() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.engine.dropWorker(w)
		log.Debug().Str("room", w.roomID).Msg("[RoomWorker] stopped")
	})
}

// fail is fatal for this room only.
func (w *roomWorker) fail(err error) {
	log.Error().Err(err).Str("room", w.roomID).Msg("[RoomWorker] game aborted")
	if w.session != nil {
		w.emit(internal.EventGameError, internal.GameErrorData{
			RoomID:  w.roomID,
			Message: "the game hit an unexpected error and was stopped",
		})
	}
	w.teardown()
}

func (w *roomWorker) emit(msgType string, data any) {
	w.engine.emitter.Broadcast(w.roomID, internal.NewEnvelope(msgType, data))
}

func (w *roomWorker) emitExcept(exceptID, msgType string, data any) {
	w.engine.emitter.BroadcastExcept(w.roomID, exceptID, internal.NewEnvelope(msgType, data))
}

func (w *roomWorker) sendTo(playerID, msgType string, data any) {
	w.engine.emitter.SendTo(w.roomID, playerID, internal.NewEnvelope(msgType, data))
}
